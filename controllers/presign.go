package controllers

import (
	"context"
	"sync"

	"wardrobewiz/models"
	"wardrobewiz/services"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

// URLResolver turns object keys into presigned read URLs through the cache,
// presigning directly when the cache itself fails.
type URLResolver struct {
	Cache   services.URLCacheServiceProvider
	Storage services.AWSServiceProvider
	Bucket  string
}

func (r *URLResolver) URL(ctx context.Context, objectKey string) string {
	if objectKey == "" {
		return ""
	}
	url, err := r.Cache.GetReadURL(ctx, objectKey)
	if err == nil {
		return url
	}
	log.Warn().Err(err).Str("key", objectKey).Msg("url cache failed, presigning directly")
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", "cache_system")
		scope.SetExtra("objectKey", objectKey)
		sentry.CaptureException(err)
	})

	fallbackUrl, fallbackErr := r.Storage.GetPresignedR2FileReadURL(ctx, r.Bucket, objectKey)
	if fallbackErr != nil {
		// the response still goes out, just without this image
		log.Error().Err(fallbackErr).Str("key", objectKey).Msg("direct presign failed")
		sentry.CaptureException(fallbackErr)
		return ""
	}
	return fallbackUrl
}

// URLs resolves keys concurrently, keeping their order.
func (r *URLResolver) URLs(ctx context.Context, keys []string) []string {
	urls := make([]string, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(index int, objectKey string) {
			defer wg.Done()
			urls[index] = r.URL(ctx, objectKey)
		}(i, key)
	}
	wg.Wait()
	return urls
}

func (r *URLResolver) ItemsOut(ctx context.Context, items []models.WardrobeItem) []models.WardrobeItemOut {
	keys := make([]string, 0, len(items)*2)
	for _, item := range items {
		thumb := ""
		if item.ThumbnailKey != nil {
			thumb = *item.ThumbnailKey
		}
		keys = append(keys, item.ImageKey, thumb)
	}
	urls := r.URLs(ctx, keys)

	out := make([]models.WardrobeItemOut, len(items))
	for i, item := range items {
		out[i] = models.WardrobeItemOut{
			ID:              item.ID,
			Name:            item.Name,
			Description:     item.Description,
			Category:        item.Category,
			Colors:          item.Colors,
			Styles:          item.Styles,
			Occasions:       item.Occasions,
			ConfidenceScore: item.ConfidenceScore,
			MimeType:        item.MimeType,
			ImageURL:        urls[i*2],
			ThumbnailURL:    urls[i*2+1],
			ThumbnailStatus: item.ThumbnailStatus,
			CreatedAt:       formatTime(item.CreatedAt),
		}
	}
	return out
}

func (r *URLResolver) OutfitsOut(ctx context.Context, outfits []models.Outfit) []models.OutfitOut {
	out := make([]models.OutfitOut, len(outfits))
	for i, outfit := range outfits {
		keys := make([]string, len(outfit.Items))
		for j, item := range outfit.Items {
			keys[j] = item.ImageKey
		}
		urls := r.URLs(ctx, keys)

		items := make([]models.OutfitItemOut, len(outfit.Items))
		for j, item := range outfit.Items {
			items[j] = models.OutfitItemOut{ItemID: item.ItemID, Reason: item.Reason, Name: item.Name, ImageURL: urls[j]}
		}
		out[i] = models.OutfitOut{
			ID:              outfit.ID,
			Title:           outfit.Title,
			Description:     outfit.Description,
			Items:           items,
			ConfidenceScore: outfit.ConfidenceScore,
			Explanation:     outfit.Explanation,
			CreatedAt:       formatTime(outfit.CreatedAt),
		}
	}
	return out
}

func (r *URLResolver) CollectionOut(ctx context.Context, collection *models.OutfitCollection) models.CollectionOut {
	keys := make([]string, len(collection.Images))
	for i, image := range collection.Images {
		keys[i] = image.ImageKey
	}
	urls := r.URLs(ctx, keys)

	images := make([]models.InspirationImageOut, len(collection.Images))
	for i, image := range collection.Images {
		images[i] = models.InspirationImageOut{
			ID:              image.ID,
			Name:            image.Name,
			Category:        image.Category,
			Colors:          image.Colors,
			Styles:          image.Styles,
			Occasions:       image.Occasions,
			ConfidenceScore: image.ConfidenceScore,
			ImageURL:        urls[i],
		}
	}
	return models.CollectionOut{
		ID:                 collection.ID,
		Name:               collection.Name,
		Description:        collection.Description,
		Prompt:             collection.Prompt,
		Tags:               nonNil(collection.Tags),
		StyleGuide:         collection.StyleGuide,
		SuggestedOccasions: nonNil(collection.SuggestedOccasions),
		ConfidenceScore:    collection.ConfidenceScore,
		Images:             images,
		Outfits:            r.OutfitsOut(ctx, collection.Outfits),
		CreatedAt:          formatTime(collection.CreatedAt),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
