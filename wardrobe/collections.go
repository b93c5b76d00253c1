package wardrobe

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"wardrobewiz/languageutil"
	"wardrobewiz/models"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/stylist"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const maxOutfitTitle = 120

type CollectionInput struct {
	Name        *string
	Description *string
	Prompt      *string
	Images      []Upload
}

func validateCollectionText(name, description *string) error {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > stylist.MaxNameLength {
			return fmt.Errorf("%w: name must be 1 to %d characters", ErrInvalidInput, stylist.MaxNameLength)
		}
	}
	if description != nil && utf8.RuneCountInString(strings.TrimSpace(*description)) > stylist.MaxDescLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, stylist.MaxDescLength)
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

// CreateCollection analyzes and stores every inspiration image, synthesizes
// the collection style and persists everything in one transaction. Any
// failure removes the collection folder, so a collection never exists with
// only part of its images.
func (s *Service) CreateCollection(ctx context.Context, session store.Session, input CollectionInput) (*models.OutfitCollection, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if len(input.Images) > s.Limits.MaxInspirationImages {
		return nil, fmt.Errorf("%w: at most %d inspiration images", ErrInvalidInput, s.Limits.MaxInspirationImages)
	}
	name, description, prompt := nonEmpty(input.Name), nonEmpty(input.Description), nonEmpty(input.Prompt)
	if err := validateCollectionText(name, description); err != nil {
		return nil, err
	}
	prepared := make([]*preparedImage, len(input.Images))
	for i, upload := range input.Images {
		image, err := s.prepareImage(upload)
		if err != nil {
			return nil, err
		}
		prepared[i] = image
	}

	sty := s.stylistFor(session)
	folder := services.CollectionFolder(session.UserID, uuid.NewString())
	uploaded := false
	discard := func() {
		if !uploaded {
			return
		}
		if err := s.Storage.DeleteFolder(context.WithoutCancel(ctx), s.Bucket, folder); err != nil {
			log.Error().Err(err).Str("folder", folder).Msg("abandoned collection folder not removed")
			s.Notifier.Alert("abandoned collection folder", fmt.Sprintf("%s: %v", folder, err))
		}
	}

	images := make([]models.InspirationImage, len(prepared))
	metadata := make([]stylist.ItemMetadata, len(prepared))
	g, gctx := errgroup.WithContext(ctx)
	for i, image := range prepared {
		g.Go(func() error {
			meta, err := sty.ExtractMetadata(gctx, image.data, image.mimeType)
			if err != nil {
				return fmt.Errorf("inspiration image %d: %w", i+1, err)
			}
			key := services.InspirationObjectKey(folder, i, uuid.NewString(), image.ext)
			if _, err := s.Storage.UploadObject(gctx, s.Bucket, key, image.data, image.mimeType); err != nil {
				return fmt.Errorf("upload inspiration image %d: %w", i+1, err)
			}
			metadata[i] = *meta
			images[i] = models.InspirationImage{ImageKey: key, MimeType: image.mimeType, GarmentMetadata: meta.Garment()}
			return nil
		})
	}
	uploaded = len(prepared) > 0
	if err := g.Wait(); err != nil {
		discard()
		return nil, err
	}

	wardrobe, err := s.Store.AllItems(ctx, session)
	if err != nil {
		discard()
		return nil, err
	}
	existing, err := s.Store.ListCollections(ctx, session)
	if err != nil {
		discard()
		return nil, err
	}
	summaries := make([]stylist.CollectionSummary, 0, len(existing))
	for _, c := range existing {
		summaries = append(summaries, stylist.CollectionSummary{Name: c.Name, Description: c.Description, Tags: c.Tags})
	}

	synthesisInput := stylist.SynthesisInput{
		Wardrobe:     inventoryOf(wardrobe),
		Inspirations: metadata,
		Existing:     summaries,
	}
	if prompt != nil {
		synthesisInput.Prompt = *prompt
	}
	style, err := sty.SynthesizeCollection(ctx, synthesisInput)
	if err != nil {
		discard()
		return nil, err
	}

	collection := &models.OutfitCollection{
		Name:               style.Name,
		Description:        style.Description,
		Prompt:             prompt,
		StorageFolder:      folder,
		Tags:               style.Tags,
		StyleGuide:         style.StyleGuide,
		SuggestedOccasions: style.SuggestedOccasions,
		ConfidenceScore:    style.ConfidenceScore,
		Images:             images,
	}
	if name != nil {
		collection.Name = *name
	}
	if description != nil {
		collection.Description = *description
	}
	if err := s.Store.CreateCollection(ctx, session, collection); err != nil {
		discard()
		return nil, fmt.Errorf("save collection: %w", err)
	}
	return collection, nil
}

func (s *Service) ListCollections(ctx context.Context, session store.Session) ([]models.OutfitCollection, error) {
	return s.Store.ListCollections(ctx, session)
}

func (s *Service) GetCollection(ctx context.Context, session store.Session, id uint) (*models.OutfitCollection, error) {
	return s.Store.GetCollection(ctx, session, id)
}

func (s *Service) UpdateCollection(ctx context.Context, session store.Session, id uint, patch store.CollectionPatch) (*models.OutfitCollection, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validateCollectionText(patch.Name, patch.Description); err != nil {
		return nil, err
	}
	return s.Store.UpdateCollection(ctx, session, id, patch)
}

// GenerateOutfit composes an outfit for the collection from the current
// wardrobe and stores it with each item's name and image key.
func (s *Service) GenerateOutfit(ctx context.Context, session store.Session, collectionID uint, title, occasion string) (*models.Outfit, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	occasion = strings.TrimSpace(occasion)
	title = strings.TrimSpace(title)
	if occasion == "" {
		return nil, fmt.Errorf("%w: occasion is required", ErrInvalidInput)
	}
	if title == "" {
		title = occasion
	}
	title = languageutil.Truncate(title, maxOutfitTitle)

	collection, err := s.Store.GetCollection(ctx, session, collectionID)
	if err != nil {
		return nil, err
	}
	items, err := s.Store.AllItems(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: add wardrobe items before generating an outfit", ErrInvalidInput)
	}

	sty := s.stylistFor(session)
	selection, err := sty.ComposeOutfit(ctx, stylist.CompositionInput{
		Style: stylist.CollectionStyle{
			Name:        collection.Name,
			Description: collection.Description,
			StyleGuide:  collection.StyleGuide,
			Tags:        collection.Tags,
		},
		Occasion:  occasion,
		Inventory: inventoryOf(items),
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.WardrobeItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	outfitItems := make([]models.OutfitItem, 0, len(selection.Items))
	for _, selected := range selection.Items {
		item := byID[selected.ItemID]
		outfitItems = append(outfitItems, models.OutfitItem{
			ItemID:   item.ID,
			Reason:   selected.Reason,
			Name:     item.Name,
			ImageKey: item.ImageKey,
		})
	}

	outfit := &models.Outfit{
		Title:           title,
		Description:     occasion,
		Items:           datatypes.JSONSlice[models.OutfitItem](outfitItems),
		ConfidenceScore: selection.ConfidenceScore,
		Explanation:     selection.Explanation,
		ModelName:       sty.Model.String(),
	}
	if err := s.Store.AddOutfit(ctx, session, collection.ID, outfit); err != nil {
		return nil, err
	}
	return outfit, nil
}

func (s *Service) DeleteOutfit(ctx context.Context, session store.Session, collectionID, outfitID uint) error {
	return s.Store.DeleteOutfit(ctx, session, collectionID, outfitID)
}

// DeleteCollection removes every object under the collection folder and
// only deletes the rows once a fresh listing of the folder comes back empty.
func (s *Service) DeleteCollection(ctx context.Context, session store.Session, id uint) error {
	collection, err := s.Store.GetCollection(ctx, session, id)
	if err != nil {
		return err
	}
	folder := collection.StorageFolder
	if folder != "" {
		if err := s.Storage.DeleteFolder(ctx, s.Bucket, folder); err != nil {
			log.Warn().Err(err).Str("folder", folder).Msg("collection folder delete reported errors")
		}
		remaining, err := s.Storage.ListObjects(ctx, s.Bucket, folder)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCascadeIncomplete, err)
		}
		if len(remaining) > 0 {
			s.Notifier.Alert("collection cascade incomplete", fmt.Sprintf("collection %d: %d objects left under %s", id, len(remaining), folder))
			return fmt.Errorf("%w: %d objects left under %s", ErrCascadeIncomplete, len(remaining), folder)
		}
	}
	return s.Store.DeleteCollection(ctx, session, id)
}
