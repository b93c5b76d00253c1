package wardrobe

import (
	"context"
	"errors"
	"fmt"

	"wardrobewiz/models"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// BatchFailure is one file of a batch that did not become an item.
type BatchFailure struct {
	Index    int
	Filename string
	Err      error
}

type BatchResult struct {
	Items    []*models.WardrobeItem
	Failures []BatchFailure
}

// UploadItem analyzes the photo, stores it and creates the item. Nothing is
// stored when the photo is rejected.
func (s *Service) UploadItem(ctx context.Context, session store.Session, upload Upload) (*models.WardrobeItem, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	image, err := s.prepareImage(upload)
	if err != nil {
		return nil, err
	}
	return s.uploadPrepared(ctx, session, image)
}

func (s *Service) uploadPrepared(ctx context.Context, session store.Session, image *preparedImage) (*models.WardrobeItem, error) {
	metadata, err := s.stylistFor(session).ExtractMetadata(ctx, image.data, image.mimeType)
	if err != nil {
		return nil, err
	}

	key := services.ItemObjectKey(session.UserID, uuid.NewString(), image.ext, s.Now())
	if _, err := s.Storage.UploadObject(ctx, s.Bucket, key, image.data, image.mimeType); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	item := &models.WardrobeItem{
		ImageKey:        key,
		MimeType:        image.mimeType,
		Size:            int64(len(image.data)),
		GarmentMetadata: metadata.Garment(),
		ThumbnailStatus: models.ThumbnailPending,
	}
	if err := s.Store.CreateItem(ctx, session, item); err != nil {
		s.deleteObjects(context.WithoutCancel(ctx), []string{key})
		return nil, fmt.Errorf("save item: %w", err)
	}

	task, err := tasks.NewThumbnailTask(item.ID, session.UserID)
	if err != nil {
		sentry.CaptureException(err)
		return item, nil
	}
	s.enqueueMedia(task)
	return item, nil
}

// UploadBatch runs UploadItem for every file concurrently. Created items
// come back in input order, failed files only appear in Failures and the
// returned error wraps ErrBatchFailed.
func (s *Service) UploadBatch(ctx context.Context, session store.Session, uploads []Upload) (*BatchResult, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if len(uploads) == 0 || len(uploads) > s.Limits.MaxBatchSize {
		return nil, fmt.Errorf("%w: a batch holds 1 to %d images, got %d", ErrInvalidInput, s.Limits.MaxBatchSize, len(uploads))
	}

	created := make([]*models.WardrobeItem, len(uploads))
	failures := make([]error, len(uploads))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.Limits.MaxBatchSize)
	for i, upload := range uploads {
		p.Go(func(ctx context.Context) error {
			item, err := s.UploadItem(ctx, session, upload)
			if err != nil {
				failures[i] = err
				return nil
			}
			created[i] = item
			return nil
		})
	}
	_ = p.Wait()

	result := &BatchResult{Items: []*models.WardrobeItem{}}
	var errs []error
	for i := range uploads {
		if failures[i] != nil {
			result.Failures = append(result.Failures, BatchFailure{Index: i, Filename: uploads[i].Filename, Err: failures[i]})
			errs = append(errs, fmt.Errorf("%s: %w", uploads[i].Filename, failures[i]))
			continue
		}
		result.Items = append(result.Items, created[i])
	}
	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", ErrBatchFailed, errors.Join(errs...))
	}
	return result, nil
}

func (s *Service) ListItems(ctx context.Context, session store.Session, query store.ItemQuery) ([]models.WardrobeItem, error) {
	if query.Category != "" && !query.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, query.Category)
	}
	return s.Store.ListItems(ctx, session, query)
}

func (s *Service) GetItem(ctx context.Context, session store.Session, id uint) (*models.WardrobeItem, error) {
	return s.Store.GetItem(ctx, session, id)
}

// DeleteItem removes the item together with its photo and thumbnail.
func (s *Service) DeleteItem(ctx context.Context, session store.Session, id uint) error {
	item, err := s.Store.DeleteItem(ctx, session, id)
	if err != nil {
		return err
	}
	keys := []string{item.ImageKey}
	if item.ThumbnailKey != nil {
		keys = append(keys, *item.ThumbnailKey)
	}
	s.deleteObjects(context.WithoutCancel(ctx), keys)
	return nil
}
