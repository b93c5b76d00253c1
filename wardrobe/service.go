// Package wardrobe orchestrates uploads, collections and outfits on top of
// the stylist, the store and object storage.
package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wardrobewiz/config"
	"wardrobewiz/models"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/stylist"
	"wardrobewiz/tasks"
	"wardrobewiz/telegram"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidInput      = stylist.ErrInvalidInput
	ErrBatchFailed       = errors.New("failed to upload one or more items")
	ErrCascadeIncomplete = errors.New("collection storage could not be fully removed")
)

type Limits struct {
	MaxImageBytes        int64
	MaxBatchSize         int
	MaxInspirationImages int
	MaxImageDimension    int
}

func DefaultLimits() Limits {
	return Limits{
		MaxImageBytes:        5 << 20,
		MaxBatchSize:         10,
		MaxInspirationImages: 6,
		MaxImageDimension:    1920,
	}
}

func LimitsFromConfig(cfg config.Limits) Limits {
	limits := DefaultLimits()
	if cfg.MaxImageBytes > 0 {
		limits.MaxImageBytes = cfg.MaxImageBytes
	}
	if cfg.MaxBatchSize > 0 {
		limits.MaxBatchSize = cfg.MaxBatchSize
	}
	if cfg.MaxInspirationImages > 0 {
		limits.MaxInspirationImages = cfg.MaxInspirationImages
	}
	if cfg.MaxImageDimension > 0 {
		limits.MaxImageDimension = cfg.MaxImageDimension
	}
	return limits
}

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

type Service struct {
	Store    *store.Store
	Stylist  *stylist.Stylist
	Storage  services.AWSServiceProvider
	Bucket   string
	Tasks    tasks.Enqueuer
	Notifier telegram.Notifier
	Limits   Limits
	Now      func() time.Time
}

func NewService(st *store.Store, sty *stylist.Stylist, storage services.AWSServiceProvider, bucket string, enqueuer tasks.Enqueuer, notifier telegram.Notifier, limits Limits) *Service {
	if notifier == nil {
		notifier = telegram.NopNotifier{}
	}
	return &Service{
		Store:    st,
		Stylist:  sty,
		Storage:  storage,
		Bucket:   bucket,
		Tasks:    enqueuer,
		Notifier: notifier,
		Limits:   limits,
		Now:      time.Now,
	}
}

// stylistFor binds invocation records to the session's user.
func (s *Service) stylistFor(session store.Session) *stylist.Stylist {
	return s.Stylist.WithRecorder(&invocationRecorder{store: s.Store, ownerID: session.UserID, notifier: s.Notifier})
}

type preparedImage struct {
	filename string
	data     []byte
	mimeType string
	ext      string
}

// prepareImage validates size and type, then downscales to the configured
// longest side.
func (s *Service) prepareImage(upload Upload) (*preparedImage, error) {
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidInput, upload.Filename)
	}
	if int64(len(upload.Data)) > s.Limits.MaxImageBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, upload.Filename, s.Limits.MaxImageBytes)
	}
	mimeType, _, err := services.DetectImageType(upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	data, mimeType, err := services.Downscale(upload.Data, mimeType, s.Limits.MaxImageDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return &preparedImage{
		filename: upload.Filename,
		data:     data,
		mimeType: mimeType,
		ext:      services.AllowedImageTypes[mimeType],
	}, nil
}

// enqueueMedia never fails the caller, lost thumbnails are picked up by
// the sweep and lost deletes are reported.
func (s *Service) enqueueMedia(task *asynq.Task) {
	if s.Tasks == nil {
		return
	}
	if _, err := tasks.EnqueueMedia(s.Tasks, task); err != nil {
		sentry.CaptureException(err)
		log.Error().Err(err).Str("task", task.Type()).Msg("enqueue failed")
	}
}

// deleteObjects removes keys and schedules a retry for whatever could not
// be removed.
func (s *Service) deleteObjects(ctx context.Context, keys []string) {
	var leftover []string
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Storage.DeleteObject(ctx, s.Bucket, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("object delete failed, scheduling retry")
			leftover = append(leftover, key)
		}
	}
	if len(leftover) == 0 {
		return
	}
	task, err := tasks.NewDeleteObjectsTask(leftover)
	if err != nil {
		sentry.CaptureException(err)
		return
	}
	s.enqueueMedia(task)
}

func requireSession(session store.Session) error {
	if !session.Valid() {
		return store.ErrNoSession
	}
	return nil
}

func inventoryOf(items []models.WardrobeItem) []stylist.InventoryItem {
	inventory := make([]stylist.InventoryItem, 0, len(items))
	for _, item := range items {
		inventory = append(inventory, stylist.InventoryItem{ID: item.ID, Metadata: stylist.MetadataFromGarment(item.GarmentMetadata)})
	}
	return inventory
}
