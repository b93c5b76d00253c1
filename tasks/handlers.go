package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wardrobewiz/models"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/telegram"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	stalePendingAfter = 10 * time.Minute
	sweepBatchSize    = 200
)

type Handlers struct {
	Store    *store.Store
	Storage  services.AWSServiceProvider
	Bucket   string
	Enqueuer Enqueuer
	Notifier telegram.Notifier
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeThumbnail, h.HandleThumbnailTask)
	mux.HandleFunc(TypeDeleteObjects, h.HandleDeleteObjectsTask)
	mux.HandleFunc(TypeThumbnailSweep, h.HandleThumbnailSweepTask)
}

func (h *Handlers) HandleThumbnailTask(ctx context.Context, t *asynq.Task) error {
	var payload ThumbnailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	session := store.Session{UserID: payload.OwnerID}

	item, err := h.Store.GetItem(ctx, session, payload.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		// deleted before the worker got to it
		return nil
	}
	if err != nil {
		return err
	}
	if item.ThumbnailStatus == models.ThumbnailReady {
		return nil
	}

	original, err := h.Storage.DownloadObject(ctx, h.Bucket, item.ImageKey)
	if err != nil {
		return h.saveThumbnailFail(ctx, session, item, fmt.Sprintf("download failed: %v", err), true)
	}
	thumb, err := services.Thumbnail(original)
	if err != nil {
		return h.saveThumbnailFail(ctx, session, item, fmt.Sprintf("thumbnail failed: %v", err), false)
	}
	key := services.ThumbnailObjectKey(item.OwnerID, uuid.NewString())
	if _, err := h.Storage.UploadObject(ctx, h.Bucket, key, thumb, "image/jpeg"); err != nil {
		return h.saveThumbnailFail(ctx, session, item, fmt.Sprintf("upload failed: %v", err), true)
	}

	ready := models.ThumbnailReady
	if _, err := h.Store.UpdateItem(ctx, session, item.ID, store.ItemPatch{ThumbnailKey: &key, ThumbnailStatus: &ready}); err != nil {
		_ = h.Storage.DeleteObject(ctx, h.Bucket, key)
		return err
	}
	log.Info().Uint("item_id", item.ID).Str("key", key).Msg("thumbnail ready")
	return nil
}

// saveThumbnailFail bumps the retry counter and marks the item failed once
// the retry budget is spent. The returned error tells asynq whether to retry.
func (h *Handlers) saveThumbnailFail(ctx context.Context, session store.Session, item *models.WardrobeItem, msg string, shouldRetry bool) error {
	retries := item.ThumbnailRetryCount + 1
	patch := store.ItemPatch{ThumbnailRetryCount: &retries, ThumbnailError: &msg}
	if !shouldRetry || retries >= MaxRetry {
		failed := models.ThumbnailFailed
		patch.ThumbnailStatus = &failed
	}
	if _, err := h.Store.UpdateItem(ctx, session, item.ID, patch); err != nil {
		sentry.CaptureException(fmt.Errorf("[Item %v] error on saving thumbnail failure: %w", item.ID, err))
	}
	err := fmt.Errorf("[Item %v] %s", item.ID, msg)
	log.Warn().Err(err).Int("retries", retries).Msg("thumbnail attempt failed")
	if !shouldRetry || retries >= MaxRetry {
		sentry.CaptureException(err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

func (h *Handlers) HandleDeleteObjectsTask(ctx context.Context, t *asynq.Task) error {
	var payload DeleteObjectsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	var failed []error
	for _, key := range payload.Keys {
		if err := h.Storage.DeleteObject(ctx, h.Bucket, key); err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		err := errors.Join(failed...)
		if retried, ok := asynq.GetRetryCount(ctx); ok && retried >= MaxRetry-1 && h.Notifier != nil {
			h.Notifier.Alert("storage cleanup gave up", err.Error())
		}
		return err
	}
	return nil
}

// HandleThumbnailSweepTask re-enqueues thumbnails whose task was lost, for
// example when enqueueing failed right after an upload.
func (h *Handlers) HandleThumbnailSweepTask(ctx context.Context, t *asynq.Task) error {
	items, err := h.Store.StalePendingThumbnails(ctx, time.Now().Add(-stalePendingAfter), sweepBatchSize)
	if err != nil {
		return err
	}
	for _, item := range items {
		task, err := NewThumbnailTask(item.ID, item.OwnerID)
		if err != nil {
			return err
		}
		if _, err := EnqueueMedia(h.Enqueuer, task); err != nil {
			sentry.CaptureException(fmt.Errorf("[Item %v] sweep enqueue failed: %w", item.ID, err))
		}
	}
	if len(items) > 0 {
		log.Info().Int("count", len(items)).Msg("re-enqueued pending thumbnails")
	}
	return nil
}
