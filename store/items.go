package store

import (
	"context"
	"time"

	"wardrobewiz/models"
)

const defaultListLimit = 100

type ItemQuery struct {
	Category models.Category
	Limit    int
}

// ItemPatch carries the only fields that change after upload.
type ItemPatch struct {
	ThumbnailKey        *string
	ThumbnailStatus     *models.ThumbnailStatus
	ThumbnailRetryCount *int
	ThumbnailError      *string
}

func (p ItemPatch) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.ThumbnailKey != nil {
		updates["thumbnail_key"] = *p.ThumbnailKey
	}
	if p.ThumbnailStatus != nil {
		updates["thumbnail_status"] = *p.ThumbnailStatus
	}
	if p.ThumbnailRetryCount != nil {
		updates["thumbnail_retry_count"] = *p.ThumbnailRetryCount
	}
	if p.ThumbnailError != nil {
		updates["thumbnail_error"] = *p.ThumbnailError
	}
	return updates
}

func (s *Store) CreateItem(ctx context.Context, session Session, item *models.WardrobeItem) error {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return err
	}
	item.OwnerID = session.UserID
	if item.ThumbnailStatus == "" {
		item.ThumbnailStatus = models.ThumbnailPending
	}
	if err := db.Create(item).Error; err != nil {
		return err
	}
	s.publish(ctx, session.UserID, Change{Entity: EntityWardrobeItem, Action: ActionCreated, ID: item.ID})
	return nil
}

func (s *Store) GetItem(ctx context.Context, session Session, id uint) (*models.WardrobeItem, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	var item models.WardrobeItem
	if err := db.Where("id = ? AND owner_id = ?", id, session.UserID).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// ListItems returns the user's items, newest first.
func (s *Store) ListItems(ctx context.Context, session Session, query ItemQuery) ([]models.WardrobeItem, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := db.Where("owner_id = ?", session.UserID)
	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}
	items := []models.WardrobeItem{}
	if err := q.Order("created_at desc, id desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AllItems returns the complete inventory used as model context.
func (s *Store) AllItems(ctx context.Context, session Session) ([]models.WardrobeItem, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	items := []models.WardrobeItem{}
	if err := db.Where("owner_id = ?", session.UserID).Order("created_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, session Session, id uint, patch ItemPatch) (*models.WardrobeItem, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	updates := patch.updates()
	if len(updates) > 0 {
		r := db.Model(&models.WardrobeItem{}).Where("id = ? AND owner_id = ?", id, session.UserID).Updates(updates)
		if r.Error != nil {
			return nil, r.Error
		}
		if r.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	item, err := s.GetItem(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		s.publish(ctx, session.UserID, Change{Entity: EntityWardrobeItem, Action: ActionUpdated, ID: id})
	}
	return item, nil
}

// DeleteItem removes the row and returns it so the caller can clean up the
// stored objects.
func (s *Store) DeleteItem(ctx context.Context, session Session, id uint) (*models.WardrobeItem, error) {
	item, err := s.GetItem(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.WardrobeItem{}, item.ID).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, session.UserID, Change{Entity: EntityWardrobeItem, Action: ActionDeleted, ID: id})
	return item, nil
}

// StalePendingThumbnails lists items of any user still waiting for a
// thumbnail since before olderThan.
func (s *Store) StalePendingThumbnails(ctx context.Context, olderThan time.Time, limit int) ([]models.WardrobeItem, error) {
	items := []models.WardrobeItem{}
	err := s.db.WithContext(ctx).
		Where("thumbnail_status = ? AND created_at < ?", models.ThumbnailPending, olderThan).
		Order("created_at asc").
		Limit(limit).
		Find(&items).Error
	return items, err
}
