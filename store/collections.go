package store

import (
	"context"
	"strings"

	"wardrobewiz/models"

	"gorm.io/gorm"
)

type CollectionPatch struct {
	Name        *string
	Description *string
	Prompt      *string
}

func (s *Store) CreateCollection(ctx context.Context, session Session, collection *models.OutfitCollection) error {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return err
	}
	collection.OwnerID = session.UserID
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(collection).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, session.UserID, Change{Entity: EntityCollection, Action: ActionCreated, ID: collection.ID})
	return nil
}

func (s *Store) GetCollection(ctx context.Context, session Session, id uint) (*models.OutfitCollection, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	var collection models.OutfitCollection
	err = db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Outfits", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc, id desc") }).
		Where("id = ? AND owner_id = ?", id, session.UserID).
		First(&collection).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &collection, nil
}

func (s *Store) ListCollections(ctx context.Context, session Session) ([]models.OutfitCollection, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	collections := []models.OutfitCollection{}
	err = db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("owner_id = ?", session.UserID).
		Order("created_at desc, id desc").
		Find(&collections).Error
	return collections, err
}

func (s *Store) UpdateCollection(ctx context.Context, session Session, id uint, patch CollectionPatch) (*models.OutfitCollection, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Prompt != nil {
		updates["prompt"] = *patch.Prompt
	}
	if len(updates) > 0 {
		r := db.Model(&models.OutfitCollection{}).Where("id = ? AND owner_id = ?", id, session.UserID).Updates(updates)
		if r.Error != nil {
			return nil, r.Error
		}
		if r.RowsAffected == 0 {
			return nil, ErrNotFound
		}
		s.publish(ctx, session.UserID, Change{Entity: EntityCollection, Action: ActionUpdated, ID: id})
	}
	return s.GetCollection(ctx, session, id)
}

// DeleteCollection removes the collection, its inspiration images and its
// outfits in one transaction. Stored objects are the caller's concern.
func (s *Store) DeleteCollection(ctx context.Context, session Session, id uint) error {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		r := tx.Where("id = ? AND owner_id = ?", id, session.UserID).Delete(&models.OutfitCollection{})
		if r.Error != nil {
			return r.Error
		}
		if r.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("collection_id = ?", id).Delete(&models.Outfit{}).Error; err != nil {
			return err
		}
		return tx.Where("collection_id = ?", id).Delete(&models.InspirationImage{}).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, session.UserID, Change{Entity: EntityCollection, Action: ActionDeleted, ID: id})
	return nil
}

func (s *Store) AddOutfit(ctx context.Context, session Session, collectionID uint, outfit *models.Outfit) error {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return err
	}
	var count int64
	if err := db.Model(&models.OutfitCollection{}).Where("id = ? AND owner_id = ?", collectionID, session.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	outfit.CollectionID = collectionID
	outfit.OwnerID = session.UserID
	if err := db.Create(outfit).Error; err != nil {
		return err
	}
	s.publish(ctx, session.UserID, Change{Entity: EntityOutfit, Action: ActionCreated, ID: outfit.ID, CollectionID: collectionID})
	return nil
}

func (s *Store) DeleteOutfit(ctx context.Context, session Session, collectionID, outfitID uint) error {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return err
	}
	r := db.Where("id = ? AND collection_id = ? AND owner_id = ?", outfitID, collectionID, session.UserID).Delete(&models.Outfit{})
	if r.Error != nil {
		return r.Error
	}
	if r.RowsAffected == 0 {
		return ErrNotFound
	}
	s.publish(ctx, session.UserID, Change{Entity: EntityOutfit, Action: ActionDeleted, ID: outfitID, CollectionID: collectionID})
	return nil
}
