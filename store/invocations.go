package store

import (
	"context"

	"wardrobewiz/models"
)

func (s *Store) RecordInvocation(ctx context.Context, invocation *models.ModelInvocation) error {
	return s.db.WithContext(ctx).Create(invocation).Error
}

func (s *Store) Invocations(ctx context.Context, session Session, kind string) ([]models.ModelInvocation, error) {
	db, err := s.scoped(ctx, session)
	if err != nil {
		return nil, err
	}
	invocations := []models.ModelInvocation{}
	q := db.Where("owner_id = ?", session.UserID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err = q.Order("id asc").Find(&invocations).Error
	return invocations, err
}
