// Package store persists wardrobe items, collections and outfits. Every
// operation is scoped by an explicit Session and every committed write is
// published to the owner's change feed.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"wardrobewiz/services"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrNoSession = errors.New("no active session")
)

// Session identifies the signed in user a call is made for.
type Session struct {
	UserID uint
}

func (s Session) Valid() bool {
	return s.UserID != 0
}

type Entity string

const (
	EntityWardrobeItem Entity = "wardrobe_item"
	EntityCollection   Entity = "collection"
	EntityOutfit       Entity = "outfit"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type Change struct {
	Entity       Entity `json:"entity"`
	Action       Action `json:"action"`
	ID           uint   `json:"id"`
	CollectionID uint   `json:"collection_id,omitempty"`
}

type Store struct {
	db   *gorm.DB
	feed services.ChangeFeed
}

func New(db *gorm.DB, feed services.ChangeFeed) *Store {
	if feed == nil {
		feed = services.NewMemoryChangeFeed()
	}
	return &Store{db: db, feed: feed}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) scoped(ctx context.Context, session Session) (*gorm.DB, error) {
	if !session.Valid() {
		return nil, ErrNoSession
	}
	return s.db.WithContext(ctx), nil
}

// publish runs after commit. A failed publish only loses a live update,
// the write itself stands.
func (s *Store) publish(ctx context.Context, ownerID uint, change Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	if err := s.feed.Publish(ctx, ownerID, payload); err != nil {
		log.Warn().Err(err).Uint("user_id", ownerID).Str("entity", string(change.Entity)).Msg("change publish failed")
	}
}

// Subscribe registers fn for every change of the session's user until the
// returned function is called.
func (s *Store) Subscribe(ctx context.Context, session Session, fn func(Change)) (func(), error) {
	if !session.Valid() {
		return nil, ErrNoSession
	}
	unsubscribe := s.feed.Subscribe(ctx, session.UserID, func(payload []byte) {
		var change Change
		if err := json.Unmarshal(payload, &change); err != nil {
			log.Warn().Err(err).Msg("malformed change payload")
			return
		}
		fn(change)
	})
	return unsubscribe, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
