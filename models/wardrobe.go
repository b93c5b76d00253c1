package models

import (
	"github.com/lib/pq"
)

type ThumbnailStatus string

const (
	ThumbnailPending ThumbnailStatus = "pending"
	ThumbnailReady   ThumbnailStatus = "ready"
	ThumbnailFailed  ThumbnailStatus = "failed"
)

// GarmentMetadata is what the stylist extracts from a single clothing photo.
// ConfidenceScore is always stored on a 0-1 scale.
type GarmentMetadata struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Category        Category       `json:"category" gorm:"type:varchar(32);index"`
	Colors          pq.StringArray `json:"colors" gorm:"type:text[]"`
	Styles          pq.StringArray `json:"styles" gorm:"type:text[]"`
	Occasions       pq.StringArray `json:"occasions" gorm:"type:text[]"`
	IsWearable      bool           `json:"is_wearable"`
	ConfidenceScore float64        `json:"confidence_score"`
}

type WardrobeItem struct {
	JsonModel
	OwnerID  uint   `gorm:"index" json:"owner_id"`
	ImageKey string `json:"-"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`

	GarmentMetadata `gorm:"embedded"`

	ThumbnailKey        *string         `json:"-"`
	ThumbnailStatus     ThumbnailStatus `gorm:"type:varchar(16);default:pending" json:"thumbnail_status"`
	ThumbnailRetryCount int             `json:"-"`
	ThumbnailError      *string         `json:"-"`
}

type WardrobeItemOut struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        Category        `json:"category"`
	Colors          []string        `json:"colors"`
	Styles          []string        `json:"styles"`
	Occasions       []string        `json:"occasions"`
	ConfidenceScore float64         `json:"confidence_score"`
	MimeType        string          `json:"mime_type"`
	ImageURL        string          `json:"image_url"`
	ThumbnailURL    string          `json:"thumbnail_url,omitempty"`
	ThumbnailStatus ThumbnailStatus `json:"thumbnail_status"`
	CreatedAt       string          `json:"created_at"`
}

type WardrobeListQuery struct {
	Category string `query:"category" validate:"omitempty,category"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

type BatchFailureOut struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type BatchUploadOut struct {
	Items  []WardrobeItemOut `json:"items"`
	Failed []BatchFailureOut `json:"failed"`
	Error  string            `json:"error,omitempty"`
}
