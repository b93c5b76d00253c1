package models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type OutfitCollection struct {
	JsonModel
	OwnerID     uint    `gorm:"index" json:"owner_id"`
	Name        string  `gorm:"size:50" json:"name"`
	Description string  `gorm:"size:500" json:"description"`
	Prompt      *string `json:"prompt"`
	// collections/{ownerID}/{uuid}/, every inspiration image lives under it
	StorageFolder string `json:"-"`

	Tags               pq.StringArray `gorm:"type:text[]" json:"tags"`
	StyleGuide         string         `json:"style_guide"`
	SuggestedOccasions pq.StringArray `gorm:"type:text[]" json:"suggested_occasions"`
	ConfidenceScore    *float64       `json:"confidence_score"`

	Images  []InspirationImage `gorm:"foreignKey:CollectionID" json:"images"`
	Outfits []Outfit           `gorm:"foreignKey:CollectionID" json:"outfits"`
}

type InspirationImage struct {
	JsonModel
	CollectionID uint   `gorm:"index" json:"collection_id"`
	ImageKey     string `json:"-"`
	MimeType     string `json:"mime_type"`

	GarmentMetadata `gorm:"embedded"`
}

type OutfitItem struct {
	ItemID   uint   `json:"item_id"`
	Reason   string `json:"reason"`
	Name     string `json:"name"`
	ImageKey string `json:"image_key"`
}

type Outfit struct {
	JsonModel
	CollectionID    uint                            `gorm:"index" json:"collection_id"`
	OwnerID         uint                            `gorm:"index" json:"owner_id"`
	Title           string                          `json:"title"`
	Description     string                          `json:"description"`
	Items           datatypes.JSONSlice[OutfitItem] `gorm:"type:jsonb" json:"items"`
	ConfidenceScore float64                         `json:"confidence_score"`
	Explanation     string                          `json:"explanation"`
	ModelName       string                          `json:"model_name"`
}

type CollectionPatchIn struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Prompt      *string `json:"prompt" validate:"omitempty,max=2000"`
}

type OutfitIn struct {
	Title    string `json:"title" validate:"omitempty,max=120"`
	Occasion string `json:"occasion" validate:"required,max=500"`
}

type InspirationImageOut struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Colors          []string `json:"colors"`
	Styles          []string `json:"styles"`
	Occasions       []string `json:"occasions"`
	ConfidenceScore float64  `json:"confidence_score"`
	ImageURL        string   `json:"image_url"`
}

type OutfitItemOut struct {
	ItemID   uint   `json:"item_id"`
	Reason   string `json:"reason"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type OutfitOut struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Items           []OutfitItemOut `json:"items"`
	ConfidenceScore float64         `json:"confidence_score"`
	Explanation     string          `json:"explanation"`
	CreatedAt       string          `json:"created_at"`
}

type CollectionOut struct {
	ID                 uint                  `json:"id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	Prompt             *string               `json:"prompt"`
	Tags               []string              `json:"tags"`
	StyleGuide         string                `json:"style_guide"`
	SuggestedOccasions []string              `json:"suggested_occasions"`
	ConfidenceScore    *float64              `json:"confidence_score"`
	Images             []InspirationImageOut `json:"images"`
	Outfits            []OutfitOut           `json:"outfits"`
	CreatedAt          string                `json:"created_at"`
}
