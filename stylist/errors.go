package stylist

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrAnalyzeFailed     = errors.New("failed to analyze item")
	ErrNotWearable       = errors.New("not a wearable clothing item")
	ErrSynthesisFailed   = errors.New("failed to create collection")
	ErrCompositionFailed = errors.New("failed to generate outfit")

	// ErrUnknownOutfitItem means the model picked an item that is not in
	// the wardrobe it was given. The whole outfit is rejected.
	ErrUnknownOutfitItem = errors.New("outfit references an item outside the wardrobe")
	ErrSchemaViolation   = errors.New("model reply violates the expected schema")
)
