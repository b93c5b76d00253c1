package stylist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wardrobewiz/jsonutil"
	"wardrobewiz/languageutil"
	"wardrobewiz/models"
	"wardrobewiz/services"
)

// ItemMetadata is the normalized description of one garment.
// ConfidenceScore is on a 0-1 scale.
type ItemMetadata struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        models.Category `json:"category"`
	Colors          []string        `json:"colors"`
	Styles          []string        `json:"styles"`
	Occasions       []string        `json:"occasions"`
	IsWearable      bool            `json:"isWearable"`
	ConfidenceScore float64         `json:"confidenceScore"`
}

func (m ItemMetadata) Garment() models.GarmentMetadata {
	return models.GarmentMetadata{
		Name:            m.Name,
		Description:     m.Description,
		Category:        m.Category,
		Colors:          m.Colors,
		Styles:          m.Styles,
		Occasions:       m.Occasions,
		IsWearable:      m.IsWearable,
		ConfidenceScore: m.ConfidenceScore,
	}
}

func MetadataFromGarment(g models.GarmentMetadata) ItemMetadata {
	return ItemMetadata{
		Name:            g.Name,
		Description:     g.Description,
		Category:        g.Category,
		Colors:          g.Colors,
		Styles:          g.Styles,
		Occasions:       g.Occasions,
		IsWearable:      g.IsWearable,
		ConfidenceScore: g.ConfidenceScore,
	}
}

// extractionReply mirrors the model's JSON. Pointers tell a missing field
// apart from a zero value.
type extractionReply struct {
	Name            *string  `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Colors          []string `json:"colors"`
	Styles          []string `json:"styles"`
	Occasions       []string `json:"occasions"`
	IsWearable      *bool    `json:"isWearable"`
	ConfidenceScore *float64 `json:"confidenceScore"`
}

func (r extractionReply) toMetadata() (*ItemMetadata, error) {
	if r.IsWearable == nil {
		return nil, fmt.Errorf("%w: isWearable is missing", ErrSchemaViolation)
	}
	if !*r.IsWearable {
		return nil, ErrNotWearable
	}
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return nil, fmt.Errorf("%w: name is missing", ErrSchemaViolation)
	}
	if r.ConfidenceScore == nil {
		return nil, fmt.Errorf("%w: confidenceScore is missing", ErrSchemaViolation)
	}
	// the prompt asks for 0-100, everything past this point is 0-1
	if *r.ConfidenceScore < 0 || *r.ConfidenceScore > 100 {
		return nil, fmt.Errorf("%w: confidenceScore %v outside [0,100]", ErrSchemaViolation, *r.ConfidenceScore)
	}

	return &ItemMetadata{
		Name:            languageutil.Truncate(languageutil.DisplayName(*r.Name), MaxNameLength),
		Description:     languageutil.Truncate(strings.TrimSpace(r.Description), MaxDescLength),
		Category:        models.NormalizeCategory(r.Category),
		Colors:          languageutil.NormalizeTags(r.Colors, MaxTags),
		Styles:          languageutil.NormalizeTags(r.Styles, MaxTags),
		Occasions:       languageutil.NormalizeTags(r.Occasions, MaxTags),
		IsWearable:      true,
		ConfidenceScore: *r.ConfidenceScore / 100,
	}, nil
}

// ExtractMetadata asks the model to describe the garment in image.
// A non-wearable image returns ErrNotWearable, every other failure matches
// ErrAnalyzeFailed.
func (s *Stylist) ExtractMetadata(ctx context.Context, image []byte, mimeType string) (*ItemMetadata, error) {
	if len(image) == 0 || mimeType == "" {
		return nil, fmt.Errorf("%w: image and mime type are required", ErrInvalidInput)
	}

	resp, elapsed, err := s.invoke(ctx, services.LLMRequest{
		Kind:              KindExtract,
		SystemInstruction: stylistSystemInstruction,
		Prompt:            extractionPrompt,
		Images:            []services.InlineImage{{Data: image, MIMEType: mimeType}},
		Temperature:       0.2,
	})
	if err != nil {
		s.record(ctx, KindExtract, resp, elapsed, err)
		return nil, fmt.Errorf("%w: %w", ErrAnalyzeFailed, err)
	}

	metadata, err := decodeExtraction(resp.Response)
	s.record(ctx, KindExtract, resp, elapsed, err)
	if err != nil {
		if errors.Is(err, ErrNotWearable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAnalyzeFailed, err)
	}
	return metadata, nil
}

func decodeExtraction(text string) (*ItemMetadata, error) {
	reply, err := jsonutil.Decode[extractionReply](text)
	if err != nil {
		return nil, err
	}
	return reply.toMetadata()
}
