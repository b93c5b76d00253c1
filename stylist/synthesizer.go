package stylist

import (
	"context"
	"fmt"
	"strings"

	"wardrobewiz/jsonutil"
	"wardrobewiz/languageutil"
	"wardrobewiz/services"
)

type InventoryItem struct {
	ID       uint
	Metadata ItemMetadata
}

type CollectionSummary struct {
	Name        string
	Description string
	Tags        []string
}

type SynthesisInput struct {
	Wardrobe     []InventoryItem
	Inspirations []ItemMetadata
	Existing     []CollectionSummary
	Prompt       string
}

type CollectionMetadata struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Tags               []string `json:"tags"`
	StyleGuide         string   `json:"styleGuide"`
	SuggestedOccasions []string `json:"suggestedOccasions"`
	ConfidenceScore    *float64 `json:"confidenceScore,omitempty"`
}

type synthesisReply struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Tags               []string `json:"tags"`
	StyleGuide         string   `json:"styleGuide"`
	SuggestedOccasions []string `json:"suggestedOccasions"`
	ConfidenceScore    *float64 `json:"confidenceScore"`
}

func (r synthesisReply) toMetadata() (*CollectionMetadata, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("%w: name is missing", ErrSchemaViolation)
	}
	if r.ConfidenceScore != nil {
		if err := checkUnitConfidence(*r.ConfidenceScore); err != nil {
			return nil, err
		}
	}
	return &CollectionMetadata{
		Name:               languageutil.Truncate(languageutil.DisplayName(r.Name), MaxNameLength),
		Description:        languageutil.Truncate(strings.TrimSpace(r.Description), MaxDescLength),
		Tags:               languageutil.NormalizeTags(r.Tags, MaxTags),
		StyleGuide:         strings.TrimSpace(r.StyleGuide),
		SuggestedOccasions: languageutil.NormalizeTags(r.SuggestedOccasions, MaxTags),
		ConfidenceScore:    r.ConfidenceScore,
	}, nil
}

// SynthesizeCollection derives a collection style from the inspiration
// pieces, the wardrobe, the user's existing collections and an optional
// prompt. An empty prompt lets the model infer the theme.
func (s *Stylist) SynthesizeCollection(ctx context.Context, input SynthesisInput) (*CollectionMetadata, error) {
	if strings.TrimSpace(input.Prompt) == "" && len(input.Inspirations) == 0 && len(input.Wardrobe) == 0 {
		return nil, fmt.Errorf("%w: a prompt, inspiration images or wardrobe items are required", ErrInvalidInput)
	}

	resp, elapsed, err := s.invoke(ctx, services.LLMRequest{
		Kind:              KindSynthesize,
		SystemInstruction: stylistSystemInstruction,
		Prompt:            buildSynthesisPrompt(input),
		Temperature:       0.7,
	})
	if err != nil {
		s.record(ctx, KindSynthesize, resp, elapsed, err)
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	reply, err := jsonutil.Decode[synthesisReply](resp.Response)
	if err != nil {
		s.record(ctx, KindSynthesize, resp, elapsed, err)
		return nil, err
	}
	metadata, err := reply.toMetadata()
	s.record(ctx, KindSynthesize, resp, elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	return metadata, nil
}
