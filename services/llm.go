package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.5-flash"
	}
}

var knownModels = []LLMModelName{Pro25, Flash25, FlashLite25, Flash20}

// LookupLLMModelName maps a configured model id to a known model.
func LookupLLMModelName(name string) (LLMModelName, bool) {
	for _, model := range knownModels {
		if strings.EqualFold(strings.TrimSpace(name), model.String()) {
			return model, true
		}
	}
	return Flash25, false
}

func floatPointer(f float32) *float32 {
	return &f
}

// ErrContentBlocked is returned when the model refuses the prompt or one of
// the candidates was blocked by safety filters.
var ErrContentBlocked = errors.New("content violation")

type InlineImage struct {
	Data     []byte
	MIMEType string
}

type LLMRequest struct {
	// Kind labels the call for invocation records, e.g. "extract"
	Kind              string
	SystemInstruction string
	Prompt            string
	Images            []InlineImage
	Temperature       float32
	MaxOutputTokens   int32
}

type LLMResponse struct {
	Response           string `json:"response"`
	Model              string `json:"model"`
	InputTokenCount    int32  `json:"input_token_count"`
	Thoughts           string `json:"thoughts"`
	ThoughtsTokenCount int32  `json:"thoughts_token_count"`
	OutputTokenCount   int32  `json:"output_token_count"`
	TotalTokenCount    int32  `json:"total_token_count"`
	IsTest             bool   `json:"is_test"`
}

type LLMProcessor interface {
	GenerateJSON(ctx context.Context, request LLMRequest, modelName LLMModelName) (*LLMResponse, error)
}

type GoogleLLMProcessor struct {
	client *genai.Client
}

func NewGoogleLLMProcessor(ctx context.Context, apiKey string) (*GoogleLLMProcessor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GoogleLLMProcessor{client: client}, nil
}

type ResponseWithThoughts struct {
	Text     string
	Thoughts string
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	for _, c := range result.Candidates {
		for _, rating := range c.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("%w: response blocked for %s", ErrContentBlocked, rating.Category)
			}
		}
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part.Thought && part.Text != "" {
				thinkingContent = part.Text
			}
		}
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     result.Text(),
	}, nil
}

// GenerateJSON sends the prompt and inline images in a single turn and asks
// for an application/json reply. The reply text is returned unparsed.
func (p *GoogleLLMProcessor) GenerateJSON(ctx context.Context, request LLMRequest, modelName LLMModelName) (*LLMResponse, error) {
	var parts []*genai.Part
	for _, image := range request.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     image.Data,
				MIMEType: image.MIMEType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: request.Prompt})

	generateConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		Temperature:      floatPointer(request.Temperature),
	}
	if request.MaxOutputTokens > 0 {
		generateConfig.MaxOutputTokens = request.MaxOutputTokens
	}
	if request.SystemInstruction != "" {
		generateConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemInstruction}},
		}
	}

	result, err := p.client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, generateConfig)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	response := &LLMResponse{Model: modelName.String()}
	if result.UsageMetadata != nil {
		response.InputTokenCount = result.UsageMetadata.PromptTokenCount
		response.ThoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		response.OutputTokenCount = result.UsageMetadata.CandidatesTokenCount
		response.TotalTokenCount = result.UsageMetadata.TotalTokenCount
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return response, fmt.Errorf("%w: %s %s", ErrContentBlocked, result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
	}

	text, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		return response, err
	}
	log.Debug().
		Str("kind", request.Kind).
		Str("model", response.Model).
		Int32("total_tokens", response.TotalTokenCount).
		Msg("model call finished")

	response.Response = text.Text
	response.Thoughts = text.Thoughts
	return response, nil
}
