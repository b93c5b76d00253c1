package stylist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wardrobewiz/jsonutil"
	"wardrobewiz/models"
	"wardrobewiz/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	reply    string
	err      error
	block    bool
	requests []services.LLMRequest
}

func (l *scriptedLLM) GenerateJSON(ctx context.Context, request services.LLMRequest, modelName services.LLMModelName) (*services.LLMResponse, error) {
	l.requests = append(l.requests, request)
	if l.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if l.err != nil {
		return nil, l.err
	}
	return &services.LLMResponse{Response: l.reply, Model: modelName.String(), TotalTokenCount: 42}, nil
}

type memoryRecorder struct {
	mu          sync.Mutex
	invocations []Invocation
}

func (r *memoryRecorder) RecordInvocation(ctx context.Context, invocation Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, invocation)
}

func newTestStylist(llm services.LLMProcessor) (*Stylist, *memoryRecorder) {
	recorder := &memoryRecorder{}
	return New(llm, services.Flash25, time.Second).WithRecorder(recorder), recorder
}

const sneakersReply = "```json\n" + `{"name":"Sneakers","description":"White leather low tops","isWearable":true,"confidenceScore":90,"category":"shoes","colors":["white"],"styles":["casual"],"occasions":["everyday"]}` + "\n```"

func TestExtractMetadataSneakers(t *testing.T) {
	llm := &scriptedLLM{reply: sneakersReply}
	s, recorder := newTestStylist(llm)

	meta, err := s.ExtractMetadata(context.Background(), []byte("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Sneakers", meta.Name)
	assert.Equal(t, models.CategoryShoes, meta.Category)
	assert.Equal(t, []string{"white"}, meta.Colors)
	assert.Equal(t, []string{"casual"}, meta.Styles)
	assert.Equal(t, []string{"everyday"}, meta.Occasions)
	assert.True(t, meta.IsWearable)
	assert.InDelta(t, 0.9, meta.ConfidenceScore, 1e-9)

	require.Len(t, llm.requests, 1)
	require.Len(t, llm.requests[0].Images, 1)
	assert.Equal(t, "image/jpeg", llm.requests[0].Images[0].MIMEType)
	assert.Equal(t, KindExtract, llm.requests[0].Kind)

	require.Len(t, recorder.invocations, 1)
	assert.Equal(t, models.InvocationOK, recorder.invocations[0].Status)
}

func TestExtractMetadataNormalizesTags(t *testing.T) {
	llm := &scriptedLLM{reply: `{"name":"denim jacket","isWearable":true,"confidenceScore":55,"category":"Jackets","colors":["Blue"," blue ","NAVY"],"styles":["a","b","c","d","e","f","g","h","i","j","k","l"],"occasions":[]}`}
	s, _ := newTestStylist(llm)

	meta, err := s.ExtractMetadata(context.Background(), []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Denim Jacket", meta.Name)
	assert.Equal(t, models.CategoryOthers, meta.Category)
	assert.Equal(t, []string{"blue", "navy"}, meta.Colors)
	assert.Len(t, meta.Styles, MaxTags)
}

func TestExtractMetadataNotWearable(t *testing.T) {
	llm := &scriptedLLM{reply: `{"name":"Coffee mug","isWearable":false,"confidenceScore":97,"category":"others"}`}
	s, recorder := newTestStylist(llm)

	meta, err := s.ExtractMetadata(context.Background(), []byte("x"), "image/png")
	assert.Nil(t, meta)
	assert.ErrorIs(t, err, ErrNotWearable)
	assert.NotErrorIs(t, err, ErrAnalyzeFailed)
	assert.Equal(t, models.InvocationRejected, recorder.invocations[0].Status)
}

func TestExtractMetadataFailuresAreAnalyzeFailed(t *testing.T) {
	tests := []struct {
		name   string
		llm    *scriptedLLM
		status models.InvocationStatus
	}{
		{"provider error", &scriptedLLM{err: errors.New("quota exceeded")}, models.InvocationFailed},
		{"unparseable", &scriptedLLM{reply: "I could not see a garment"}, models.InvocationParseFailed},
		{"missing name", &scriptedLLM{reply: `{"isWearable":true,"confidenceScore":80}`}, models.InvocationRejected},
		{"missing wearable flag", &scriptedLLM{reply: `{"name":"Hat","confidenceScore":80}`}, models.InvocationRejected},
		{"confidence above range", &scriptedLLM{reply: `{"name":"Hat","isWearable":true,"confidenceScore":120}`}, models.InvocationRejected},
		{"negative confidence", &scriptedLLM{reply: `{"name":"Hat","isWearable":true,"confidenceScore":-1}`}, models.InvocationRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, recorder := newTestStylist(tt.llm)
			meta, err := s.ExtractMetadata(context.Background(), []byte("x"), "image/jpeg")
			assert.Nil(t, meta)
			assert.ErrorIs(t, err, ErrAnalyzeFailed)
			require.Len(t, recorder.invocations, 1)
			assert.Equal(t, tt.status, recorder.invocations[0].Status)
		})
	}
}

func TestExtractMetadataKeepsParseErrorText(t *testing.T) {
	s, recorder := newTestStylist(&scriptedLLM{reply: "no json here"})

	_, err := s.ExtractMetadata(context.Background(), []byte("x"), "image/jpeg")
	var parseErr *jsonutil.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "no json here", parseErr.Text)
	assert.Equal(t, "no json here", recorder.invocations[0].RawResponse)
}

func TestExtractMetadataTimeout(t *testing.T) {
	llm := &scriptedLLM{block: true}
	s := New(llm, services.Flash25, 20*time.Millisecond)

	started := time.Now()
	_, err := s.ExtractMetadata(context.Background(), []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrAnalyzeFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
}

func TestExtractMetadataRejectsEmptyInput(t *testing.T) {
	llm := &scriptedLLM{reply: sneakersReply}
	s, _ := newTestStylist(llm)

	_, err := s.ExtractMetadata(context.Background(), nil, "image/jpeg")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, llm.requests)
}

func inventoryFixture() []InventoryItem {
	return []InventoryItem{
		{ID: 1, Metadata: ItemMetadata{Name: "White Sneakers", Category: models.CategoryShoes, Colors: []string{"white"}}},
		{ID: 2, Metadata: ItemMetadata{Name: "Dark Jeans", Category: models.CategoryBottoms, Colors: []string{"blue"}}},
		{ID: 3, Metadata: ItemMetadata{Name: "Grey Tee", Category: models.CategoryTops, Colors: []string{"grey"}}},
	}
}

func TestComposeOutfit(t *testing.T) {
	llm := &scriptedLLM{reply: `Here you go:
{"items":[{"itemId":1,"reason":"clean base"},{"itemId":"2","reason":"versatile"},{"itemId":3,"reason":"easy top"}],"confidenceScore":0.82,"explanation":"Relaxed weekend look"}`}
	s, recorder := newTestStylist(llm)

	selection, err := s.ComposeOutfit(context.Background(), CompositionInput{
		Style:     CollectionStyle{Description: "Minimal weekend", Tags: []string{"minimal"}},
		Occasion:  "brunch with friends",
		Inventory: inventoryFixture(),
	})
	require.NoError(t, err)
	assert.Equal(t, []SelectedItem{
		{ItemID: 1, Reason: "clean base"},
		{ItemID: 2, Reason: "versatile"},
		{ItemID: 3, Reason: "easy top"},
	}, selection.Items)
	assert.InDelta(t, 0.82, selection.ConfidenceScore, 1e-9)
	assert.Equal(t, "Relaxed weekend look", selection.Explanation)
	assert.Contains(t, llm.requests[0].Prompt, "id 2: Dark Jeans (bottoms)")
	assert.Contains(t, llm.requests[0].Prompt, "brunch with friends")
	assert.Equal(t, models.InvocationOK, recorder.invocations[0].Status)
}

func TestComposeOutfitFailsClosedOnUnknownItem(t *testing.T) {
	llm := &scriptedLLM{reply: `{"items":[{"itemId":1,"reason":"ok"},{"itemId":99,"reason":"invented"}],"confidenceScore":0.9,"explanation":"x"}`}
	s, recorder := newTestStylist(llm)

	selection, err := s.ComposeOutfit(context.Background(), CompositionInput{
		Occasion:  "office",
		Inventory: inventoryFixture(),
	})
	assert.Nil(t, selection)
	assert.ErrorIs(t, err, ErrUnknownOutfitItem)
	assert.Equal(t, models.InvocationRejected, recorder.invocations[0].Status)
}

func TestComposeOutfitSchemaViolations(t *testing.T) {
	replies := map[string]string{
		"empty selection":     `{"items":[],"confidenceScore":0.5,"explanation":"x"}`,
		"duplicate item":      `{"items":[{"itemId":1},{"itemId":1}],"confidenceScore":0.5}`,
		"confidence too high": `{"items":[{"itemId":1}],"confidenceScore":1.5}`,
		"missing confidence":  `{"items":[{"itemId":1}]}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStylist(&scriptedLLM{reply: reply})
			_, err := s.ComposeOutfit(context.Background(), CompositionInput{Occasion: "office", Inventory: inventoryFixture()})
			assert.ErrorIs(t, err, ErrCompositionFailed)
			assert.ErrorIs(t, err, ErrSchemaViolation)
		})
	}
}

func TestComposeOutfitInvalidInput(t *testing.T) {
	llm := &scriptedLLM{}
	s, _ := newTestStylist(llm)

	_, err := s.ComposeOutfit(context.Background(), CompositionInput{Occasion: "office"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.ComposeOutfit(context.Background(), CompositionInput{Occasion: "  ", Inventory: inventoryFixture()})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, llm.requests)
}

func TestComposeOutfitParseError(t *testing.T) {
	s, _ := newTestStylist(&scriptedLLM{reply: "sorry"})
	_, err := s.ComposeOutfit(context.Background(), CompositionInput{Occasion: "office", Inventory: inventoryFixture()})
	var parseErr *jsonutil.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSynthesizeCollection(t *testing.T) {
	longName := "the extremely long and winding name of a collection that keeps going"
	llm := &scriptedLLM{reply: `{"name":"` + longName + `","description":"Soft neutrals","tags":["Minimal","minimal","Neutral"],"styleGuide":"Layer light knits.","suggestedOccasions":["Office"],"confidenceScore":0.7}`}
	s, _ := newTestStylist(llm)

	meta, err := s.SynthesizeCollection(context.Background(), SynthesisInput{
		Wardrobe:     inventoryFixture(),
		Inspirations: []ItemMetadata{{Name: "Camel Coat", Category: models.CategoryOuterwear}},
		Existing:     []CollectionSummary{{Name: "Street", Description: "Bold", Tags: []string{"street"}}},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(meta.Name)), MaxNameLength)
	assert.Equal(t, []string{"minimal", "neutral"}, meta.Tags)
	assert.Equal(t, []string{"office"}, meta.SuggestedOccasions)
	require.NotNil(t, meta.ConfidenceScore)
	assert.InDelta(t, 0.7, *meta.ConfidenceScore, 1e-9)

	prompt := llm.requests[0].Prompt
	assert.Contains(t, prompt, "infer a theme")
	assert.Contains(t, prompt, "inspiration 1: Camel Coat (outerwear)")
	assert.Contains(t, prompt, "- Street: Bold [street]")
}

func TestSynthesizeCollectionErrors(t *testing.T) {
	s, _ := newTestStylist(&scriptedLLM{err: errors.New("unavailable")})
	_, err := s.SynthesizeCollection(context.Background(), SynthesisInput{Prompt: "summer picnic"})
	assert.ErrorIs(t, err, ErrSynthesisFailed)

	s, _ = newTestStylist(&scriptedLLM{reply: `{"name":"Picnic","confidenceScore":3}`})
	_, err = s.SynthesizeCollection(context.Background(), SynthesisInput{Prompt: "summer picnic"})
	assert.ErrorIs(t, err, ErrSchemaViolation)

	s, _ = newTestStylist(&scriptedLLM{reply: "```\nnot json\n```"})
	_, err = s.SynthesizeCollection(context.Background(), SynthesisInput{Prompt: "summer picnic"})
	var parseErr *jsonutil.ParseError
	assert.ErrorAs(t, err, &parseErr)

	_, err = s.SynthesizeCollection(context.Background(), SynthesisInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
