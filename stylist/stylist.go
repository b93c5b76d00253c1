// Package stylist turns clothing photos into structured metadata and asks the
// generative model for collection styles and outfits. Every call runs under
// its own timeout and every reply goes through jsonutil.
package stylist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wardrobewiz/jsonutil"
	"wardrobewiz/models"
	"wardrobewiz/services"
)

const (
	DefaultTimeout = 30 * time.Second
	MaxTags        = 10
	MaxNameLength  = 50
	MaxDescLength  = 500

	KindExtract    = "extract"
	KindSynthesize = "synthesize"
	KindCompose    = "compose"
)

type Invocation struct {
	Kind        string
	Model       string
	Status      models.InvocationStatus
	Duration    time.Duration
	Usage       *services.LLMResponse
	Error       string
	RawResponse string
}

// Recorder receives one Invocation per model call, successful or not.
type Recorder interface {
	RecordInvocation(ctx context.Context, invocation Invocation)
}

type Stylist struct {
	LLM      services.LLMProcessor
	Model    services.LLMModelName
	Timeout  time.Duration
	Recorder Recorder
}

func New(llm services.LLMProcessor, model services.LLMModelName, timeout time.Duration) *Stylist {
	return &Stylist{LLM: llm, Model: model, Timeout: timeout}
}

// WithRecorder returns a copy of s that reports invocations to r.
func (s *Stylist) WithRecorder(r Recorder) *Stylist {
	clone := *s
	clone.Recorder = r
	return &clone
}

func (s *Stylist) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

func (s *Stylist) invoke(ctx context.Context, request services.LLMRequest) (*services.LLMResponse, time.Duration, error) {
	timeout := s.timeout()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	resp, err := s.LLM.GenerateJSON(callCtx, request, s.Model)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return resp, elapsed, fmt.Errorf("model call timed out after %s: %w", timeout, err)
		}
		return resp, elapsed, err
	}
	if resp == nil {
		return nil, elapsed, errors.New("model returned no response")
	}
	return resp, elapsed, nil
}

func invocationStatus(err error) models.InvocationStatus {
	var parseErr *jsonutil.ParseError
	switch {
	case err == nil:
		return models.InvocationOK
	case errors.As(err, &parseErr):
		return models.InvocationParseFailed
	case errors.Is(err, ErrNotWearable), errors.Is(err, ErrSchemaViolation), errors.Is(err, ErrUnknownOutfitItem):
		return models.InvocationRejected
	default:
		return models.InvocationFailed
	}
}

func (s *Stylist) record(ctx context.Context, kind string, resp *services.LLMResponse, elapsed time.Duration, err error) {
	if s.Recorder == nil {
		return
	}
	invocation := Invocation{
		Kind:     kind,
		Model:    s.Model.String(),
		Status:   invocationStatus(err),
		Duration: elapsed,
		Usage:    resp,
	}
	if resp != nil && resp.Model != "" {
		invocation.Model = resp.Model
	}
	if err != nil {
		invocation.Error = err.Error()
	}
	var parseErr *jsonutil.ParseError
	if errors.As(err, &parseErr) {
		invocation.RawResponse = parseErr.Text
	}
	s.Recorder.RecordInvocation(ctx, invocation)
}

// checkUnitConfidence validates a 0-1 confidence score.
func checkUnitConfidence(value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("%w: confidenceScore %v outside [0,1]", ErrSchemaViolation, value)
	}
	return nil
}
