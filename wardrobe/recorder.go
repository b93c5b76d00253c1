package wardrobe

import (
	"context"
	"fmt"

	"wardrobewiz/models"
	"wardrobewiz/store"
	"wardrobewiz/stylist"
	"wardrobewiz/telegram"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

type invocationRecorder struct {
	store    *store.Store
	ownerID  uint
	notifier telegram.Notifier
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *invocationRecorder) RecordInvocation(ctx context.Context, invocation stylist.Invocation) {
	row := &models.ModelInvocation{
		Kind:         invocation.Kind,
		Model:        invocation.Model,
		Status:       invocation.Status,
		DurationMs:   invocation.Duration.Milliseconds(),
		ErrorMessage: optionalString(invocation.Error),
		RawResponse:  optionalString(invocation.RawResponse),
	}
	if r.ownerID != 0 {
		ownerID := r.ownerID
		row.OwnerID = &ownerID
	}
	if usage := invocation.Usage; usage != nil {
		row.InputTokenCount = usage.InputTokenCount
		row.OutputTokenCount = usage.OutputTokenCount
		row.ThoughtsTokenCount = usage.ThoughtsTokenCount
		row.TotalTokenCount = usage.TotalTokenCount
	}

	// the request may already be cancelled, the record should still land
	if err := r.store.RecordInvocation(context.WithoutCancel(ctx), row); err != nil {
		log.Warn().Err(err).Str("kind", invocation.Kind).Msg("saving model invocation failed")
	}

	switch invocation.Status {
	case models.InvocationParseFailed:
		r.notifier.Alert(fmt.Sprintf("unreadable %s reply from %s", invocation.Kind, invocation.Model), invocation.RawResponse)
		sentry.CaptureMessage(fmt.Sprintf("unparseable %s reply (invocation %d)", invocation.Kind, row.ID))
	case models.InvocationFailed:
		log.Error().Str("kind", invocation.Kind).Str("error", invocation.Error).Msg("model invocation failed")
	}
}
