package controllers

import (
	"errors"
	"net/http"

	"wardrobewiz/jsonutil"
	"wardrobewiz/store"
	"wardrobewiz/stylist"
	"wardrobewiz/wardrobe"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	msgAnalyzeFailed     = "Failed to analyze item, please try again"
	msgSynthesisFailed   = "Failed to create collection, please try again"
	msgCompositionFailed = "Failed to generate outfit, please try again"
	msgUnreadable        = "The stylist returned an unreadable answer, please try again"
	msgUnknownItems      = "Generated outfit referenced unknown items, please try again"
	msgNotWearable       = "This image is not a wearable clothing item"
)

// respondError maps service errors onto status codes. Model failures are
// reported with a generic message, the cause goes to sentry and the log.
func respondError(c echo.Context, err error) error {
	var parseErr *jsonutil.ParseError
	switch {
	case errors.Is(err, store.ErrNoSession):
		return unauthorized(c)
	case errors.Is(err, wardrobe.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	case errors.Is(err, stylist.ErrNotWearable):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": msgNotWearable})
	case errors.As(err, &parseErr):
		return upstreamFailure(c, err, msgUnreadable)
	case errors.Is(err, stylist.ErrUnknownOutfitItem):
		return upstreamFailure(c, err, msgUnknownItems)
	case errors.Is(err, stylist.ErrAnalyzeFailed):
		return upstreamFailure(c, err, msgAnalyzeFailed)
	case errors.Is(err, stylist.ErrSynthesisFailed):
		return upstreamFailure(c, err, msgSynthesisFailed)
	case errors.Is(err, stylist.ErrCompositionFailed):
		return upstreamFailure(c, err, msgCompositionFailed)
	case errors.Is(err, wardrobe.ErrCascadeIncomplete):
		log.Error().Err(err).Msg("collection delete left objects behind")
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Collection files could not be fully removed, please try again"})
	}

	sentry.CaptureException(err)
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Something went wrong, please try again"})
}

func upstreamFailure(c echo.Context, err error, message string) error {
	sentry.CaptureException(err)
	log.Error().Err(err).Str("path", c.Path()).Msg("stylist call failed")
	return c.JSON(http.StatusBadGateway, map[string]string{"error": message})
}

// errorMessage is the per-file text shown for batch failures.
func errorMessage(err error) string {
	var parseErr *jsonutil.ParseError
	switch {
	case errors.Is(err, wardrobe.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, stylist.ErrNotWearable):
		return msgNotWearable
	case errors.As(err, &parseErr):
		return msgUnreadable
	default:
		return msgAnalyzeFailed
	}
}
