package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wardrobewiz/store"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const eventsHeartbeat = 25 * time.Second

type EventsController struct {
	Store *store.Store
}

// Stream sends the user's store changes as server-sent events until the
// client goes away.
func (controller *EventsController) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	session := currentSession(c)

	changes := make(chan store.Change, 32)
	unsubscribe, err := controller.Store.Subscribe(ctx, session, func(change store.Change) {
		select {
		case changes <- change:
		default:
			log.Warn().Uint("user_id", session.UserID).Msg("event stream is behind, dropping change")
		}
	})
	if err != nil {
		return respondError(c, err)
	}
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(eventsHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			payload, err := json.Marshal(change)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
