package handler

import (
	"net/http"

	"github.com/aquatrack/aquatrack/internal/auth"
)

// EventStream upgrades a request and streams events for a user.
type EventStream interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string)
}

// EventsHandler serves the WebSocket stream.
type EventsHandler struct {
	stream EventStream
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(stream EventStream) *EventsHandler {
	return &EventsHandler{stream: stream}
}

// Subscribe handles GET /api/v1/events. Runs behind RequireSession.
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required")
		return
	}
	h.stream.Serve(w, r, userID)
}
