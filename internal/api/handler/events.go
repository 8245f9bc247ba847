package handler

import (
	"net/http"

	"github.com/mcoot/s3arena/internal/api/middleware"
	"github.com/mcoot/s3arena/internal/events"
)

// EventsHandler streams task lifecycle events to the caller
type EventsHandler struct {
	hubs *events.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubs *events.HubManager) *EventsHandler {
	return &EventsHandler{hubs: hubs}
}

// Stream handles GET /api/events/
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	events.ServeSSE(w, r, h.hubs, identity.UserID)
}
