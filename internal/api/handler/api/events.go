// internal/api/handler/api/events.go
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/events"
)

// EventPublisher defines the interface needed from the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) (string, error)
}

// RunLookup defines the interface needed from the run history.
type RunLookup interface {
	Get(id string) (*events.Run, error)
}

// EventsHandler accepts events from trusted callers.
type EventsHandler struct {
	bus  EventPublisher
	runs RunLookup
}

// NewEventsHandler creates a new events handler. runs may be nil.
func NewEventsHandler(bus EventPublisher, runs RunLookup) *EventsHandler {
	return &EventsHandler{bus: bus, runs: runs}
}

// SendRequest is the request body for sending an event.
type SendRequest struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// Send queues an event and returns its id.
func (h *EventsHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	if req.Name == "" {
		response.Fail(w, core.WrapError(core.ErrValidation, errors.New("name is required")))
		return
	}

	id, err := h.bus.Publish(r.Context(), events.Event{Name: req.Name, Data: req.Data})
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]any{
		"id": id,
	})
}

// Run reports how the functions for an event id are doing.
func (h *EventsHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		response.Fail(w, core.ErrRunNotFound)
		return
	}
	run, err := h.runs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, run)
}
