// internal/api/handler/api/contact.go
package api

import (
	"context"
	"net/http"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/contact"
)

// ContactService defines the interface needed from the contact service.
type ContactService interface {
	Submit(ctx context.Context, s contact.Submission) error
}

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	svc ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(svc ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// Submit relays a submission to the site owner.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contact.Submission
	if err := decodeBody(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	if err := h.svc.Submit(r.Context(), req); err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]any{
		"sent": true,
	})
}
