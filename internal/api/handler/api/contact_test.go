// internal/api/handler/api/contact_test.go
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/newthinker/folio/internal/contact"
)

type fakeContact struct {
	got []contact.Submission
}

func (f *fakeContact) Submit(ctx context.Context, s contact.Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.got = append(f.got, s)
	return nil
}

func TestContactHandler_Submit(t *testing.T) {
	svc := &fakeContact{}
	handler := NewContactHandler(svc)

	w := post(handler.Submit, `{"name": "Grace", "email": "grace@example.com", "subject": "Hi", "message": "Hello!"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(svc.got) != 1 || svc.got[0].Email != "grace@example.com" {
		t.Errorf("unexpected submissions %+v", svc.got)
	}
}

func TestContactHandler_MissingFields(t *testing.T) {
	handler := NewContactHandler(&fakeContact{})

	w := post(handler.Submit, `{"name": "Grace"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if got := errorCode(t, w); got != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", got)
	}
}
