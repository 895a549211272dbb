// Package contact relays contact form submissions to the site owner.
package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/events"
	"github.com/newthinker/folio/internal/mailer"
	"go.uber.org/zap"
)

// Submission is one contact form entry.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate reports every missing field at once.
func (s Submission) Validate() error {
	var result *multierror.Error
	for _, f := range []struct{ name, value string }{
		{"name", s.Name},
		{"email", s.Email},
		{"subject", s.Subject},
		{"message", s.Message},
	} {
		if strings.TrimSpace(f.value) == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required", f.name))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	return nil
}

// Relay sends the submission email.
type Relay interface {
	SendContact(ctx context.Context, c mailer.ContactMessage) error
}

// Publisher emits events without waiting for their handlers.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event) (string, error)
}

// Service validates and relays submissions.
type Service struct {
	relay     Relay
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a contact service. publisher and logger may be nil.
func NewService(relay Relay, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		relay:     relay,
		publisher: publisher,
		logger:    logger.Named("contact"),
	}
}

// Submit validates s, emails it to the owner and emits message/send.
// Nothing is sent when validation fails.
func (svc *Service) Submit(ctx context.Context, s Submission) error {
	s = Submission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Subject: strings.TrimSpace(s.Subject),
		Message: strings.TrimSpace(s.Message),
	}
	if err := s.Validate(); err != nil {
		return err
	}

	if err := svc.relay.SendContact(ctx, mailer.ContactMessage{
		Name:    s.Name,
		Email:   s.Email,
		Subject: s.Subject,
		Message: s.Message,
	}); err != nil {
		return err
	}
	svc.logger.Info("contact message relayed", zap.String("from", s.Email))

	if svc.publisher == nil {
		return nil
	}
	evt, err := events.NewEvent(events.MessageSend, events.MessageSendData{
		Message: s.Message,
		Metadata: map[string]any{
			"source":  "contact",
			"name":    s.Name,
			"email":   s.Email,
			"subject": s.Subject,
		},
	})
	if err == nil {
		_, err = svc.publisher.Publish(ctx, evt)
	}
	if err != nil {
		// the owner already has the message
		svc.logger.Warn("message/send not emitted", zap.Error(err))
	}
	return nil
}
