// Package mailer sends the site's transactional email.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/folio/internal/core"
	"go.uber.org/zap"
)

// Message kinds, used as metric labels.
const (
	KindWelcome = "welcome"
	KindSignIn  = "signin"
	KindContact = "contact"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder receives one observation per email.
type Recorder interface {
	RecordEmail(kind, status string)
}

// ContactMessage is a contact form submission to relay.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Config holds mailer settings.
type Config struct {
	From      string
	ContactTo string
}

// Mailer composes site emails and hands them to a Sender.
type Mailer struct {
	sender    Sender
	from      string
	contactTo string
	recorder  Recorder
	logger    *zap.Logger
}

// New creates a new Mailer. logger and rec may be nil.
func New(sender Sender, cfg Config, logger *zap.Logger, rec Recorder) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		sender:    sender,
		from:      cfg.From,
		contactTo: cfg.ContactTo,
		recorder:  rec,
		logger:    logger.Named("mailer"),
	}
}

// SendWelcome greets a newly registered user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	if name == "" {
		name = to
	}
	return m.send(ctx, KindWelcome, Message{
		To:      []string{to},
		Subject: "Welcome!",
		Body:    fmt.Sprintf("Welcome, %s!\n\nThanks for joining us!\n", name),
	})
}

// SendSignInLink mails a one-time sign-in link.
func (m *Mailer) SendSignInLink(ctx context.Context, to, link string) error {
	return m.send(ctx, KindSignIn, Message{
		To:      []string{to},
		Subject: "Sign in to your account",
		Body: fmt.Sprintf("Use the link below to sign in:\n\n%s\n\n"+
			"If you did not request this email you can safely ignore it.\n", link),
	})
}

// SendContact relays a contact form submission to the site owner with
// Reply-To set to the visitor.
func (m *Mailer) SendContact(ctx context.Context, c ContactMessage) error {
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\n", c.Name)
	fmt.Fprintf(&body, "Email: %s\n", c.Email)
	fmt.Fprintf(&body, "Subject: %s\n\n", c.Subject)
	body.WriteString(c.Message)
	body.WriteString("\n")

	return m.send(ctx, KindContact, Message{
		To:      []string{m.contactTo},
		ReplyTo: c.Email,
		Subject: "Contact: " + c.Subject,
		Body:    body.String(),
	})
}

func (m *Mailer) send(ctx context.Context, kind string, msg Message) error {
	msg.From = m.from
	err := m.deliver(ctx, msg)
	if m.recorder != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.recorder.RecordEmail(kind, status)
	}
	if err != nil {
		m.logger.Warn("email not sent",
			zap.String("kind", kind),
			zap.Strings("to", msg.To),
			zap.Error(err),
		)
		return err
	}
	m.logger.Debug("email sent", zap.String("kind", kind), zap.Strings("to", msg.To))
	return nil
}

func (m *Mailer) deliver(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 || msg.To[0] == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("email recipient required"))
	}
	if m.sender == nil {
		return core.WrapError(core.ErrEmailFailed, fmt.Errorf("no sender configured"))
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return core.WrapError(core.ErrEmailFailed, err)
	}
	return nil
}
