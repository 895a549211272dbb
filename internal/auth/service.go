// Package auth implements passwordless email-link sign-in with server-side
// sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/events"
	"go.uber.org/zap"
)

// CookieName carries the session id.
const CookieName = "folio_session"

// VerifyPath is where sign-in links point.
const VerifyPath = "/api/auth/verify"

// LinkMailer delivers sign-in links.
type LinkMailer interface {
	SendSignInLink(ctx context.Context, to, link string) error
}

// Publisher emits events without waiting for their handlers.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event) (string, error)
}

// Recorder receives the number of active sessions.
type Recorder interface {
	SetSessionsActive(count int)
}

// Config holds auth settings.
type Config struct {
	BaseURL        string
	TokenTTL       time.Duration
	SessionTTL     time.Duration
	AllowedDomains []string
}

// SessionInfo is a live session and its user.
type SessionInfo struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

// Service runs the sign-in flow.
type Service struct {
	store     Store
	mailer    LinkMailer
	publisher Publisher
	recorder  Recorder
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new auth service. publisher, rec and logger may be nil.
func NewService(store Store, mailer LinkMailer, publisher Publisher, cfg Config, logger *zap.Logger, rec Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Service{
		store:     store,
		mailer:    mailer,
		publisher: publisher,
		recorder:  rec,
		cfg:       cfg,
		logger:    logger.Named("auth"),
		now:       time.Now,
	}
}

// SignIn issues a verification token for email and mails the sign-in link.
func (s *Service) SignIn(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if !s.allowed(email) {
		s.logger.Info("sign in denied", zap.String("email", email))
		return core.ErrSignInDenied
	}

	token := VerificationToken{
		Token:   uuid.NewString(),
		Email:   email,
		Expires: s.now().Add(s.cfg.TokenTTL),
	}
	if err := s.store.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	if err := s.mailer.SendSignInLink(ctx, email, s.link(token)); err != nil {
		return err
	}
	s.logger.Debug("sign in link sent", zap.String("email", email))
	return nil
}

// Verify consumes a token and opens a session, creating the user on first
// sign-in.
func (s *Service) Verify(ctx context.Context, token, email string) (*SessionInfo, error) {
	email = normalizeEmail(email)
	if token == "" || email == "" {
		return nil, core.ErrTokenInvalid
	}

	vt, err := s.store.ConsumeToken(ctx, token, email)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(vt.Expires) {
		return nil, core.ErrTokenExpired
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		user, err = s.register(ctx, email)
		if errors.Is(err, ErrUserExists) {
			// a concurrent verification registered the address first
			user, err = s.store.UserByEmail(ctx, email)
			if err == nil && user == nil {
				err = fmt.Errorf("user %s vanished after registration", email)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	session := Session{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		Expires: s.now().Add(s.cfg.SessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.reportSessions(ctx)

	return &SessionInfo{Session: session, User: *user}, nil
}

// Session returns the live session id and its user. Expired sessions are
// removed and reported as not found.
func (s *Service) Session(ctx context.Context, id string) (*SessionInfo, error) {
	if id == "" {
		return nil, core.ErrSessionNotFound
	}
	session, err := s.store.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(session.Expires) {
		s.store.DeleteSession(ctx, id)
		s.reportSessions(ctx)
		return nil, core.ErrSessionNotFound
	}

	user, err := s.store.UserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, core.ErrSessionNotFound
	}
	return &SessionInfo{Session: *session, User: *user}, nil
}

// SignOut ends a session. Unknown ids are ignored.
func (s *Service) SignOut(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.reportSessions(ctx)
	return nil
}

// SessionTTL returns how long new sessions live.
func (s *Service) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

func (s *Service) register(ctx context.Context, email string) (*User, error) {
	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      RoleUser,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("email", email))

	if s.publisher != nil {
		evt, err := events.NewEvent(events.UserRegistered, events.UserRegisteredData{
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Timestamp: user.CreatedAt.Format(time.RFC3339),
		})
		if err == nil {
			_, err = s.publisher.Publish(ctx, evt)
		}
		if err != nil {
			s.logger.Warn("user/registered not emitted", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return &user, nil
}

func (s *Service) link(t VerificationToken) string {
	q := url.Values{}
	q.Set("token", t.Token)
	q.Set("email", t.Email)
	return s.cfg.BaseURL + VerifyPath + "?" + q.Encode()
}

func (s *Service) allowed(email string) bool {
	if len(s.cfg.AllowedDomains) == 0 {
		return true
	}
	for _, d := range s.cfg.AllowedDomains {
		d = strings.ToLower(strings.TrimPrefix(d, "@"))
		if strings.HasSuffix(email, "@"+d) {
			return true
		}
	}
	return false
}

func (s *Service) reportSessions(ctx context.Context) {
	if s.recorder == nil {
		return
	}
	if n, err := s.store.CountSessions(ctx); err == nil {
		s.recorder.SetSessionsActive(n)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail reports every problem with the address at once.
func validateEmail(email string) error {
	var result *multierror.Error
	if email == "" {
		result = multierror.Append(result, errors.New("email is required"))
	} else {
		if !strings.Contains(email, "@") {
			result = multierror.Append(result, errors.New("email must contain @"))
		} else if addr, err := mail.ParseAddress(email); err != nil {
			result = multierror.Append(result, fmt.Errorf("email is malformed: %w", err))
		} else if addr.Address != email {
			result = multierror.Append(result, errors.New("email must be a bare address"))
		}
		if len(email) > 254 {
			result = multierror.Append(result, errors.New("email is longer than 254 characters"))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	return nil
}
