// internal/auth/store.go
package auth

import (
	"context"
	"errors"
	"time"
)

// ErrUserExists is returned by CreateUser when the address is taken.
var ErrUserExists = errors.New("user already exists")

// Role is a user's access level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a signed-in browser session.
type Session struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Expires time.Time `json:"expires"`
}

// VerificationToken is a single-use sign-in token bound to an address.
type VerificationToken struct {
	Token   string
	Email   string
	Expires time.Time
}

// Store defines the interface for auth persistence.
type Store interface {
	// SaveToken stores a verification token.
	SaveToken(ctx context.Context, t VerificationToken) error

	// ConsumeToken removes and returns the token issued for email.
	ConsumeToken(ctx context.Context, token, email string) (*VerificationToken, error)

	// UserByEmail looks a user up by address.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// UserByID looks a user up by id.
	UserByID(ctx context.Context, id string) (*User, error)

	// CreateUser stores a new user, failing with ErrUserExists when the
	// address is taken.
	CreateUser(ctx context.Context, u User) error

	// CreateSession stores a new session.
	CreateSession(ctx context.Context, s Session) error

	// Session retrieves a session by id.
	Session(ctx context.Context, id string) (*Session, error)

	// DeleteSession removes a session. Missing sessions are ignored.
	DeleteSession(ctx context.Context, id string) error

	// CountSessions returns the number of stored sessions.
	CountSessions(ctx context.Context) (int, error)
}
