// internal/auth/memory.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/folio/internal/core"
)

// MemoryStore is an in-memory auth store.
type MemoryStore struct {
	mu       sync.RWMutex
	tokens   map[string]VerificationToken
	users    map[string]User
	byEmail  map[string]string
	sessions map[string]Session

	now func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:   make(map[string]VerificationToken),
		users:    make(map[string]User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// SaveToken also drops every token that has already expired, so links that
// are never followed do not accumulate.
func (m *MemoryStore) SaveToken(ctx context.Context, t VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, old := range m.tokens {
		if !now.Before(old.Expires) {
			delete(m.tokens, k)
		}
	}
	m.tokens[t.Token] = t
	return nil
}

// ConsumeToken deletes the token even when it has expired; a token whose
// address does not match is left in place.
func (m *MemoryStore) ConsumeToken(ctx context.Context, token, email string) (*VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[token]
	if !ok || t.Email != email {
		return nil, core.ErrTokenInvalid
	}
	delete(m.tokens, token)
	return &t, nil
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) UserByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[u.Email]; exists {
		return fmt.Errorf("%s: %w", u.Email, ErrUserExists)
	}
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Session(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) CountSessions(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions), nil
}
