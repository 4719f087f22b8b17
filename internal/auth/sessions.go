package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quizhub/internal/domain"
)

// TokenStore persists session tokens (Redis in production, in-memory for
// tests and single-node setups).
type TokenStore interface {
	Save(ctx context.Context, token, username string, ttl time.Duration) error
	Resolve(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// SessionManager issues and resolves opaque session tokens carried in the
// session cookie.
type SessionManager struct {
	store TokenStore
	ttl   time.Duration
}

func NewSessionManager(store TokenStore, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, ttl: ttl}
}

// Create issues a new token bound to the username.
func (m *SessionManager) Create(ctx context.Context, username string) (string, error) {
	token := uuid.New().String()
	if err := m.store.Save(ctx, token, username, m.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// Resolve returns the username bound to a token, or ErrSessionNotFound.
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrSessionNotFound
	}
	return m.store.Resolve(ctx, token)
}

// Destroy removes a token. Destroying an unknown token is not an error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}
