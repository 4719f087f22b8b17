package memory

import (
	"context"
	"sync"
	"time"

	"quizhub/internal/domain"
)

// TokenStore is an in-memory implementation of auth.TokenStore with lazy
// expiry.
type TokenStore struct {
	clock func() time.Time

	mu     sync.Mutex
	tokens map[string]tokenEntry
}

type tokenEntry struct {
	username  string
	expiresAt time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		clock:  time.Now,
		tokens: make(map[string]tokenEntry),
	}
}

func (s *TokenStore) Save(_ context.Context, token, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := tokenEntry{username: username}
	if ttl > 0 {
		entry.expiresAt = s.clock().Add(ttl)
	}
	s.tokens[token] = entry
	return nil
}

func (s *TokenStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		delete(s.tokens, token)
		return "", domain.ErrSessionNotFound
	}
	return entry.username, nil
}

func (s *TokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
