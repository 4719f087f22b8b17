package memory

import (
	"context"
	"sync"

	"quizhub/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardStore.
type LeaderboardStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
	seen     map[string]struct{}
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{seen: make(map[string]struct{})}
}

func (s *LeaderboardStore) Append(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[attempt.ID]; ok {
		return nil
	}
	s.seen[attempt.ID] = struct{}{}
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *LeaderboardStore) List(_ context.Context) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out, nil
}
