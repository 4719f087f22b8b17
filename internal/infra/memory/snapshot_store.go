package memory

import (
	"context"
	"sync"

	"quizhub/internal/domain"
)

// SnapshotStore keeps unrecorded attempts in memory. Used in tests and as
// the fallback when no snapshot directory is configured.
type SnapshotStore struct {
	mu       sync.Mutex
	attempts map[string]domain.Attempt
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{attempts: make(map[string]domain.Attempt)}
}

func (s *SnapshotStore) Save(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *SnapshotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, id)
	return nil
}

func (s *SnapshotStore) Pending(_ context.Context) ([]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Attempt, 0, len(s.attempts))
	for _, attempt := range s.attempts {
		out = append(out, attempt)
	}
	return out, nil
}
