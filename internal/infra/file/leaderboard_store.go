package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"quizhub/internal/domain"
)

// LeaderboardStore persists attempts as a JSON array, append-only. The
// single mutex serializes concurrent Appends; without it two submissions
// racing through load-append-save would drop one of them.
type LeaderboardStore struct {
	path string
	mu   sync.Mutex
}

func NewLeaderboardStore(path string) (*LeaderboardStore, error) {
	s := &LeaderboardStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LeaderboardStore) load() ([]domain.Attempt, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var attempts []domain.Attempt
	if err := json.Unmarshal(data, &attempts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return attempts, nil
}

func (s *LeaderboardStore) save(attempts []domain.Attempt) error {
	data, err := json.MarshalIndent(attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Append adds the attempt unless its ID is already present, making replays
// from the snapshot retry loop harmless.
func (s *LeaderboardStore) Append(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempts, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range attempts {
		if existing.ID != "" && existing.ID == attempt.ID {
			return nil
		}
	}
	return s.save(append(attempts, attempt))
}

func (s *LeaderboardStore) List(_ context.Context) ([]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}
