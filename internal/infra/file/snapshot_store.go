package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"quizhub/internal/domain"
)

// SnapshotStore keeps one JSON file per unrecorded attempt under dir. The
// files survive restarts, so attempts completed during a leaderboard outage
// are replayed on the next flush.
type SnapshotStore struct {
	dir string
}

func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (s *SnapshotStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *SnapshotStore) Save(_ context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(attempt.ID), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", attempt.ID, err)
	}
	return nil
}

func (s *SnapshotStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot %s: %w", id, err)
	}
	return nil
}

func (s *SnapshotStore) Pending(_ context.Context) ([]domain.Attempt, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var pending []domain.Attempt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", entry.Name(), err)
		}
		var attempt domain.Attempt
		if err := json.Unmarshal(data, &attempt); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", entry.Name(), err)
		}
		pending = append(pending, attempt)
	}
	return pending, nil
}
