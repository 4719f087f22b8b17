package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"quizhub/internal/domain"
)

// CredentialStore persists credentials as a username-keyed JSON object,
// the same shape the original data file used. Every mutation is a full
// load-modify-save cycle under one mutex, so concurrent registrations
// cannot overwrite each other.
type CredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewCredentialStore opens the store at path. A missing file means an empty
// store; an unreadable or corrupt file is a startup error rather than a
// silent empty default.
func NewCredentialStore(path string) (*CredentialStore, error) {
	s := &CredentialStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CredentialStore) load() (map[string]domain.Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]domain.Credential), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return make(map[string]domain.Credential), nil
	}
	var creds map[string]domain.Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	// The original data files keyed records by username without repeating
	// the name inside; restore it when absent.
	for username, cred := range creds {
		if cred.Username == "" {
			cred.Username = username
			creds[username] = cred
		}
	}
	return creds, nil
}

func (s *CredentialStore) save(creds map[string]domain.Credential) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *CredentialStore) Lookup(_ context.Context, username string) (domain.Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.load()
	if err != nil {
		return domain.Credential{}, false, err
	}
	cred, ok := creds[username]
	return cred, ok, nil
}

func (s *CredentialStore) Upsert(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.load()
	if err != nil {
		return err
	}
	creds[cred.Username] = cred
	return s.save(creds)
}

func (s *CredentialStore) All(_ context.Context) ([]domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Credential, 0, len(creds))
	for _, cred := range creds {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
