package auth

import (
	"context"
	"errors"
	"fmt"

	"quizhub/internal/domain"
)

// CredentialStore abstracts how credentials are persisted (JSON file,
// in-memory, etc). Implementations must serialize concurrent Upserts so a
// load-modify-save cycle cannot drop a concurrent registration.
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (domain.Credential, bool, error)
	Upsert(ctx context.Context, cred domain.Credential) error
	All(ctx context.Context) ([]domain.Credential, error)
}

const minPasswordLength = 4

// Default account seeded into an empty store on first run.
const (
	DefaultUsername = "test"
	defaultPassword = "test"
)

// CredentialService implements registration and login on top of a
// CredentialStore and the scrypt Verifier.
type CredentialService struct {
	store    CredentialStore
	verifier Verifier
}

func NewCredentialService(store CredentialStore) *CredentialService {
	return &CredentialService{store: store}
}

// Register validates the input, derives a salted hash and persists a new
// credential with the regular user role.
func (s *CredentialService) Register(ctx context.Context, username, password, confirmPassword string) (domain.Credential, error) {
	if username == "" || password == "" || confirmPassword == "" {
		return domain.Credential{}, domain.NewValidationError("missing")
	}
	if password != confirmPassword {
		return domain.Credential{}, domain.NewValidationError("mismatch")
	}
	if len(password) < minPasswordLength {
		return domain.Credential{}, domain.NewValidationError("short")
	}
	if _, ok, err := s.store.Lookup(ctx, username); err != nil {
		return domain.Credential{}, fmt.Errorf("lookup %q: %w", username, err)
	} else if ok {
		return domain.Credential{}, domain.NewValidationError("exists")
	}
	return s.create(ctx, username, password, domain.RoleUser)
}

func (s *CredentialService) create(ctx context.Context, username, password string, role domain.Role) (domain.Credential, error) {
	salt, err := NewSalt()
	if err != nil {
		return domain.Credential{}, err
	}
	hash, err := s.verifier.Derive(password, salt)
	if err != nil {
		return domain.Credential{}, err
	}
	cred := domain.Credential{
		Username: username,
		Salt:     salt,
		Hash:     hash,
		Role:     role,
	}
	if err := s.store.Upsert(ctx, cred); err != nil {
		return domain.Credential{}, fmt.Errorf("persist credential: %w", err)
	}
	return cred, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords both come back as ErrInvalidCredentials; a derivation is run
// either way so the two cases are not distinguishable by timing.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (domain.Credential, error) {
	cred, ok, err := s.store.Lookup(ctx, username)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("lookup %q: %w", username, err)
	}
	if !ok {
		// Burn a derivation against a throwaway salt.
		_, _ = s.verifier.Derive(password, "0000000000000000")
		return domain.Credential{}, domain.ErrInvalidCredentials
	}
	match, err := s.verifier.Verify(password, cred.Salt, cred.Hash)
	if err != nil || !match {
		return domain.Credential{}, domain.ErrInvalidCredentials
	}
	return cred, nil
}

// SeedDefault creates the default admin account when the store is empty.
// It goes through the same derivation and Upsert path as registration.
func (s *CredentialService) SeedDefault(ctx context.Context) error {
	all, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("list credentials: %w", err)
	}
	if len(all) > 0 {
		return nil
	}
	if _, err := s.create(ctx, DefaultUsername, defaultPassword, domain.RoleAdmin); err != nil {
		return fmt.Errorf("seed default account: %w", err)
	}
	return nil
}

// Usernames lists all registered usernames for the admin endpoint.
func (s *CredentialService) Usernames(ctx context.Context) ([]string, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	names := make([]string, 0, len(all))
	for _, cred := range all {
		names = append(names, cred.Username)
	}
	return names, nil
}

// IsValidation reports whether err is a registration validation rejection.
func IsValidation(err error) (*domain.ValidationError, bool) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
