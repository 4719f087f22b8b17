package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"quizhub/internal/auth"
	"quizhub/internal/domain"
	"quizhub/internal/infra/memory"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	service := auth.NewCredentialService(memory.NewCredentialStore())

	cred, err := service.Register(ctx, "alice", "wonder", "wonder")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if cred.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %q", cred.Role)
	}
	if cred.Salt == "" || cred.Hash == "" {
		t.Fatalf("expected salt and hash to be set")
	}

	got, err := service.Authenticate(ctx, "alice", "wonder")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("expected alice, got %q", got.Username)
	}
}

func TestAuthenticateRejectsUniformly(t *testing.T) {
	ctx := context.Background()
	service := auth.NewCredentialService(memory.NewCredentialStore())

	if _, err := service.Register(ctx, "alice", "wonder", "wonder"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := service.Authenticate(ctx, "alice", "nope-nope")
	_, unknownUser := service.Authenticate(ctx, "mallory", "whatever")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	// Both paths must be indistinguishable to the caller.
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("rejections differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	service := auth.NewCredentialService(memory.NewCredentialStore())
	if _, err := service.Register(ctx, "bob", "builder", "builder"); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		name     string
		username string
		password string
		confirm  string
		reason   string
	}{
		{"missing username", "", "wonder", "wonder", "missing"},
		{"missing password", "alice", "", "", "missing"},
		{"mismatched confirmation", "alice", "wonder", "wander", "mismatch"},
		{"too short", "alice", "abc", "abc", "short"},
		{"duplicate username", "bob", "builder", "builder", "exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(ctx, tc.username, tc.password, tc.confirm)
			verr, ok := auth.IsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, verr.Reason)
			}
		})
	}
}

func TestSeedDefaultOnlyOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCredentialStore()
	service := auth.NewCredentialService(store)

	if err := service.SeedDefault(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cred, ok, err := store.Lookup(ctx, auth.DefaultUsername)
	if err != nil || !ok {
		t.Fatalf("expected default account, ok=%v err=%v", ok, err)
	}
	if cred.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role on default account, got %q", cred.Role)
	}

	// Seeding again must not touch a populated store.
	firstHash := cred.Hash
	if err := service.SeedDefault(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	cred, _, _ = store.Lookup(ctx, auth.DefaultUsername)
	if cred.Hash != firstHash {
		t.Fatalf("seed overwrote an existing credential")
	}
}

func TestConcurrentRegistrationsAllPersist(t *testing.T) {
	ctx := context.Background()
	service := auth.NewCredentialService(memory.NewCredentialStore())

	usernames := []string{"u1", "u2", "u3", "u4"}
	var wg sync.WaitGroup
	for _, name := range usernames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := service.Register(ctx, name, "pass"+name, "pass"+name); err != nil {
				t.Errorf("register %s: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	names, err := service.Usernames(ctx)
	if err != nil {
		t.Fatalf("usernames: %v", err)
	}
	if len(names) != len(usernames) {
		t.Fatalf("expected %d users, got %d: %v", len(usernames), len(names), names)
	}
}
