package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pitchside/apiserver/internal/mq"
	"github.com/pitchside/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo, *fakeEmitter) {
	t.Helper()
	repo := newFakeUserRepo()
	events := &fakeEmitter{}
	svc := NewUserService(repo, events)
	svc.hashCost = bcrypt.MinCost
	return svc, repo, events
}

func TestRegister_NormalizesAndHashes(t *testing.T) {
	svc, repo, events := newTestUserService(t)

	user, err := svc.Register(context.Background(), "  alice ", " A@X.com ", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Username != "alice" || user.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	stored := repo.users[user.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("expected hashed password, got %q", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if len(events.events) != 1 || events.events[0].eventType != mq.EventUserRegistered {
		t.Fatalf("expected user.registered event, got %+v", events.events)
	}
}

func TestRegister_SaltsEachHash(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	a, err := svc.Register(context.Background(), "a", "a@x.com", "samepass")
	if err != nil {
		t.Fatalf("Register a: %v", err)
	}
	b, err := svc.Register(context.Background(), "b", "b@x.com", "samepass")
	if err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if repo.users[a.ID].PasswordHash == repo.users[b.ID].PasswordHash {
		t.Fatalf("expected different hashes for identical passwords")
	}
}

func TestRegister_Duplicates(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, err := svc.Register(ctx, "alice2", "A@x.com", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate email: expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "other@x.com", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: expected ErrUserExists, got %v", err)
	}
}

func TestRegister_RejectsCrossFieldCollisions(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "b@x.com", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// The new email is an existing username.
	if _, err := svc.Register(ctx, "bob", "b@x.com", "secret2"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("email taken as username: expected ErrUserExists, got %v", err)
	}
	// The new username is an existing email, compared case-insensitively.
	if _, err := svc.Register(ctx, "A@X.com", "c@x.com", "secret2"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("username taken as email: expected ErrUserExists, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
		want                      error
	}{
		{name: "missing username", username: " ", email: "a@x.com", password: "secret1", want: ErrMissingFields},
		{name: "missing email", username: "a", email: "", password: "secret1", want: ErrMissingFields},
		{name: "missing password", username: "a", email: "a@x.com", password: "", want: ErrMissingFields},
		{name: "short password", username: "a", email: "a@x.com", password: "12345", want: ErrPasswordTooShort},
		{name: "long password", username: "a", email: "a@x.com", password: strings.Repeat("x", 80), want: ErrPasswordTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.username, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthenticate_ByUsernameOrEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	for _, identifier := range []string{"alice", "a@x.com", " A@X.COM "} {
		user, err := svc.Authenticate(ctx, identifier, "secret1")
		if err != nil {
			t.Fatalf("Authenticate(%q) error: %v", identifier, err)
		}
		if user.ID != registered.ID {
			t.Fatalf("Authenticate(%q) returned user %d, want %d", identifier, user.ID, registered.ID)
		}
	}
}

func TestAuthenticate_PrefersEmailMatch(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	ctx := context.Background()

	// Rows that predate the cross-field registration check.
	hashA, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	hashB, _ := bcrypt.GenerateFromPassword([]byte("secret2"), bcrypt.MinCost)
	repo.users[1] = types.User{ID: 1, Username: "b@x.com", Email: "a@x.com", PasswordHash: string(hashA)}
	repo.users[2] = types.User{ID: 2, Username: "bob", Email: "b@x.com", PasswordHash: string(hashB)}
	repo.nextID = 2

	user, err := svc.Authenticate(ctx, "b@x.com", "secret2")
	if err != nil {
		t.Fatalf("Authenticate by email: %v", err)
	}
	if user.ID != 2 {
		t.Fatalf("Authenticate resolved user %d, want 2", user.ID)
	}
}

func TestAuthenticate_UniformFailure(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, wrongPassword := svc.Authenticate(ctx, "alice", "nope123")
	_, unknownUser := svc.Authenticate(ctx, "bob", "secret1")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestAuthenticate_RepoError(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	repo.err = errors.New("db down")

	_, err := svc.Authenticate(context.Background(), "alice", "secret1")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.ResetPassword(ctx, "A@x.com", "newsecret"); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "newsecret"); err != nil {
		t.Fatalf("new password: %v", err)
	}
}

func TestResetPassword_Errors(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if err := svc.ResetPassword(ctx, "ghost@x.com", "newsecret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	// An unknown email is reported before the new password is validated.
	if err := svc.ResetPassword(ctx, "ghost@x.com", "123"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email with short password: expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := svc.ResetPassword(ctx, "a@x.com", "123"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	if _, err := svc.GetByID(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
