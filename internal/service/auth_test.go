package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/auth"
	"github.com/victorlut/cheathub/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository keyed by username.
type fakeUserRepo struct {
	users map[string]*model.User
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[user.Username]; ok {
		return apperror.Conflict("user", user.Username)
	}
	user.ID = "user-" + user.Username
	stored := *user
	f.users[user.Username] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	copied := *u
	return &copied, nil
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(repo, ts, auth.NewPasswordServiceWithCost(4), logger), ts
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_IssuesTokenForUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc, ts := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), " ada ", "correct-horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.User.Username != "ada" {
		t.Errorf("Username = %q, want trimmed %q", result.User.Username, "ada")
	}
	if result.User.PasswordHash == "correct-horse" || !strings.HasPrefix(result.User.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", result.User.PasswordHash)
	}

	subject, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if subject != "ada" {
		t.Errorf("token subject = %q, want %q", subject, "ada")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "long-enough"},
		{"bad characters", "ada lovelace", "long-enough"},
		{"short password", "ada", "short"},
		{"password over bcrypt limit", "ada", strings.Repeat("p", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(t, newFakeUserRepo())
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "ada", "correct-horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), "ada", "another-pass")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_RepoError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("disk full")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "ada", "correct-horse")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Register() error = %v, want wrapped repo error", err)
	}
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	if _, err := svc.Register(context.Background(), "ada", "correct-horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "ada", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned an empty token")
	}

	for _, tc := range []struct{ user, pass string }{
		{"ada", "wrong-horse"},
		{"nobody", "correct-horse"},
	} {
		_, err := svc.Login(context.Background(), tc.user, tc.pass)
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login(%q) error = %v, want ErrUnauthorized", tc.user, err)
		}
	}
}

func TestGetUser(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	if _, err := svc.Register(context.Background(), "grace", "correct-horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUser(context.Background(), "grace")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Username != "grace" {
		t.Errorf("Username = %q, want %q", user.Username, "grace")
	}

	if _, err := svc.GetUser(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("GetUser(\"\") error = %v, want ErrUnauthorized", err)
	}
}
