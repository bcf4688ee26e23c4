package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/auth"
	"github.com/nahid/queryhive-server/internal/model"
)

// fakeUserRepo is a map-backed UserRepository keyed by email.
type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.Email]; ok {
		return apperror.Conflict("user", user.Email)
	}
	f.nextID++
	user.ID = string(rune('a' + f.nextID))
	cp := *user
	f.users[user.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpsertUserByEmail(_ context.Context, user *model.User) error {
	if existing, ok := f.users[user.Email]; ok {
		existing.Name = user.Name
		existing.PhotoURL = user.PhotoURL
		user.ID = existing.ID
		return nil
	}
	return f.CreateUser(context.Background(), user)
}

func newAuthServiceFixture(t *testing.T) (*AuthService, *fakeUserRepo, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-key-for-jwt-signing", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	users := newFakeUserRepo()
	svc := NewAuthService(users, tokens, auth.NewPasswordServiceForTest(4), testLogger())
	return svc, users, tokens
}

func TestAuthRegister_HashesPassword(t *testing.T) {
	svc, users, _ := newAuthServiceFixture(t)

	user, err := svc.Register(context.Background(), "alice@example.com", "Alice", "", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.PasswordHash == "" {
		t.Fatal("Register() stored no password hash")
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatal("Register() stored the plaintext password")
	}

	stored := users.users["alice@example.com"]
	if stored == nil || stored.PasswordHash != user.PasswordHash {
		t.Error("stored user does not carry the hash")
	}
}

func TestAuthRegister_PasswordlessAccount(t *testing.T) {
	svc, _, _ := newAuthServiceFixture(t)

	user, err := svc.Register(context.Background(), "alice@example.com", "Alice", "https://example.com/a.png", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.PasswordHash != "" {
		t.Errorf("PasswordHash = %q, want empty for a passwordless account", user.PasswordHash)
	}
}

func TestAuthRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthServiceFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "Alice", "", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := svc.Register(ctx, "alice@example.com", "Impostor", "", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() duplicate error = %v, want ErrConflict", err)
	}
}

func TestAuthIssueSession_PasswordAccount(t *testing.T) {
	svc, _, tokens := newAuthServiceFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "Alice", "", "s3cret-pass"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Wrong or missing password is refused outright.
	if _, err := svc.IssueSession(ctx, "alice@example.com", "wrong"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("IssueSession() wrong password error = %v, want ErrForbidden", err)
	}
	if _, err := svc.IssueSession(ctx, "alice@example.com", ""); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("IssueSession() empty password error = %v, want ErrForbidden", err)
	}

	token, err := svc.IssueSession(ctx, "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}
	email, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("token bound to %q, want %q", email, "alice@example.com")
	}
}

func TestAuthIssueSession_HashlessAccount(t *testing.T) {
	svc, _, tokens := newAuthServiceFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "Alice", "", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, err := svc.IssueSession(ctx, "alice@example.com", "")
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}
	if email, _ := tokens.Verify(token); email != "alice@example.com" {
		t.Errorf("token bound to %q, want %q", email, "alice@example.com")
	}
}

func TestAuthIssueSession_UnknownEmail(t *testing.T) {
	svc, _, tokens := newAuthServiceFixture(t)

	// The client asserts identities it established elsewhere; an email the
	// server has never stored still gets a session.
	token, err := svc.IssueSession(context.Background(), "stranger@example.com", "")
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}
	if email, _ := tokens.Verify(token); email != "stranger@example.com" {
		t.Errorf("token bound to %q, want %q", email, "stranger@example.com")
	}
}

func TestAuthIssueSession_EmptyEmail(t *testing.T) {
	svc, _, _ := newAuthServiceFixture(t)

	if _, err := svc.IssueSession(context.Background(), "  ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("IssueSession() error = %v, want ErrValidation", err)
	}
}

func TestAuthLoginOrRegisterGitHub(t *testing.T) {
	svc, users, tokens := newAuthServiceFixture(t)
	ctx := context.Background()

	token, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{
		ID:        42,
		Login:     "alice-gh",
		Email:     "alice@example.com",
		AvatarURL: "https://example.com/gh.png",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if email, _ := tokens.Verify(token); email != "alice@example.com" {
		t.Errorf("token bound to %q, want %q", email, "alice@example.com")
	}

	stored := users.users["alice@example.com"]
	if stored == nil {
		t.Fatal("GitHub sign-in did not create the user")
	}
	if stored.Name != "alice-gh" {
		t.Errorf("Name = %q, want GitHub login", stored.Name)
	}
}

func TestAuthLoginOrRegisterGitHub_NoEmail(t *testing.T) {
	svc, _, _ := newAuthServiceFixture(t)

	_, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 42, Login: "private-gh"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("LoginOrRegisterGitHub() without email error = %v, want ErrValidation", err)
	}
}
