// Authentication business logic.
//
// AuthService sits between the HTTP handlers and the user repository /
// token machinery:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (store)
//	                   ↘ TokenService (JWT) ↘ PasswordService (bcrypt)
//
// IDENTITY MODEL:
// The web client this API serves authenticates users with a hosted identity
// provider and then asks POST /jwt for a session cookie bound to the email.
// The server therefore accepts an asserted email for accounts that have no
// password, with one tightening over the original: an account that WAS
// registered with a password can only get a session by presenting it.

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/auth"
	"github.com/nahid/queryhive-server/internal/model"
	"github.com/nahid/queryhive-server/internal/repository"
)

// AuthService handles signup and session issuance.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account. password may be empty (social-login
// accounts authenticate elsewhere); when given it is bcrypt-hashed before
// it ever reaches the repository. Duplicate emails surface as Conflict.
func (s *AuthService) Register(ctx context.Context, email, name, photoURL, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	user := &model.User{
		Email:    email,
		Name:     strings.TrimSpace(name),
		PhotoURL: strings.TrimSpace(photoURL),
	}

	if password != "" {
		hash, err := s.passwords.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("service/auth: hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// IssueSession backs POST /jwt: it returns a signed token for the given
// email, to be set as the session cookie by the handler.
//
// Password accounts must present their password (Forbidden otherwise).
// Hashless accounts (social sign-ins, or emails the server has never
// seen) get a token for the asserted email, preserving the original API's
// contract with its client.
func (s *AuthService) IssueSession(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil && user.PasswordHash != "":
		if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
			s.logger.Warn("session refused: wrong password", slog.String("email", email))
			return "", apperror.Forbidden("invalid credentials")
		}
	case err == nil:
		// Registered, no password set: asserted identity accepted.
	default:
		// Unknown email. The original API signed tokens for any email the
		// client asserted; keep that, but make it visible in the logs.
		s.logger.Info("session for unregistered email", slog.String("email", email))
	}

	token, err := s.tokens.Issue(email)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for %s: %w", email, err)
	}

	s.logger.Info("session issued", slog.String("email", email))
	return token, nil
}

// LoginOrRegisterGitHub completes GitHub social sign-in: upserts the user
// keyed by email and issues the same session token POST /jwt would.
//
// GitHub lets users hide their email; without one there is no identity for
// ownership checks, so the sign-in is rejected rather than inventing an
// identifier the rest of the system can't compare against.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	if ghUser == nil {
		return "", fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	if ghUser.Email == "" {
		return "", apperror.ValidationFailed("email",
			"your GitHub email is not public; expose it or sign up directly")
	}

	name := ghUser.Login
	user := &model.User{
		Email:    ghUser.Email,
		Name:     name,
		PhotoURL: ghUser.AvatarURL,
	}

	if err := s.users.UpsertUserByEmail(ctx, user); err != nil {
		return "", fmt.Errorf("service/auth: upserting GitHub user %s: %w", ghUser.Email, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for %s: %w", user.Email, err)
	}

	return token, nil
}

// GetUserByEmail returns the profile for /me after the middleware has
// verified the cookie.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	return s.users.GetUserByEmail(ctx, email)
}
