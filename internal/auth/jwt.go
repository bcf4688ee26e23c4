// Package auth provides the credential machinery for the QueryHive API:
// JWT issue/verify, the cookie middleware, the owner policy, bcrypt password
// hashing, and the optional GitHub sign-in provider.
//
// AUTHENTICATION FLOW:
// 1. The client signs up (POST /users) or signs in via GitHub
// 2. POST /jwt issues a signed JWT bound to the user's email, stored in an
//    HttpOnly cookie named "token"
// 3. On owner-only routes, middleware reads the cookie, verifies the JWT,
//    and puts the email in the request context
// 4. Handlers compare that email against the requested resource owner via
//    AssertOwner
//
// The token is stateless: there is no server-side session or revocation
// list. Logout only clears the cookie, so a stolen token stays valid until
// its natural expiry. That trade-off is documented and accepted for this
// app's risk profile.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "queryhive"

// Sentinel errors returned by Verify. Callers distinguish an expired
// credential (the user just needs to sign in again) from a malformed or
// tampered one.
var (
	ErrExpiredToken = errors.New("auth: token expired")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// TokenService issues and verifies the signed credential that backs every
// owner-only check. It holds the HMAC secret and the configured lifetime;
// the same secret signs and verifies, so it must be identical across
// restarts or every outstanding cookie dies.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production (JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. The standard "sub" claim carries the user's
// email, the identity every ownership comparison uses.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a JWT for the given email using the configured
// lifetime.
//
// Signing algorithm is HS256 (HMAC-SHA256): symmetric, fast, and fine for a
// single-server deployment where one process both signs and verifies.
func (s *TokenService) Issue(email string) (string, error) {
	return s.IssueWithDuration(email, s.ttl)
}

// IssueWithDuration creates a token with a custom expiry. Tests use this to
// mint already-expired tokens without sleeping.
func (s *TokenService) IssueWithDuration(email string, d time.Duration) (string, error) {
	if email == "" {
		return "", errors.New("auth: email must not be empty")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a JWT string and returns the email it binds.
//
// The jwt library checks the signature, the expiry, and the issuer.
// Restricting to HS256 via WithValidMethods prevents algorithm-confusion
// attacks (a token claiming alg "none" is rejected outright).
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return c.Subject, nil
}
