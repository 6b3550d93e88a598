// Package auth provides JWT token issuance/validation, bcrypt password
// hashing, OAuth provider integration, and the bearer-token middleware.
//
// TOKEN MODEL:
// Two token kinds, signed with two independent HMAC secrets:
//
//   - Access token: short-lived (15 minutes), sent as a bearer header on
//     every API call. Carries the user's id (sub) and email.
//   - Refresh token: long-lived (7 days), exchanged at /api/auth/refresh
//     for a fresh pair. Refresh tokens rotate: each exchange invalidates
//     nothing server-side (stateless JWT) but returns a new refresh token
//     so clients always hold the newest one.
//
// Using separate secrets means a leaked access secret cannot be used to
// mint refresh tokens, and vice versa.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer             = "codecanvas"
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour
)

// Identity is the decoded content of a validated token.
type Identity struct {
	UserID string
	Email  string
}

// TokenPair bundles the two tokens issued on every successful
// authentication (register, login, OAuth callback, refresh).
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs and verifies access and refresh JWTs.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenService creates a TokenService. Both secrets must be at least
// 16 characters; generate them with e.g. `openssl rand -hex 32`.
func NewTokenService(accessSecret, refreshSecret string) (*TokenService, error) {
	if len(accessSecret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if len(refreshSecret) < 16 {
		return nil, errors.New("auth: JWT refresh secret must be at least 16 characters")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

// claims is the JWT payload. The user id travels in the registered "sub"
// claim; email is a private claim so the middleware can attach a full
// identity without a database lookup.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GeneratePair issues an access/refresh token pair for the given identity.
func (s *TokenService) GeneratePair(userID, email string) (*TokenPair, error) {
	access, err := s.generate(s.accessSecret, userID, email, accessTokenExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generate(s.refreshSecret, userID, email, refreshTokenExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// GenerateAccessWithDuration creates an access token with a custom expiry.
// Used by tests to produce already-expired tokens.
func (s *TokenService) GenerateAccessWithDuration(userID, email string, d time.Duration) (string, error) {
	return s.generate(s.accessSecret, userID, email, d)
}

func (s *TokenService) generate(secret []byte, userID, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// ValidateAccess parses and verifies an access token.
func (s *TokenService) ValidateAccess(tokenStr string) (*Identity, error) {
	return s.validate(s.accessSecret, tokenStr)
}

// ValidateRefresh parses and verifies a refresh token. A token signed with
// the access secret fails here even before expiry — the two kinds are not
// interchangeable.
func (s *TokenService) ValidateRefresh(tokenStr string) (*Identity, error) {
	return s.validate(s.refreshSecret, tokenStr)
}

// validate checks signature, expiry, issuer, and algorithm. Restricting the
// algorithm to HS256 prevents algorithm confusion attacks where a token
// signed with "none" slips through.
func (s *TokenService) validate(secret []byte, tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Identity{UserID: c.Subject, Email: c.Email}, nil
}
