// Package service contains the business logic layer.
//
// Layering follows the usual shape: handlers parse HTTP and write
// responses, services enforce the rules, repositories talk to storage.
// Services accept primitives and return domain errors from apperror —
// they never see HTTP types or status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/arnab/codecanvas/internal/apperror"
	"github.com/arnab/codecanvas/internal/auth"
	"github.com/arnab/codecanvas/internal/model"
	"github.com/arnab/codecanvas/internal/repository"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

// AuthService handles registration, login, OAuth login-or-register, and
// token refresh.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
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

// AuthResult bundles the authenticated user with their issued token pair.
type AuthResult struct {
	User   *model.User
	Tokens *auth.TokenPair
}

// Register creates a new password-based account and issues tokens.
//
// Duplicate emails surface as apperror.ErrConflict — the repository's
// UNIQUE constraint is the enforcement point, so the guarantee holds even
// under concurrent registrations.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:         email,
		Name:          strings.TrimSpace(name),
		EmailVerified: true,
		PasswordHash:  hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issue(user)
}

// Login verifies an email/password pair and issues tokens.
//
// Unknown email, OAuth-only account (no stored hash), and wrong password
// all return the same apperror.ErrUnauthorized message so responses don't
// reveal which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, invalid
	}
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, invalid
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// LoginOrRegisterOAuth completes an OAuth callback: find-or-create the
// local user by email, upsert the provider account link, and issue tokens.
//
// Matching by email means a user who registered with a password and later
// signs in with Google lands in the same account, with the Google identity
// linked alongside.
func (s *AuthService) LoginOrRegisterOAuth(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	if profile == nil || profile.Email == "" {
		return nil, fmt.Errorf("service/auth: OAuth profile must carry an email")
	}

	user, err := s.users.GetUserByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		// existing account, fall through to linking
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Email:         profile.Email,
			Name:          profile.Name,
			Image:         profile.Image,
			EmailVerified: true,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating OAuth user %s: %w", profile.Email, err)
		}
	default:
		return nil, fmt.Errorf("service/auth: looking up %s: %w", profile.Email, err)
	}

	account := &model.Account{
		UserID:            user.ID,
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
	}
	if err := s.users.LinkAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("service/auth: linking %s account: %w", profile.Provider, err)
	}

	s.logger.Info("user authenticated via OAuth",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)

	return s.issue(user)
}

// Refresh validates a refresh token and issues a new rotated pair.
func (s *AuthService) Refresh(refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.ValidationFailed("refreshToken", "refresh token is required")
	}

	ident, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired refresh token")
	}

	pair, err := s.tokens.GeneratePair(ident.UserID, ident.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: rotating tokens for user %s: %w", ident.UserID, err)
	}
	return pair, nil
}

// GetUserByID returns the full user record for a validated identity.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	pair, err := s.tokens.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating tokens for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}
