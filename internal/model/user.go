// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// A user can authenticate with an email/password pair, with an OAuth
// provider, or both. PasswordHash is empty for OAuth-only accounts — those
// users never set a password, so there is nothing to verify locally.
//
// Email is the identity key: OAuth logins are matched to existing accounts
// by email, and the storage layer enforces a UNIQUE constraint on it.
// The provider linkage itself lives in Account, not here.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Image         string    `json:"image"` // avatar URL, may be empty
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	PasswordHash  string    `json:"-"` // never serialized; empty for OAuth-only accounts
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RoleUser is the default role assigned at registration.
const RoleUser = "USER"

// Account links a User to an external OAuth provider identity.
//
// The (provider, providerAccountId) pair is unique: one Google or GitHub
// identity maps to exactly one local account. A user may hold several
// Account rows (e.g. both Google and GitHub linked to the same email).
type Account struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Type              string    `json:"type"` // always "oauth" for now
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"providerAccountId"`
	CreatedAt         time.Time `json:"createdAt"`
}
