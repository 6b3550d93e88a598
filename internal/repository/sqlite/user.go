package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/arnab/codecanvas/internal/apperror"
	"github.com/arnab/codecanvas/internal/model"
	"github.com/arnab/codecanvas/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user row.
//
// The duplicate-email check is NOT a prior SELECT — the UNIQUE constraint
// on users.email does the work, and the constraint violation is translated
// to apperror.ErrConflict. A SELECT-then-INSERT would race between two
// concurrent registrations; the constraint cannot.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, image, role, email_verified, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.Image,
		user.Role,
		user.EmailVerified,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("user with email %s already exists", user.Email))
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by internal id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email. Emails are stored as given at
// registration; lookups are exact-match.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, image, role, email_verified, password_hash, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.Role,
		&u.EmailVerified,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// LinkAccount upserts the provider linkage. ON CONFLICT DO NOTHING keeps
// repeat OAuth logins idempotent — the (provider, provider_account_id)
// pair already points at the right user.
func (db *DB) LinkAccount(ctx context.Context, account *model.Account) error {
	if account.ID == "" {
		account.ID = xid.New().String()
	}
	if account.Type == "" {
		account.Type = "oauth"
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, type, provider, provider_account_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_account_id) DO NOTHING`,
		account.ID,
		account.UserID,
		account.Type,
		account.Provider,
		account.ProviderAccountID,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: linking %s account for user %s: %w", account.Provider, account.UserID, err)
	}

	return nil
}

// isUniqueViolation detects a UNIQUE constraint failure. The pure Go driver
// exposes it only through the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
