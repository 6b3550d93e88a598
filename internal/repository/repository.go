// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/arnab/codecanvas/internal/model"
)

// ListOptions filters and paginates a project listing. Page is 1-based.
// Template and Search are optional; empty values match everything.
type ListOptions struct {
	Page     int
	Limit    int
	Template model.Template
	Search   string // case-insensitive substring over title and description
}

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict when the
	// email is already registered — the UNIQUE constraint is the
	// enforcement point, not application code.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail returns apperror.ErrNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// LinkAccount upserts the (provider, providerAccountId) linkage.
	// Linking the same provider identity twice is a no-op.
	LinkAccount(ctx context.Context, account *model.Account) error
}

type ProjectRepository interface {
	// CreateProject inserts the project and its file blob atomically.
	CreateProject(ctx context.Context, project *model.Project, files model.FileTree) error
	// GetProjectByID returns the project including its file blob.
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	// ListProjects returns one page of the user's projects (metadata only,
	// newest first) and the total count across all pages.
	ListProjects(ctx context.Context, userID string, opts ListOptions) ([]model.Project, int, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	// DeleteProject removes the project; the file blob and star-marks
	// cascade at the storage layer.
	DeleteProject(ctx context.Context, id string) error
	IsStarred(ctx context.Context, userID, projectID string) (bool, error)
	SetStar(ctx context.Context, userID, projectID string, starred bool) error
}
