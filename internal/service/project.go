package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arnab/codecanvas/internal/apperror"
	"github.com/arnab/codecanvas/internal/model"
	"github.com/arnab/codecanvas/internal/repository"
	"github.com/arnab/codecanvas/internal/templates"
)

// Validation and pagination constants.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	DefaultPageLimit     = 10
	MaxPageLimit         = 100
)

// ProjectService enforces the ownership and validation rules around
// project CRUD. Every operation takes the requesting user's id; a project
// is only readable or writable by its owner.
type ProjectService struct {
	repo   repository.ProjectRepository
	logger *slog.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(repo repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		logger: logger,
	}
}

// Page is one page of a project listing plus its pagination envelope.
type Page struct {
	Data       []model.Project `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ProjectPatch carries a partial metadata update. Nil fields are left
// untouched; a non-nil Description may be the empty string (clearing it).
type ProjectPatch struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Template    *model.Template `json:"template"`
}

// List returns one page of the user's projects, optionally filtered by
// template kind and by a case-insensitive substring over title/description.
func (s *ProjectService) List(ctx context.Context, userID string, opts repository.ListOptions) (*Page, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}
	if opts.Template != "" && !templates.Valid(opts.Template) {
		return nil, apperror.ValidationFailed("template", invalidTemplateMessage(opts.Template))
	}

	projects, total, err := s.repo.ListProjects(ctx, userID, opts)
	if err != nil {
		s.logger.Error("failed to list projects",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	pages := total / opts.Limit
	if total%opts.Limit != 0 {
		pages++
	}

	return &Page{
		Data: projects,
		Pagination: Pagination{
			Page:  opts.Page,
			Limit: opts.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// Get returns a project with its file blob and the requester's star flag.
// Absent id → ErrNotFound; present but foreign → ErrForbidden. The 404/403
// distinction is deliberate: a non-owner learns the project exists but
// nothing more.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*model.Project, error) {
	project, err := s.authorize(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	starred, err := s.repo.IsStarred(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	project.IsStarred = starred

	return project, nil
}

// Create validates the input, snapshots the template's file tree from the
// catalog, and persists both.
func (s *ProjectService) Create(ctx context.Context, userID, title, description string, tpl model.Template) (*model.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if !templates.Valid(tpl) {
		return nil, apperror.ValidationFailed("template", invalidTemplateMessage(tpl))
	}

	files, err := templates.Generate(tpl)
	if err != nil {
		return nil, apperror.ValidationFailed("template", err.Error())
	}

	project := &model.Project{
		Title:       title,
		Description: strings.TrimSpace(description),
		Template:    tpl,
		UserID:      userID,
	}
	if err := s.repo.CreateProject(ctx, project, files); err != nil {
		s.logger.Error("failed to create project",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.String("template", string(project.Template)),
	)

	return project, nil
}

// Update applies a partial metadata patch. Changing the template does NOT
// regenerate the file blob — the blob is a creation-time snapshot.
func (s *ProjectService) Update(ctx context.Context, userID, id string, patch ProjectPatch) (*model.Project, error) {
	project, err := s.authorize(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title cannot be empty")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		project.Title = title
	}
	if patch.Description != nil {
		if len(*patch.Description) > MaxDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
		}
		project.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Template != nil {
		if !templates.Valid(*patch.Template) {
			return nil, apperror.ValidationFailed("template", invalidTemplateMessage(*patch.Template))
		}
		project.Template = *patch.Template
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		s.logger.Error("failed to update project",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated", slog.String("id", project.ID))
	return project, nil
}

// Delete removes the project; the file blob and star-marks cascade.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}

	s.logger.Info("project deleted", slog.String("id", id))
	return nil
}

// Clone copies a project's metadata and a deep copy of its file blob into
// a new project owned by the requester. Title defaults to
// "<original> (Clone)". The requester must own the source — the ownership
// invariant covers reads, and a clone reads the whole blob.
func (s *ProjectService) Clone(ctx context.Context, userID, id, title string) (*model.Project, error) {
	original, err := s.authorize(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = original.Title + " (Clone)"
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	var files model.FileTree
	if original.Files != nil {
		files = original.Files.Content.Clone()
	}

	clone := &model.Project{
		Title:       title,
		Description: original.Description,
		Template:    original.Template,
		UserID:      userID,
	}
	if err := s.repo.CreateProject(ctx, clone, files); err != nil {
		s.logger.Error("failed to clone project",
			slog.String("source", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("cloning project %s: %w", id, err)
	}

	s.logger.Info("project cloned",
		slog.String("source", id),
		slog.String("clone", clone.ID),
	)

	return clone, nil
}

// Star sets or clears the requester's star-mark on a project they own.
func (s *ProjectService) Star(ctx context.Context, userID, id string, starred bool) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.SetStar(ctx, userID, id, starred); err != nil {
		return fmt.Errorf("starring project %s: %w", id, err)
	}
	return nil
}

// authorize fetches the project and enforces ownership.
func (s *ProjectService) authorize(ctx context.Context, userID, id string) (*model.Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "project ID is required")
	}

	project, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, apperror.Forbidden("you do not have access to this project")
	}
	return project, nil
}

func invalidTemplateMessage(t model.Template) string {
	names := make([]string, 0, len(templates.Available()))
	for _, info := range templates.Available() {
		names = append(names, string(info.Name))
	}
	return fmt.Sprintf("invalid template %q, must be one of: %s", t, strings.Join(names, ", "))
}
