package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/arnab/codecanvas/internal/apperror"
	"github.com/arnab/codecanvas/internal/model"
	"github.com/arnab/codecanvas/internal/repository"
)

// compile-time check that *DB implements repository.ProjectRepository
var _ repository.ProjectRepository = (*DB)(nil)

// CreateProject inserts the project row and its file blob in one
// transaction. The blob is the JSON-encoded file tree — a snapshot taken at
// creation time that later template edits never touch.
func (db *DB) CreateProject(ctx context.Context, project *model.Project, files model.FileTree) error {
	now := time.Now()
	project.ID = xid.New().String()
	project.CreatedAt = now
	project.UpdatedAt = now

	content, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("sqlite: encoding file tree: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, template, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Title,
		project.Description,
		project.Template,
		project.UserID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project: %w", err)
	}

	filesRow := &model.ProjectFiles{
		ID:        xid.New().String(),
		ProjectID: project.ID,
		Content:   files,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_files (id, project_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		filesRow.ID,
		filesRow.ProjectID,
		string(content),
		filesRow.CreatedAt,
		filesRow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project files: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing project create: %w", err)
	}

	project.Files = filesRow
	return nil
}

// GetProjectByID retrieves a project together with its file blob.
// Ownership is NOT checked here — that is a service-layer rule.
func (db *DB) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	var (
		p       model.Project
		files   model.ProjectFiles
		content string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT p.id, p.title, p.description, p.template, p.user_id, p.created_at, p.updated_at,
		        f.id, f.content, f.created_at, f.updated_at
		 FROM projects p
		 JOIN project_files f ON f.project_id = p.id
		 WHERE p.id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Template,
		&p.UserID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&files.ID,
		&content,
		&files.CreatedAt,
		&files.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(content), &files.Content); err != nil {
		return nil, fmt.Errorf("sqlite: decoding file tree for project %s: %w", id, err)
	}
	files.ProjectID = p.ID
	p.Files = &files

	return &p, nil
}

// ListProjects returns one page of the user's projects (newest first) plus
// the total matching count. Search is a case-insensitive substring match on
// title and description; template filters exactly.
func (db *DB) ListProjects(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Project, int, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	where := `WHERE user_id = ?`
	args := []any{userID}

	if opts.Template != "" {
		where += ` AND template = ?`
		args = append(args, opts.Template)
	}
	if opts.Search != "" {
		// LOWER on both sides gives case-insensitive matching regardless
		// of the column's collation.
		where += ` AND (LOWER(title) LIKE '%' || LOWER(?) || '%' OR LOWER(description) LIKE '%' || LOWER(?) || '%')`
		args = append(args, opts.Search, opts.Search)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting projects: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, description, template, user_id, created_at, updated_at
		 FROM projects `+where+`
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0, limit)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Template, &p.UserID,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, total, nil
}

// UpdateProject persists metadata changes (title, description, template).
// The file blob is untouched.
func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects
		 SET title = ?, description = ?, template = ?, updated_at = ?
		 WHERE id = ?`,
		project.Title,
		project.Description,
		project.Template,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("project", project.ID)
	}

	return nil
}

// DeleteProject removes the project row; project_files and starmarks rows
// go with it via ON DELETE CASCADE.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("project", id)
	}

	return nil
}

// IsStarred reports whether the user has star-marked the project.
func (db *DB) IsStarred(ctx context.Context, userID, projectID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM starmarks WHERE user_id = ? AND project_id = ?`,
		userID, projectID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking starmark: %w", err)
	}
	return count > 0, nil
}

// SetStar adds or removes the star-mark. Both directions are idempotent.
func (db *DB) SetStar(ctx context.Context, userID, projectID string, starred bool) error {
	var err error
	if starred {
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO starmarks (user_id, project_id, created_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT (user_id, project_id) DO NOTHING`,
			userID, projectID, time.Now(),
		)
	} else {
		_, err = db.conn.ExecContext(ctx,
			`DELETE FROM starmarks WHERE user_id = ? AND project_id = ?`,
			userID, projectID,
		)
	}
	if err != nil {
		return fmt.Errorf("sqlite: setting starmark: %w", err)
	}
	return nil
}
