package client

import (
	"context"
	"sync"

	"github.com/rs/xid"
)

// ProjectStore is an in-memory, optimistically-updated view of the
// caller's project list.
//
// Mutations update the cached list immediately, then call the API; on
// failure the cache rolls back to its pre-mutation shape:
//
//   - Create inserts a placeholder with a "temp-" ID, replaced by the
//     server row on success and removed on failure.
//   - Update snapshots the row and restores it on failure.
//   - Delete removes the row and re-inserts it at its original position
//     on failure.
//
// Clone is the exception: the clone's ID and files only exist once the
// server answers, so no placeholder is shown.
//
// The store is safe for concurrent use. The last mutation error is kept
// on the store so a UI can surface it; a successful call clears it.
type ProjectStore struct {
	api *Client

	mu       sync.Mutex
	projects []Project
	lastErr  error
}

// NewProjectStore creates an empty store backed by api.
func NewProjectStore(api *Client) *ProjectStore {
	return &ProjectStore{api: api}
}

// Projects returns a copy of the cached list.
func (s *ProjectStore) Projects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Err returns the error from the most recent failed operation, or nil.
func (s *ProjectStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Fetch replaces the cache with one page from the server. On failure the
// cache keeps its previous contents.
func (s *ProjectStore) Fetch(ctx context.Context, params ListParams) error {
	page, err := s.api.ListProjects(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return err
	}
	s.projects = page.Data
	s.lastErr = nil
	return nil
}

// Create inserts an optimistic placeholder, then creates the project on
// the server. The placeholder is replaced by the server row on success
// and removed on failure.
func (s *ProjectStore) Create(ctx context.Context, input CreateProjectInput) (*Project, error) {
	tempID := "temp-" + xid.New().String()
	placeholder := Project{
		ID:          tempID,
		Title:       input.Title,
		Description: input.Description,
		Template:    input.Template,
	}

	s.mu.Lock()
	// Newest first, matching the server's created_at ordering.
	s.projects = append([]Project{placeholder}, s.projects...)
	s.mu.Unlock()

	created, err := s.api.CreateProject(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(tempID)
	if err != nil {
		if idx >= 0 {
			s.projects = append(s.projects[:idx], s.projects[idx+1:]...)
		}
		s.lastErr = err
		return nil, err
	}
	if idx >= 0 {
		s.projects[idx] = *created
	}
	s.lastErr = nil
	return created, nil
}

// Update applies the patch to the cached row immediately, then persists
// it. On failure the cached row is restored from its snapshot.
func (s *ProjectStore) Update(ctx context.Context, id string, input UpdateProjectInput) (*Project, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return s.updateRemote(ctx, id, input)
	}
	snapshot := s.projects[idx]

	if input.Title != nil {
		s.projects[idx].Title = *input.Title
	}
	if input.Description != nil {
		s.projects[idx].Description = *input.Description
	}
	if input.Template != nil {
		s.projects[idx].Template = *input.Template
	}
	s.mu.Unlock()

	updated, err := s.api.UpdateProject(ctx, id, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx = s.indexOf(id)
	if err != nil {
		if idx >= 0 {
			s.projects[idx] = snapshot
		}
		s.lastErr = err
		return nil, err
	}
	if idx >= 0 {
		s.projects[idx] = *updated
	}
	s.lastErr = nil
	return updated, nil
}

// updateRemote handles an update for a row the cache has never seen; no
// optimistic step, the result is appended on success.
func (s *ProjectStore) updateRemote(ctx context.Context, id string, input UpdateProjectInput) (*Project, error) {
	updated, err := s.api.UpdateProject(ctx, id, input)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.projects = append(s.projects, *updated)
	s.lastErr = nil
	return updated, nil
}

// Delete removes the row from the cache immediately, then deletes it on
// the server. On failure the row returns to its original position.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	var removed Project
	if idx >= 0 {
		removed = s.projects[idx]
		s.projects = append(s.projects[:idx], s.projects[idx+1:]...)
	}
	s.mu.Unlock()

	err := s.api.DeleteProject(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if idx >= 0 {
			// Re-insert where it was so the list doesn't visibly reorder.
			if idx > len(s.projects) {
				idx = len(s.projects)
			}
			s.projects = append(s.projects[:idx], append([]Project{removed}, s.projects[idx:]...)...)
		}
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	return nil
}

// Clone duplicates a project on the server and prepends the result. No
// optimistic placeholder: the clone's contents are server-generated.
func (s *ProjectStore) Clone(ctx context.Context, id, title string) (*Project, error) {
	clone, err := s.api.CloneProject(ctx, id, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.projects = append([]Project{*clone}, s.projects...)
	s.lastErr = nil
	return clone, nil
}

// SetStarred toggles the star flag optimistically and rolls it back on
// failure.
func (s *ProjectStore) SetStarred(ctx context.Context, id string, starred bool) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	var previous bool
	if idx >= 0 {
		previous = s.projects[idx].IsStarred
		s.projects[idx].IsStarred = starred
	}
	s.mu.Unlock()

	err := s.api.StarProject(ctx, id, starred)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if idx = s.indexOf(id); idx >= 0 {
			s.projects[idx].IsStarred = previous
		}
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	return nil
}

// indexOf returns the cache index of id, or -1. Caller must hold s.mu.
func (s *ProjectStore) indexOf(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}
