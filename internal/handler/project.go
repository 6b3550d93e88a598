package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arnab/codecanvas/internal/auth"
	"github.com/arnab/codecanvas/internal/model"
	"github.com/arnab/codecanvas/internal/repository"
	"github.com/arnab/codecanvas/internal/service"
)

// ProjectHandler exposes the project CRUD surface. Every route sits
// behind RequireAuth, so IdentityFromContext always succeeds in
// practice; the ok check guards against miswired routers.
type ProjectHandler struct {
	svc    *service.ProjectService
	logger *slog.Logger
}

func NewProjectHandler(svc *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// HandleList returns the caller's projects, paginated.
//
// HTTP: GET /api/projects?page=1&limit=10&template=REACT&search=todo
//
// Response envelope:
//
//	{"data": [...], "pagination": {"page", "limit", "total", "pages"}}
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	q := r.URL.Query()
	opts := repository.ListOptions{
		Page:     parseIntParam(q.Get("page"), 1),
		Limit:    parseIntParam(q.Get("limit"), service.DefaultPageLimit),
		Template: model.Template(q.Get("template")),
		Search:   q.Get("search"),
	}

	page, err := h.svc.List(r.Context(), ident.UserID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleGet returns one project with its file tree.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	project, err := h.svc.Get(r.Context(), ident.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleCreate creates a project seeded from a template.
//
// HTTP: POST /api/projects {title, description, template}
// 201 with the project including its generated files.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req struct {
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Template    model.Template `json:"template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	project, err := h.svc.Create(r.Context(), ident.UserID, req.Title, req.Description, req.Template)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("user_id", ident.UserID),
		slog.String("template", string(project.Template)),
	)

	writeJSON(w, http.StatusCreated, project)
}

// HandleUpdate applies a partial update to project metadata.
//
// HTTP: PUT /api/projects/{id} {title?, description?, template?}
//
// Absent fields stay untouched; a present empty description clears it.
// Pointer fields distinguish the two.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var patch service.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	project, err := h.svc.Update(r.Context(), ident.UserID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleDelete removes a project and its files.
//
// HTTP: DELETE /api/projects/{id}
// 200 with a confirmation body rather than 204 so the front end can
// surface the message directly.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), ident.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("project deleted",
		slog.String("project_id", id),
		slog.String("user_id", ident.UserID),
	)

	writeJSON(w, http.StatusOK, map[string]string{"message": "project deleted successfully"})
}

// HandleClone duplicates a project the caller owns, files included.
//
// HTTP: POST /api/projects/{id}/clone {title?}
// 201 with the new project. Omitted title defaults to
// "<original> (Clone)".
func (h *ProjectHandler) HandleClone(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	// The body is optional; an empty body means default title.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	clone, err := h.svc.Clone(r.Context(), ident.UserID, chi.URLParam(r, "id"), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, clone)
}

// HandleStar marks a project as starred for the caller.
//
// HTTP: POST /api/projects/{id}/star
func (h *ProjectHandler) HandleStar(w http.ResponseWriter, r *http.Request) {
	h.setStar(w, r, true)
}

// HandleUnstar removes the caller's star.
//
// HTTP: DELETE /api/projects/{id}/star
func (h *ProjectHandler) HandleUnstar(w http.ResponseWriter, r *http.Request) {
	h.setStar(w, r, false)
}

func (h *ProjectHandler) setStar(w http.ResponseWriter, r *http.Request, starred bool) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Star(r.Context(), ident.UserID, id, starred); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isStarred": starred})
}

// parseIntParam parses a positive integer query parameter, falling back
// to def on absence or garbage. Range clamping happens in the service.
func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
