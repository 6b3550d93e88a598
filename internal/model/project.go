package model

import "time"

// Template identifies a starter-file-tree configuration used to seed a new
// project. The set is closed — the templates package owns the catalog and
// validation lives in the service layer.
type Template string

const (
	TemplateReact   Template = "REACT"
	TemplateNextJS  Template = "NEXTJS"
	TemplateExpress Template = "EXPRESS"
	TemplateVue     Template = "VUE"
	TemplateHono    Template = "HONO"
	TemplateAngular Template = "ANGULAR"
)

// Project is a playground: metadata plus exactly one template-file blob.
//
// Files is populated only on detail responses (get, create, clone); list
// responses carry metadata alone. IsStarred is derived per requesting user
// and is likewise only meaningful on detail responses.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Template    Template      `json:"template"`
	UserID      string        `json:"userId"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Files       *ProjectFiles `json:"files,omitempty"`
	IsStarred   bool          `json:"isStarred"`
}

// ProjectFiles is the file blob owned by a project. Content is a snapshot
// generated from the template catalog at creation time — it is never
// regenerated when the project's template field changes later.
type ProjectFiles struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Content   FileTree  `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
