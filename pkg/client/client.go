// Package client is a typed Go client for the codecanvas API.
//
// The client speaks the same JSON surface the browser front end uses:
// bearer-token auth, the paginated project envelope, and the OAuth URL
// endpoints. It defines its own wire types rather than importing server
// packages, so it can be vendored into other tools unchanged.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Client is a codecanvas API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokens installs a token pair, e.g. one received from an OAuth
// callback redirect.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // machine-readable error string, e.g. "not_found"
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// User is an account as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileNode is one entry in a project's file tree.
type FileNode struct {
	Name     string              `json:"name"`
	Type     string              `json:"type"` // "file" or "folder"
	Content  string              `json:"content,omitempty"`
	Children map[string]FileNode `json:"children,omitempty"`
}

// ProjectFiles is the stored file-tree snapshot of a project.
type ProjectFiles struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"projectId"`
	Content   map[string]FileNode `json:"content"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Project is a playground project.
type Project struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Template    string        `json:"template"`
	Files       *ProjectFiles `json:"files,omitempty"`
	IsStarred   bool          `json:"isStarred"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ProjectPage is the list envelope: items plus pagination metadata.
type ProjectPage struct {
	Data       []Project  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// AuthResult is the response to register, login, and refresh-with-user
// endpoints.
type AuthResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Register creates an account and stores the returned tokens on the client.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &result); err != nil {
		return nil, err
	}
	c.SetTokens(result.AccessToken, result.RefreshToken)
	return &result, nil
}

// Login authenticates with email and password and stores the returned
// tokens on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	c.SetTokens(result.AccessToken, result.RefreshToken)
	return &result, nil
}

// Refresh exchanges the stored refresh token for a new pair. The old
// refresh token is invalid afterwards (rotation).
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()
	if refresh == "" {
		return &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "no refresh token"}
	}

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	body := map[string]string{"refreshToken": refresh}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", body, &pair); err != nil {
		return err
	}
	c.SetTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// OAuthURLs returns provider authorization URLs keyed by provider name.
func (c *Client) OAuthURLs(ctx context.Context) (map[string]string, error) {
	var urls map[string]string
	if err := c.do(ctx, http.MethodGet, "/api/auth/oauth-urls", nil, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// ListParams filters and paginates ListProjects. Zero values are omitted
// and the server applies its defaults.
type ListParams struct {
	Page     int
	Limit    int
	Template string
	Search   string
}

// ListProjects returns one page of the caller's projects.
func (c *Client) ListProjects(ctx context.Context, params ListParams) (*ProjectPage, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Template != "" {
		q.Set("template", params.Template)
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}

	path := "/api/projects"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page ProjectPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProject returns one project including its file tree.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProjectInput is the body of CreateProject.
type CreateProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Template    string `json:"template"`
}

// CreateProject creates a project seeded from a template.
func (c *Client) CreateProject(ctx context.Context, input CreateProjectInput) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProjectInput is a partial update: nil fields are left untouched.
type UpdateProjectInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Template    *string `json:"template,omitempty"`
}

// UpdateProject applies a partial metadata update.
func (c *Client) UpdateProject(ctx context.Context, id string, input UpdateProjectInput) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id), input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project and its files.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

// CloneProject duplicates a project. An empty title lets the server pick
// "<original> (Clone)".
func (c *Client) CloneProject(ctx context.Context, id, title string) (*Project, error) {
	body := map[string]string{}
	if title != "" {
		body["title"] = title
	}
	var project Project
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(id)+"/clone", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// StarProject stars (starred=true) or unstars a project.
func (c *Client) StarProject(ctx context.Context, id string, starred bool) error {
	path := "/api/projects/" + url.PathEscape(id) + "/star"
	method := http.MethodPost
	if !starred {
		method = http.MethodDelete
	}
	return c.do(ctx, method, path, nil, nil)
}

// do performs one request: marshals body, attaches the bearer token,
// decodes either the success payload into out or the error envelope
// into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.accessToken
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil {
			apiErr.Code = envelope.Error
			apiErr.Message = envelope.Message
		}
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding response: %w", err)
	}
	return nil
}
