package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/arnab/codecanvas/internal/auth"
	"github.com/arnab/codecanvas/internal/service"
)

// AuthHandler exposes registration, login, verification, OAuth, and token
// refresh over HTTP.
//
// OAUTH FLOW (browser-driven):
//  1. The front end fetches GET /api/auth/oauth-urls; the response carries
//     provider authorization URLs and sets the CSRF state cookie.
//  2. The browser navigates to the chosen provider URL and approves.
//  3. The provider redirects to GET /api/auth/callback/{provider}?code=..,
//     which verifies the state, exchanges the code server-side, upserts
//     the user, and 302s back to the front end with tokens in the query.
type AuthHandler struct {
	svc         *service.AuthService
	providers   map[string]auth.Provider
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. providers is keyed by provider
// name ("google", "github"); frontendURL is where callbacks redirect.
func NewAuthHandler(
	svc *service.AuthService,
	providers map[string]auth.Provider,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:         svc,
		providers:   providers,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// authResponse is the body returned by register, login, and the legacy
// JSON variants. Token carries the access token under both "accessToken"
// and "token" readers via the client; the canonical field is accessToken.
type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         any    `json:"user"`
}

// HandleRegister creates a password account.
//
// HTTP: POST /api/auth/register {email, password, name}
// 201 with tokens+user; 400 invalid input; 409 duplicate email.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         result.User,
	})
}

// HandleLogin verifies credentials.
//
// HTTP: POST /api/auth/login {email, password}
// 200 with tokens+user; 401 on any credential failure (one generic
// message — responses never reveal whether the email exists).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         result.User,
	})
}

// HandleVerify reports whether the presented bearer token is valid.
//
// HTTP: GET /api/auth/verify (behind RequireAuth, so reaching this handler
// already implies a valid token).
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user": map[string]string{
			"id":    ident.UserID,
			"email": ident.Email,
		},
	})
}

// HandleMe returns the authenticated user's full profile.
//
// HTTP: GET /api/auth/me (bearer)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleOAuthURLs returns the provider authorization URLs.
//
// HTTP: GET /api/auth/oauth-urls → {"google": "...", "github": "..."}
//
// One random state covers both URLs; it is stored in a short-lived
// HttpOnly cookie and verified by the callback to stop CSRF-initiated
// flows.
func (h *AuthHandler) HandleOAuthURLs(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	urls := make(map[string]string, len(h.providers))
	for name, p := range h.providers {
		urls[name] = p.AuthURL(state)
	}

	writeJSON(w, http.StatusOK, urls)
}

// HandleOAuthCallback completes the provider flow.
//
// HTTP: GET /api/auth/callback/{provider}?code=xxx&state=yyy
//
// Success: 302 to {FRONTEND_URL}/auth/callback?token=..&refreshToken=..&
// user=<url-encoded JSON>. Every failure redirects to
// {FRONTEND_URL}/auth/error?message=.. — the browser is mid-navigation
// here, so a JSON error body would dead-end the user.
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	provider, ok := h.providers[providerName]
	if !ok {
		h.redirectError(w, r, "unknown OAuth provider")
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch", slog.String("provider", providerName))
		h.redirectError(w, r, "invalid OAuth state")
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectError(w, r, "authorization denied")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "missing OAuth code")
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "authentication failed")
		return
	}

	result, err := h.svc.LoginOrRegisterOAuth(r.Context(), profile)
	if err != nil {
		h.logger.Error("oauth callback: login-or-register failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "authentication failed")
		return
	}

	userJSON, err := json.Marshal(result.User)
	if err != nil {
		h.redirectError(w, r, "authentication failed")
		return
	}

	q := url.Values{}
	q.Set("token", result.Tokens.AccessToken)
	q.Set("refreshToken", result.Tokens.RefreshToken)
	q.Set("user", string(userJSON))

	http.Redirect(w, r, h.frontendURL+"/auth/callback?"+q.Encode(), http.StatusFound)
}

// HandleRefresh exchanges a refresh token for a rotated pair.
//
// HTTP: POST /api/auth/refresh {refreshToken}
// 200 new pair; 401 invalid/expired.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	pair, err := h.svc.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	q := url.Values{}
	q.Set("message", message)
	http.Redirect(w, r, h.frontendURL+"/auth/error?"+q.Encode(), http.StatusFound)
}
