package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/arnab/codecanvas/internal/auth"
	"github.com/arnab/codecanvas/internal/handler"
	sqliteRepo "github.com/arnab/codecanvas/internal/repository/sqlite"
	"github.com/arnab/codecanvas/internal/service"
)

const testFrontendURL = "http://frontend.test"

// testEnv wires real services over an in-memory database, so handler
// tests exercise the full request path below the router.
type testEnv struct {
	router   *chi.Mux
	auth     *service.AuthService
	projects *service.ProjectService
	tokens   *auth.TokenService
}

// stubProvider implements auth.Provider for OAuth callback tests.
type stubProvider struct {
	profile *auth.Profile
	err     error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) AuthURL(state string) string {
	return "https://stub.test/authorize?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, _ string) (*auth.Profile, error) {
	return s.profile, s.err
}

func newTestEnv(t *testing.T, providers map[string]auth.Provider) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("access-secret-16-chars!!", "refresh-secret-16-chars!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	authSvc := service.NewAuthService(db, tokens, passwords, logger)
	projectSvc := service.NewProjectService(db, logger)

	authHandler := handler.NewAuthHandler(authSvc, providers, testFrontendURL, logger)
	projectHandler := handler.NewProjectHandler(projectSvc, logger)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refresh", authHandler.HandleRefresh)
		r.Get("/oauth-urls", authHandler.HandleOAuthURLs)
		r.Get("/callback/{provider}", authHandler.HandleOAuthCallback)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/verify", authHandler.HandleVerify)
			r.Get("/me", authHandler.HandleMe)
		})
	})
	router.Route("/api/projects", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/", projectHandler.HandleList)
		r.Post("/", projectHandler.HandleCreate)
		r.Get("/{id}", projectHandler.HandleGet)
		r.Put("/{id}", projectHandler.HandleUpdate)
		r.Delete("/{id}", projectHandler.HandleDelete)
		r.Post("/{id}/clone", projectHandler.HandleClone)
		r.Post("/{id}/star", projectHandler.HandleStar)
		r.Delete("/{id}/star", projectHandler.HandleUnstar)
	})

	return &testEnv{router: router, auth: authSvc, projects: projectSvc, tokens: tokens}
}

// request performs one request against the test router. A non-empty token
// goes out as a bearer header; a non-nil body is JSON-encoded.
func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// registerUser creates an account through the API and returns its access token.
func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()

	rr := e.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     "Test User",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("registering %s: status %d, body %s", email, rr.Code, rr.Body.String())
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return result.AccessToken
}
