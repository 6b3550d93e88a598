// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config and creates the logger; Server.New() then wires:
//   sqlite.DB → TokenService/PasswordService → AuthService/ProjectService
//     → AuthHandler/ProjectHandler → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/arnab/codecanvas/internal/auth"
	"github.com/arnab/codecanvas/internal/config"
	"github.com/arnab/codecanvas/internal/handler"
	"github.com/arnab/codecanvas/internal/middleware"
	sqliteRepo "github.com/arnab/codecanvas/internal/repository/sqlite"
	"github.com/arnab/codecanvas/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection; it is closed during graceful
// shutdown to flush the WAL and release the file lock.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with all dependencies wired.
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not repositories or the DB)
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /health                            → liveness probe
// POST   /api/auth/register                 → create account
// POST   /api/auth/login                    → password login
// POST   /api/auth/refresh                  → rotate token pair
// GET    /api/auth/oauth-urls               → provider authorization URLs
// GET    /api/auth/callback/{provider}      → OAuth code exchange
// GET    /api/auth/verify                   → token validity (bearer)
// GET    /api/auth/me                       → current user (bearer)
// GET    /api/projects                      → list (paginated, filtered)
// POST   /api/projects                      → create from template
// GET    /api/projects/{id}                 → fetch with files
// PUT    /api/projects/{id}                 → partial metadata update
// DELETE /api/projects/{id}                 → delete
// POST   /api/projects/{id}/clone           → duplicate with files
// POST   /api/projects/{id}/star            → star
// DELETE /api/projects/{id}/star            → unstar
//
// MIDDLEWARE ORDER MATTERS:
// RequestID → RealIP → Recoverer → CORS → Logger. Auth is applied per
// route group, not globally, because register/login/OAuth must stay open.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.FrontendURL))
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.JWTRefreshSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	providers := make(map[string]auth.Provider)
	if s.config.GoogleClientID != "" {
		providers["google"] = auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.GoogleRedirectURL,
		)
	}
	if s.config.GitHubClientID != "" {
		providers["github"] = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubRedirectURL,
		)
	}
	if len(providers) == 0 {
		s.logger.Warn("no OAuth providers configured — social login disabled")
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	projectService := service.NewProjectService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, providers, s.config.FrontendURL, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refresh", authHandler.HandleRefresh)
		r.Get("/oauth-urls", authHandler.HandleOAuthURLs)
		r.Get("/callback/{provider}", authHandler.HandleOAuthCallback)

		// Routes below require a valid bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/verify", authHandler.HandleVerify)
			r.Get("/me", authHandler.HandleMe)
		})
	})

	s.router.Route("/api/projects", func(r chi.Router) {
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

	return nil
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
