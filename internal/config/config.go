// Package config loads server configuration from the environment.
//
// Configuration comes from environment variables, with a .env file as a
// development convenience (loaded via godotenv, real environment wins).
// Every knob has a sensible local-dev default except the JWT secrets,
// which must be set explicitly — a default secret is worse than no
// server at all.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int

	// DBPath is the SQLite database file. The parent directory is
	// created on startup if it does not exist.
	DBPath string

	// JWTSecret signs access tokens; JWTRefreshSecret signs refresh
	// tokens. They must differ so a leaked refresh token can never be
	// replayed as an access token.
	JWTSecret        string
	JWTRefreshSecret string

	// OAuth application credentials. A provider with an empty client ID
	// is simply not registered.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	// FrontendURL is where OAuth callbacks redirect and the only origin
	// allowed by CORS.
	FrontendURL string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first if present; missing .env is not
// an error.
func Load() (*Config, error) {
	// godotenv.Load never overrides variables already set in the real
	// environment, so production deployments are unaffected.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             8080,
		DBPath:           "data/codecanvas.db",
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		FrontendURL:      "http://localhost:3000",

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URI"),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubRedirectURL:  os.Getenv("GITHUB_REDIRECT_URI"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		cfg.FrontendURL = frontend
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set (try: openssl rand -hex 32)")
	}
	if cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("config: JWT_REFRESH_SECRET must be set (try: openssl rand -hex 32)")
	}
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if cfg.GoogleRedirectURL == "" {
		cfg.GoogleRedirectURL = fmt.Sprintf("http://localhost:%d/api/auth/callback/google", cfg.Port)
	}
	if cfg.GitHubRedirectURL == "" {
		cfg.GitHubRedirectURL = fmt.Sprintf("http://localhost:%d/api/auth/callback/github", cfg.Port)
	}

	return cfg, nil
}
