package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// echoHandler records whether it ran and what identity it saw.
type echoHandler struct {
	called bool
	ident  *Identity
	ok     bool
}

func (h *echoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ident, h.ok = IdentityFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	pair, _ := ts.GeneratePair("user-1", "u@example.com")

	next := &echoHandler{}
	handler := RequireAuth(ts)(next)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !next.called {
		t.Fatal("handler was not called for a valid token")
	}
	if !next.ok || next.ident.UserID != "user-1" {
		t.Errorf("identity = %+v (ok=%v), want user-1", next.ident, next.ok)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	ts := newTestTokenService(t)
	next := &echoHandler{}
	handler := RequireAuth(ts)(next)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if next.called {
		t.Error("handler ran without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	ts := newTestTokenService(t)
	next := &echoHandler{}
	handler := RequireAuth(ts)(next)

	for _, header := range []string{"Basic abc123", "Bearer", "bearer-without-space"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
	if next.called {
		t.Error("handler ran with a malformed Authorization header")
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.GenerateAccessWithDuration("user-1", "u@example.com", -time.Minute)

	next := &echoHandler{}
	handler := RequireAuth(ts)(next)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if next.called {
		t.Error("handler ran with an expired token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	ts := newTestTokenService(t)
	next := &echoHandler{}
	handler := OptionalAuth(ts)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !next.called {
		t.Fatal("handler was not called for an anonymous request")
	}
	if next.ok {
		t.Error("anonymous request should carry no identity")
	}
}

func TestOptionalAuth_AttachesIdentity(t *testing.T) {
	ts := newTestTokenService(t)
	pair, _ := ts.GeneratePair("user-2", "two@example.com")

	next := &echoHandler{}
	handler := OptionalAuth(ts)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !next.ok || next.ident.UserID != "user-2" {
		t.Errorf("identity = %+v (ok=%v), want user-2", next.ident, next.ok)
	}
}
