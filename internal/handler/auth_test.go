package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnab/codecanvas/internal/auth"
)

func TestHandleRegister(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("creates account with tokens", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "new@example.com",
			"password": "password123",
			"name":     "Newcomer",
		})

		assert.Equal(t, http.StatusCreated, rr.Code)

		var body struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
			User         struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.NotEmpty(t, body.AccessToken)
		assert.NotEmpty(t, body.RefreshToken)
		assert.Equal(t, "new@example.com", body.User.Email)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		env.registerUser(t, "taken@example.com")

		rr := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "taken@example.com",
			"password": "password123",
			"name":     "Late",
		})

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "conflict")
	})

	t.Run("malformed JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "shorty@example.com",
			"password": "1234567",
			"name":     "Shorty",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerUser(t, "login@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "accessToken")
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": "not-the-password",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid email or password")
	})

	t.Run("unknown email gets the same message", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ghost@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid email or password")
	})
}

func TestHandleVerifyAndMe(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.registerUser(t, "me@example.com")

	t.Run("verify with valid token", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/auth/verify", token, nil)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Valid bool `json:"valid"`
			User  struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.True(t, body.Valid)
		assert.Equal(t, "me@example.com", body.User.Email)
	})

	t.Run("verify without token", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/auth/verify", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("me returns the profile without the hash", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/auth/me", token, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "me@example.com")
		// PasswordHash is json:"-"; it must never appear on the wire.
		assert.NotContains(t, rr.Body.String(), "passwordHash")
		assert.NotContains(t, rr.Body.String(), "password_hash")
	})
}

func TestHandleRefresh(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "refresh@example.com",
		"password": "password123",
		"name":     "Refresher",
	})
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registered struct {
		RefreshToken string `json:"refreshToken"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&registered))

	t.Run("valid refresh token rotates the pair", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": registered.RefreshToken,
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var pair struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&pair))
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("garbage refresh token", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": "garbage",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHandleOAuthURLs(t *testing.T) {
	env := newTestEnv(t, map[string]auth.Provider{
		"stub": &stubProvider{},
	})

	rr := env.request(t, http.MethodGet, "/api/auth/oauth-urls", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var urls map[string]string
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&urls))
	assert.Contains(t, urls, "stub")

	// The shared CSRF state must appear both in the URL and the cookie.
	cookie := stateCookie(rr.Result().Cookies())
	assert.NotNil(t, cookie)
	assert.Contains(t, urls["stub"], "state="+cookie.Value)
}

func TestHandleOAuthCallback(t *testing.T) {
	profile := &auth.Profile{
		Provider:          "stub",
		ProviderAccountID: "stub-123",
		Email:             "oauth@example.com",
		Name:              "OAuth User",
	}

	t.Run("successful exchange redirects with tokens", func(t *testing.T) {
		env := newTestEnv(t, map[string]auth.Provider{"stub": &stubProvider{profile: profile}})
		rr := callbackRequest(t, env, "stub", "good-code", "state-1", "state-1")

		assert.Equal(t, http.StatusFound, rr.Code)

		location, err := url.Parse(rr.Header().Get("Location"))
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(location.String(), testFrontendURL+"/auth/callback"))

		q := location.Query()
		assert.NotEmpty(t, q.Get("token"))
		assert.NotEmpty(t, q.Get("refreshToken"))
		assert.Contains(t, q.Get("user"), "oauth@example.com")
	})

	t.Run("state mismatch redirects to the error page", func(t *testing.T) {
		env := newTestEnv(t, map[string]auth.Provider{"stub": &stubProvider{profile: profile}})
		rr := callbackRequest(t, env, "stub", "good-code", "state-1", "state-2")

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Contains(t, rr.Header().Get("Location"), testFrontendURL+"/auth/error")
	})

	t.Run("exchange failure redirects to the error page", func(t *testing.T) {
		env := newTestEnv(t, map[string]auth.Provider{
			"stub": &stubProvider{err: errors.New("provider down")},
		})
		rr := callbackRequest(t, env, "stub", "bad-code", "state-1", "state-1")

		assert.Equal(t, http.StatusFound, rr.Code)
		location := rr.Header().Get("Location")
		assert.Contains(t, location, testFrontendURL+"/auth/error")
		// Internal provider detail must not leak into the redirect.
		assert.NotContains(t, location, "provider+down")
	})

	t.Run("unknown provider", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rr := callbackRequest(t, env, "myspace", "code", "state-1", "state-1")

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Contains(t, rr.Header().Get("Location"), testFrontendURL+"/auth/error")
	})
}

// callbackRequest hits the OAuth callback with the given code, cookie
// state, and query state.
func callbackRequest(t *testing.T, env *testEnv, provider, code, cookieState, queryState string) *httptest.ResponseRecorder {
	t.Helper()

	path := "/api/auth/callback/" + provider + "?code=" + url.QueryEscape(code) + "&state=" + url.QueryEscape(queryState)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func stateCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == "oauth_state" {
			return c
		}
	}
	return nil
}
