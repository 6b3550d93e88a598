package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the provider-neutral result of an OAuth code exchange.
// The auth service keys find-or-create on Email, so Exchange guarantees a
// non-empty Email or fails.
type Profile struct {
	Provider          string // "google" or "github"
	ProviderAccountID string // provider's stable user id, stringified
	Email             string
	Name              string
	Image             string // avatar URL, may be empty
}

// Provider runs the OAuth 2.0 Authorization Code flow for one identity
// provider: build the authorization URL, then trade the callback code for a
// user profile. The code-for-token exchange happens server-to-server using
// the client secret — the provider access token never reaches the browser.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// GoogleProvider implements Provider against Google's OAuth endpoints.
type GoogleProvider struct {
	config *oauth2.Config

	// userInfoURL is overridable in tests; production uses the default.
	userInfoURL string
}

// NewGoogleProvider creates a GoogleProvider. redirectURL must exactly match
// an authorized redirect URI configured in the Google Cloud console.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// AuthURL returns the Google authorization URL carrying the given CSRF
// state. The state round-trips through the provider and is verified by the
// callback handler.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a Google user profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the
	// bearer token to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching Google user profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("auth: Google returned an incomplete profile")
	}

	return &Profile{
		Provider:          p.Name(),
		ProviderAccountID: info.ID,
		Email:             info.Email,
		Name:              info.Name,
		Image:             info.Picture,
	}, nil
}

// GitHubProvider implements Provider against GitHub's OAuth endpoints.
type GitHubProvider struct {
	config *oauth2.Config

	// apiBase is overridable in tests; production uses https://api.github.com.
	apiBase string
}

// NewGitHubProvider creates a GitHubProvider. Scopes:
//   - "read:user"   — public profile (id, login, avatar)
//   - "user:email"  — email addresses, needed for the /user/emails fallback
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: "https://api.github.com",
	}
}

func (p *GitHubProvider) Name() string { return "github" }

// AuthURL returns the GitHub authorization URL carrying the given CSRF state.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a GitHub user profile.
//
// GitHub users can hide their email from the public profile, in which case
// GET /user returns an empty email and we fall back to GET /user/emails
// (preferring the primary address). An account with no retrievable email at
// all cannot be matched to a local user, so that is an error.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub OAuth code: %w", err)
	}

	client := p.config.Client(ctx, token)

	var ghUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.getJSON(client, "/user", &ghUser); err != nil {
		return nil, err
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (id = 0)")
	}

	email := ghUser.Email
	if email == "" {
		email, err = p.primaryEmail(client)
		if err != nil {
			return nil, err
		}
	}
	if email == "" {
		return nil, fmt.Errorf("auth: GitHub account has no retrievable email")
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	return &Profile{
		Provider:          p.Name(),
		ProviderAccountID: strconv.FormatInt(ghUser.ID, 10),
		Email:             email,
		Name:              name,
		Image:             ghUser.AvatarURL,
	}, nil
}

// primaryEmail queries GET /user/emails and returns the primary address,
// or the first listed address if none is marked primary.
func (p *GitHubProvider) primaryEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := p.getJSON(client, "/user/emails", &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

func (p *GitHubProvider) getJSON(client *http.Client, path string, dst any) error {
	req, err := http.NewRequest(http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: GitHub %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding GitHub %s response: %w", path, err)
	}
	return nil
}
