package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleUserinfoURL returns the signed-in user's profile for an access token.
const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProfile is the subset of the userinfo response we consume.
type GoogleProfile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// OAuthProvider wraps the Google OAuth2 flow: building the consent URL and
// exchanging the callback code for the user's profile.
type OAuthProvider struct {
	config *oauth2.Config
}

// NewOAuthProvider builds the Google OAuth configuration. The redirect URL
// is derived from the server's public base URL.
func NewOAuthProvider(clientID, clientSecret, baseURL string) *OAuthProvider {
	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Enabled reports whether Google sign-in is configured.
func (p *OAuthProvider) Enabled() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthURL returns the Google consent page URL for the given CSRF state.
func (p *OAuthProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the user's Google profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}
	return &profile, nil
}
