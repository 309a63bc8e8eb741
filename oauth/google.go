package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/infothings/auth/models"
)

const googleUserURL = "https://openidconnect.googleapis.com/v1/userinfo"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Google authenticates against Google's OAuth2 endpoints and reads the
// OpenID userinfo document for the subject and email.
type Google struct {
	config  *oauth2.Config
	userURL string
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     googleEndpoint,
			Scopes:       []string{"email", "profile"},
		},
		userURL: googleUserURL,
	}
}

func (g *Google) Name() string { return models.ProviderGoogle }

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (Identity, error) {
	var id Identity
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return id, fmt.Errorf("google token exchange failed: %w", err)
	}
	info, err := fetchGoogleUserInfo(ctx, g.userURL, token.AccessToken)
	if err != nil {
		return id, err
	}
	if info.Sub == "" || info.Email == "" {
		return id, errors.New("google userinfo missing subject or email")
	}
	return Identity{
		Provider:   models.ProviderGoogle,
		ProviderID: info.Sub,
		Email:      info.Email,
	}, nil
}

func fetchGoogleUserInfo(ctx context.Context, url, accessToken string) (googleUserInfo, error) {
	var info googleUserInfo
	if accessToken == "" {
		return info, errors.New("missing access token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return info, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("google userinfo failed: %s", string(body))
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return info, err
	}
	return info, nil
}
