package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/infothings/auth/models"
)

const kakaoUserURL = "https://kapi.kakao.com/v2/user/me"

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

type kakaoUserInfo struct {
	ID      int64 `json:"id"`
	Account struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

// Kakao authenticates against Kakao's OAuth2 endpoints. Kakao issues numeric
// user ids; they are stored as decimal strings.
type Kakao struct {
	config  *oauth2.Config
	userURL string
}

func NewKakao(clientID, clientSecret, redirectURL string) *Kakao {
	return &Kakao{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     kakaoEndpoint,
			Scopes:       []string{"account_email"},
		},
		userURL: kakaoUserURL,
	}
}

func (k *Kakao) Name() string { return models.ProviderKakao }

func (k *Kakao) AuthCodeURL(state string) string {
	return k.config.AuthCodeURL(state)
}

func (k *Kakao) Exchange(ctx context.Context, code string) (Identity, error) {
	var id Identity
	token, err := k.config.Exchange(ctx, code)
	if err != nil {
		return id, fmt.Errorf("kakao token exchange failed: %w", err)
	}
	info, err := fetchKakaoUserInfo(ctx, k.userURL, token.AccessToken)
	if err != nil {
		return id, err
	}
	if info.ID == 0 || info.Account.Email == "" {
		return id, errors.New("kakao userinfo missing id or email")
	}
	return Identity{
		Provider:   models.ProviderKakao,
		ProviderID: strconv.FormatInt(info.ID, 10),
		Email:      info.Account.Email,
	}, nil
}

func fetchKakaoUserInfo(ctx context.Context, url, accessToken string) (kakaoUserInfo, error) {
	var info kakaoUserInfo
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
		return info, fmt.Errorf("kakao userinfo failed: %s", string(body))
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return info, err
	}
	return info, nil
}
