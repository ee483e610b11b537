package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"authbridge/config"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	defaultScopes = "https://www.googleapis.com/auth/drive.file https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email openid"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       string

	// Endpoint overrides; zero values fall back to the Google URLs.
	AuthURL     string
	TokenURL    string
	RevokeURL   string
	UserInfoURL string
}

// TokenResponse is the provider's token endpoint payload for both the
// authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

type UserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type Client struct {
	HTTPClient *http.Client
	config     *Config
}

// LoadConfigFromEnv reads the provider registration from the
// environment. Returns nil when client credentials are absent, matching
// the unconfigured state IsConfigured reports.
func LoadConfigFromEnv() *Config {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	scopes := os.Getenv("GOOGLE_SCOPES")

	if clientID == "" || clientSecret == "" {
		return nil
	}

	if redirectURL == "" {
		redirectURL = "http://127.0.0.1:5001/oauth/callback"
	}
	if scopes == "" {
		scopes = defaultScopes
	}

	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

func NewClient(cfg *Config) *Client {
	return &Client{
		HTTPClient: config.ProviderClient(),
		config:     cfg,
	}
}

func (c *Client) IsConfigured() bool {
	return c.config != nil && c.config.ClientID != "" && c.config.ClientSecret != "" && c.config.RedirectURL != ""
}

func (c *Client) RedirectURL() string {
	if c.config == nil {
		return ""
	}
	return c.config.RedirectURL
}

func (c *Client) Scopes() string {
	if c.config == nil {
		return ""
	}
	return c.config.Scopes
}

func (c *Client) authURL() string {
	if c.config != nil && c.config.AuthURL != "" {
		return c.config.AuthURL
	}
	return googleAuthURL
}

func (c *Client) tokenURL() string {
	if c.config != nil && c.config.TokenURL != "" {
		return c.config.TokenURL
	}
	return googleTokenURL
}

func (c *Client) revokeURL() string {
	if c.config != nil && c.config.RevokeURL != "" {
		return c.config.RevokeURL
	}
	return googleRevokeURL
}

func (c *Client) userInfoURL() string {
	if c.config != nil && c.config.UserInfoURL != "" {
		return c.config.UserInfoURL
	}
	return googleUserInfoURL
}

// BuildAuthURL constructs the provider authorization URL for a single
// attempt. The redirect URI must byte-match the value registered with
// the provider or the exchange in HandleCallback will be rejected.
func (c *Client) BuildAuthURL(state string) (string, error) {
	if !c.IsConfigured() {
		return "", &ConfigurationError{Field: "GOOGLE_CLIENT_ID", Message: "OAuth not configured - missing client ID, secret, or redirect URL"}
	}

	params := url.Values{}
	params.Set("client_id", c.config.ClientID)
	params.Set("redirect_uri", c.config.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", c.config.Scopes)
	params.Set("state", state)
	params.Set("access_type", "offline")
	params.Set("include_granted_scopes", "true")
	params.Set("prompt", "consent")

	return c.authURL() + "?" + params.Encode(), nil
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	if !c.IsConfigured() {
		return nil, &ConfigurationError{Field: "GOOGLE_CLIENT_ID", Message: "OAuth not configured"}
	}

	data := url.Values{}
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", c.config.RedirectURL)
	data.Set("grant_type", "authorization_code")

	token, err := c.postTokenEndpoint(ctx, data)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	return token, nil
}

// Refresh obtains a new access token using the stored refresh token.
// The provider may omit refresh_token in the response; callers carry the
// old one forward in that case.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if !c.IsConfigured() {
		return nil, &ConfigurationError{Field: "GOOGLE_CLIENT_ID", Message: "OAuth not configured"}
	}

	data := url.Values{}
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)
	data.Set("refresh_token", refreshToken)
	data.Set("grant_type", "refresh_token")

	token, err := c.postTokenEndpoint(ctx, data)
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	return token, nil
}

func (c *Client) postTokenEndpoint(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint error: %d - %s", resp.StatusCode, string(body))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access_token")
	}

	return &token, nil
}

// Revoke invalidates a token provider-side. Best effort: local deletion
// proceeds even if revocation fails.
func (c *Client) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.revokeURL()+"?token="+url.QueryEscape(accessToken), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("token revocation failed: %w", err)
	}
	resp.Body.Close()

	return nil
}

// FetchUserInfo resolves the authenticated account's profile. Used to
// enrich a credential after a successful exchange; failures here do not
// fail the flow.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.userInfoURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo error: %d - %s", resp.StatusCode, string(body))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}

	return &info, nil
}
