package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testClient(overrides Config) *Client {
	cfg := Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://127.0.0.1:5001/oauth/callback",
		Scopes:       "https://www.googleapis.com/auth/drive.file",
	}
	if overrides.TokenURL != "" {
		cfg.TokenURL = overrides.TokenURL
	}
	if overrides.UserInfoURL != "" {
		cfg.UserInfoURL = overrides.UserInfoURL
	}
	if overrides.RevokeURL != "" {
		cfg.RevokeURL = overrides.RevokeURL
	}
	return NewClient(&cfg)
}

func TestBuildAuthURL(t *testing.T) {
	client := testClient(Config{})

	authURL, err := client.BuildAuthURL("state-token-1")
	if err != nil {
		t.Fatalf("BuildAuthURL failed: %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("Auth URL does not parse: %v", err)
	}

	if !strings.HasPrefix(authURL, "https://accounts.google.com/o/oauth2/v2/auth?") {
		t.Errorf("Unexpected endpoint: %s", authURL)
	}

	query := parsed.Query()
	checks := map[string]string{
		"client_id":     "test-client",
		"redirect_uri":  "http://127.0.0.1:5001/oauth/callback",
		"response_type": "code",
		"state":         "state-token-1",
		"access_type":   "offline",
		"prompt":        "consent",
	}
	for key, want := range checks {
		if got := query.Get(key); got != want {
			t.Errorf("Query param %s: got %q, want %q", key, got, want)
		}
	}

	if query.Get("client_secret") != "" {
		t.Error("Authorization URL must not carry the client secret")
	}
}

func TestBuildAuthURLUnconfigured(t *testing.T) {
	client := NewClient(nil)

	_, err := client.BuildAuthURL("state")
	if err == nil {
		t.Fatal("Expected configuration error")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	client := testClient(Config{TokenURL: srv.URL})

	token, err := client.Exchange(context.Background(), "code-abc")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if token.AccessToken != "access-1" || token.RefreshToken != "refresh-1" {
		t.Fatalf("Unexpected token response: %+v", token)
	}

	if gotForm.Get("grant_type") != "authorization_code" {
		t.Errorf("grant_type: got %q", gotForm.Get("grant_type"))
	}
	if gotForm.Get("code") != "code-abc" {
		t.Errorf("code: got %q", gotForm.Get("code"))
	}
	if gotForm.Get("redirect_uri") != "http://127.0.0.1:5001/oauth/callback" {
		t.Errorf("redirect_uri: got %q", gotForm.Get("redirect_uri"))
	}
}

func TestExchangeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := testClient(Config{TokenURL: srv.URL})

	_, err := client.Exchange(context.Background(), "bad-code")
	if err == nil {
		t.Fatal("Expected exchange error")
	}

	var exchErr *ExchangeError
	if !errors.As(err, &exchErr) {
		t.Fatalf("Expected ExchangeError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("Error should carry the provider response: %v", err)
	}
}

func TestExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenResponse{TokenType: "Bearer"})
	}))
	defer srv.Close()

	client := testClient(Config{TokenURL: srv.URL})

	_, err := client.Exchange(context.Background(), "code")
	if err == nil {
		t.Fatal("A 200 without access_token must be an error")
	}
}

func TestRefresh(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "access-2",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	}))
	defer srv.Close()

	client := testClient(Config{TokenURL: srv.URL})

	token, err := client.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if token.AccessToken != "access-2" {
		t.Fatalf("Access token: got %q", token.AccessToken)
	}
	if token.RefreshToken != "" {
		t.Error("Provider omitted refresh_token; response should too")
	}

	if gotForm.Get("grant_type") != "refresh_token" {
		t.Errorf("grant_type: got %q", gotForm.Get("grant_type"))
	}
	if gotForm.Get("refresh_token") != "refresh-1" {
		t.Errorf("refresh_token: got %q", gotForm.Get("refresh_token"))
	}
}

func TestRefreshProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := testClient(Config{TokenURL: srv.URL})

	_, err := client.Refresh(context.Background(), "revoked")
	if err == nil {
		t.Fatal("Expected refresh error")
	}

	var refErr *RefreshError
	if !errors.As(err, &refErr) {
		t.Fatalf("Expected RefreshError, got %T: %v", err, err)
	}
}

func TestFetchUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization header: got %q", got)
		}
		json.NewEncoder(w).Encode(UserInfo{Email: "alice@example.com", Name: "Alice"})
	}))
	defer srv.Close()

	client := testClient(Config{UserInfoURL: srv.URL})

	info, err := client.FetchUserInfo(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("FetchUserInfo failed: %v", err)
	}
	if info.Email != "alice@example.com" || info.Name != "Alice" {
		t.Fatalf("Unexpected userinfo: %+v", info)
	}
}

func TestIsConfigured(t *testing.T) {
	if NewClient(nil).IsConfigured() {
		t.Error("Nil config should report unconfigured")
	}
	if NewClient(&Config{ClientID: "id"}).IsConfigured() {
		t.Error("Partial config should report unconfigured")
	}
	if !testClient(Config{}).IsConfigured() {
		t.Error("Complete config should report configured")
	}
}
