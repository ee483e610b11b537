package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"authbridge/models"
	"authbridge/provider"
	"authbridge/services"
	"authbridge/utils"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := utils.SetEncryptionKey("0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("Failed to set encryption key: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.Credential{}, &models.AuthSession{}, &models.AuditLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	utils.InitAuditLog(db)

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(provider.TokenResponse{
			AccessToken:  "X",
			RefreshToken: "refresh-X",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(provider.UserInfo{Email: "alice@example.com", Name: "Alice"})
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := provider.NewClient(&provider.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://127.0.0.1:5001/oauth/callback",
		Scopes:       "https://www.googleapis.com/auth/drive.file",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		RevokeURL:    srv.URL + "/revoke",
		UserInfoURL:  srv.URL + "/userinfo",
	})

	broker := services.NewBroker(db, client)
	auth := NewAuthController(db, broker)

	router := gin.New()
	router.GET("/oauth/callback", auth.Callback)
	router.GET("/oauth/start", auth.BeginRedirect)
	api := router.Group("/api/auth")
	{
		api.GET("/url", auth.Begin)
		api.GET("/status", auth.Status)
		api.POST("/import", auth.Import)
		api.POST("/disconnect", auth.Disconnect)
		api.GET("/users", auth.Users)
	}

	return router, srv
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBeginReturnsAuthURL(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doRequest(router, "GET", "/api/auth/url?user_id=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status: got %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		AuthURL string `json:"auth_url"`
		State   string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.State == "" {
		t.Fatal("Response missing state token")
	}
	if !strings.Contains(resp.AuthURL, "state="+resp.State) {
		t.Fatalf("Auth URL missing state token: %s", resp.AuthURL)
	}
}

func TestBeginRejectsBadUserID(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doRequest(router, "GET", "/api/auth/url", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Missing user_id: got %d, want 400", w.Code)
	}

	w = doRequest(router, "GET", "/api/auth/url?user_id=has%20space", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Invalid user_id: got %d, want 400", w.Code)
	}
}

func TestBeginUnconfiguredProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	if err := utils.SetEncryptionKey("0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("Failed to set encryption key: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.Credential{}, &models.AuthSession{}, &models.AuditLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	utils.InitAuditLog(db)

	broker := services.NewBroker(db, provider.NewClient(nil))
	auth := NewAuthController(db, broker)

	router := gin.New()
	router.GET("/api/auth/url", auth.Begin)

	w := doRequest(router, "GET", "/api/auth/url?user_id=alice", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Unconfigured provider: got %d, want 503; body: %s", w.Code, w.Body.String())
	}
}

func TestBeginRedirect(t *testing.T) {
	router, srv := setupAuthRouter(t)

	w := doRequest(router, "GET", "/oauth/start?user_id=alice", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("Status: got %d, want 302; body: %s", w.Code, w.Body.String())
	}

	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, srv.URL+"/auth") {
		t.Fatalf("Redirect target: got %s", location)
	}
}

func TestCallbackFlow(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doRequest(router, "GET", "/api/auth/url?user_id=alice", nil)
	var begin struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &begin); err != nil {
		t.Fatalf("Failed to parse begin response: %v", err)
	}

	w = doRequest(router, "GET", "/oauth/callback?code=abc&state="+begin.State, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Callback: got %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Authorization Complete") {
		t.Fatal("Callback should render the success page")
	}

	w = doRequest(router, "GET", "/api/auth/status?user_id=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status: got %d, want 200", w.Code)
	}

	var status services.StatusResult
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if status.State != services.StateAuthenticated {
		t.Fatalf("State: got %q, want %q", status.State, services.StateAuthenticated)
	}
	if status.AccessToken != "X" {
		t.Fatalf("Access token: got %q, want %q", status.AccessToken, "X")
	}

	// Replaying the same state token must fail.
	w = doRequest(router, "GET", "/oauth/callback?code=abc&state="+begin.State, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Replayed callback: got %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already used") {
		t.Fatalf("Replay page should explain the rejection: %s", w.Body.String())
	}
}

func TestCallbackMissingParameters(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doRequest(router, "GET", "/oauth/callback", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Empty callback: got %d, want 400", w.Code)
	}

	w = doRequest(router, "GET", "/oauth/callback?code=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Callback without state: got %d, want 400", w.Code)
	}
}

func TestCallbackProviderDenied(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doRequest(router, "GET", "/api/auth/url?user_id=alice", nil)
	var begin struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &begin); err != nil {
		t.Fatalf("Failed to parse begin response: %v", err)
	}

	w = doRequest(router, "GET", "/oauth/callback?error=access_denied&state="+begin.State, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Denied callback: got %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Authorization denied") {
		t.Fatal("Denied callback should render the error page")
	}

	// The session is spent; a subsequent callback with a code fails.
	w = doRequest(router, "GET", "/oauth/callback?code=abc&state="+begin.State, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Callback after denial: got %d, want 400", w.Code)
	}
}

func TestStatusUnknownUser(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doRequest(router, "GET", "/api/auth/status?user_id=nobody", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status: got %d, want 200", w.Code)
	}

	var status services.StatusResult
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if status.State != services.StateUnauthenticated {
		t.Fatalf("State: got %q, want %q", status.State, services.StateUnauthenticated)
	}
	if status.AccessToken != "" {
		t.Fatal("Unauthenticated status must not carry a token")
	}
}

func TestImportEndpoint(t *testing.T) {
	router, _ := setupAuthRouter(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":      "alice",
		"access_token": "T",
	})
	w := doRequest(router, "POST", "/api/auth/import", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Import: got %d, want 200; body: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, "GET", "/api/auth/status?user_id=alice", nil)
	var status services.StatusResult
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if status.State != services.StateAuthenticated || status.AccessToken != "T" {
		t.Fatalf("Imported token not reported: %+v", status)
	}
}

func TestImportValidatesInput(t *testing.T) {
	router, _ := setupAuthRouter(t)

	body, _ := json.Marshal(map[string]string{"user_id": "alice"})
	w := doRequest(router, "POST", "/api/auth/import", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Import without access_token: got %d, want 400", w.Code)
	}

	body, _ = json.Marshal(map[string]string{
		"user_id":      "alice",
		"access_token": "T",
		"expires_at":   "not-a-timestamp",
	})
	w = doRequest(router, "POST", "/api/auth/import", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Import with bad expires_at: got %d, want 400", w.Code)
	}
}

func TestDisconnectEndpoint(t *testing.T) {
	router, _ := setupAuthRouter(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":      "alice",
		"access_token": "T",
	})
	if w := doRequest(router, "POST", "/api/auth/import", body); w.Code != http.StatusOK {
		t.Fatalf("Import failed: %d", w.Code)
	}

	body, _ = json.Marshal(map[string]string{"user_id": "alice"})
	w := doRequest(router, "POST", "/api/auth/disconnect", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Disconnect: got %d, want 200; body: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, "POST", "/api/auth/disconnect", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Second disconnect: got %d, want 404", w.Code)
	}
}

func TestUsersEndpoint(t *testing.T) {
	router, _ := setupAuthRouter(t)

	for _, id := range []string{"alice", "bob"} {
		body, _ := json.Marshal(map[string]string{
			"user_id":      id,
			"access_token": "T",
		})
		if w := doRequest(router, "POST", "/api/auth/import", body); w.Code != http.StatusOK {
			t.Fatalf("Import %s failed: %d", id, w.Code)
		}
	}

	w := doRequest(router, "GET", "/api/auth/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Users: got %d, want 200", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("User count: got %d, want 2", resp.Count)
	}

	if strings.Contains(w.Body.String(), `"T"`) {
		t.Fatal("User listing must not expose token values")
	}
}
