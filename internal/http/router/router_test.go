package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shiplane-dev/shiplane/internal/app"
	"github.com/shiplane-dev/shiplane/internal/config"
	"github.com/shiplane-dev/shiplane/internal/observability"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Profile:            "test",
		HTTPAddr:           ":0",
		DatabaseDriver:     "sqlite",
		DatabaseDSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		JWTSecret:          "router-test-secret",
		JWTIssuer:          "shiplane",
		JWTAudience:        "shiplane-api",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		CapabilityCacheTTL: time.Second,
		CORSOrigins:        []string{"http://localhost:3000"},
		APIRateLimitRPM:    10000,
		AuthRateLimitRPM:   10000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.Initialize(cfg, logger, &observability.Runtime{})
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	srv := httptest.NewServer(a.Server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		t.Fatalf("%s %s: decode body: %v", method, url, err)
	}
	return resp, env
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)
	resp, env := doJSON(t, http.MethodGet, srv.URL+"/health/live", "", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status %d, envelope %+v", resp.StatusCode, env)
	}
}

func TestHealthReady(t *testing.T) {
	srv := newTestServer(t)
	resp, env := doJSON(t, http.MethodGet, srv.URL+"/health/ready", "", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status %d, envelope %+v", resp.StatusCode, env)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	paths := []string{"/api/v1/me", "/api/v1/me/sessions", "/api/v1/workspaces/"}
	for _, p := range paths {
		resp, env := doJSON(t, http.MethodGet, srv.URL+p, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: status %d, want 401", p, resp.StatusCode)
			continue
		}
		if env.Error == nil || env.Error.Code != "UNAUTHENTICATED" {
			t.Errorf("%s: error envelope %+v", p, env.Error)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/nope", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestSignupLoginAndMe(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{
		"email":        "router@shiplane.dev",
		"password":     "correct-horse-battery",
		"display_name": "Router Test",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d, envelope %+v", resp.StatusCode, env)
	}

	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "router@shiplane.dev",
		"password": "correct-horse-battery",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d, envelope %+v", resp.StatusCode, env)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if login.AccessToken == "" {
		t.Fatal("login returned no access token")
	}

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/me", login.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d, envelope %+v", resp.StatusCode, env)
	}
	var me struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode me data: %v", err)
	}
	if me.Email != "router@shiplane.dev" {
		t.Fatalf("me email %q", me.Email)
	}
}

func TestWebhookRouteSkipsAuth(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/webhooks/github", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	defer resp.Body.Close()
	// The route is reachable without a bearer token; the unsigned payload
	// is rejected by payload validation, not by the auth middleware.
	if resp.StatusCode == http.StatusUnauthorized {
		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		if env.Error != nil && env.Error.Code == "UNAUTHENTICATED" {
			t.Fatalf("webhook route behind auth middleware: %+v", env.Error)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health/live", "", nil)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing hardening headers: %v", resp.Header)
	}
}
