// Package integration exercises the full HTTP surface over a wired
// application backed by an in-memory database.
package integration

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

type harness struct {
	srv *httptest.Server
	cfg *config.Config
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithConfig(t, func(*config.Config) {})
}

func newHarnessWithConfig(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{
		Profile:            "test",
		HTTPAddr:           ":0",
		DatabaseDriver:     "sqlite",
		DatabaseDSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		JWTSecret:          "integration-test-secret",
		JWTIssuer:          "shiplane",
		JWTAudience:        "shiplane-api",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		CapabilityCacheTTL: time.Second,
		CORSOrigins:        []string{"http://localhost:3000"},
		APIRateLimitRPM:    100000,
		AuthRateLimitRPM:   100000,
	}
	mutate(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.Initialize(cfg, logger, &observability.Runtime{})
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	srv := httptest.NewServer(a.Server.Handler)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, cfg: cfg}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiResponse struct {
	Status   int
	Envelope envelope
}

func (r apiResponse) decode(t *testing.T, out any) {
	t.Helper()
	if err := json.Unmarshal(r.Envelope.Data, out); err != nil {
		t.Fatalf("decode response data: %v (data: %s)", err, r.Envelope.Data)
	}
}

func (r apiResponse) errorCode() string {
	if r.Envelope.Error == nil {
		return ""
	}
	return r.Envelope.Error.Code
}

// do sends a JSON request; token is the bearer credential, headers are
// optional extras.
func (h *harness) do(t *testing.T, method, path, token string, payload any, headers map[string]string) apiResponse {
	t.Helper()
	var body io.Reader
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return apiResponse{Status: resp.StatusCode, Envelope: env}
}

// doRaw sends a pre-serialized body untouched; webhook signatures are
// computed over the exact bytes.
func (h *harness) doRaw(t *testing.T, method, path string, body []byte, headers map[string]string) apiResponse {
	t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return apiResponse{Status: resp.StatusCode, Envelope: env}
}

type account struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	SessionToken string
	SessionID    string
}

type loginPayload struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionToken string `json:"session_token"`
	SessionID    string `json:"session_id"`
}

func (h *harness) signup(t *testing.T, email, password, name string) account {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": email, "password": password, "display_name": name,
	}, nil)
	if resp.Status != http.StatusCreated {
		t.Fatalf("signup %s: status %d (%s)", email, resp.Status, resp.errorCode())
	}
	var payload loginPayload
	resp.decode(t, &payload)
	return account{
		UserID:       payload.User.ID,
		Email:        payload.User.Email,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		SessionToken: payload.SessionToken,
		SessionID:    payload.SessionID,
	}
}

func (h *harness) login(t *testing.T, email, password string) account {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", email, resp.Status, resp.errorCode())
	}
	var payload loginPayload
	resp.decode(t, &payload)
	return account{
		UserID:       payload.User.ID,
		Email:        payload.User.Email,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		SessionToken: payload.SessionToken,
		SessionID:    payload.SessionID,
	}
}

func (h *harness) createWorkspace(t *testing.T, owner account, slug, name string) string {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/v1/workspaces/", owner.AccessToken, map[string]string{
		"slug": slug, "name": name,
	}, nil)
	if resp.Status != http.StatusCreated {
		t.Fatalf("create workspace %s: status %d (%s)", slug, resp.Status, resp.errorCode())
	}
	var ws struct {
		ID string `json:"id"`
	}
	resp.decode(t, &ws)
	return ws.ID
}

func (h *harness) createProject(t *testing.T, actor account, workspaceID, slug, name string) string {
	t.Helper()
	path := fmt.Sprintf("/api/v1/workspaces/%s/projects/", workspaceID)
	resp := h.do(t, http.MethodPost, path, actor.AccessToken, map[string]string{
		"slug": slug, "name": name,
	}, nil)
	if resp.Status != http.StatusCreated {
		t.Fatalf("create project %s: status %d (%s)", slug, resp.Status, resp.errorCode())
	}
	var project struct {
		ID string `json:"id"`
	}
	resp.decode(t, &project)
	return project.ID
}
