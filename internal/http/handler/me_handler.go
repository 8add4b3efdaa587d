package handler

import (
	"net/http"
	"time"

	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/go-chi/chi/v5"
)

// MeHandler serves the authenticated user's own surface: profile,
// device sessions and API tokens.
type MeHandler struct {
	auth      *service.AuthService
	sessions  *service.SessionService
	apiTokens *service.APITokenService
}

func NewMeHandler(auth *service.AuthService, sessions *service.SessionService, apiTokens *service.APITokenService) *MeHandler {
	return &MeHandler{auth: auth, sessions: sessions, apiTokens: apiTokens}
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.auth.GetUser(p.UserID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *MeHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	currentID := h.sessions.ResolveCurrentSessionID(p.UserID, r.Header.Get(SessionTokenHeader))
	views, err := h.sessions.ListActiveSessions(p.UserID, currentID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"sessions": views})
}

func (h *MeHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	status, err := h.sessions.RevokeSession(p.UserID, chi.URLParam(r, "session_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "session.revoke", p.UserID, "status", status)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": status})
}

func (h *MeHandler) RevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	currentID := h.sessions.ResolveCurrentSessionID(p.UserID, r.Header.Get(SessionTokenHeader))
	count, err := h.sessions.RevokeOtherSessions(p.UserID, currentID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "session.revoke_others", p.UserID, "count", count)
	response.JSON(w, r, http.StatusOK, map[string]any{"revoked": count})
}

type createTokenRequest struct {
	Label     string     `json:"label"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (h *MeHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	views, err := h.apiTokens.List(p.UserID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"tokens": views})
}

// CreateToken returns the raw token value in this response only.
func (h *MeHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	created, err := h.apiTokens.Create(p.UserID, req.Label, req.Scopes, req.ExpiresAt)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "api_token.create", p.UserID, "token_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *MeHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tokenID := chi.URLParam(r, "token_id")
	if err := h.apiTokens.Revoke(p.UserID, tokenID); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "api_token.revoke", p.UserID, "token_id", tokenID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "revoked"})
}
