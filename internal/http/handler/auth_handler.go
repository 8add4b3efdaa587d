package handler

import (
	"net/http"
	"time"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	auth  *service.AuthService
	oauth *service.OAuthService
}

func NewAuthHandler(auth *service.AuthService, oauth *service.OAuthService) *AuthHandler {
	return &AuthHandler{auth: auth, oauth: oauth}
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	SessionToken string `json:"session_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	SessionToken string `json:"session_token"`
}

// loginResponse carries the refresh and session tokens exactly once;
// neither is recoverable later.
type loginResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	SessionToken string       `json:"session_token"`
	SessionID    string       `json:"session_id"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	ua, ip := clientInfo(r)
	result, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.DisplayName, ua, ip)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "auth.signup", result.User.ID, "email", result.User.Email)
	response.JSON(w, r, http.StatusCreated, toLoginResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	ua, ip := clientInfo(r)
	result, err := h.auth.Login(r.Context(), req.Email, req.Password, ua, ip)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "auth.login", result.User.ID, "method", "password")
	response.JSON(w, r, http.StatusOK, toLoginResponse(result))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	ua, ip := clientInfo(r)
	result, err := h.auth.Refresh(r.Context(), req.RefreshToken, req.SessionToken, ua, ip)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toLoginResponse(result))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := h.auth.Logout(r.Context(), req.SessionToken, req.RefreshToken); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

// GitHubLogin redirects to the provider with a single-use state value
// pinned in a short-lived cookie.
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	url, err := h.oauth.LoginURL(state)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/v1/auth/github",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "oauth state mismatch", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/api/v1/auth/github", MaxAge: -1})

	ua, ip := clientInfo(r)
	result, err := h.oauth.LoginWithCode(r.Context(), r.URL.Query().Get("code"), ua, ip)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "auth.login", result.User.ID, "method", "oauth")
	response.JSON(w, r, http.StatusOK, toLoginResponse(result))
}

func toLoginResponse(result *service.LoginResult) loginResponse {
	return loginResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		SessionToken: result.SessionToken,
		SessionID:    result.SessionID,
	}
}
