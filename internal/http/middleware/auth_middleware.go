package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/security"
	"github.com/shiplane-dev/shiplane/internal/service"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Principal is the authenticated caller. JWT logins act with the full
// authority of the user; API tokens are narrowed to their scope list.
type Principal struct {
	UserID string
	Email  string
	Method string // "jwt" or "api_token"
	Scopes []string
}

// HasScope reports whether the principal may perform a scoped action.
// Interactive logins are unscoped and always pass.
func (p *Principal) HasScope(scope string) bool {
	if p.Method != "api_token" {
		return true
	}
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Authenticate accepts either a Bearer JWT access token or a raw API
// token and attaches the resolved principal to the request context.
func Authenticate(jwtMgr *security.JWTManager, apiTokens *service.APITokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing access token", nil)
				return
			}

			var principal *Principal
			if strings.HasPrefix(raw, security.APITokenPrefix) {
				token, err := apiTokens.Authenticate(raw)
				if err != nil {
					response.FromError(w, r, err)
					return
				}
				principal = &Principal{UserID: token.UserID, Method: "api_token", Scopes: token.ScopeList()}
			} else {
				claims, err := jwtMgr.ParseAccessToken(raw)
				if err != nil {
					response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid access token", nil)
					return
				}
				principal = &Principal{UserID: claims.Subject, Email: claims.Email, Method: "jwt"}
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope gates an endpoint for API-token callers. It assumes
// Authenticate already ran.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing auth context", nil)
				return
			}
			if !principal.HasScope(scope) {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "token lacks required scope", map[string]string{"required": scope})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
