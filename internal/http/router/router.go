// Package router assembles the chi routing tree and the middleware
// stack around the handlers.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shiplane-dev/shiplane/internal/health"
	"github.com/shiplane-dev/shiplane/internal/http/handler"
	"github.com/shiplane-dev/shiplane/internal/http/middleware"
	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/security"
	"github.com/shiplane-dev/shiplane/internal/service"
)

type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	MeHandler          *handler.MeHandler
	WorkspaceHandler   *handler.WorkspaceHandler
	ProjectHandler     *handler.ProjectHandler
	EnvironmentHandler *handler.EnvironmentHandler
	CiRunHandler       *handler.CiRunHandler
	WebhookHandler     *handler.WebhookHandler

	JWTManager *security.JWTManager
	APITokens  *service.APITokenService

	CORSOrigins      []string
	APIRateLimitRPM  int
	AuthRateLimitRPM int
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())

	authLimiter := middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	authn := middleware.Authenticate(dep.JWTManager, dep.APITokens)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/signup", dep.AuthHandler.Signup)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(authLimiter).Post("/logout", dep.AuthHandler.Logout)
			r.With(authLimiter).Get("/github/login", dep.AuthHandler.GitHubLogin)
			r.With(authLimiter).Get("/github/callback", dep.AuthHandler.GitHubCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/me", dep.MeHandler.Me)
			r.Get("/me/sessions", dep.MeHandler.Sessions)
			r.Delete("/me/sessions/{session_id}", dep.MeHandler.RevokeSession)
			r.Post("/me/sessions/revoke-others", dep.MeHandler.RevokeOtherSessions)
			r.Get("/me/tokens", dep.MeHandler.ListTokens)
			r.Post("/me/tokens", dep.MeHandler.CreateToken)
			r.Delete("/me/tokens/{token_id}", dep.MeHandler.RevokeToken)

			r.Route("/workspaces", func(r chi.Router) {
				r.Post("/", dep.WorkspaceHandler.Create)
				r.Get("/", dep.WorkspaceHandler.List)
				r.Route("/{workspace_id}", func(r chi.Router) {
					r.Get("/", dep.WorkspaceHandler.Get)
					r.Patch("/", dep.WorkspaceHandler.Update)
					r.Delete("/", dep.WorkspaceHandler.Delete)
					r.Get("/members", dep.WorkspaceHandler.ListMembers)
					r.Put("/members", dep.WorkspaceHandler.UpsertMember)
					r.Delete("/members/{user_id}", dep.WorkspaceHandler.RemoveMember)

					r.Route("/projects", func(r chi.Router) {
						r.Post("/", dep.ProjectHandler.Create)
						r.Get("/", dep.ProjectHandler.List)
						r.Route("/{project_id}", func(r chi.Router) {
							r.Get("/", dep.ProjectHandler.Get)
							r.Patch("/", dep.ProjectHandler.Update)
							r.Delete("/", dep.ProjectHandler.Delete)
							r.Get("/permissions", dep.ProjectHandler.GetPermissions)
							r.Put("/permissions", dep.ProjectHandler.SetPermission)
							r.Delete("/permissions/{user_id}", dep.ProjectHandler.RemovePermission)

							r.Route("/environments", func(r chi.Router) {
								r.Post("/", dep.EnvironmentHandler.Create)
								r.Get("/", dep.EnvironmentHandler.List)
								r.Get("/{environment_id}", dep.EnvironmentHandler.Get)
								r.Patch("/{environment_id}", dep.EnvironmentHandler.Update)
								r.Delete("/{environment_id}", dep.EnvironmentHandler.Delete)
							})

							r.Route("/runs", func(r chi.Router) {
								r.With(middleware.RequireScope("ci:write")).Post("/", dep.CiRunHandler.Create)
								r.Get("/", dep.CiRunHandler.List)
								r.Get("/{run_id}", dep.CiRunHandler.Get)
								r.With(middleware.RequireScope("ci:write")).Patch("/{run_id}/status", dep.CiRunHandler.UpdateStatus)
							})

							r.Put("/repo-link", dep.WebhookHandler.SetRepoLink)
							r.Get("/repo-link", dep.WebhookHandler.GetRepoLink)
							r.Delete("/repo-link", dep.WebhookHandler.DeleteRepoLink)
						})
					})
				})
			})
		})

		// Authenticated by signature, not by principal.
		r.Post("/webhooks/github", dep.WebhookHandler.Deliver)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
