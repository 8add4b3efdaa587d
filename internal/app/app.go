// Package app assembles the service graph behind a single App value.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shiplane-dev/shiplane/internal/config"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/health"
	"github.com/shiplane-dev/shiplane/internal/http/handler"
	"github.com/shiplane-dev/shiplane/internal/http/router"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/security"
	"github.com/shiplane-dev/shiplane/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Server        *http.Server
	Observability *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, db *gorm.DB, server *http.Server, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, DB: db, Server: server, Observability: runtime}
}

func ProvideDatabase(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DatabaseDriver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Session{}, &domain.APIToken{},
		&domain.Workspace{}, &domain.Membership{},
		&domain.Project{}, &domain.Permission{},
		&domain.Environment{}, &domain.CiRun{}, &domain.GitHubRepoLink{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	logger.Info("database ready", "driver", cfg.DatabaseDriver)
	return db, nil
}

func ProvideRedis(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func ProvideCapabilityCache(cfg *config.Config, client *redis.Client) service.CapabilityCacheStore {
	if client != nil {
		return service.NewRedisCapabilityCacheStore(client, "proj_cap")
	}
	return service.NewInMemoryCapabilityCacheStore()
}

func ProvideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret)
}

func ProvideTokenService(cfg *config.Config, jwtMgr *security.JWTManager, sessions repository.SessionRepository, users repository.UserRepository) *service.TokenService {
	return service.NewTokenService(jwtMgr, sessions, users, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// ProvideOAuthProvider returns nil when GitHub OAuth is not configured;
// the OAuth endpoints then answer NOT_FOUND.
func ProvideOAuthProvider(cfg *config.Config) service.OAuthProvider {
	if !cfg.GitHubOAuthEnabled() {
		return nil
	}
	return service.NewGitHubProvider(cfg.GitHubOAuthClientID, cfg.GitHubOAuthClientSecret, cfg.GitHubOAuthRedirectURL)
}

func ProvidePermissionResolver(cfg *config.Config, roles *service.RoleResolver, projects repository.ProjectRepository, permissions repository.PermissionRepository, cache service.CapabilityCacheStore) *service.PermissionResolver {
	return service.NewPermissionResolver(roles, projects, permissions, cache, cfg.CapabilityCacheTTL)
}

func ProvideWebhookService(cfg *config.Config, logger *slog.Logger, links repository.RepoLinkRepository, runs repository.CiRunRepository, permissions *service.PermissionResolver) *service.WebhookService {
	return service.NewWebhookService(links, runs, permissions, cfg.WebhookSecretFallback, logger)
}

func ProvideProbeRunner(db *gorm.DB, client *redis.Client) *health.ProbeRunner {
	checks := []health.Check{
		{Name: "database", Probe: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
	}
	if client != nil {
		checks = append(checks, health.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	return health.NewProbeRunner(2*time.Second, checks...)
}

func ProvideRouter(
	cfg *config.Config,
	jwtMgr *security.JWTManager,
	apiTokens *service.APITokenService,
	authHandler *handler.AuthHandler,
	meHandler *handler.MeHandler,
	workspaceHandler *handler.WorkspaceHandler,
	projectHandler *handler.ProjectHandler,
	environmentHandler *handler.EnvironmentHandler,
	ciRunHandler *handler.CiRunHandler,
	webhookHandler *handler.WebhookHandler,
	readiness *health.ProbeRunner,
) http.Handler {
	return router.New(router.Dependencies{
		AuthHandler:        authHandler,
		MeHandler:          meHandler,
		WorkspaceHandler:   workspaceHandler,
		ProjectHandler:     projectHandler,
		EnvironmentHandler: environmentHandler,
		CiRunHandler:       ciRunHandler,
		WebhookHandler:     webhookHandler,
		JWTManager:         jwtMgr,
		APITokens:          apiTokens,
		CORSOrigins:        cfg.CORSOrigins,
		APIRateLimitRPM:    cfg.APIRateLimitRPM,
		AuthRateLimitRPM:   cfg.AuthRateLimitRPM,
		Readiness:          readiness,
		EnableOTelHTTP:     cfg.OTELTracesEnabled,
	})
}

func ProvideServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
