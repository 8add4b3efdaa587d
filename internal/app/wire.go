//go:build wireinject

package app

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/shiplane-dev/shiplane/internal/config"
	"github.com/shiplane-dev/shiplane/internal/http/handler"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/service"
)

func Initialize(cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*App, error) {
	wire.Build(
		ProvideDatabase,
		ProvideRedis,
		ProvideCapabilityCache,
		ProvideJWTManager,
		ProvideOAuthProvider,
		ProvideTokenService,
		ProvidePermissionResolver,
		ProvideWebhookService,
		ProvideProbeRunner,
		ProvideRouter,
		ProvideServer,

		repository.NewUserRepository,
		repository.NewSessionRepository,
		repository.NewAPITokenRepository,
		repository.NewWorkspaceRepository,
		repository.NewProjectRepository,
		repository.NewPermissionRepository,
		repository.NewEnvironmentRepository,
		repository.NewCiRunRepository,
		repository.NewRepoLinkRepository,

		service.NewAuthService,
		service.NewOAuthService,
		service.NewSessionService,
		service.NewAPITokenService,
		service.NewRoleResolver,
		service.NewWorkspaceService,
		service.NewProjectService,
		service.NewEnvironmentService,
		service.NewCiRunService,

		handler.NewAuthHandler,
		handler.NewMeHandler,
		handler.NewWorkspaceHandler,
		handler.NewProjectHandler,
		handler.NewEnvironmentHandler,
		handler.NewCiRunHandler,
		handler.NewWebhookHandler,

		New,
	)
	return nil, nil
}
