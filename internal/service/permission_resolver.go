package service

import (
	"context"
	"errors"
	"time"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/repository"
)

// PermissionResolver is the two-tier project authorization engine:
// workspace role first, per-project capability flags second, OR-combined.
// A VIEWER-or-above membership is always the tenancy prerequisite.
type PermissionResolver struct {
	roles          *RoleResolver
	projectRepo    repository.ProjectRepository
	permissionRepo repository.PermissionRepository
	cache          CapabilityCacheStore
	cacheTTL       time.Duration
}

func NewPermissionResolver(roles *RoleResolver, projectRepo repository.ProjectRepository, permissionRepo repository.PermissionRepository, cache CapabilityCacheStore, cacheTTL time.Duration) *PermissionResolver {
	return &PermissionResolver{
		roles:          roles,
		projectRepo:    projectRepo,
		permissionRepo: permissionRepo,
		cache:          cache,
		cacheTTL:       cacheTTL,
	}
}

// Enforce authorizes userID for a capability on a project. The check
// succeeds when the workspace role is ADMIN or above, or when the
// per-project flags grant the capability. The admin capability is only
// satisfiable by canAdmin, never by the other flags.
func (r *PermissionResolver) Enforce(ctx context.Context, userID, workspaceID, projectID string, capability domain.Capability) error {
	if !capability.Valid() {
		return apperr.Validation("unknown capability")
	}
	membership, err := r.roles.RequireRole(userID, workspaceID, domain.RoleViewer)
	if err != nil {
		return err
	}
	if _, err := r.projectRepo.FindByIDInWorkspace(workspaceID, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return apperr.NotFound("project not found")
		}
		return apperr.Wrap(apperr.KindInternal, "look up project", err)
	}
	if membership.Role.AtLeast(domain.RoleAdmin) {
		return nil
	}
	capabilities, err := r.capabilities(ctx, userID, projectID)
	if err != nil {
		return err
	}
	for _, c := range capabilities {
		if c == string(capability) {
			return nil
		}
	}
	return apperr.Forbidden("missing project capability")
}

// CanManageProjectPermissions is the single helper behind both reading
// and writing another user's project permissions: workspace ADMIN+ or
// the caller's own canAdmin flag.
func (r *PermissionResolver) CanManageProjectPermissions(ctx context.Context, userID, workspaceID, projectID string) (bool, error) {
	err := r.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityAdmin)
	if err == nil {
		return true, nil
	}
	if apperr.IsKind(err, apperr.KindForbidden) {
		return false, nil
	}
	return false, err
}

// InvalidateUser must be called after any permission or membership
// mutation affecting the user.
func (r *PermissionResolver) InvalidateUser(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.InvalidateUser(ctx, userID)
}

func (r *PermissionResolver) capabilities(ctx context.Context, userID, projectID string) ([]string, error) {
	if r.cache != nil && r.cacheTTL > 0 {
		cached, ok, err := r.cache.Get(ctx, userID, projectID)
		if err == nil && ok {
			return cached, nil
		}
	}
	capabilities, err := r.loadCapabilities(userID, projectID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil && r.cacheTTL > 0 {
		_ = r.cache.Set(ctx, userID, projectID, capabilities, r.cacheTTL)
	}
	return capabilities, nil
}

func (r *PermissionResolver) loadCapabilities(userID, projectID string) ([]string, error) {
	permission, err := r.permissionRepo.FindByUserAndProject(userID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrPermissionNotFound) {
			// No row means no capabilities; cache the emptiness too.
			return []string{}, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up permission", err)
	}
	var capabilities []string
	for _, c := range []domain.Capability{domain.CapabilityRead, domain.CapabilityWrite, domain.CapabilityExecute, domain.CapabilityAdmin} {
		if permission.Grants(c) {
			capabilities = append(capabilities, string(c))
		}
	}
	return capabilities, nil
}
