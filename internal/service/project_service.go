package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"

	"github.com/google/uuid"
)

// PermissionFlags is the write shape for a project permission row.
type PermissionFlags struct {
	CanRead    bool `json:"can_read"`
	CanWrite   bool `json:"can_write"`
	CanExecute bool `json:"can_execute"`
	CanAdmin   bool `json:"can_admin"`
}

type ProjectService struct {
	projectRepo    repository.ProjectRepository
	permissionRepo repository.PermissionRepository
	roles          *RoleResolver
	permissions    *PermissionResolver
}

func NewProjectService(projectRepo repository.ProjectRepository, permissionRepo repository.PermissionRepository, roles *RoleResolver, permissions *PermissionResolver) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		permissionRepo: permissionRepo,
		roles:          roles,
		permissions:    permissions,
	}
}

func (s *ProjectService) Create(userID, workspaceID, slug, name string, description *string) (*domain.Project, error) {
	slug = strings.TrimSpace(slug)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperr.Validation("slug must be lowercase alphanumeric with hyphens")
	}
	if _, err := s.roles.RequireRole(userID, workspaceID, domain.RoleMaintainer); err != nil {
		return nil, err
	}
	project := &domain.Project{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Slug:        slug,
		Name:        name,
		Description: description,
	}
	if err := s.projectRepo.Create(project); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("project slug already taken in this workspace")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create project", err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, workspaceID, projectID string) (*domain.Project, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityRead); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByIDInWorkspace(workspaceID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up project", err)
	}
	return project, nil
}

func (s *ProjectService) List(userID, workspaceID string) ([]domain.Project, error) {
	if _, err := s.roles.RequireRole(userID, workspaceID, domain.RoleViewer); err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.ListByWorkspace(workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list projects", err)
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, userID, workspaceID, projectID string, name *string, description *string) (*domain.Project, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityWrite); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByIDInWorkspace(workspaceID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up project", err)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		project.Name = trimmed
	}
	if description != nil {
		project.Description = description
	}
	if err := s.projectRepo.Update(project); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "update project", err)
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, workspaceID, projectID string) error {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityAdmin); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(workspaceID, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return apperr.NotFound("project not found")
		}
		return apperr.Wrap(apperr.KindInternal, "delete project", err)
	}
	return nil
}

// GetPermissions lists a project's permission rows; gated by the same
// two-tier check as writing them.
func (s *ProjectService) GetPermissions(ctx context.Context, userID, workspaceID, projectID string) ([]domain.Permission, error) {
	allowed, err := s.permissions.CanManageProjectPermissions(ctx, userID, workspaceID, projectID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.Forbidden("cannot manage project permissions")
	}
	permissions, err := s.permissionRepo.ListByProject(projectID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list permissions", err)
	}
	return permissions, nil
}

// SetPermission upserts the capability flags for a workspace member.
func (s *ProjectService) SetPermission(ctx context.Context, actingUserID, workspaceID, projectID, targetUserID string, flags PermissionFlags) (*domain.Permission, error) {
	allowed, err := s.permissions.CanManageProjectPermissions(ctx, actingUserID, workspaceID, projectID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.Forbidden("cannot manage project permissions")
	}
	// Capability flags only make sense for workspace members.
	if _, err := s.roles.RequireRole(targetUserID, workspaceID, domain.RoleViewer); err != nil {
		if apperr.IsKind(err, apperr.KindForbidden) {
			return nil, apperr.Validation("target user is not a workspace member")
		}
		return nil, err
	}
	permission := &domain.Permission{
		ID:         uuid.NewString(),
		UserID:     targetUserID,
		ProjectID:  projectID,
		CanRead:    flags.CanRead,
		CanWrite:   flags.CanWrite,
		CanExecute: flags.CanExecute,
		CanAdmin:   flags.CanAdmin,
	}
	if err := s.permissionRepo.Upsert(permission); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "upsert permission", err)
	}
	s.permissions.InvalidateUser(ctx, targetUserID)
	observability.RecordPermissionMutation("set")
	return permission, nil
}

func (s *ProjectService) RemovePermission(ctx context.Context, actingUserID, workspaceID, projectID, targetUserID string) error {
	allowed, err := s.permissions.CanManageProjectPermissions(ctx, actingUserID, workspaceID, projectID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.Forbidden("cannot manage project permissions")
	}
	removed, err := s.permissionRepo.DeleteByUserAndProject(targetUserID, projectID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete permission", err)
	}
	if !removed {
		return apperr.NotFound("permission not found")
	}
	s.permissions.InvalidateUser(ctx, targetUserID)
	observability.RecordPermissionMutation("delete")
	return nil
}
