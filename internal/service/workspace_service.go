package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// MemberUpsertResult reports what the invite/role-set call did. Status
// "invited" means the email has no account yet and no membership row was
// written; repeating the call after signup completes the invite.
type MemberUpsertResult struct {
	Status     string             `json:"status"`
	Membership *domain.Membership `json:"membership,omitempty"`
}

type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
	roles         *RoleResolver
	permissions   *PermissionResolver
}

func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository, userRepo repository.UserRepository, roles *RoleResolver, permissions *PermissionResolver) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
		roles:         roles,
		permissions:   permissions,
	}
}

// Create persists the workspace and the creator's OWNER membership in
// one transaction.
func (s *WorkspaceService) Create(ctx context.Context, userID, slug, name string, description *string) (*domain.Workspace, error) {
	slug = strings.TrimSpace(slug)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperr.Validation("slug must be lowercase alphanumeric with hyphens")
	}
	ws := &domain.Workspace{
		ID:          uuid.NewString(),
		Slug:        slug,
		Name:        name,
		Description: description,
		OwnerID:     userID,
	}
	owner := &domain.Membership{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: ws.ID,
		Role:        domain.RoleOwner,
	}
	if err := s.workspaceRepo.CreateWithOwner(ws, owner); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("workspace slug already taken")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create workspace", err)
	}
	observability.RecordWorkspaceMutation("create")
	return ws, nil
}

func (s *WorkspaceService) Get(userID, workspaceID string) (*domain.Workspace, error) {
	if _, err := s.roles.RequireRole(userID, workspaceID, domain.RoleViewer); err != nil {
		return nil, err
	}
	ws, err := s.workspaceRepo.FindByID(workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "look up workspace", err)
	}
	return ws, nil
}

func (s *WorkspaceService) List(userID string) ([]domain.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListForUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list workspaces", err)
	}
	return workspaces, nil
}

func (s *WorkspaceService) Update(userID, workspaceID string, name *string, description *string) (*domain.Workspace, error) {
	if _, err := s.roles.RequireRole(userID, workspaceID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	ws, err := s.workspaceRepo.FindByID(workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "look up workspace", err)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		ws.Name = trimmed
	}
	if description != nil {
		ws.Description = description
	}
	if err := s.workspaceRepo.Update(ws); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "update workspace", err)
	}
	observability.RecordWorkspaceMutation("update")
	return ws, nil
}

func (s *WorkspaceService) Delete(userID, workspaceID string) error {
	if _, err := s.roles.RequireRole(userID, workspaceID, domain.RoleOwner); err != nil {
		return err
	}
	if err := s.workspaceRepo.Delete(workspaceID); err != nil {
		if errors.Is(err, repository.ErrWorkspaceNotFound) {
			return apperr.NotFound("workspace not found")
		}
		return apperr.Wrap(apperr.KindInternal, "delete workspace", err)
	}
	observability.RecordWorkspaceMutation("delete")
	return nil
}

func (s *WorkspaceService) ListMembers(userID, workspaceID string) ([]domain.Membership, error) {
	if _, err := s.roles.RequireRole(userID, workspaceID, domain.RoleViewer); err != nil {
		return nil, err
	}
	members, err := s.workspaceRepo.ListMembers(workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list members", err)
	}
	return members, nil
}

// UpsertMemberByEmail invites or re-roles a member addressed by email.
// An unknown email yields status "invited" and writes nothing; the
// caller repeats the operation once the user exists.
func (s *WorkspaceService) UpsertMemberByEmail(ctx context.Context, actingUserID, workspaceID, email string, role domain.Role) (*MemberUpsertResult, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	acting, err := s.roles.RequireRole(actingUserID, workspaceID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &MemberUpsertResult{Status: "invited"}, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}

	currentRole := domain.Role("")
	existing, err := s.workspaceRepo.FindMembership(target.ID, workspaceID)
	switch {
	case err == nil:
		currentRole = existing.Role
	case errors.Is(err, repository.ErrMembershipNotFound):
	default:
		return nil, apperr.Wrap(apperr.KindInternal, "look up membership", err)
	}
	if err := s.roles.RequireOwnerForOwnerTransition(acting, currentRole, role); err != nil {
		return nil, err
	}

	status := "updated"
	membership := existing
	if membership == nil {
		status = "added"
		membership = &domain.Membership{
			ID:          uuid.NewString(),
			UserID:      target.ID,
			WorkspaceID: workspaceID,
		}
	}
	membership.Role = role
	if err := s.workspaceRepo.SaveMembership(membership); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("membership already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "save membership", err)
	}
	s.permissions.InvalidateUser(ctx, target.ID)
	observability.RecordWorkspaceMutation("member_upsert")
	return &MemberUpsertResult{Status: status, Membership: membership}, nil
}

func (s *WorkspaceService) RemoveMember(ctx context.Context, actingUserID, workspaceID, targetUserID string) error {
	acting, err := s.roles.RequireRole(actingUserID, workspaceID, domain.RoleAdmin)
	if err != nil {
		return err
	}
	target, err := s.workspaceRepo.FindMembership(targetUserID, workspaceID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return apperr.NotFound("membership not found")
		}
		return apperr.Wrap(apperr.KindInternal, "look up membership", err)
	}
	// Removing an OWNER is an OWNER-involving transition.
	if target.Role == domain.RoleOwner && acting.Role != domain.RoleOwner {
		return apperr.Forbidden("only an owner may remove an owner")
	}
	if _, err := s.workspaceRepo.DeleteMembership(targetUserID, workspaceID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete membership", err)
	}
	s.permissions.InvalidateUser(ctx, targetUserID)
	observability.RecordWorkspaceMutation("member_remove")
	return nil
}
