package service

import (
	"errors"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/repository"
)

// RoleResolver answers workspace-level authorization questions from the
// static membership data. It holds no state of its own.
type RoleResolver struct {
	workspaceRepo repository.WorkspaceRepository
}

func NewRoleResolver(workspaceRepo repository.WorkspaceRepository) *RoleResolver {
	return &RoleResolver{workspaceRepo: workspaceRepo}
}

// RequireRole checks workspace existence first, then membership, then
// rank. A missing workspace is NOT_FOUND; a non-member and an
// insufficient role both come back FORBIDDEN, with distinct messages.
func (r *RoleResolver) RequireRole(userID, workspaceID string, minimum domain.Role) (*domain.Membership, error) {
	if _, err := r.workspaceRepo.FindByID(workspaceID); err != nil {
		if errors.Is(err, repository.ErrWorkspaceNotFound) {
			return nil, apperr.NotFound("workspace not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up workspace", err)
	}
	membership, err := r.workspaceRepo.FindMembership(userID, workspaceID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return nil, apperr.Forbidden("not a member of this workspace")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up membership", err)
	}
	if !membership.Role.AtLeast(minimum) {
		return nil, apperr.Forbidden("insufficient workspace role")
	}
	return membership, nil
}

// RequireOwnerForOwnerTransition guards role changes that assign or
// revoke OWNER. ADMIN may change every other role, but any transition
// touching OWNER needs an acting OWNER.
func (r *RoleResolver) RequireOwnerForOwnerTransition(acting *domain.Membership, currentRole, newRole domain.Role) error {
	if currentRole != domain.RoleOwner && newRole != domain.RoleOwner {
		return nil
	}
	if acting.Role != domain.RoleOwner {
		return apperr.Forbidden("only an owner may assign or revoke the owner role")
	}
	return nil
}
