package repository

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
)

type WorkspaceRepository interface {
	// CreateWithOwner persists the workspace and its OWNER membership
	// atomically; either both rows exist afterwards or neither does.
	CreateWithOwner(ws *domain.Workspace, owner *domain.Membership) error
	FindByID(id string) (*domain.Workspace, error)
	FindBySlug(slug string) (*domain.Workspace, error)
	ListForUser(userID string) ([]domain.Workspace, error)
	Update(ws *domain.Workspace) error
	Delete(id string) error

	FindMembership(userID, workspaceID string) (*domain.Membership, error)
	ListMembers(workspaceID string) ([]domain.Membership, error)
	SaveMembership(m *domain.Membership) error
	DeleteMembership(userID, workspaceID string) (bool, error)
}

type GormWorkspaceRepository struct{ db *gorm.DB }

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

func (r *GormWorkspaceRepository) CreateWithOwner(ws *domain.Workspace, owner *domain.Membership) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ws).Error; err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		err = translateError(err)
		if IsDuplicate(err) {
			observability.RecordRepositoryOperation(context.Background(), "workspace", "create_with_owner", "conflict")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "workspace", "create_with_owner", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "workspace", "create_with_owner", "success")
	return nil
}

func (r *GormWorkspaceRepository) FindByID(id string) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.db.Where("id = ?", id).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "workspace", "find_by_id", "not_found")
			return nil, ErrWorkspaceNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "workspace", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "workspace", "find_by_id", "success")
	return &ws, nil
}

func (r *GormWorkspaceRepository) FindBySlug(slug string) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.db.Where("slug = ?", slug).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "workspace", "find_by_slug", "not_found")
			return nil, ErrWorkspaceNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "workspace", "find_by_slug", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "workspace", "find_by_slug", "success")
	return &ws, nil
}

func (r *GormWorkspaceRepository) ListForUser(userID string) ([]domain.Workspace, error) {
	var workspaces []domain.Workspace
	err := r.db.
		Joins("JOIN memberships ON memberships.workspace_id = workspaces.id").
		Where("memberships.user_id = ?", userID).
		Order("workspaces.created_at DESC").
		Find(&workspaces).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "workspace", "list_for_user", "error")
		return workspaces, err
	}
	observability.RecordRepositoryOperation(context.Background(), "workspace", "list_for_user", "success")
	return workspaces, err
}

func (r *GormWorkspaceRepository) Update(ws *domain.Workspace) error {
	err := translateError(r.db.Save(ws).Error)
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "workspace", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "workspace", "update", "success")
	return nil
}

func (r *GormWorkspaceRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Workspace{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "workspace", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "workspace", "delete", "not_found")
		return ErrWorkspaceNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "workspace", "delete", "success")
	return nil
}

func (r *GormWorkspaceRepository) FindMembership(userID, workspaceID string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "membership", "find", "not_found")
			return nil, ErrMembershipNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "membership", "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "find", "success")
	return &m, nil
}

func (r *GormWorkspaceRepository) ListMembers(workspaceID string) ([]domain.Membership, error) {
	var members []domain.Membership
	err := r.db.Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "list", "error")
		return members, err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "list", "success")
	return members, err
}

func (r *GormWorkspaceRepository) SaveMembership(m *domain.Membership) error {
	err := translateError(r.db.Save(m).Error)
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "save", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "save", "success")
	return nil
}

func (r *GormWorkspaceRepository) DeleteMembership(userID, workspaceID string) (bool, error) {
	res := r.db.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).Delete(&domain.Membership{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "delete", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "membership", "delete", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "delete", "success")
	return true, nil
}
