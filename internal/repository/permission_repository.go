package repository

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository interface {
	// FindByUserAndProject returns ErrPermissionNotFound when no row
	// exists; absence means no capabilities, not an error state upstream.
	FindByUserAndProject(userID, projectID string) (*domain.Permission, error)
	ListByProject(projectID string) ([]domain.Permission, error)
	Upsert(p *domain.Permission) error
	DeleteByUserAndProject(userID, projectID string) (bool, error)
}

type GormPermissionRepository struct{ db *gorm.DB }

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &GormPermissionRepository{db: db}
}

func (r *GormPermissionRepository) FindByUserAndProject(userID, projectID string) (*domain.Permission, error) {
	var p domain.Permission
	err := r.db.Where("user_id = ? AND project_id = ?", userID, projectID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "permission", "find_by_user_and_project", "not_found")
			return nil, ErrPermissionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "permission", "find_by_user_and_project", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "permission", "find_by_user_and_project", "success")
	return &p, nil
}

func (r *GormPermissionRepository) ListByProject(projectID string) ([]domain.Permission, error) {
	var perms []domain.Permission
	err := r.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&perms).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "permission", "list_by_project", "error")
		return perms, err
	}
	observability.RecordRepositoryOperation(context.Background(), "permission", "list_by_project", "success")
	return perms, err
}

// Upsert inserts or overwrites the flags for the (user, project) pair.
func (r *GormPermissionRepository) Upsert(p *domain.Permission) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"can_read", "can_write", "can_execute", "can_admin", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "permission", "upsert", "error")
		return translateError(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "permission", "upsert", "success")
	return nil
}

func (r *GormPermissionRepository) DeleteByUserAndProject(userID, projectID string) (bool, error) {
	res := r.db.Where("user_id = ? AND project_id = ?", userID, projectID).Delete(&domain.Permission{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "permission", "delete_by_user_and_project", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "permission", "delete_by_user_and_project", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "permission", "delete_by_user_and_project", "success")
	return true, nil
}
