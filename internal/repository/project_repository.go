package repository

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(p *domain.Project) error
	// FindByIDInWorkspace scopes the lookup to the tenant; a project in a
	// different workspace reads as absent.
	FindByIDInWorkspace(workspaceID, projectID string) (*domain.Project, error)
	ListByWorkspace(workspaceID string) ([]domain.Project, error)
	Update(p *domain.Project) error
	Delete(workspaceID, projectID string) error
}

type GormProjectRepository struct{ db *gorm.DB }

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(p *domain.Project) error {
	err := translateError(r.db.Create(p).Error)
	if err != nil {
		if IsDuplicate(err) {
			observability.RecordRepositoryOperation(context.Background(), "project", "create", "conflict")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "project", "create", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "create", "success")
	return nil
}

func (r *GormProjectRepository) FindByIDInWorkspace(workspaceID, projectID string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, projectID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "project", "find_by_id_in_workspace", "not_found")
			return nil, ErrProjectNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "project", "find_by_id_in_workspace", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "find_by_id_in_workspace", "success")
	return &p, nil
}

func (r *GormProjectRepository) ListByWorkspace(workspaceID string) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.Where("workspace_id = ?", workspaceID).Order("created_at DESC").Find(&projects).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "project", "list_by_workspace", "error")
		return projects, err
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "list_by_workspace", "success")
	return projects, err
}

func (r *GormProjectRepository) Update(p *domain.Project) error {
	err := translateError(r.db.Save(p).Error)
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "project", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "update", "success")
	return nil
}

func (r *GormProjectRepository) Delete(workspaceID, projectID string) error {
	res := r.db.Where("workspace_id = ? AND id = ?", workspaceID, projectID).Delete(&domain.Project{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "project", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "project", "delete", "not_found")
		return ErrProjectNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "delete", "success")
	return nil
}
