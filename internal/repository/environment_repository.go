package repository

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
)

type EnvironmentRepository interface {
	Create(e *domain.Environment) error
	FindByIDInProject(projectID, environmentID string) (*domain.Environment, error)
	ListByProject(projectID string) ([]domain.Environment, error)
	Update(e *domain.Environment) error
	Delete(projectID, environmentID string) error
}

type GormEnvironmentRepository struct{ db *gorm.DB }

func NewEnvironmentRepository(db *gorm.DB) EnvironmentRepository {
	return &GormEnvironmentRepository{db: db}
}

func (r *GormEnvironmentRepository) Create(e *domain.Environment) error {
	err := translateError(r.db.Create(e).Error)
	if err != nil {
		if IsDuplicate(err) {
			observability.RecordRepositoryOperation(context.Background(), "environment", "create", "conflict")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "environment", "create", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "environment", "create", "success")
	return nil
}

func (r *GormEnvironmentRepository) FindByIDInProject(projectID, environmentID string) (*domain.Environment, error) {
	var e domain.Environment
	err := r.db.Where("project_id = ? AND id = ?", projectID, environmentID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "environment", "find_by_id_in_project", "not_found")
			return nil, ErrEnvironmentNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "environment", "find_by_id_in_project", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "environment", "find_by_id_in_project", "success")
	return &e, nil
}

func (r *GormEnvironmentRepository) ListByProject(projectID string) ([]domain.Environment, error) {
	var envs []domain.Environment
	err := r.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&envs).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "environment", "list_by_project", "error")
		return envs, err
	}
	observability.RecordRepositoryOperation(context.Background(), "environment", "list_by_project", "success")
	return envs, err
}

func (r *GormEnvironmentRepository) Update(e *domain.Environment) error {
	err := translateError(r.db.Save(e).Error)
	if err != nil {
		if IsDuplicate(err) {
			observability.RecordRepositoryOperation(context.Background(), "environment", "update", "conflict")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "environment", "update", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "environment", "update", "success")
	return nil
}

func (r *GormEnvironmentRepository) Delete(projectID, environmentID string) error {
	res := r.db.Where("project_id = ? AND id = ?", projectID, environmentID).Delete(&domain.Environment{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "environment", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "environment", "delete", "not_found")
		return ErrEnvironmentNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "environment", "delete", "success")
	return nil
}
