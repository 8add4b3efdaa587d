package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
)

type CiRunRepository interface {
	Create(run *domain.CiRun) error
	FindByIDInProject(projectID, runID string) (*domain.CiRun, error)
	ListByProject(projectID string, limit int) ([]domain.CiRun, error)
	UpdateStatus(projectID, runID string, status domain.CiRunStatus, startedAt, finishedAt *time.Time) (*domain.CiRun, error)
}

type GormCiRunRepository struct{ db *gorm.DB }

func NewCiRunRepository(db *gorm.DB) CiRunRepository { return &GormCiRunRepository{db: db} }

func (r *GormCiRunRepository) Create(run *domain.CiRun) error {
	err := translateError(r.db.Create(run).Error)
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "ci_run", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "ci_run", "create", "success")
	return nil
}

func (r *GormCiRunRepository) FindByIDInProject(projectID, runID string) (*domain.CiRun, error) {
	var run domain.CiRun
	err := r.db.Where("project_id = ? AND id = ?", projectID, runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "ci_run", "find_by_id_in_project", "not_found")
			return nil, ErrCiRunNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "ci_run", "find_by_id_in_project", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "ci_run", "find_by_id_in_project", "success")
	return &run, nil
}

func (r *GormCiRunRepository) ListByProject(projectID string, limit int) ([]domain.CiRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []domain.CiRun
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "ci_run", "list_by_project", "error")
		return runs, err
	}
	observability.RecordRepositoryOperation(context.Background(), "ci_run", "list_by_project", "success")
	return runs, err
}

func (r *GormCiRunRepository) UpdateStatus(projectID, runID string, status domain.CiRunStatus, startedAt, finishedAt *time.Time) (*domain.CiRun, error) {
	updates := map[string]any{"status": status}
	if startedAt != nil {
		updates["started_at"] = *startedAt
	}
	if finishedAt != nil {
		updates["finished_at"] = *finishedAt
	}
	res := r.db.Model(&domain.CiRun{}).
		Where("project_id = ? AND id = ?", projectID, runID).
		Updates(updates)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "ci_run", "update_status", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "ci_run", "update_status", "not_found")
		return nil, ErrCiRunNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "ci_run", "update_status", "success")
	return r.FindByIDInProject(projectID, runID)
}
