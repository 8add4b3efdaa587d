package repository

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RepoLinkRepository interface {
	Upsert(link *domain.GitHubRepoLink) error
	FindByProject(projectID string) (*domain.GitHubRepoLink, error)
	FindByRepo(owner, name string) (*domain.GitHubRepoLink, error)
	DeleteByProject(projectID string) (bool, error)
}

type GormRepoLinkRepository struct{ db *gorm.DB }

func NewRepoLinkRepository(db *gorm.DB) RepoLinkRepository { return &GormRepoLinkRepository{db: db} }

func (r *GormRepoLinkRepository) Upsert(link *domain.GitHubRepoLink) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"repo_owner", "repo_name", "installation_id", "repo_id",
			"default_branch", "webhook_secret", "updated_at",
		}),
	}).Create(link).Error
	if err != nil {
		err = translateError(err)
		outcome := "error"
		if IsDuplicate(err) {
			outcome = "conflict"
		}
		observability.RecordRepositoryOperation(context.Background(), "repo_link", "upsert", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "repo_link", "upsert", "success")
	return nil
}

func (r *GormRepoLinkRepository) FindByProject(projectID string) (*domain.GitHubRepoLink, error) {
	var link domain.GitHubRepoLink
	err := r.db.Where("project_id = ?", projectID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "repo_link", "find_by_project", "not_found")
			return nil, ErrRepoLinkNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "repo_link", "find_by_project", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "repo_link", "find_by_project", "success")
	return &link, nil
}

func (r *GormRepoLinkRepository) FindByRepo(owner, name string) (*domain.GitHubRepoLink, error) {
	var link domain.GitHubRepoLink
	err := r.db.Where("repo_owner = ? AND repo_name = ?", owner, name).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "repo_link", "find_by_repo", "not_found")
			return nil, ErrRepoLinkNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "repo_link", "find_by_repo", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "repo_link", "find_by_repo", "success")
	return &link, nil
}

func (r *GormRepoLinkRepository) DeleteByProject(projectID string) (bool, error) {
	res := r.db.Where("project_id = ?", projectID).Delete(&domain.GitHubRepoLink{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "repo_link", "delete_by_project", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "repo_link", "delete_by_project", "success")
	return res.RowsAffected > 0, nil
}
