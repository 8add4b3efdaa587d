package repository

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
)

type APITokenRepository interface {
	Create(t *domain.APIToken) error
	FindByHash(hash string) (*domain.APIToken, error)
	ListByUserID(userID string) ([]domain.APIToken, error)
	DeleteByIDForUser(userID, tokenID string) (bool, error)
}

type GormAPITokenRepository struct{ db *gorm.DB }

func NewAPITokenRepository(db *gorm.DB) APITokenRepository {
	return &GormAPITokenRepository{db: db}
}

func (r *GormAPITokenRepository) Create(t *domain.APIToken) error {
	err := translateError(r.db.Create(t).Error)
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "api_token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "api_token", "create", "success")
	return nil
}

func (r *GormAPITokenRepository) FindByHash(hash string) (*domain.APIToken, error) {
	var t domain.APIToken
	err := r.db.Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "api_token", "find_by_hash", "not_found")
			return nil, ErrAPITokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "api_token", "find_by_hash", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "api_token", "find_by_hash", "success")
	return &t, nil
}

func (r *GormAPITokenRepository) ListByUserID(userID string) ([]domain.APIToken, error) {
	var tokens []domain.APIToken
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&tokens).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "api_token", "list_by_user_id", "error")
		return tokens, err
	}
	observability.RecordRepositoryOperation(context.Background(), "api_token", "list_by_user_id", "success")
	return tokens, err
}

// DeleteByIDForUser hard-deletes; revoked API tokens leave no row behind.
func (r *GormAPITokenRepository) DeleteByIDForUser(userID, tokenID string) (bool, error) {
	res := r.db.Where("user_id = ? AND id = ?", userID, tokenID).Delete(&domain.APIToken{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "api_token", "delete_by_id_for_user", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "api_token", "delete_by_id_for_user", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "api_token", "delete_by_id_for_user", "success")
	return true, nil
}
