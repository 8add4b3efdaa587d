package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(s *domain.Session) error
	FindActiveByRefreshHash(hash, sessionToken string) (*domain.Session, error)
	FindBySessionToken(token string) (*domain.Session, error)
	FindByIDForUser(userID, sessionID string) (*domain.Session, error)
	ListActiveByUserID(userID string) ([]domain.Session, error)
	Rotate(sessionID, oldHash, newHash string, expiresAt time.Time, userAgent, ip string) error
	RevokeBySessionToken(token, reason string) (int64, error)
	RevokeByRefreshHash(hash, reason string) (int64, error)
	RevokeByIDForUser(userID, sessionID, reason string) (bool, error)
	RevokeOthersByUser(userID, keepSessionID, reason string) (int64, error)
	RevokeByUserID(userID, reason string) error
	CleanupExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error {
	err := translateError(r.db.Create(s).Error)
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

// FindActiveByRefreshHash matches on the refresh-token hash and liveness.
// A non-empty sessionToken narrows the match to that session, defending
// against a hash matching a different session.
func (r *GormSessionRepository) FindActiveByRefreshHash(hash, sessionToken string) (*domain.Session, error) {
	q := r.db.Where("refresh_token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, time.Now())
	if sessionToken != "" {
		q = q.Where("session_token = ?", sessionToken)
	}
	var s domain.Session
	err := q.First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_active_by_refresh_hash", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_active_by_refresh_hash", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_active_by_refresh_hash", "success")
	return &s, nil
}

func (r *GormSessionRepository) FindBySessionToken(token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("session_token = ?", token).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_session_token", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_session_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_session_token", "success")
	return &s, nil
}

func (r *GormSessionRepository) FindByIDForUser(userID, sessionID string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("user_id = ? AND id = ?", userID, sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id_for_user", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id_for_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id_for_user", "success")
	return &s, nil
}

func (r *GormSessionRepository) ListActiveByUserID(userID string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_active_by_user_id", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_active_by_user_id", "success")
	return sessions, err
}

// Rotate swaps the stored hash and extends the expiry in one conditional
// update keyed by the current hash. Two racing rotations cannot both
// succeed: the loser's predicate no longer matches and it observes
// ErrSessionNotFound.
func (r *GormSessionRepository) Rotate(sessionID, oldHash, newHash string, expiresAt time.Time, userAgent, ip string) error {
	updates := map[string]any{
		"refresh_token_hash": newHash,
		"expires_at":         expiresAt,
	}
	if userAgent != "" {
		updates["user_agent"] = userAgent
	}
	if ip != "" {
		updates["ip"] = ip
	}
	res := r.db.Model(&domain.Session{}).
		Where("id = ? AND refresh_token_hash = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, oldHash, time.Now()).
		Updates(updates)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "error")
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "not_found")
		return ErrSessionNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "success")
	return nil
}

func (r *GormSessionRepository) RevokeBySessionToken(token, reason string) (int64, error) {
	return r.revokeWhere("session_token = ?", token, reason, "revoke_by_session_token")
}

func (r *GormSessionRepository) RevokeByRefreshHash(hash, reason string) (int64, error) {
	return r.revokeWhere("refresh_token_hash = ?", hash, reason, "revoke_by_refresh_hash")
}

// revokeWhere soft-revokes matching non-revoked sessions. Revoking an
// already-revoked session is a no-op success.
func (r *GormSessionRepository) revokeWhere(cond string, arg any, reason, op string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.Model(&domain.Session{}).
		Where(cond, arg).
		Where("revoked_at IS NULL").
		Updates(map[string]any{"revoked_at": now, "revoked_reason": reason})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", op, "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", op, "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) RevokeByIDForUser(userID, sessionID, reason string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND id = ? AND revoked_at IS NULL", userID, sessionID).
		Updates(map[string]any{"revoked_at": now, "revoked_reason": reason})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_id_for_user", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_id_for_user", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) RevokeOthersByUser(userID, keepSessionID, reason string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND id <> ? AND revoked_at IS NULL", userID, keepSessionID).
		Updates(map[string]any{"revoked_at": now, "revoked_reason": reason})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_others_by_user", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_others_by_user", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) RevokeByUserID(userID, reason string) error {
	now := time.Now().UTC()
	err := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]any{"revoked_at": now, "revoked_reason": reason}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_user_id", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_user_id", "success")
	return nil
}

func (r *GormSessionRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "cleanup_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "cleanup_expired", "success")
	return res.RowsAffected, nil
}
