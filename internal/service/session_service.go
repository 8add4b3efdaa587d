package service

import (
	"errors"
	"time"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/repository"
)

// SessionView is the device-list projection of a session; token material
// never appears in it.
type SessionView struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	UserAgent string     `json:"user_agent"`
	IP        string     `json:"ip"`
	IsCurrent bool       `json:"is_current"`
}

type SessionService struct {
	sessionRepo repository.SessionRepository
}

func NewSessionService(sessionRepo repository.SessionRepository) *SessionService {
	return &SessionService{sessionRepo: sessionRepo}
}

func (s *SessionService) ListActiveSessions(userID, currentSessionID string) ([]SessionView, error) {
	sessions, err := s.sessionRepo.ListActiveByUserID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list sessions", err)
	}
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:        session.ID,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			RevokedAt: session.RevokedAt,
			UserAgent: session.UserAgent,
			IP:        session.IP,
			IsCurrent: session.ID == currentSessionID,
		})
	}
	return views, nil
}

// ResolveCurrentSessionID maps the opaque session token the client
// presents back to its session id, empty when nothing matches.
func (s *SessionService) ResolveCurrentSessionID(userID, sessionToken string) string {
	if sessionToken == "" {
		return ""
	}
	session, err := s.sessionRepo.FindBySessionToken(sessionToken)
	if err != nil || session.UserID != userID || !session.Active(time.Now()) {
		return ""
	}
	return session.ID
}

func (s *SessionService) RevokeSession(userID, sessionID string) (string, error) {
	if _, err := s.sessionRepo.FindByIDForUser(userID, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", apperr.NotFound("session not found")
		}
		return "", apperr.Wrap(apperr.KindInternal, "look up session", err)
	}
	changed, err := s.sessionRepo.RevokeByIDForUser(userID, sessionID, "user_session_revoked")
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "revoke session", err)
	}
	if !changed {
		return "already_revoked", nil
	}
	return "revoked", nil
}

func (s *SessionService) RevokeOtherSessions(userID, currentSessionID string) (int64, error) {
	if currentSessionID == "" {
		return 0, apperr.Validation("current session unknown")
	}
	count, err := s.sessionRepo.RevokeOthersByUser(userID, currentSessionID, "user_revoke_others")
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "revoke other sessions", err)
	}
	return count, nil
}
