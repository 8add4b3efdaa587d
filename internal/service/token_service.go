package service

import (
	"errors"
	"time"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/security"

	"github.com/google/uuid"
)

// TokenPair is the credential bundle handed to a client after signup,
// login, or refresh. RefreshToken is plaintext exactly here and nowhere
// else; only its hash lives in storage.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionToken string
	SessionID    string
	ExpiresAt    time.Time
}

type TokenService struct {
	jwtMgr      *security.JWTManager
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewTokenService(jwtMgr *security.JWTManager, sessionRepo repository.SessionRepository, userRepo repository.UserRepository, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		jwtMgr:      jwtMgr,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// Issue mints an access token and a fresh session with its one-time
// refresh token.
func (s *TokenService) Issue(user *domain.User, ua, ip string) (*TokenPair, error) {
	access, err := s.jwtMgr.SignAccessToken(user.ID, user.Email, s.accessTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}
	refresh, hash, err := security.NewRefreshPair()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "generate refresh token", err)
	}
	session := &domain.Session{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		SessionToken:     security.NewSessionToken(),
		RefreshTokenHash: hash,
		UserAgent:        ua,
		IP:               ip,
		ExpiresAt:        time.Now().Add(s.refreshTTL),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "persist session", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionToken: session.SessionToken,
		SessionID:    session.ID,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The swap is a single
// conditional update keyed by the current hash; of two racing calls only
// the first succeeds and the second fails closed as unauthenticated.
func (s *TokenService) Rotate(refreshToken, sessionToken, ua, ip string) (*TokenPair, *domain.User, error) {
	if refreshToken == "" {
		return nil, nil, apperr.Unauthenticated("invalid refresh token")
	}
	hash := security.HashOpaqueToken(refreshToken)
	session, err := s.sessionRepo.FindActiveByRefreshHash(hash, sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, apperr.Unauthenticated("invalid refresh token")
		}
		return nil, nil, apperr.Wrap(apperr.KindInternal, "look up session", err)
	}
	user, err := s.userRepo.FindByID(session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperr.Unauthenticated("invalid refresh token")
		}
		return nil, nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}

	newRefresh, newHash, err := security.NewRefreshPair()
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "generate refresh token", err)
	}
	expiresAt := time.Now().Add(s.refreshTTL)
	if err := s.sessionRepo.Rotate(session.ID, hash, newHash, expiresAt, ua, ip); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Lost the race or the token was already spent.
			return nil, nil, apperr.Unauthenticated("invalid refresh token")
		}
		return nil, nil, apperr.Wrap(apperr.KindInternal, "rotate session", err)
	}

	access, err := s.jwtMgr.SignAccessToken(user.ID, user.Email, s.accessTTL)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newRefresh,
		SessionToken: session.SessionToken,
		SessionID:    session.ID,
		ExpiresAt:    expiresAt,
	}, user, nil
}

// Revoke soft-revokes by session token or refresh token, whichever is
// supplied. Revocation is idempotent: an already-revoked session, or a
// token matching no session, both report success.
func (s *TokenService) Revoke(sessionToken, refreshToken, reason string) error {
	if sessionToken == "" && refreshToken == "" {
		return apperr.Validation("session token or refresh token required")
	}
	if sessionToken != "" {
		if _, err := s.sessionRepo.RevokeBySessionToken(sessionToken, reason); err != nil {
			return apperr.Wrap(apperr.KindInternal, "revoke session", err)
		}
		return nil
	}
	if _, err := s.sessionRepo.RevokeByRefreshHash(security.HashOpaqueToken(refreshToken), reason); err != nil {
		return apperr.Wrap(apperr.KindInternal, "revoke session", err)
	}
	return nil
}

func (s *TokenService) RevokeAll(userID, reason string) error {
	return s.sessionRepo.RevokeByUserID(userID, reason)
}
