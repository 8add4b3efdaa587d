package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/security"

	"github.com/google/uuid"
)

const minPasswordLength = 8

// LoginResult is the shape every authentication path produces.
type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	SessionToken string
	SessionID    string
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenService
}

func NewAuthService(userRepo repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

func (s *AuthService) Signup(ctx context.Context, email, password, displayName, ua, ip string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsDuplicate(err) {
			observability.RecordAuthSignup("conflict")
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create user", err)
	}
	pair, err := s.tokens.Issue(user, ua, ip)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthSignup("success")
	return loginResult(user, pair), nil
}

func (s *AuthService) Login(ctx context.Context, email, password, ua, ip string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password required")
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin("password", "failure")
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}
	if user.PasswordHash == "" || !security.VerifyPassword(password, user.PasswordHash) {
		observability.RecordAuthLogin("password", "failure")
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	pair, err := s.tokens.Issue(user, ua, ip)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthLogin("password", "success")
	return loginResult(user, pair), nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken, sessionToken, ua, ip string) (*LoginResult, error) {
	pair, user, err := s.tokens.Rotate(refreshToken, sessionToken, ua, ip)
	if err != nil {
		observability.RecordAuthRefresh("failure")
		return nil, err
	}
	observability.RecordAuthRefresh("success")
	return loginResult(user, pair), nil
}

// Logout revokes the presented session. At least one selector is
// required; revoking an already-dead session still succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionToken, refreshToken string) error {
	if err := s.tokens.Revoke(sessionToken, refreshToken, "logout"); err != nil {
		return err
	}
	observability.RecordAuthLogout("success")
	return nil
}

func (s *AuthService) GetUser(userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}
	return user, nil
}

func loginResult(user *domain.User, pair *TokenPair) *LoginResult {
	return &LoginResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SessionToken: pair.SessionToken,
		SessionID:    pair.SessionID,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("invalid email address")
	}
	return nil
}
