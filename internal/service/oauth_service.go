package service

import (
	"context"
	"errors"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"

	"github.com/google/uuid"
)

// OAuthService signs users in through an external identity provider,
// creating the account on first login. Provider-less deployments get a
// disabled service that rejects both calls.
type OAuthService struct {
	provider OAuthProvider
	userRepo repository.UserRepository
	tokens   *TokenService
}

func NewOAuthService(provider OAuthProvider, userRepo repository.UserRepository, tokens *TokenService) *OAuthService {
	return &OAuthService{provider: provider, userRepo: userRepo, tokens: tokens}
}

func (s *OAuthService) Enabled() bool { return s.provider != nil }

func (s *OAuthService) LoginURL(state string) (string, error) {
	if s.provider == nil {
		return "", apperr.NotFound("oauth login not configured")
	}
	return s.provider.AuthCodeURL(state), nil
}

func (s *OAuthService) LoginWithCode(ctx context.Context, code, ua, ip string) (*LoginResult, error) {
	if s.provider == nil {
		return nil, apperr.NotFound("oauth login not configured")
	}
	if code == "" {
		return nil, apperr.Validation("code required")
	}
	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		observability.RecordAuthLogin("oauth", "failure")
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "oauth code exchange failed", err)
	}
	identity, err := s.provider.FetchUser(ctx, token)
	if err != nil {
		observability.RecordAuthLogin("oauth", "failure")
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "fetch oauth identity", err)
	}
	email := normalizeEmail(identity.Email)
	if email == "" {
		observability.RecordAuthLogin("oauth", "failure")
		return nil, apperr.Unauthenticated("oauth identity has no email")
	}

	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &domain.User{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: identity.DisplayName,
		}
		if identity.AvatarURL != "" {
			user.AvatarURL = &identity.AvatarURL
		}
		if createErr := s.userRepo.Create(user); createErr != nil {
			// A concurrent first login may have created the account.
			if repository.IsDuplicate(createErr) {
				user, err = s.userRepo.FindByEmail(email)
				if err != nil {
					return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
				}
			} else {
				return nil, apperr.Wrap(apperr.KindInternal, "create user", createErr)
			}
		}
	} else if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}

	pair, err := s.tokens.Issue(user, ua, ip)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthLogin("oauth", "success")
	return loginResult(user, pair), nil
}
