package service

import (
	"errors"
	"strings"
	"time"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/security"

	"github.com/google/uuid"
)

// APITokenView is the listing shape; the raw token value only ever
// appears in CreatedAPIToken, immediately after creation.
type APITokenView struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type CreatedAPIToken struct {
	APITokenView
	Token string `json:"token"`
}

type APITokenService struct {
	tokenRepo repository.APITokenRepository
}

func NewAPITokenService(tokenRepo repository.APITokenRepository) *APITokenService {
	return &APITokenService{tokenRepo: tokenRepo}
}

func (s *APITokenService) Create(userID, label string, scopes []string, expiresAt *time.Time) (*CreatedAPIToken, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperr.Validation("label required")
	}
	for _, scope := range scopes {
		if strings.TrimSpace(scope) == "" {
			return nil, apperr.Validation("scopes must be non-empty strings")
		}
	}
	raw, hash, err := security.NewAPIToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "generate api token", err)
	}
	token := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Label:     label,
		TokenHash: hash,
		ExpiresAt: expiresAt,
	}
	token.SetScopes(scopes)
	if err := s.tokenRepo.Create(token); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("token collision, retry")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "persist api token", err)
	}
	return &CreatedAPIToken{APITokenView: tokenView(token), Token: raw}, nil
}

func (s *APITokenService) List(userID string) ([]APITokenView, error) {
	tokens, err := s.tokenRepo.ListByUserID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list api tokens", err)
	}
	views := make([]APITokenView, 0, len(tokens))
	for i := range tokens {
		views = append(views, tokenView(&tokens[i]))
	}
	return views, nil
}

// Revoke hard-deletes; unlike sessions, revoked API tokens leave no row.
func (s *APITokenService) Revoke(userID, tokenID string) error {
	removed, err := s.tokenRepo.DeleteByIDForUser(userID, tokenID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete api token", err)
	}
	if !removed {
		return apperr.NotFound("api token not found")
	}
	return nil
}

// Authenticate resolves a presented raw token to its record, rejecting
// unknown and expired tokens alike.
func (s *APITokenService) Authenticate(raw string) (*domain.APIToken, error) {
	if !strings.HasPrefix(raw, security.APITokenPrefix) {
		return nil, apperr.Unauthenticated("invalid api token")
	}
	token, err := s.tokenRepo.FindByHash(security.HashOpaqueToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrAPITokenNotFound) {
			return nil, apperr.Unauthenticated("invalid api token")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up api token", err)
	}
	if token.Expired(time.Now()) {
		return nil, apperr.Unauthenticated("api token expired")
	}
	return token, nil
}

func tokenView(t *domain.APIToken) APITokenView {
	return APITokenView{
		ID:        t.ID,
		Label:     t.Label,
		Scopes:    t.ScopeList(),
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}
