package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/security"

	"github.com/google/uuid"
)

type RepoLinkInput struct {
	RepoOwner      string  `json:"repo_owner"`
	RepoName       string  `json:"repo_name"`
	InstallationID int64   `json:"installation_id"`
	RepoID         int64   `json:"repo_id"`
	DefaultBranch  string  `json:"default_branch"`
	WebhookSecret  *string `json:"webhook_secret,omitempty"`
}

// pushDelivery is the minimal slice of a GitHub push payload this
// service reads; everything else in the delivery is ignored.
type pushDelivery struct {
	After      string `json:"after"`
	Ref        string `json:"ref"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

type WebhookService struct {
	linkRepo       repository.RepoLinkRepository
	cirunRepo      repository.CiRunRepository
	permissions    *PermissionResolver
	fallbackSecret string
	logger         *slog.Logger
}

func NewWebhookService(linkRepo repository.RepoLinkRepository, cirunRepo repository.CiRunRepository, permissions *PermissionResolver, fallbackSecret string, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		linkRepo:       linkRepo,
		cirunRepo:      cirunRepo,
		permissions:    permissions,
		fallbackSecret: fallbackSecret,
		logger:         logger,
	}
}

func (s *WebhookService) SetRepoLink(ctx context.Context, userID, workspaceID, projectID string, input RepoLinkInput) (*domain.GitHubRepoLink, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityAdmin); err != nil {
		return nil, err
	}
	owner := strings.TrimSpace(input.RepoOwner)
	name := strings.TrimSpace(input.RepoName)
	if owner == "" || name == "" {
		return nil, apperr.Validation("repo owner and name required")
	}
	link := &domain.GitHubRepoLink{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		RepoOwner:      owner,
		RepoName:       name,
		InstallationID: input.InstallationID,
		RepoID:         input.RepoID,
		DefaultBranch:  input.DefaultBranch,
		WebhookSecret:  input.WebhookSecret,
	}
	if err := s.linkRepo.Upsert(link); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("repository already linked to another project")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "save repo link", err)
	}
	return link, nil
}

func (s *WebhookService) GetRepoLink(ctx context.Context, userID, workspaceID, projectID string) (*domain.GitHubRepoLink, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityRead); err != nil {
		return nil, err
	}
	link, err := s.linkRepo.FindByProject(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrRepoLinkNotFound) {
			return nil, apperr.NotFound("repo link not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up repo link", err)
	}
	return link, nil
}

func (s *WebhookService) DeleteRepoLink(ctx context.Context, userID, workspaceID, projectID string) error {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityAdmin); err != nil {
		return err
	}
	removed, err := s.linkRepo.DeleteByProject(projectID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete repo link", err)
	}
	if !removed {
		return apperr.NotFound("repo link not found")
	}
	return nil
}

// HandleDelivery verifies a push delivery against the raw body and
// records a queued CI run for the linked project. The per-project secret
// wins over the process-wide fallback; with neither configured the
// delivery is accepted and the reason logged.
func (s *WebhookService) HandleDelivery(ctx context.Context, rawBody []byte, signatureHeader string) (*domain.CiRun, error) {
	var delivery pushDelivery
	if err := json.Unmarshal(rawBody, &delivery); err != nil {
		observability.RecordWebhookDelivery("malformed")
		return nil, apperr.Validation("malformed delivery payload")
	}
	owner := delivery.Repository.Owner.Login
	name := delivery.Repository.Name
	if owner == "" || name == "" {
		observability.RecordWebhookDelivery("malformed")
		return nil, apperr.Validation("delivery missing repository identity")
	}

	link, err := s.linkRepo.FindByRepo(owner, name)
	if err != nil {
		if errors.Is(err, repository.ErrRepoLinkNotFound) {
			observability.RecordWebhookDelivery("unknown_repo")
			return nil, apperr.NotFound("repository not linked")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up repo link", err)
	}

	secret := s.fallbackSecret
	if link.WebhookSecret != nil && *link.WebhookSecret != "" {
		secret = *link.WebhookSecret
	}
	verification := security.VerifyWebhookSignature(secret, rawBody, signatureHeader)
	if !verification.OK {
		observability.RecordWebhookDelivery("signature_invalid")
		return nil, apperr.SignatureInvalid("webhook signature mismatch")
	}
	if secret == "" {
		s.logger.Warn("webhook accepted without verification",
			"repo_owner", owner, "repo_name", name, "reason", verification.Reason)
	}

	run := &domain.CiRun{
		ID:        uuid.NewString(),
		ProjectID: link.ProjectID,
		Status:    domain.CiRunQueued,
		CommitSHA: delivery.After,
		Branch:    strings.TrimPrefix(delivery.Ref, "refs/heads/"),
	}
	if err := s.cirunRepo.Create(run); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "record ci run", err)
	}
	observability.RecordWebhookDelivery("accepted")
	observability.RecordCiRunTransition(string(domain.CiRunQueued))
	return run, nil
}
