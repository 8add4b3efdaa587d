package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/repository"

	"github.com/google/uuid"
)

type CiRunInput struct {
	EnvironmentID *string `json:"environment_id,omitempty"`
	CommitSHA     string  `json:"commit_sha"`
	Branch        string  `json:"branch"`
	LogsURL       *string `json:"logs_url,omitempty"`
}

type CiRunService struct {
	cirunRepo       repository.CiRunRepository
	environmentRepo repository.EnvironmentRepository
	permissions     *PermissionResolver
}

func NewCiRunService(cirunRepo repository.CiRunRepository, environmentRepo repository.EnvironmentRepository, permissions *PermissionResolver) *CiRunService {
	return &CiRunService{
		cirunRepo:       cirunRepo,
		environmentRepo: environmentRepo,
		permissions:     permissions,
	}
}

func (s *CiRunService) Create(ctx context.Context, userID, workspaceID, projectID string, input CiRunInput) (*domain.CiRun, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityExecute); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.CommitSHA) == "" {
		return nil, apperr.Validation("commit sha required")
	}
	if input.EnvironmentID != nil {
		if _, err := s.environmentRepo.FindByIDInProject(projectID, *input.EnvironmentID); err != nil {
			if errors.Is(err, repository.ErrEnvironmentNotFound) {
				return nil, apperr.NotFound("environment not found")
			}
			return nil, apperr.Wrap(apperr.KindInternal, "look up environment", err)
		}
	}
	run := &domain.CiRun{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		EnvironmentID: input.EnvironmentID,
		TriggeredByID: &userID,
		Status:        domain.CiRunQueued,
		CommitSHA:     input.CommitSHA,
		Branch:        input.Branch,
		LogsURL:       input.LogsURL,
	}
	if err := s.cirunRepo.Create(run); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create ci run", err)
	}
	observability.RecordCiRunTransition(string(domain.CiRunQueued))
	return run, nil
}

func (s *CiRunService) Get(ctx context.Context, userID, workspaceID, projectID, runID string) (*domain.CiRun, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityRead); err != nil {
		return nil, err
	}
	run, err := s.cirunRepo.FindByIDInProject(projectID, runID)
	if err != nil {
		if errors.Is(err, repository.ErrCiRunNotFound) {
			return nil, apperr.NotFound("ci run not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up ci run", err)
	}
	return run, nil
}

func (s *CiRunService) List(ctx context.Context, userID, workspaceID, projectID string, limit int) ([]domain.CiRun, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityRead); err != nil {
		return nil, err
	}
	runs, err := s.cirunRepo.ListByProject(projectID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list ci runs", err)
	}
	return runs, nil
}

// UpdateStatus advances a run. Entering RUNNING stamps startedAt; any
// terminal status stamps finishedAt. A terminal run stays terminal.
func (s *CiRunService) UpdateStatus(ctx context.Context, userID, workspaceID, projectID, runID string, status domain.CiRunStatus) (*domain.CiRun, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityExecute); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid ci run status")
	}
	run, err := s.cirunRepo.FindByIDInProject(projectID, runID)
	if err != nil {
		if errors.Is(err, repository.ErrCiRunNotFound) {
			return nil, apperr.NotFound("ci run not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up ci run", err)
	}
	if run.Status.Terminal() {
		return nil, apperr.Conflict("ci run already finished")
	}

	now := time.Now().UTC()
	var startedAt, finishedAt *time.Time
	if status == domain.CiRunRunning && run.StartedAt == nil {
		startedAt = &now
	}
	if status.Terminal() {
		finishedAt = &now
		if run.StartedAt == nil && status != domain.CiRunCanceled {
			startedAt = &now
		}
	}
	updated, err := s.cirunRepo.UpdateStatus(projectID, runID, status, startedAt, finishedAt)
	if err != nil {
		if errors.Is(err, repository.ErrCiRunNotFound) {
			return nil, apperr.NotFound("ci run not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update ci run", err)
	}
	observability.RecordCiRunTransition(string(status))
	return updated, nil
}
