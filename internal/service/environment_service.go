package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/repository"

	"github.com/google/uuid"
)

type EnvironmentInput struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	URL    *string         `json:"url,omitempty"`
	Status *string         `json:"status,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

type EnvironmentService struct {
	environmentRepo repository.EnvironmentRepository
	permissions     *PermissionResolver
}

func NewEnvironmentService(environmentRepo repository.EnvironmentRepository, permissions *PermissionResolver) *EnvironmentService {
	return &EnvironmentService{environmentRepo: environmentRepo, permissions: permissions}
}

func (s *EnvironmentService) Create(ctx context.Context, userID, workspaceID, projectID string, input EnvironmentInput) (*domain.Environment, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name required")
	}
	envType := domain.EnvironmentType(input.Type)
	if !envType.Valid() {
		return nil, apperr.Validation("type must be DEVELOPMENT, STAGING or PRODUCTION")
	}
	env := &domain.Environment{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Type:      envType,
		URL:       input.URL,
		Status:    input.Status,
		Config:    input.Config,
	}
	if err := s.environmentRepo.Create(env); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("environment name already used in this project")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create environment", err)
	}
	return env, nil
}

func (s *EnvironmentService) Get(ctx context.Context, userID, workspaceID, projectID, environmentID string) (*domain.Environment, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityRead); err != nil {
		return nil, err
	}
	env, err := s.environmentRepo.FindByIDInProject(projectID, environmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEnvironmentNotFound) {
			return nil, apperr.NotFound("environment not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up environment", err)
	}
	return env, nil
}

func (s *EnvironmentService) List(ctx context.Context, userID, workspaceID, projectID string) ([]domain.Environment, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityRead); err != nil {
		return nil, err
	}
	environments, err := s.environmentRepo.ListByProject(projectID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list environments", err)
	}
	return environments, nil
}

func (s *EnvironmentService) Update(ctx context.Context, userID, workspaceID, projectID, environmentID string, input EnvironmentInput) (*domain.Environment, error) {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityWrite); err != nil {
		return nil, err
	}
	env, err := s.environmentRepo.FindByIDInProject(projectID, environmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEnvironmentNotFound) {
			return nil, apperr.NotFound("environment not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "look up environment", err)
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		env.Name = name
	}
	if input.Type != "" {
		envType := domain.EnvironmentType(input.Type)
		if !envType.Valid() {
			return nil, apperr.Validation("type must be DEVELOPMENT, STAGING or PRODUCTION")
		}
		env.Type = envType
	}
	if input.URL != nil {
		env.URL = input.URL
	}
	if input.Status != nil {
		env.Status = input.Status
	}
	if input.Config != nil {
		env.Config = input.Config
	}
	if err := s.environmentRepo.Update(env); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("environment name already used in this project")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update environment", err)
	}
	return env, nil
}

func (s *EnvironmentService) Delete(ctx context.Context, userID, workspaceID, projectID, environmentID string) error {
	if err := s.permissions.Enforce(ctx, userID, workspaceID, projectID, domain.CapabilityWrite); err != nil {
		return err
	}
	if err := s.environmentRepo.Delete(projectID, environmentID); err != nil {
		if errors.Is(err, repository.ErrEnvironmentNotFound) {
			return apperr.NotFound("environment not found")
		}
		return apperr.Wrap(apperr.KindInternal, "delete environment", err)
	}
	return nil
}
