package handler

import (
	"net/http"

	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectCreateRequest struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type projectUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type setPermissionRequest struct {
	UserID     string `json:"user_id"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
	CanExecute bool   `json:"can_execute"`
	CanAdmin   bool   `json:"can_admin"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req projectCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	project, err := h.projects.Create(p.UserID, chi.URLParam(r, "workspace_id"), req.Slug, req.Name, req.Description)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projects, err := h.projects.List(p.UserID, chi.URLParam(r, "workspace_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"projects": projects})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	project, err := h.projects.Get(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req projectUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	project, err := h.projects.Update(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), req.Name, req.Description)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "project_id")
	if err := h.projects.Delete(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), projectID); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "project.delete", p.UserID, "project_id", projectID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProjectHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	permissions, err := h.projects.GetPermissions(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"permissions": permissions})
}

func (h *ProjectHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req setPermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	projectID := chi.URLParam(r, "project_id")
	permission, err := h.projects.SetPermission(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), projectID, req.UserID, service.PermissionFlags{
		CanRead:    req.CanRead,
		CanWrite:   req.CanWrite,
		CanExecute: req.CanExecute,
		CanAdmin:   req.CanAdmin,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "project.permission_set", p.UserID,
		"project_id", projectID, "target_user_id", req.UserID)
	response.JSON(w, r, http.StatusOK, permission)
}

func (h *ProjectHandler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "project_id")
	targetID := chi.URLParam(r, "user_id")
	if err := h.projects.RemovePermission(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), projectID, targetID); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "project.permission_remove", p.UserID,
		"project_id", projectID, "target_user_id", targetID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "removed"})
}
