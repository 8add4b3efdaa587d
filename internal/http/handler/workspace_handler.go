package handler

import (
	"net/http"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/go-chi/chi/v5"
)

type WorkspaceHandler struct {
	workspaces *service.WorkspaceService
}

func NewWorkspaceHandler(workspaces *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces}
}

type workspaceCreateRequest struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type workspaceUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type memberUpsertRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req workspaceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	ws, err := h.workspaces.Create(r.Context(), p.UserID, req.Slug, req.Name, req.Description)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "workspace.create", p.UserID, "workspace_id", ws.ID, "slug", ws.Slug)
	response.JSON(w, r, http.StatusCreated, ws)
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	workspaces, err := h.workspaces.List(p.UserID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"workspaces": workspaces})
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ws, err := h.workspaces.Get(p.UserID, chi.URLParam(r, "workspace_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, ws)
}

func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req workspaceUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	ws, err := h.workspaces.Update(p.UserID, chi.URLParam(r, "workspace_id"), req.Name, req.Description)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, ws)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspace_id")
	if err := h.workspaces.Delete(p.UserID, workspaceID); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "workspace.delete", p.UserID, "workspace_id", workspaceID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	members, err := h.workspaces.ListMembers(p.UserID, chi.URLParam(r, "workspace_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"members": members})
}

// UpsertMember invites or re-roles a member addressed by email. Unknown
// emails come back with status "invited" and no membership row.
func (h *WorkspaceHandler) UpsertMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req memberUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	workspaceID := chi.URLParam(r, "workspace_id")
	result, err := h.workspaces.UpsertMemberByEmail(r.Context(), p.UserID, workspaceID, req.Email, req.Role)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "workspace.member_upsert", p.UserID,
		"workspace_id", workspaceID, "role", string(req.Role), "status", result.Status)
	response.JSON(w, r, http.StatusOK, result)
}

func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspace_id")
	targetID := chi.URLParam(r, "user_id")
	if err := h.workspaces.RemoveMember(r.Context(), p.UserID, workspaceID, targetID); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "workspace.member_remove", p.UserID,
		"workspace_id", workspaceID, "target_user_id", targetID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "removed"})
}
