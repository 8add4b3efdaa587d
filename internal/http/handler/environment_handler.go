package handler

import (
	"net/http"

	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/go-chi/chi/v5"
)

type EnvironmentHandler struct {
	environments *service.EnvironmentService
}

func NewEnvironmentHandler(environments *service.EnvironmentService) *EnvironmentHandler {
	return &EnvironmentHandler{environments: environments}
}

func (h *EnvironmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.EnvironmentInput
	if err := decodeJSON(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}
	env, err := h.environments.Create(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, env)
}

func (h *EnvironmentHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	environments, err := h.environments.List(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"environments": environments})
}

func (h *EnvironmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	env, err := h.environments.Get(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), chi.URLParam(r, "environment_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, env)
}

func (h *EnvironmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.EnvironmentInput
	if err := decodeJSON(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}
	env, err := h.environments.Update(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), chi.URLParam(r, "environment_id"), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, env)
}

func (h *EnvironmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.environments.Delete(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), chi.URLParam(r, "environment_id")); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}
