package handler

import (
	"net/http"
	"strconv"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/go-chi/chi/v5"
)

type CiRunHandler struct {
	runs *service.CiRunService
}

func NewCiRunHandler(runs *service.CiRunService) *CiRunHandler {
	return &CiRunHandler{runs: runs}
}

type updateRunStatusRequest struct {
	Status domain.CiRunStatus `json:"status"`
}

func (h *CiRunHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.CiRunInput
	if err := decodeJSON(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}
	run, err := h.runs.Create(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, run)
}

func (h *CiRunHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	runs, err := h.runs.List(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), limit)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

func (h *CiRunHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	run, err := h.runs.Get(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), chi.URLParam(r, "run_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, run)
}

func (h *CiRunHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateRunStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	run, err := h.runs.UpdateStatus(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), chi.URLParam(r, "run_id"), req.Status)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, run)
}
