package handler

import (
	"io"
	"net/http"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/http/response"
	"github.com/shiplane-dev/shiplane/internal/observability"
	"github.com/shiplane-dev/shiplane/internal/security"
	"github.com/shiplane-dev/shiplane/internal/service"

	"github.com/go-chi/chi/v5"
)

type WebhookHandler struct {
	webhooks *service.WebhookService
}

func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

func (h *WebhookHandler) SetRepoLink(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.RepoLinkInput
	if err := decodeJSON(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}
	link, err := h.webhooks.SetRepoLink(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "repo_link.set", p.UserID, "project_id", link.ProjectID)
	response.JSON(w, r, http.StatusOK, link)
}

func (h *WebhookHandler) GetRepoLink(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	link, err := h.webhooks.GetRepoLink(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), chi.URLParam(r, "project_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, link)
}

func (h *WebhookHandler) DeleteRepoLink(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "project_id")
	if err := h.webhooks.DeleteRepoLink(r.Context(), p.UserID, chi.URLParam(r, "workspace_id"), projectID); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.AuditActor(r, "repo_link.delete", p.UserID, "project_id", projectID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// Deliver ingests a push delivery. The signature covers the raw bytes,
// so the body is read before any parsing.
func (h *WebhookHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.FromError(w, r, apperr.Validation("unreadable request body"))
		return
	}
	run, err := h.webhooks.HandleDelivery(r.Context(), body, r.Header.Get(security.WebhookSignatureHeader))
	if err != nil {
		if apperr.IsKind(err, apperr.KindSignatureInvalid) {
			observability.Audit(r, "webhook.signature_rejected")
		}
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusAccepted, map[string]any{"run_id": run.ID, "status": run.Status})
}
