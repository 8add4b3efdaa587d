package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shiplane-dev/shiplane/internal/security"
)

func pushPayload(owner, repo, sha, ref string) []byte {
	return []byte(fmt.Sprintf(
		`{"after":%q,"ref":%q,"repository":{"name":%q,"owner":{"login":%q}}}`,
		sha, ref, repo, owner,
	))
}

func TestWebhookDeliveryCreatesRun(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "owner@acme.dev", "hunter2hunter2", "Owner")
	workspaceID := h.createWorkspace(t, owner, "acme", "Acme Inc")
	projectID := h.createProject(t, owner, workspaceID, "api", "API")

	linkPath := fmt.Sprintf("/api/v1/workspaces/%s/projects/%s/repo-link", workspaceID, projectID)
	secret := "hook-secret"
	resp := h.do(t, http.MethodPut, linkPath, owner.AccessToken, map[string]any{
		"repo_owner":     "acme",
		"repo_name":      "api",
		"default_branch": "main",
		"webhook_secret": secret,
	}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("set repo link: status %d (%s)", resp.Status, resp.errorCode())
	}

	body := pushPayload("acme", "api", "cafe1234", "refs/heads/main")
	deliver := func(signature string) apiResponse {
		return h.doRaw(t, http.MethodPost, "/api/v1/webhooks/github", body, map[string]string{
			security.WebhookSignatureHeader: signature,
		})
	}

	resp = deliver(security.SignWebhookBody(secret, body))
	if resp.Status != http.StatusAccepted {
		t.Fatalf("signed delivery: status %d (%s)", resp.Status, resp.errorCode())
	}
	var accepted struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	resp.decode(t, &accepted)
	if accepted.RunID == "" || accepted.Status != "QUEUED" {
		t.Fatalf("unexpected delivery result: %+v", accepted)
	}

	// The queued run shows up in the project's run list.
	runsPath := fmt.Sprintf("/api/v1/workspaces/%s/projects/%s/runs/", workspaceID, projectID)
	resp = h.do(t, http.MethodGet, runsPath, owner.AccessToken, nil, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("list runs: status %d", resp.Status)
	}
	var runs struct {
		Runs []struct {
			ID        string `json:"id"`
			CommitSHA string `json:"commit_sha"`
			Branch    string `json:"branch"`
		} `json:"runs"`
	}
	resp.decode(t, &runs)
	if len(runs.Runs) != 1 || runs.Runs[0].CommitSHA != "cafe1234" || runs.Runs[0].Branch != "main" {
		t.Fatalf("unexpected runs: %+v", runs.Runs)
	}

	// A tampered signature is rejected without creating anything.
	resp = deliver(security.SignWebhookBody("wrong-secret", body))
	if resp.Status != http.StatusUnauthorized || resp.errorCode() != "SIGNATURE_INVALID" {
		t.Fatalf("tampered delivery: status %d code %s", resp.Status, resp.errorCode())
	}
}

func TestWebhookDeliveryUnknownRepo(t *testing.T) {
	h := newHarness(t)
	body := pushPayload("nobody", "nothing", "abc", "refs/heads/main")
	resp := h.doRaw(t, http.MethodPost, "/api/v1/webhooks/github", body, map[string]string{
		security.WebhookSignatureHeader: "sha256=ignored",
	})
	if resp.Status != http.StatusNotFound {
		t.Fatalf("unknown repo: status %d, want 404", resp.Status)
	}
}
