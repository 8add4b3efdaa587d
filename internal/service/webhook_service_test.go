package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/security"
)

func newWebhookServiceForTest(env *testEnv, fallbackSecret string) *WebhookService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWebhookService(env.links, env.runs, env.permissionResolver(), fallbackSecret, logger)
}

func pushBody(owner, name, sha, ref string) []byte {
	return []byte(fmt.Sprintf(
		`{"after":%q,"ref":%q,"repository":{"name":%q,"owner":{"login":%q}}}`,
		sha, ref, name, owner,
	))
}

func linkRepo(t *testing.T, env *testEnv, projectID, owner, name string, secret *string) {
	t.Helper()
	if err := env.links.Upsert(&domain.GitHubRepoLink{
		ID:            newID(),
		ProjectID:     projectID,
		RepoOwner:     owner,
		RepoName:      name,
		WebhookSecret: secret,
	}); err != nil {
		t.Fatalf("link repo: %v", err)
	}
}

func TestWebhookServiceAcceptsSignedDelivery(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	secret := "s3cret"
	linkRepo(t, env, project.ID, "acme", "api", &secret)
	svc := newWebhookServiceForTest(env, "")

	body := pushBody("acme", "api", "abc123", "refs/heads/main")
	run, err := svc.HandleDelivery(context.Background(), body, security.SignWebhookBody(secret, body))
	if err != nil {
		t.Fatalf("handle delivery: %v", err)
	}
	if run.ProjectID != project.ID || run.Status != domain.CiRunQueued {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.CommitSHA != "abc123" || run.Branch != "main" {
		t.Fatalf("payload not mapped: %+v", run)
	}
}

func TestWebhookServiceRejectsTamperedBody(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	secret := "s3cret"
	linkRepo(t, env, project.ID, "acme", "api", &secret)
	svc := newWebhookServiceForTest(env, "")

	body := pushBody("acme", "api", "abc123", "refs/heads/main")
	header := security.SignWebhookBody(secret, body)

	tampered := pushBody("acme", "api", "abc124", "refs/heads/main")
	_, err := svc.HandleDelivery(context.Background(), tampered, header)
	if !apperr.IsKind(err, apperr.KindSignatureInvalid) {
		t.Fatalf("expected SIGNATURE_INVALID, got %v", err)
	}

	_, err = svc.HandleDelivery(context.Background(), body, "sha256=deadbeef")
	if !apperr.IsKind(err, apperr.KindSignatureInvalid) {
		t.Fatalf("bad header: expected SIGNATURE_INVALID, got %v", err)
	}
}

func TestWebhookServiceUnknownRepo(t *testing.T) {
	env := newTestEnv(t)
	svc := newWebhookServiceForTest(env, "")

	body := pushBody("nobody", "nothing", "abc", "refs/heads/main")
	_, err := svc.HandleDelivery(context.Background(), body, "sha256=ignored")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestWebhookServiceNoSecretAccepts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	linkRepo(t, env, project.ID, "acme", "api", nil)
	svc := newWebhookServiceForTest(env, "")

	body := pushBody("acme", "api", "abc123", "refs/heads/main")
	run, err := svc.HandleDelivery(context.Background(), body, "")
	if err != nil {
		t.Fatalf("expected development fallback accept, got %v", err)
	}
	if run.Status != domain.CiRunQueued {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestWebhookServicePerProjectSecretWinsOverFallback(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	projectSecret := "project-secret"
	linkRepo(t, env, project.ID, "acme", "api", &projectSecret)
	svc := newWebhookServiceForTest(env, "fallback-secret")

	body := pushBody("acme", "api", "abc123", "refs/heads/main")

	_, err := svc.HandleDelivery(context.Background(), body, security.SignWebhookBody("fallback-secret", body))
	if !apperr.IsKind(err, apperr.KindSignatureInvalid) {
		t.Fatalf("fallback secret should not verify, got %v", err)
	}
	if _, err := svc.HandleDelivery(context.Background(), body, security.SignWebhookBody(projectSecret, body)); err != nil {
		t.Fatalf("project secret: %v", err)
	}
}

func TestWebhookServiceMalformedDelivery(t *testing.T) {
	env := newTestEnv(t)
	svc := newWebhookServiceForTest(env, "")

	for _, body := range [][]byte{
		[]byte("not json"),
		[]byte(`{"after":"abc","ref":"refs/heads/main"}`),
	} {
		_, err := svc.HandleDelivery(context.Background(), body, "")
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("body %q: expected VALIDATION, got %v", body, err)
		}
	}
}
