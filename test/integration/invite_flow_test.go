package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// The invite flow spans two accounts: a member is addressed by email
// before the account exists, invited, and added once they sign up.
func TestInviteFlow(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "owner@acme.dev", "hunter2hunter2", "Owner")
	workspaceID := h.createWorkspace(t, owner, "acme", "Acme Inc")
	membersPath := fmt.Sprintf("/api/v1/workspaces/%s/members", workspaceID)

	// Inviting an email with no account writes nothing.
	resp := h.do(t, http.MethodPut, membersPath, owner.AccessToken, map[string]string{
		"email": "dev@acme.dev", "role": "DEVELOPER",
	}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("invite: status %d (%s)", resp.Status, resp.errorCode())
	}
	var upsert struct {
		Status     string `json:"status"`
		Membership *struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		} `json:"membership"`
	}
	resp.decode(t, &upsert)
	if upsert.Status != "invited" || upsert.Membership != nil {
		t.Fatalf("unexpected invite result: %+v", upsert)
	}

	// The invitee signs up and the same call now adds them.
	dev := h.signup(t, "dev@acme.dev", "hunter2hunter2", "Dev")
	resp = h.do(t, http.MethodPut, membersPath, owner.AccessToken, map[string]string{
		"email": "dev@acme.dev", "role": "DEVELOPER",
	}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("add member: status %d (%s)", resp.Status, resp.errorCode())
	}
	resp.decode(t, &upsert)
	if upsert.Status != "added" || upsert.Membership == nil || upsert.Membership.UserID != dev.UserID {
		t.Fatalf("unexpected add result: %+v", upsert)
	}

	// Re-upserting with a different role updates in place.
	resp = h.do(t, http.MethodPut, membersPath, owner.AccessToken, map[string]string{
		"email": "dev@acme.dev", "role": "MAINTAINER",
	}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("re-role: status %d (%s)", resp.Status, resp.errorCode())
	}
	resp.decode(t, &upsert)
	if upsert.Status != "updated" || upsert.Membership.Role != "MAINTAINER" {
		t.Fatalf("unexpected re-role result: %+v", upsert)
	}

	var members struct {
		Members []struct {
			UserID string `json:"user_id"`
		} `json:"members"`
	}
	resp = h.do(t, http.MethodGet, membersPath, owner.AccessToken, nil, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("list members: status %d", resp.Status)
	}
	resp.decode(t, &members)
	if len(members.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members.Members))
	}

	// The member sees the workspace; outsiders do not.
	resp = h.do(t, http.MethodGet, "/api/v1/workspaces/"+workspaceID, dev.AccessToken, nil, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("member get workspace: status %d", resp.Status)
	}
	outsider := h.signup(t, "stranger@other.dev", "hunter2hunter2", "Stranger")
	resp = h.do(t, http.MethodGet, "/api/v1/workspaces/"+workspaceID, outsider.AccessToken, nil, nil)
	if resp.Status != http.StatusForbidden {
		t.Fatalf("outsider get workspace: status %d, want 403", resp.Status)
	}
}

func TestMemberRoleGatesProjectCreation(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "owner@acme.dev", "hunter2hunter2", "Owner")
	viewer := h.signup(t, "viewer@acme.dev", "hunter2hunter2", "Viewer")
	workspaceID := h.createWorkspace(t, owner, "acme", "Acme Inc")

	resp := h.do(t, http.MethodPut, fmt.Sprintf("/api/v1/workspaces/%s/members", workspaceID), owner.AccessToken, map[string]string{
		"email": "viewer@acme.dev", "role": "VIEWER",
	}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("add viewer: status %d", resp.Status)
	}

	resp = h.do(t, http.MethodPost, fmt.Sprintf("/api/v1/workspaces/%s/projects/", workspaceID), viewer.AccessToken, map[string]string{
		"slug": "api", "name": "API",
	}, nil)
	if resp.Status != http.StatusForbidden || resp.errorCode() != "FORBIDDEN" {
		t.Fatalf("viewer create project: status %d code %s", resp.Status, resp.errorCode())
	}

	projectID := h.createProject(t, owner, workspaceID, "api", "API")
	if projectID == "" {
		t.Fatal("owner project create returned no id")
	}
}
