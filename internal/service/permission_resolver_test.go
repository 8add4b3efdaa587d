package service

import (
	"context"
	"testing"
	"time"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/domain"
)

func TestPermissionResolverCapabilityMatrix(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	resolver := env.permissionResolver()
	ctx := context.Background()

	cases := []struct {
		name    string
		flags   domain.Permission
		allowed map[domain.Capability]bool
	}{
		{
			name:  "read only",
			flags: domain.Permission{CanRead: true},
			allowed: map[domain.Capability]bool{
				domain.CapabilityRead:    true,
				domain.CapabilityWrite:   false,
				domain.CapabilityExecute: false,
				domain.CapabilityAdmin:   false,
			},
		},
		{
			name:  "write and execute",
			flags: domain.Permission{CanWrite: true, CanExecute: true},
			allowed: map[domain.Capability]bool{
				domain.CapabilityRead:    false,
				domain.CapabilityWrite:   true,
				domain.CapabilityExecute: true,
				domain.CapabilityAdmin:   false,
			},
		},
		{
			name:  "can admin implies everything",
			flags: domain.Permission{CanAdmin: true},
			allowed: map[domain.Capability]bool{
				domain.CapabilityRead:    true,
				domain.CapabilityWrite:   true,
				domain.CapabilityExecute: true,
				domain.CapabilityAdmin:   true,
			},
		},
		{
			name:  "no flags",
			flags: domain.Permission{},
			allowed: map[domain.Capability]bool{
				domain.CapabilityRead:    false,
				domain.CapabilityWrite:   false,
				domain.CapabilityExecute: false,
				domain.CapabilityAdmin:   false,
			},
		},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := env.mustUser(t, string(rune('a'+i))+"-member@x.com")
			env.mustMembership(t, user.ID, ws.ID, domain.RoleViewer)
			perm := tc.flags
			perm.ID = newID()
			perm.UserID = user.ID
			perm.ProjectID = project.ID
			if err := env.perms.Upsert(&perm); err != nil {
				t.Fatalf("upsert permission: %v", err)
			}
			for capability, allowed := range tc.allowed {
				err := resolver.Enforce(ctx, user.ID, ws.ID, project.ID, capability)
				if allowed && err != nil {
					t.Errorf("%s: unexpected %v", capability, err)
				}
				if !allowed && !apperr.IsKind(err, apperr.KindForbidden) {
					t.Errorf("%s: expected FORBIDDEN, got %v", capability, err)
				}
			}
		})
	}
}

func TestPermissionResolverAdminRoleBypassesFlags(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	admin := env.mustUser(t, "admin@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	env.mustMembership(t, admin.ID, ws.ID, domain.RoleAdmin)
	resolver := env.permissionResolver()
	ctx := context.Background()

	// No permission row exists, the workspace role alone authorizes.
	for _, capability := range []domain.Capability{
		domain.CapabilityRead, domain.CapabilityWrite,
		domain.CapabilityExecute, domain.CapabilityAdmin,
	} {
		if err := resolver.Enforce(ctx, admin.ID, ws.ID, project.ID, capability); err != nil {
			t.Errorf("%s: unexpected %v", capability, err)
		}
	}
}

func TestPermissionResolverMembershipPrerequisite(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	outsider := env.mustUser(t, "outsider@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	resolver := env.permissionResolver()
	ctx := context.Background()

	// Even with a permission row, a non-member is rejected at tier zero.
	if err := env.perms.Upsert(&domain.Permission{
		ID: newID(), UserID: outsider.ID, ProjectID: project.ID, CanAdmin: true,
	}); err != nil {
		t.Fatalf("upsert permission: %v", err)
	}
	err := resolver.Enforce(ctx, outsider.ID, ws.ID, project.ID, domain.CapabilityRead)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestPermissionResolverCrossTenantProjectIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	other := env.mustUser(t, "other@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	otherWs := env.mustWorkspace(t, other.ID, "globex")
	foreign := env.mustProject(t, otherWs.ID, "api")
	resolver := env.permissionResolver()

	err := resolver.Enforce(context.Background(), owner.ID, ws.ID, foreign.ID, domain.CapabilityRead)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NOT_FOUND for foreign project, got %v", err)
	}
}

func TestPermissionResolverCanManageProjectPermissions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	delegate := env.mustUser(t, "delegate@x.com")
	viewer := env.mustUser(t, "viewer@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	env.mustMembership(t, delegate.ID, ws.ID, domain.RoleViewer)
	env.mustMembership(t, viewer.ID, ws.ID, domain.RoleViewer)
	if err := env.perms.Upsert(&domain.Permission{
		ID: newID(), UserID: delegate.ID, ProjectID: project.ID, CanAdmin: true,
	}); err != nil {
		t.Fatalf("upsert permission: %v", err)
	}
	resolver := env.permissionResolver()
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		userID string
		want   bool
	}{
		{"workspace owner", owner.ID, true},
		{"delegated can_admin", delegate.ID, true},
		{"plain viewer", viewer.ID, false},
	} {
		got, err := resolver.CanManageProjectPermissions(ctx, tc.userID, ws.ID, project.ID)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPermissionResolverCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mustUser(t, "owner@x.com")
	member := env.mustUser(t, "member@x.com")
	ws := env.mustWorkspace(t, owner.ID, "acme")
	project := env.mustProject(t, ws.ID, "api")
	env.mustMembership(t, member.ID, ws.ID, domain.RoleViewer)

	cache := NewInMemoryCapabilityCacheStore()
	resolver := NewPermissionResolver(env.roles, env.projects, env.perms, cache, time.Minute)
	ctx := context.Background()

	// First check caches the empty capability set.
	if err := resolver.Enforce(ctx, member.ID, ws.ID, project.ID, domain.CapabilityRead); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if err := env.perms.Upsert(&domain.Permission{
		ID: newID(), UserID: member.ID, ProjectID: project.ID, CanRead: true,
	}); err != nil {
		t.Fatalf("upsert permission: %v", err)
	}

	// Stale until invalidated.
	if err := resolver.Enforce(ctx, member.ID, ws.ID, project.ID, domain.CapabilityRead); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected stale FORBIDDEN, got %v", err)
	}
	resolver.InvalidateUser(ctx, member.ID)
	if err := resolver.Enforce(ctx, member.ID, ws.ID, project.ID, domain.CapabilityRead); err != nil {
		t.Fatalf("expected success after invalidation, got %v", err)
	}
}
