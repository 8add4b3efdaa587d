package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/shiplane-dev/shiplane/internal/domain"

	"github.com/google/uuid"
)

func newSessionRepoForTest(t *testing.T) SessionRepository {
	t.Helper()
	return NewSessionRepository(newTestDB(t, &domain.Session{}))
}

func testSession(userID string, expiresIn time.Duration) *domain.Session {
	return &domain.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		SessionToken:     uuid.NewString(),
		RefreshTokenHash: uuid.NewString(),
		ExpiresAt:        time.Now().Add(expiresIn),
	}
}

func TestSessionRepositoryRotateSingleUse(t *testing.T) {
	repo := newSessionRepoForTest(t)

	s := testSession("u1", 2*time.Hour)
	oldHash := s.RefreshTokenHash
	if err := repo.Create(s); err != nil {
		t.Fatalf("create: %v", err)
	}

	newExpiry := time.Now().Add(4 * time.Hour)
	if err := repo.Rotate(s.ID, oldHash, "rotated-hash", newExpiry, "agent", "10.0.0.1"); err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	// The old hash no longer matches, so a replayed rotation must fail.
	err := repo.Rotate(s.ID, oldHash, "another-hash", newExpiry, "", "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on replay, got %v", err)
	}

	if _, err := repo.FindActiveByRefreshHash(oldHash, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old hash still resolvable: %v", err)
	}
	got, err := repo.FindActiveByRefreshHash("rotated-hash", "")
	if err != nil {
		t.Fatalf("find by new hash: %v", err)
	}
	if got.ID != s.ID {
		t.Fatalf("rotated into different session: %s", got.ID)
	}
	if got.UserAgent != "agent" || got.IP != "10.0.0.1" {
		t.Fatalf("client metadata not refreshed: %+v", got)
	}
}

func TestSessionRepositoryRotateRejectsRevoked(t *testing.T) {
	repo := newSessionRepoForTest(t)

	s := testSession("u1", 2*time.Hour)
	if err := repo.Create(s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.RevokeBySessionToken(s.SessionToken, "logout"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	err := repo.Rotate(s.ID, s.RefreshTokenHash, "next", time.Now().Add(time.Hour), "", "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for revoked session, got %v", err)
	}
}

func TestSessionRepositoryListActiveByUserID(t *testing.T) {
	repo := newSessionRepoForTest(t)

	active := testSession("u1", 2*time.Hour)
	expired := testSession("u1", -time.Hour)
	otherUser := testSession("u2", 2*time.Hour)
	revoked := testSession("u1", 2*time.Hour)
	revokedAt := time.Now().UTC()
	revoked.RevokedAt = &revokedAt

	for _, s := range []*domain.Session{active, expired, otherUser, revoked} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	sessions, err := repo.ListActiveByUserID("u1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(sessions))
	}
	if sessions[0].ID != active.ID {
		t.Fatalf("unexpected active session: %+v", sessions[0])
	}
}

func TestSessionRepositoryRevokeScopeByUser(t *testing.T) {
	repo := newSessionRepoForTest(t)

	s1 := testSession("u1", 2*time.Hour)
	s2 := testSession("u2", 2*time.Hour)
	if err := repo.Create(s1); err != nil {
		t.Fatalf("create s1: %v", err)
	}
	if err := repo.Create(s2); err != nil {
		t.Fatalf("create s2: %v", err)
	}

	changed, err := repo.RevokeByIDForUser("u1", s2.ID, "manual")
	if err != nil {
		t.Fatalf("cross-user revoke: %v", err)
	}
	if changed {
		t.Fatal("revoked another user's session")
	}

	changed, err = repo.RevokeByIDForUser("u2", s2.ID, "manual")
	if err != nil {
		t.Fatalf("revoke owned session: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true on first revoke")
	}

	changed, err = repo.RevokeByIDForUser("u2", s2.ID, "manual")
	if err != nil {
		t.Fatalf("idempotent revoke: %v", err)
	}
	if changed {
		t.Fatal("expected changed=false on already revoked session")
	}
}

func TestSessionRepositoryRevokeOthersKeepsCurrent(t *testing.T) {
	repo := newSessionRepoForTest(t)

	keep := testSession("u1", 2*time.Hour)
	other1 := testSession("u1", 2*time.Hour)
	other2 := testSession("u1", 2*time.Hour)
	for _, s := range []*domain.Session{keep, other1, other2} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	revoked, err := repo.RevokeOthersByUser("u1", keep.ID, "revoke_others")
	if err != nil {
		t.Fatalf("revoke others: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("expected 2 revoked, got %d", revoked)
	}

	sessions, err := repo.ListActiveByUserID("u1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != keep.ID {
		t.Fatalf("current session not preserved: %+v", sessions)
	}
}

func TestSessionRepositoryCleanupExpired(t *testing.T) {
	repo := newSessionRepoForTest(t)

	live := testSession("u1", time.Hour)
	stale := testSession("u1", -time.Minute)
	if err := repo.Create(live); err != nil {
		t.Fatalf("create live: %v", err)
	}
	if err := repo.Create(stale); err != nil {
		t.Fatalf("create stale: %v", err)
	}

	removed, err := repo.CleanupExpired()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := repo.FindBySessionToken(live.SessionToken); err != nil {
		t.Fatalf("live session removed: %v", err)
	}
	if _, err := repo.FindBySessionToken(stale.SessionToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("stale session survived: %v", err)
	}
}
