package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shiplane-dev/shiplane/internal/domain"
	"github.com/shiplane-dev/shiplane/internal/repository"
	"github.com/shiplane-dev/shiplane/internal/security"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires real sqlite-backed repositories behind the services
// under test, the same shape the app assembles in production.
type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	sessions  repository.SessionRepository
	apiTokens repository.APITokenRepository
	wss       repository.WorkspaceRepository
	projects  repository.ProjectRepository
	perms     repository.PermissionRepository
	envs      repository.EnvironmentRepository
	runs      repository.CiRunRepository
	links     repository.RepoLinkRepository

	jwtMgr *security.JWTManager
	tokens *TokenService
	roles  *RoleResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Session{}, &domain.APIToken{},
		&domain.Workspace{}, &domain.Membership{},
		&domain.Project{}, &domain.Permission{},
		&domain.Environment{}, &domain.CiRun{}, &domain.GitHubRepoLink{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		sessions:  repository.NewSessionRepository(db),
		apiTokens: repository.NewAPITokenRepository(db),
		wss:       repository.NewWorkspaceRepository(db),
		projects:  repository.NewProjectRepository(db),
		perms:     repository.NewPermissionRepository(db),
		envs:      repository.NewEnvironmentRepository(db),
		runs:      repository.NewCiRunRepository(db),
		links:     repository.NewRepoLinkRepository(db),
	}
	env.jwtMgr = security.NewJWTManager("shiplane", "shiplane-api", "test-secret-material")
	env.tokens = NewTokenService(env.jwtMgr, env.sessions, env.users, 15*time.Minute, 30*24*time.Hour)
	env.roles = NewRoleResolver(env.wss)
	return env
}

func (e *testEnv) permissionResolver() *PermissionResolver {
	return NewPermissionResolver(e.roles, e.projects, e.perms, NewNoopCapabilityCacheStore(), 0)
}

func (e *testEnv) mustUser(t *testing.T, email string) *domain.User {
	t.Helper()
	auth := NewAuthService(e.users, e.tokens)
	result, err := auth.Signup(context.Background(), email, "password123", "Test User", "", "")
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return result.User
}

func (e *testEnv) mustWorkspace(t *testing.T, ownerID, slug string) *domain.Workspace {
	t.Helper()
	permissions := e.permissionResolver()
	ws, err := NewWorkspaceService(e.wss, e.users, e.roles, permissions).Create(context.Background(), ownerID, slug, slug, nil)
	if err != nil {
		t.Fatalf("create workspace %s: %v", slug, err)
	}
	return ws
}

func (e *testEnv) mustMembership(t *testing.T, userID, workspaceID string, role domain.Role) {
	t.Helper()
	if err := e.wss.SaveMembership(&domain.Membership{
		ID:          newID(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
	}); err != nil {
		t.Fatalf("save membership: %v", err)
	}
}

func (e *testEnv) mustProject(t *testing.T, workspaceID, slug string) *domain.Project {
	t.Helper()
	project := &domain.Project{ID: newID(), WorkspaceID: workspaceID, Slug: slug, Name: slug}
	if err := e.projects.Create(project); err != nil {
		t.Fatalf("create project %s: %v", slug, err)
	}
	return project
}

func newID() string { return uuid.NewString() }

func newRedisClientForTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}
