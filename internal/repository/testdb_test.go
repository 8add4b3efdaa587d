package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shiplane-dev/shiplane/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func strPtr(v string) *string { return &v }

var allModels = []any{
	&domain.User{},
	&domain.Session{},
	&domain.APIToken{},
	&domain.Workspace{},
	&domain.Membership{},
	&domain.Project{},
	&domain.Permission{},
	&domain.Environment{},
	&domain.CiRun{},
	&domain.GitHubRepoLink{},
}
