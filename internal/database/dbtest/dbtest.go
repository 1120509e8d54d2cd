// Package dbtest provides an isolated in-memory database for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New returns a migrated sqlite database private to t.
func New(t testing.TB) *database.Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), database.Config())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// A single connection keeps the in-memory database alive and serializes writers.
	if err := database.ConfigurePool(db, 1); err != nil {
		t.Fatalf("pool: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	d := database.NewDatabase(db)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// CreateUser inserts a user with a throwaway hash.
func CreateUser(t testing.TB, d *database.Database, email, nickname string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Nickname: nickname, PasswordHash: "x"}
	if err := d.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CountByStudy counts rows of table with the given study_id (or id for studies).
func CountByStudy(t testing.TB, d *database.Database, table string, studyID uint) int64 {
	t.Helper()

	column := "study_id"
	if table == "studies" {
		column = "id"
	}

	var n int64
	if err := d.Gorm().Table(table).Where(column+" = ?", studyID).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
