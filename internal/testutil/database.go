package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/janisto/tms-platform/internal/platform/config"
	"github.com/janisto/tms-platform/internal/platform/database"
)

// OpenSQLite opens a migrated SQLite database for grouping g in a temporary
// directory. It is closed when the test ends.
func OpenSQLite(t *testing.T, g database.Group) *gorm.DB {
	t.Helper()
	gdb, err := database.Open(config.DriverSQLite, config.Database{Name: filepath.Join(t.TempDir(), string(g)+".db")}, nil)
	if err != nil {
		t.Fatalf("open %s: %v", g, err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if _, err := database.Migrate(context.Background(), config.DriverSQLite, g, gdb); err != nil {
		t.Fatalf("migrate %s: %v", g, err)
	}
	return gdb
}
