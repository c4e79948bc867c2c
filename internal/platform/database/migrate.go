package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	godb "github.com/pressly/goose/v3/database"
	"gorm.io/gorm"

	"github.com/janisto/tms-platform/internal/platform/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the migrations of one grouping. Each grouping keeps its own
// version table, so groupings may share a database.
func Migrate(ctx context.Context, driver string, g Group, gdb *gorm.DB) ([]*goose.MigrationResult, error) {
	var dialect godb.Dialect
	switch driver {
	case config.DriverSQLServer:
		dialect = godb.DialectMSSQL
	case config.DriverSQLite:
		dialect = godb.DialectSQLite3
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
	fsys, err := fs.Sub(migrationsFS, "migrations/"+driver+"/"+string(g))
	if err != nil {
		return nil, fmt.Errorf("database: migrations for %s: %w", g, err)
	}
	store, err := godb.NewStore(dialect, "goose_version_"+string(g))
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider("", sqlDB, fsys, goose.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("database: migrations for %s: %w", g, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("database: migrate %s: %w", g, err)
	}
	return results, nil
}
