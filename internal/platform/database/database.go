// Package database opens the per-grouping GORM connections and applies the
// embedded schema migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/janisto/tms-platform/internal/platform/config"
)

// Group names a database grouping. A repository only ever sees one grouping.
type Group string

const (
	Auth    Group = "auth"
	Client  Group = "client"
	Product Group = "product"
	Log     Group = "log"
)

// Groups lists every grouping in migration order.
func Groups() []Group { return []Group{Auth, Client, Product, Log} }

// ErrUnknownDriver is returned for drivers other than sqlserver and sqlite.
var ErrUnknownDriver = errors.New("database: unknown driver")

// DSN builds the driver specific connection string.
func DSN(driver string, db config.Database) (string, error) {
	switch driver {
	case config.DriverSQLServer:
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(db.User, db.Password),
			Host:     db.Host + ":" + strconv.Itoa(db.Port),
			RawQuery: url.Values{"database": {db.Name}, "encrypt": {"disable"}}.Encode(),
		}
		return u.String(), nil
	case config.DriverSQLite:
		if db.Name == "" {
			return "", errors.New("database: sqlite needs a file name")
		}
		return "file:" + db.Name + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}

// Open connects to one grouping.
func Open(driver string, db config.Database, logger *zap.Logger) (*gorm.DB, error) {
	dsn, err := DSN(driver, db)
	if err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLServer:
		dialector = sqlserver.Open(dsn)
	default:
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 NewLogger(logger, 200*time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", db.Name, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if driver == config.DriverSQLite {
		// One writer keeps SQLite from returning SQLITE_BUSY under load.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return gdb, nil
}

// Set holds the open groupings of a service.
type Set struct {
	driver string
	dbs    map[Group]*gorm.DB
}

// OpenSet opens the named groupings from cfg.
func OpenSet(cfg *config.Config, logger *zap.Logger, groups ...Group) (*Set, error) {
	s := &Set{driver: cfg.DBDriver, dbs: make(map[Group]*gorm.DB, len(groups))}
	for _, g := range groups {
		dbCfg, ok := cfg.Database(string(g))
		if !ok {
			_ = s.Close()
			return nil, fmt.Errorf("database: unknown grouping %q", g)
		}
		gdb, err := Open(cfg.DBDriver, dbCfg, logger.With(zap.String("db", string(g))))
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("database: %s: %w", g, err)
		}
		s.dbs[g] = gdb
	}
	return s, nil
}

// NewSet wraps already open connections. Tests use it with SQLite files.
func NewSet(driver string, dbs map[Group]*gorm.DB) *Set {
	return &Set{driver: driver, dbs: dbs}
}

// Driver returns the driver of every grouping in the set.
func (s *Set) Driver() string { return s.driver }

// Get returns the connection of g, or nil when it was not opened.
func (s *Set) Get(g Group) *gorm.DB { return s.dbs[g] }

// Migrate applies the embedded migrations of every grouping in the set.
func (s *Set) Migrate(ctx context.Context) error {
	for _, g := range Groups() {
		gdb, ok := s.dbs[g]
		if !ok {
			continue
		}
		if _, err := Migrate(ctx, s.driver, g, gdb); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks every grouping.
func (s *Set) Ping(ctx context.Context) error {
	for g, gdb := range s.dbs {
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("database: %s: %w", g, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %s: %w", g, err)
		}
	}
	return nil
}

// Close closes every grouping.
func (s *Set) Close() error {
	var errs []error
	for g, gdb := range s.dbs {
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", g, err))
		}
	}
	return errors.Join(errs...)
}
