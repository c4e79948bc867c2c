// Package config loads service settings from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/janisto/tms-platform/internal/platform/timeutil"
)

// Environments.
const (
	Production  = "production"
	Development = "development"
	Test        = "test"
)

// Log transports.
const (
	TransportTCP   = "tcp"
	TransportRedis = "redis"
)

// Database drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite"
)

// Duration decodes JWT_EXPIRES_IN. A bare integer is seconds, "<n>d" is days and
// anything else is parsed by time.ParseDuration.
type Duration time.Duration

// Decode implements envdecode.Decoder.
func (d *Duration) Decode(repl string) error {
	s := strings.TrimSpace(repl)
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return fmt.Errorf("invalid duration %q", repl)
		}
		*d = Duration(time.Duration(n) * 24 * time.Hour)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", repl)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Database holds the connection settings of one database grouping. With the
// sqlite driver, Name is the database file.
type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Configured reports whether the grouping has a database name.
func (d Database) Configured() bool { return d.Name != "" }

// Config is the full service configuration.
type Config struct {
	Env        string `env:"NODE_ENV,default=development"`
	Port       int    `env:"PORT,default=3000"`
	Timezone   string `env:"TIMEZONE,default=Asia/Jakarta"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	LogEnabled bool   `env:"LOG_ENABLED,default=true"`

	ClientCode  string `env:"CLIENT_CODE"`
	ClientID    string `env:"CLIENT_ID"`
	ClientKey   string `env:"CLIENT_KEY"`
	ServiceCode string `env:"SERVICE_CODE"`
	ServiceID   string `env:"SERVICE_ID"`
	ServiceKey  string `env:"SERVICE_KEY"`

	JWTSecret    string   `env:"JWT_SECRET"`
	JWTExpiresIn Duration `env:"JWT_EXPIRES_IN,default=86400"`

	LogTransport string `env:"LOG_TRANSPORT,default=tcp"`
	LogHost      string `env:"LOG_HOST,default=localhost"`
	LogPort      int    `env:"LOG_PORT,default=3001"`
	RedisURL     string `env:"REDIS_URL,default=redis://localhost:6379/0"`

	DBDriver string `env:"DB_DRIVER,default=sqlserver"`

	// Filled from the DB_<GROUP>_* variables by Load.
	AuthDB    Database
	ClientDB  Database
	ProductDB Database
	LogDB     Database
}

type authDB struct {
	Host     string `env:"DB_AUTH_HOST"`
	Port     int    `env:"DB_AUTH_PORT,default=1433"`
	User     string `env:"DB_AUTH_USER"`
	Password string `env:"DB_AUTH_PASSWORD"`
	Name     string `env:"DB_AUTH_NAME"`
}

type clientDB struct {
	Host     string `env:"DB_CLIENT_HOST"`
	Port     int    `env:"DB_CLIENT_PORT,default=1433"`
	User     string `env:"DB_CLIENT_USER"`
	Password string `env:"DB_CLIENT_PASSWORD"`
	Name     string `env:"DB_CLIENT_NAME"`
}

type productDB struct {
	Host     string `env:"DB_PRODUCT_HOST"`
	Port     int    `env:"DB_PRODUCT_PORT,default=1433"`
	User     string `env:"DB_PRODUCT_USER"`
	Password string `env:"DB_PRODUCT_PASSWORD"`
	Name     string `env:"DB_PRODUCT_NAME"`
}

// legacyProductDB is the older naming of the product grouping.
type legacyProductDB struct {
	Host     string `env:"DB_MSN_PRODUCT_HOST"`
	Port     int    `env:"DB_MSN_PRODUCT_PORT,default=1433"`
	User     string `env:"DB_MSN_PRODUCT_USER"`
	Password string `env:"DB_MSN_PRODUCT_PASSWORD"`
	Name     string `env:"DB_MSN_PRODUCT_NAME"`
}

type logDB struct {
	Host     string `env:"DB_LOG_HOST"`
	Port     int    `env:"DB_LOG_PORT,default=1433"`
	User     string `env:"DB_LOG_USER"`
	Password string `env:"DB_LOG_PASSWORD"`
	Name     string `env:"DB_LOG_NAME"`
}

// decode fills target, tolerating an environment that sets none of its fields.
func decode(target any) error {
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// LoadDotEnv loads .env.<NODE_ENV>, .env.local and .env from dir. Variables
// already in the environment win, then the first file that sets a key.
func LoadDotEnv(dir, env string) error {
	files := []string{".env.local", ".env"}
	if env != "" {
		files = append([]string{".env." + env}, files...)
	}
	for _, name := range files {
		err := godotenv.Load(filepath.Join(dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", name, err)
		}
	}
	return nil
}

// Load decodes the environment into a Config. Call LoadDotEnv first to pick up
// .env files.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var (
		a  authDB
		c  clientDB
		p  productDB
		lp legacyProductDB
		l  logDB
	)
	for _, target := range []any{&a, &c, &p, &lp, &l} {
		if err := decode(target); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	cfg.AuthDB = Database(a)
	cfg.ClientDB = Database(c)
	cfg.ProductDB = Database(p)
	if !cfg.ProductDB.Configured() {
		cfg.ProductDB = Database(lp)
	}
	cfg.LogDB = Database(l)
	return cfg, nil
}

// IsDevelopment reports whether error details are rendered.
func (c *Config) IsDevelopment() bool { return c.Env == Development }

// Validate checks values that cannot be expressed as decode defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if _, err := timeutil.Location(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	switch c.LogTransport {
	case TransportTCP, TransportRedis:
	default:
		errs = append(errs, fmt.Errorf("LOG_TRANSPORT %q must be %s or %s", c.LogTransport, TransportTCP, TransportRedis))
	}
	switch c.DBDriver {
	case DriverSQLServer, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q must be %s or %s", c.DBDriver, DriverSQLServer, DriverSQLite))
	}
	if c.JWTExpiresIn.Std() <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// RequireDatabases checks that every named grouping is configured.
func (c *Config) RequireDatabases(groups ...string) error {
	var missing []string
	for _, g := range groups {
		db, ok := c.Database(g)
		if !ok {
			return fmt.Errorf("config: unknown database grouping %q", g)
		}
		if !db.Configured() {
			missing = append(missing, "DB_"+strings.ToUpper(g)+"_NAME")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Database returns the settings of a grouping: auth, client, product or log.
func (c *Config) Database(group string) (Database, bool) {
	switch group {
	case "auth":
		return c.AuthDB, true
	case "client":
		return c.ClientDB, true
	case "product":
		return c.ProductDB, true
	case "log":
		return c.LogDB, true
	default:
		return Database{}, false
	}
}
