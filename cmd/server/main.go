package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/platform/config"
	"github.com/janisto/tms-platform/internal/platform/logging"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	if err := logging.Err(); err != nil {
		logging.LogError(context.Background(), "logger init error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newCommand().Run(ctx, os.Args)
	stop()
	if err != nil {
		logging.LogError(context.Background(), "command failed", err)
	}
	if syncErr := logging.Sync(); syncErr != nil {
		logging.LogError(context.Background(), "logger sync error", syncErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "tms-platform",
		Usage:   "TMS, centralize and log services",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-dir", Value: ".", Usage: "directory holding the .env files"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	migrate := &cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"}
	return &cli.Command{
		Name:  "serve",
		Usage: "Run one of the services",
		Commands: []*cli.Command{
			{
				Name:  "tms",
				Usage: "Serve the tms API",
				Flags: []cli.Flag{migrate},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runTMS(ctx, cfg, c.Bool("migrate"))
				},
			},
			{
				Name:  "centralize",
				Usage: "Serve the centralize API",
				Flags: []cli.Flag{migrate},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runCentralize(ctx, cfg, c.Bool("migrate"))
				},
			},
			{
				Name:  "log",
				Usage: "Consume log events and store them",
				Flags: []cli.Flag{migrate},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runLog(ctx, cfg, c.Bool("migrate"))
				},
			},
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the embedded migrations of every configured database grouping",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "group", Usage: "limit to a grouping (auth, client, product, log)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runMigrate(ctx, cfg, c.StringSlice("group"))
		},
	}
}

// loadConfig reads .env files from --env-dir, decodes the environment and
// applies LOG_LEVEL.
func loadConfig(c *cli.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-dir"), os.Getenv("NODE_ENV")); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logging.Logger().Info("config loaded",
		zap.String("env", cfg.Env),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("log_transport", cfg.LogTransport),
		zap.Bool("log_enabled", cfg.LogEnabled),
	)
	return cfg, nil
}
