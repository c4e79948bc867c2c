package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/http/v1/routes"
	"github.com/janisto/tms-platform/internal/platform/auth"
	"github.com/janisto/tms-platform/internal/platform/config"
	"github.com/janisto/tms-platform/internal/platform/database"
	"github.com/janisto/tms-platform/internal/platform/logbus"
	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
	"github.com/janisto/tms-platform/internal/platform/respond"
	"github.com/janisto/tms-platform/internal/repository"
	clientsvc "github.com/janisto/tms-platform/internal/service/client"
	configsvc "github.com/janisto/tms-platform/internal/service/configuration"
	"github.com/janisto/tms-platform/internal/service/crud"
	"github.com/janisto/tms-platform/internal/service/logsink"
	usersvc "github.com/janisto/tms-platform/internal/service/user"
)

const tokenIssuer = "tms"

// newStore returns the generic service of T over grouping g.
func newStore[T repository.Model](dbs *database.Set, g database.Group) (*crud.Service[T], error) {
	repo, err := repository.New[T](dbs.Get(g), repository.WithDriver(dbs.Driver()))
	if err != nil {
		return nil, fmt.Errorf("%s repository: %w", g, err)
	}
	return crud.New[T](repo), nil
}

// openDatabases opens the groupings a service needs and optionally migrates them.
func openDatabases(ctx context.Context, cfg *config.Config, migrate bool, groups ...database.Group) (*database.Set, error) {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	if err := cfg.RequireDatabases(names...); err != nil {
		return nil, err
	}
	dbs, err := database.OpenSet(cfg, logging.Logger(), groups...)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := dbs.Migrate(ctx); err != nil {
			_ = dbs.Close()
			return nil, err
		}
	}
	return dbs, nil
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// newEmitter returns the audit event emitter of an HTTP service and a function
// that drains it. LOG_ENABLED=false discards events.
func newEmitter(cfg *config.Config, m *metrics.Metrics) (logbus.Emitter, func(context.Context) error, error) {
	if !cfg.LogEnabled {
		return logbus.Discard{}, func(context.Context) error { return nil }, nil
	}
	var (
		next    logbus.Emitter
		cleanup = func() error { return nil }
	)
	switch cfg.LogTransport {
	case config.TransportRedis:
		client, err := newRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		next = logbus.NewRedisPublisher(client, logbus.DefaultChannelPrefix)
		cleanup = client.Close
	default:
		next = logbus.NewTCPClient(cfg.LogHost, cfg.LogPort)
	}
	async := logbus.NewAsync(next, 0, 0, m)
	return async, func(ctx context.Context) error {
		err := async.Close(ctx)
		if cerr := cleanup(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// runHTTPService serves an API until ctx is done and then drains the emitter.
func runHTTPService(ctx context.Context, cfg *config.Config, service string, dbs *database.Set, spec func(p *respond.Pipeline) (apiSpec, error)) error {
	m := metrics.New(service)
	emitter, drain, err := newEmitter(cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := drain(drainCtx); err != nil {
			logging.LogWarn(drainCtx, "log emitter not drained", zap.Error(err))
		}
	}()

	p, err := newPipeline(cfg, emitter, m)
	if err != nil {
		return err
	}
	s, err := spec(p)
	if err != nil {
		return err
	}
	router := newRouter(p, m, dbs, s)
	logging.LogInfo(ctx, "service starting", zap.String("service", service), zap.String("prefix", s.Prefix))
	return serveHTTP(ctx, newHTTPServer(cfg.Port, router))
}

func runTMS(ctx context.Context, cfg *config.Config, migrate bool) error {
	if cfg.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required by the tms service")
	}
	dbs, err := openDatabases(ctx, cfg, migrate, database.Auth, database.Client)
	if err != nil {
		return err
	}
	defer func() { _ = dbs.Close() }()

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn.Std(), tokenIssuer)
	if err != nil {
		return err
	}
	return runHTTPService(ctx, cfg, "tms", dbs, func(p *respond.Pipeline) (apiSpec, error) {
		clients, err := newStore[entity.Client](dbs, database.Client)
		if err != nil {
			return apiSpec{}, err
		}
		users, err := newStore[entity.User](dbs, database.Auth)
		if err != nil {
			return apiSpec{}, err
		}
		clientUsers, err := newStore[entity.ClientUser](dbs, database.Client)
		if err != nil {
			return apiSpec{}, err
		}
		svc := routes.TMS{
			Verifier: issuer,
			Clients:  clientsvc.New(clients),
			Users:    usersvc.New(users, clientUsers, issuer),
		}
		return apiSpec{
			Title:  "TMS API",
			Prefix: "/tms/api",
			Register: func(hapi huma.API) {
				routes.RegisterTMS(hapi, p, svc)
			},
		}, nil
	})
}

func runCentralize(ctx context.Context, cfg *config.Config, migrate bool) error {
	dbs, err := openDatabases(ctx, cfg, migrate, database.Client, database.Product)
	if err != nil {
		return err
	}
	defer func() { _ = dbs.Close() }()

	return runHTTPService(ctx, cfg, "centralize", dbs, func(p *respond.Pipeline) (apiSpec, error) {
		clients, err := newStore[entity.Client](dbs, database.Client)
		if err != nil {
			return apiSpec{}, err
		}
		roles, err := newStore[entity.ClientRole](dbs, database.Client)
		if err != nil {
			return apiSpec{}, err
		}
		services, err := newStore[entity.Service](dbs, database.Product)
		if err != nil {
			return apiSpec{}, err
		}
		settings, err := newStore[entity.ServiceConfiguration](dbs, database.Product)
		if err != nil {
			return apiSpec{}, err
		}
		svc := routes.Centralize{Configuration: configsvc.New(clients, roles, services, settings)}
		return apiSpec{
			Title:  "Centralize API",
			Prefix: "/centralize/api",
			Register: func(hapi huma.API) {
				routes.RegisterCentralize(hapi, p, svc)
			},
		}, nil
	})
}

// runLog consumes audit events from the configured transport and stores them
// in the log grouping. It also serves /health and /metrics on PORT.
func runLog(ctx context.Context, cfg *config.Config, migrate bool) error {
	groups := []database.Group{database.Client, database.Log}
	if cfg.ProductDB.Configured() {
		groups = append(groups, database.Product)
	}
	dbs, err := openDatabases(ctx, cfg, migrate, groups...)
	if err != nil {
		return err
	}
	defer func() { _ = dbs.Close() }()

	m := metrics.New("log")
	clients, err := newStore[entity.Client](dbs, database.Client)
	if err != nil {
		return err
	}
	logs, err := newStore[entity.Log](dbs, database.Log)
	if err != nil {
		return err
	}
	opts := []logsink.Option{logsink.WithTimezone(cfg.Timezone), logsink.WithMetrics(m)}
	if dbs.Get(database.Product) != nil {
		services, err := newStore[entity.Service](dbs, database.Product)
		if err != nil {
			return err
		}
		opts = append(opts, logsink.WithServices(services))
	}
	sink := logsink.New(clients, logs, opts...)

	p, err := newPipeline(cfg, logbus.Discard{}, m)
	if err != nil {
		return err
	}
	router := newRouter(p, m, dbs, apiSpec{})

	var consume func(context.Context) error
	switch cfg.LogTransport {
	case config.TransportRedis:
		client, err := newRedisClient(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		sub := logbus.NewRedisSubscriber(client, logbus.DefaultChannelPrefix, sink, m)
		consume = func(ctx context.Context) error { return sub.Run(ctx, logbus.Pattern) }
	default:
		srv := logbus.NewTCPServer(fmt.Sprintf(":%d", cfg.LogPort), sink, m)
		if err := srv.Listen(); err != nil {
			return err
		}
		logging.LogInfo(ctx, "log consumer listening", zap.String("addr", srv.Addr().String()))
		consume = srv.Serve
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveHTTP(gctx, newHTTPServer(cfg.Port, router)) })
	g.Go(func() error { return consume(gctx) })
	return g.Wait()
}

// runMigrate applies the migrations of the named groupings, or of every
// configured one when none is named.
func runMigrate(ctx context.Context, cfg *config.Config, names []string) error {
	var groups []database.Group
	if len(names) == 0 {
		for _, g := range database.Groups() {
			if db, _ := cfg.Database(string(g)); db.Configured() {
				groups = append(groups, g)
			}
		}
	} else {
		for _, name := range names {
			groups = append(groups, database.Group(name))
		}
	}
	if len(groups) == 0 {
		return errors.New("migrate: no database grouping is configured")
	}
	dbs, err := openDatabases(ctx, cfg, true, groups...)
	if err != nil {
		return err
	}
	defer func() { _ = dbs.Close() }()
	logging.LogInfo(ctx, "migrations applied", zap.Int("groupings", len(groups)), zap.String("driver", dbs.Driver()))
	return nil
}
