package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/http/health"
	"github.com/janisto/tms-platform/internal/message"
	"github.com/janisto/tms-platform/internal/platform/config"
	"github.com/janisto/tms-platform/internal/platform/logbus"
	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
	"github.com/janisto/tms-platform/internal/platform/middleware"
	"github.com/janisto/tms-platform/internal/platform/respond"
)

const shutdownTimeout = 10 * time.Second

// newPipeline builds the envelope pipeline of a service and installs it as
// huma's error constructor.
func newPipeline(cfg *config.Config, emitter logbus.Emitter, m *metrics.Metrics) (*respond.Pipeline, error) {
	catalog, err := message.Default()
	if err != nil {
		return nil, err
	}
	builder, err := api.NewBuilder(catalog,
		api.WithTimezone(cfg.Timezone),
		api.WithDevMode(cfg.IsDevelopment()),
	)
	if err != nil {
		return nil, err
	}
	p := respond.New(builder,
		respond.WithEmitter(emitter),
		respond.WithMetrics(m),
		respond.WithIdentity(cfg.ClientID, cfg.ServiceID),
	)
	respond.Install(p)
	return p, nil
}

// apiSpec describes the huma API mounted by a service.
type apiSpec struct {
	Title    string
	Prefix   string
	Register func(huma.API)
}

// newRouter assembles the middleware stack, the health and metrics endpoints
// and, when spec.Register is set, the huma API under spec.Prefix.
func newRouter(p *respond.Pipeline, m *metrics.Metrics, pinger health.Pinger, spec apiSpec) chi.Router {
	router := chi.NewRouter()
	router.NotFound(p.NotFoundHandler())
	router.MethodNotAllowed(p.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		middleware.Security(spec.Prefix+"/api-docs"),
		middleware.Vary(),
		middleware.CORS(),
		middleware.RequestID(),
		// RealIP trusts X-Real-IP and X-Forwarded-For; only deploy behind a proxy that sets them.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		middleware.Language(),
		logging.RequestLogger(),
		logging.AccessLogger(),
		m.Middleware(),
		p.Recoverer(),
	)

	router.Get("/health", health.Handler(pinger))
	router.Handle("/metrics", m.Handler())

	if spec.Register == nil {
		return router
	}
	cfg := respond.Config(spec.Title, Version)
	cfg.DocsPath = "/api-docs"
	cfg.Servers = []*huma.Server{{URL: spec.Prefix}}
	router.Route(spec.Prefix, func(r chi.Router) {
		hapi := humachi.New(r, cfg)
		addCBORContent(hapi)
		spec.Register(hapi)
	})
	return router
}

// addCBORContent documents application/cbor next to every JSON body.
func addCBORContent(hapi huma.API) {
	hapi.OpenAPI().OnAddOperation = append(hapi.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)
}

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	listenErr := make(chan error, 1)
	go func() {
		logging.LogInfo(ctx, "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err, ok := <-listenErr:
		if ok {
			logging.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
			return err
		}
		return nil
	case <-ctx.Done():
		logging.LogInfo(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, "server shutdown error", err)
		return err
	}
	logging.LogInfo(shutdownCtx, "server exited", zap.String("addr", srv.Addr))
	return nil
}
