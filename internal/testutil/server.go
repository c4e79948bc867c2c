// Package testutil builds in-process API servers for handler tests.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/message"
	"github.com/janisto/tms-platform/internal/platform/logbus"
	applog "github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/middleware"
	"github.com/janisto/tms-platform/internal/platform/respond"
	"github.com/janisto/tms-platform/internal/platform/timeutil"
)

// Now is the frozen clock of every test server.
var Now = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// Events records audit events in memory.
type Events struct {
	mu     sync.Mutex
	events []logbus.Event
}

// Emit implements logbus.Emitter.
func (e *Events) Emit(_ context.Context, _ string, ev logbus.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

// All returns a copy of the recorded events.
func (e *Events) All() []logbus.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]logbus.Event(nil), e.events...)
}

// Server is a router with the envelope pipeline installed.
type Server struct {
	Router   chi.Router
	API      huma.API
	Pipeline *respond.Pipeline
	Events   *Events
}

// NewServer returns a server whose huma API is mounted under prefix ("" for
// the root).
func NewServer(t *testing.T, prefix string) *Server {
	t.Helper()
	catalog, err := message.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	builder, err := api.NewBuilder(catalog, api.WithClock(timeutil.Frozen(Now)))
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	events := &Events{}
	p := respond.New(builder, respond.WithEmitter(events))
	respond.Install(p)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID(),
		chimiddleware.RealIP,
		middleware.Language(),
		applog.RequestLogger(),
		p.Recoverer(),
	)
	router.NotFound(p.NotFoundHandler())
	router.MethodNotAllowed(p.MethodNotAllowedHandler())

	s := &Server{Router: router, Pipeline: p, Events: events}
	cfg := respond.Config("Test", "test")
	if prefix == "" {
		s.API = humachi.New(router, cfg)
		return s
	}
	cfg.Servers = []*huma.Server{{URL: prefix}}
	router.Route(prefix, func(r chi.Router) {
		s.API = humachi.New(r, cfg)
	})
	return s
}

// Request is one call against a Server.
type Request struct {
	Method  string
	Target  string
	Body    string
	Headers map[string]string
}

// Do serves req and decodes the JSON response body, nil when empty.
func (s *Server) Do(t *testing.T, req Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	r := httptest.NewRequest(req.Method, req.Target, body)
	if req.Body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set(chimiddleware.RequestIDHeader, "test-request")
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, r)

	if resp.Body.Len() == 0 {
		return resp, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, resp.Body.String())
	}
	return resp, payload
}

// Get is Do for a GET without a body.
func (s *Server) Get(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return s.Do(t, Request{Method: http.MethodGet, Target: target})
}

// ExpectEnvelope fails the test unless the response has the HTTP status and
// business status code.
func ExpectEnvelope(t *testing.T, resp *httptest.ResponseRecorder, body map[string]any, status int, statusCode string) {
	t.Helper()
	if resp.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, resp.Code, resp.Body.String())
	}
	if body["status_code"] != statusCode {
		t.Fatalf("expected status_code %s, got %v", statusCode, body["status_code"])
	}
	if body["request_id"] != "test-request" {
		t.Fatalf("expected request_id test-request, got %v", body["request_id"])
	}
}
