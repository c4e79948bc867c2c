package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New("tms")
	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/v1/client/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/client/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/v1/client/{id}", http.MethodGet, "404"))
	if got != 3 {
		t.Fatalf("expected 3 requests, got %v", got)
	}
	if n := testutil.CollectAndCount(m.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestOutcomesAndLogEvents(t *testing.T) {
	m := New("log")
	m.ObserveOutcome("get-client", "0000")
	m.ObserveOutcome("get-client", "0000")
	m.ObserveLogEvent(LogDropped)

	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("get-client", "0000")); got != 2 {
		t.Fatalf("expected 2 outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.logEvents.WithLabelValues(LogDropped)); got != 1 {
		t.Fatalf("expected 1 dropped event, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New("centralize")
	m.ObserveOutcome("hello", "0000")

	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(resp.Body)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(string(body), `api_outcomes_total{operation="hello",service="centralize",status_code="0000"} 1`) {
		t.Fatalf("expected outcome series in output:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOutcome("x", "0000")
	m.ObserveLogEvent(LogSent)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}

	called := false
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("expected passthrough")
	}
}
