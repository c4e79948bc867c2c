package hello

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fxamacker/cbor/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/testutil"
)

func newTestServer(t *testing.T) *testutil.Server {
	t.Helper()
	s := testutil.NewServer(t, "")
	Register(s.API, s.Pipeline)
	return s
}

func TestGetJSON(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.Get(t, "/hello?lang=EN")

	testutil.ExpectEnvelope(t, resp, body, http.StatusOK, "0000")
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	if body["message"] != "Success" {
		t.Errorf("expected message Success, got %v", body["message"])
	}
	data := body["data"].(map[string]any)
	if data["message"] != Greeting {
		t.Errorf("expected %q, got %v", Greeting, data["message"])
	}
}

func TestGetCBOR(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set("Accept", "application/cbor")
	req.Header.Set(chimiddleware.RequestIDHeader, "hello-get-cbor")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Errorf("expected application/cbor, got %s", ct)
	}

	var env api.Envelope[Data]
	if err := cbor.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if env.RequestID != "hello-get-cbor" || env.Data == nil || env.Data.Message != Greeting {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestPostNotAllowed(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.Do(t, testutil.Request{Method: http.MethodPost, Target: "/hello?lang=EN", Body: `{}`})

	testutil.ExpectEnvelope(t, resp, body, http.StatusMethodNotAllowed, "0400")
	if allow := resp.Header().Get("Allow"); allow == "" {
		t.Error("expected an Allow header")
	}
}

func TestAuditEventPerRequest(t *testing.T) {
	s := newTestServer(t)

	s.Get(t, "/hello")
	s.Get(t, "/hello")

	if n := len(s.Events.All()); n != 2 {
		t.Fatalf("expected 2 audit events, got %d", n)
	}
}
