package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/janisto/tms-platform/internal/message"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func containsHeader(headerValue, target string) bool {
	for part := range strings.SplitSeq(headerValue, ",") {
		if strings.EqualFold(strings.TrimSpace(part), target) {
			return true
		}
	}
	return false
}

func TestRequestIDGeneratesUUIDv4(t *testing.T) {
	var captured string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = chimiddleware.GetReqID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get(chimiddleware.RequestIDHeader) != captured {
		t.Fatalf("response header %q does not match context id %q", rec.Header().Get(chimiddleware.RequestIDHeader), captured)
	}
	parsed, err := uuid.Parse(captured)
	if err != nil {
		t.Fatalf("request ID %q is not a UUID: %v", captured, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected UUIDv4, got version %d", parsed.Version())
	}
}

func TestRequestIDIncomingHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{"valid", "external-id", true},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"newline", "abc\ndef", false},
		{"non ascii", "idé", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = chimiddleware.GetReqID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(chimiddleware.RequestIDHeader, tt.header)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got := captured == tt.header; got != tt.reuse {
				t.Fatalf("reuse=%v, want %v (captured %q)", got, tt.reuse, captured)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		query string
		want  message.Language
	}{
		{"", message.ID},
		{"?lang=EN", message.EN},
		{"?lang=en", message.EN},
		{"?lang=ID", message.ID},
		{"?lang=fr", message.ID},
	}
	for _, tt := range tests {
		var got message.Language
		h := Language()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = LanguageFromContext(r.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		if got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.query, tt.want, got)
		}
	}
}

func TestLanguageFromBareContext(t *testing.T) {
	if got := LanguageFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != message.DefaultLanguage {
		t.Fatalf("expected default language, got %s", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodOptions, "http://localhost/tms/api/v1/client", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Request-Id")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if called {
		t.Fatal("preflight should not reach the handler")
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	allow := resp.Header().Get("Access-Control-Allow-Headers")
	for _, want := range []string{"Authorization", "X-Request-Id"} {
		if !containsHeader(allow, want) {
			t.Fatalf("expected %s in %q", want, allow)
		}
	}
}

func TestCORSExposesHeaders(t *testing.T) {
	h := CORS()(http.HandlerFunc(ok))
	req := httptest.NewRequest(http.MethodGet, "http://localhost/resource", nil)
	req.Header.Set("Origin", "http://example.com")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected '*', got %q", got)
	}
	expose := resp.Header().Get("Access-Control-Expose-Headers")
	for _, want := range []string{"Link", "Location", "X-Request-Id"} {
		if !containsHeader(expose, want) {
			t.Fatalf("expected %s in %q", want, expose)
		}
	}
}

func TestVary(t *testing.T) {
	resp := httptest.NewRecorder()
	Vary()(http.HandlerFunc(ok)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := resp.Header().Get("Vary"); got != "Accept" {
		t.Fatalf("expected Vary: Accept, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	resp := httptest.NewRecorder()
	Security("/docs")(http.HandlerFunc(ok)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/client", nil))
	for _, kv := range securityHeaders {
		if got := resp.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s: expected %q, got %q", kv[0], kv[1], got)
		}
	}
}

func TestSecuritySkipPaths(t *testing.T) {
	resp := httptest.NewRecorder()
	Security("/docs")(http.HandlerFunc(ok)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))
	if got := resp.Header().Get("X-Frame-Options"); got != "" {
		t.Fatalf("expected no security headers on docs, got X-Frame-Options %q", got)
	}
}
