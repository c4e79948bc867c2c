package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/message"
	"github.com/janisto/tms-platform/internal/platform/logbus"
	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/middleware"
	"github.com/janisto/tms-platform/internal/platform/timeutil"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []logbus.Event
}

func (r *recordingEmitter) Emit(_ context.Context, pattern string, ev logbus.Event) error {
	if pattern != logbus.Pattern {
		return errors.New("unexpected pattern")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEmitter) all() []logbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]logbus.Event(nil), r.events...)
}

type testServer struct {
	router   chi.Router
	api      huma.API
	pipeline *Pipeline
	events   *recordingEmitter
}

func newTestServer(t *testing.T, devMode bool) *testServer {
	t.Helper()
	catalog, err := message.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	builder, err := api.NewBuilder(catalog,
		api.WithDevMode(devMode),
		api.WithClock(timeutil.Frozen(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))),
	)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	events := &recordingEmitter{}
	p := New(builder, WithEmitter(events), WithIdentity("CL-1", "SV-1"))
	Install(p)

	router := chi.NewRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.Language())
	router.Use(p.Recoverer())
	router.NotFound(p.NotFoundHandler())
	router.MethodNotAllowed(p.MethodNotAllowedHandler())

	hapi := humachi.New(router, Config("test", "1.0.0"))
	return &testServer{router: router, api: hapi, pipeline: p, events: events}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(chimiddleware.RequestIDHeader, "req-1")
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, resp.Body.String())
	}
	return resp, payload
}

type idInput struct {
	ID int `path:"id"`
}

type thing struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestSuccessEnvelope(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{OperationID: "get-thing", Method: http.MethodGet, Path: "/things/{id}"},
		func(_ context.Context, in *idInput) (*Reply[thing], error) {
			return OK(thing{ID: in.ID, Name: "widget"}), nil
		})

	resp, body := s.do(t, http.MethodGet, "/things/7?lang=EN", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if body["request_id"] != "req-1" || body["status_code"] != "0000" || body["message"] != "Success" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if body["datetime"] != "2024-01-15 17:30:00.000" {
		t.Fatalf("unexpected datetime: %v", body["datetime"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["name"] != "widget" || data["id"] != float64(7) {
		t.Fatalf("unexpected data: %v", body["data"])
	}

	events := s.events.all()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	ev := events[0]
	if ev.Type != logbus.TypeInfo || ev.LogSid != "req-1" || ev.ClientID != "CL-1" || ev.ServiceID != "SV-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Message != "Response Success" {
		t.Fatalf("unexpected event message: %q", ev.Message)
	}
}

func TestSuccessTagStatusAndLink(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{
		OperationID:   "create-thing",
		Method:        http.MethodPost,
		Path:          "/things",
		SuccessTag:    message.DataCreated,
		SuccessStatus: http.StatusCreated,
	}, func(_ context.Context, _ *struct{}) (*Reply[thing], error) {
		return &Reply[thing]{Data: thing{ID: 1}, Link: `</things?cursor=x>; rel="next"`}, nil
	})

	resp, body := s.do(t, http.MethodPost, "/things?lang=EN", "")

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if body["message"] != "Data has been created" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["status_code"] != "0000" {
		t.Fatalf("unexpected status code: %v", body["status_code"])
	}
	if link := resp.Header().Get("Link"); !strings.Contains(link, `rel="next"`) {
		t.Fatalf("expected Link header, got %q", link)
	}
}

func TestNilDataRendersNull(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{OperationID: "nothing", Method: http.MethodGet, Path: "/nothing"},
		func(_ context.Context, _ *struct{}) (*Reply[*thing], error) {
			return OK[*thing](nil), nil
		})

	_, body := s.do(t, http.MethodGet, "/nothing", "")
	data, present := body["data"]
	if !present || data != nil {
		t.Fatalf("expected data:null, got %v (present=%v)", data, present)
	}
}

func TestFailureEnvelope(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{OperationID: "get-thing", Method: http.MethodGet, Path: "/things/{id}"},
		func(_ context.Context, _ *idInput) (*Reply[thing], error) {
			return nil, apperr.New(apperr.DataNotFound)
		})

	resp, body := s.do(t, http.MethodGet, "/things/9?lang=EN", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if body["status_code"] != "0404" || body["message"] != "Data not found" || body["error_message"] != "Not Found" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if code, _ := body["error_code"].(string); len(code) != api.ErrorCodeLength {
		t.Fatalf("unexpected error code: %v", body["error_code"])
	}
	if _, ok := body["error_detail"]; ok {
		t.Fatal("error_detail must be omitted outside development")
	}
	if _, ok := body["data"]; ok {
		t.Fatal("error envelope must not carry data")
	}

	events := s.events.all()
	if len(events) != 1 || events[0].Type != logbus.TypeError || events[0].LogSid != "req-1" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if code := events[0].Code; !strings.HasPrefix(code, EventCodePrefix) || len(code) != len(EventCodePrefix)+api.CorrelationCodeLength {
		t.Fatalf("unexpected event code %q", code)
	}
}

func TestEventKeepsExplicitCode(t *testing.T) {
	s := newTestServer(t, false)

	s.pipeline.fail(context.Background(), "get-thing", apperr.New(apperr.DataNotFound, apperr.WithCode("CODE-1")), "")

	if events := s.events.all(); len(events) != 1 || events[0].Code != "CODE-1" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestFailureAuditDetailOnlyInDevMode(t *testing.T) {
	for _, devMode := range []bool{false, true} {
		s := newTestServer(t, devMode)
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := logging.WithLogger(context.Background(), zap.New(core))
		cause := apperr.NewDatabaseError("client.findAll", apperr.ReasonUnknown,
			errors.New("Login failed for user 'sa' password=hunter2"))

		s.pipeline.fail(ctx, "list-clients", apperr.Classify(cause), "")

		entries := recorded.All()
		if len(entries) != 1 {
			t.Fatalf("dev=%v: expected one audit entry, got %d", devMode, len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["audit.kind"] != apperr.InternalError.String() {
			t.Errorf("dev=%v: unexpected kind %v", devMode, fields["audit.kind"])
		}
		if fields["audit.error_code"] == "" {
			t.Errorf("dev=%v: expected an error code", devMode)
		}
		detail, ok := fields["audit.detail"].(string)
		if devMode {
			if !ok || !strings.Contains(detail, "hunter2") {
				t.Errorf("expected the cause in the development detail, got %q", detail)
			}
			continue
		}
		if ok {
			t.Errorf("detail must not be logged outside development: %q", detail)
		}
		if strings.Contains(entries[0].Message, "hunter2") {
			t.Errorf("driver text leaked into the message: %q", entries[0].Message)
		}
	}
}

func TestFailureDetailInDevMode(t *testing.T) {
	s := newTestServer(t, true)
	Register(s.api, s.pipeline, Route{OperationID: "boom", Method: http.MethodGet, Path: "/boom"},
		func(_ context.Context, _ *struct{}) (*Reply[thing], error) {
			return nil, errors.New("connection reset")
		})

	resp, body := s.do(t, http.MethodGet, "/boom", "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	detail, _ := body["error_detail"].(string)
	if !strings.Contains(detail, "connection reset") {
		t.Fatalf("expected detail with cause, got %q", detail)
	}
	if body["error_message"] == "connection reset" {
		t.Fatal("internal error text must not become the error message")
	}
}

func TestFailureTagAppliesToGenericErrorsOnly(t *testing.T) {
	s := newTestServer(t, false)
	route := Route{
		OperationID:    "login",
		Method:         http.MethodPost,
		Path:           "/login",
		FailureTag:     message.InvalidQuery,
		FailureMessage: "Login failed",
	}
	var fail error
	Register(s.api, s.pipeline, route, func(_ context.Context, _ *struct{}) (*Reply[thing], error) {
		return nil, fail
	})

	fail = errors.New("unexpected")
	resp, body := s.do(t, http.MethodPost, "/login", "")
	if resp.Code != http.StatusInternalServerError || body["status_code"] != "0400" {
		t.Fatalf("generic error: expected failure tag status 0400 with HTTP 500, got %d %v", resp.Code, body["status_code"])
	}
	if body["error_message"] != "Login failed" {
		t.Fatalf("expected failure message override, got %v", body["error_message"])
	}

	fail = apperr.New(apperr.UserNotFound)
	resp, body = s.do(t, http.MethodPost, "/login", "")
	if resp.Code != http.StatusNotFound || body["status_code"] != "0404" {
		t.Fatalf("typed error: expected its own tag, got %d %v", resp.Code, body["status_code"])
	}
}

type createInput struct {
	Body struct {
		Name string `json:"name" minLength:"1"`
	}
}

func TestValidationErrorUsesPropertyRequired(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{OperationID: "create", Method: http.MethodPost, Path: "/things"},
		func(_ context.Context, _ *createInput) (*Reply[thing], error) {
			t.Fatal("handler must not run")
			return nil, nil
		})

	resp, body := s.do(t, http.MethodPost, "/things?lang=EN", `{}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if body["status_code"] != "0400" {
		t.Fatalf("unexpected status code: %v", body["status_code"])
	}
	if body["message"] != "Property name is required" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if len(s.events.all()) != 1 {
		t.Fatalf("expected one event, got %d", len(s.events.all()))
	}
}

func TestRouteNotFound(t *testing.T) {
	s := newTestServer(t, false)
	resp, body := s.do(t, http.MethodGet, "/missing?lang=EN", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if body["message"] != "Page not found" || body["status_code"] != "0404" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if body["error_message"] != "Cannot GET /missing" {
		t.Fatalf("unexpected error message: %v", body["error_message"])
	}
	if len(s.events.all()) != 1 {
		t.Fatal("expected one event")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{OperationID: "list", Method: http.MethodGet, Path: "/things"},
		func(_ context.Context, _ *struct{}) (*Reply[[]thing], error) {
			return OK([]thing{}), nil
		})

	resp, body := s.do(t, http.MethodDelete, "/things?lang=EN", "")

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if body["message"] != "Method not allowed" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if allow := resp.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("expected Allow header listing GET, got %q", allow)
	}
}

func TestRecovererRendersInternalError(t *testing.T) {
	s := newTestServer(t, false)
	s.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	resp, body := s.do(t, http.MethodGet, "/panic?lang=EN", "")

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if body["status_code"] != "0500" || body["message"] != "Internal server error" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestRegisterRejectsInvalidRoutes(t *testing.T) {
	s := newTestServer(t, false)
	tests := map[string]Route{
		"missing path":     {OperationID: "x", Method: http.MethodGet},
		"error as success": {OperationID: "x", Method: http.MethodGet, Path: "/x", SuccessTag: message.DataNotFound},
		"unknown failure":  {OperationID: "x", Method: http.MethodGet, Path: "/x", FailureTag: "NOPE"},
		"non 2xx status":   {OperationID: "x", Method: http.MethodGet, Path: "/x", SuccessStatus: 302},
	}
	for name, route := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			Register(s.api, s.pipeline, route, func(context.Context, *struct{}) (*Reply[string], error) {
				return OK("x"), nil
			})
		})
	}
}

func TestFrameworkExceptionMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   apperr.Kind
		http   int
	}{
		{http.StatusUnprocessableEntity, apperr.BadRequest, http.StatusBadRequest},
		{http.StatusUnauthorized, apperr.InvalidToken, http.StatusUnauthorized},
		{http.StatusNotFound, apperr.DataNotFound, http.StatusNotFound},
		{http.StatusRequestEntityTooLarge, apperr.InternalError, http.StatusRequestEntityTooLarge},
		{http.StatusNotAcceptable, apperr.InternalError, http.StatusNotAcceptable},
	}
	for _, tt := range tests {
		exc := frameworkException(tt.status, "msg", nil)
		if exc.Kind != tt.kind || exc.HTTPStatus() != tt.http {
			t.Errorf("%d: got kind %s status %d", tt.status, exc.Kind, exc.HTTPStatus())
		}
	}
}

func TestFirstIssue(t *testing.T) {
	key, msg := firstIssue([]error{&huma.ErrorDetail{Location: "body", Message: "expected required property email to be present"}})
	if key != "email" || msg == "" {
		t.Fatalf("got %q %q", key, msg)
	}
	key, _ = firstIssue([]error{&huma.ErrorDetail{Location: "query.limit", Message: "expected number <= 100"}})
	if key != "limit" {
		t.Fatalf("expected limit, got %q", key)
	}
}

func TestEnvelopeHasNoSchemaField(t *testing.T) {
	s := newTestServer(t, false)
	Register(s.api, s.pipeline, Route{OperationID: "plain", Method: http.MethodGet, Path: "/plain"},
		func(_ context.Context, _ *struct{}) (*Reply[string], error) {
			return OK("x"), nil
		})

	_, body := s.do(t, http.MethodGet, "/plain", "")
	want := []string{"request_id", "status_code", "message", "datetime", "data"}
	if len(body) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, body)
	}
	for _, k := range want {
		if _, ok := body[k]; !ok {
			t.Fatalf("missing key %s in %v", k, body)
		}
	}
}
