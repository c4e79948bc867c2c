// Package respond wraps every API outcome in the catalog envelope and records
// exactly one audit event per request.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/message"
	"github.com/janisto/tms-platform/internal/platform/logbus"
	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
	"github.com/janisto/tms-platform/internal/platform/middleware"
)

// EventCodePrefix marks generated codes of emitted error events.
const EventCodePrefix = "ERROR-"

// Pipeline renders envelopes and reports outcomes. It is safe for concurrent use.
type Pipeline struct {
	builder   *api.Builder
	emitter   logbus.Emitter
	metrics   *metrics.Metrics
	clientID  string
	serviceID string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEmitter sends audit events to e.
func WithEmitter(e logbus.Emitter) Option {
	return func(p *Pipeline) { p.emitter = e }
}

// WithMetrics counts outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithIdentity sets the client and service ids stamped on audit events.
func WithIdentity(clientID, serviceID string) Option {
	return func(p *Pipeline) {
		p.clientID = clientID
		p.serviceID = serviceID
	}
}

// New returns a pipeline rendering with b. Events are discarded unless an
// emitter is configured.
func New(b *api.Builder, opts ...Option) *Pipeline {
	p := &Pipeline{builder: b, emitter: logbus.Discard{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.emitter == nil {
		p.emitter = logbus.Discard{}
	}
	return p
}

// Builder returns the envelope builder.
func (p *Pipeline) Builder() *api.Builder { return p.builder }

// Request extracts the envelope inputs stored in ctx by the middleware stack.
func Request(ctx context.Context) api.Request {
	if ctx == nil {
		return api.Request{Language: message.DefaultLanguage}
	}
	return api.Request{
		RequestID: chimiddleware.GetReqID(ctx),
		Language:  middleware.LanguageFromContext(ctx),
	}
}

// StatusError is an error envelope that huma writes as the response body.
type StatusError struct {
	api.ErrorEnvelope
	status int
}

func (e *StatusError) Error() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return http.StatusText(e.status)
}

// GetStatus implements huma.StatusError.
func (e *StatusError) GetStatus() int { return e.status }

// fail classifies err, renders the error envelope and reports it.
func (p *Pipeline) fail(ctx context.Context, operation string, exc *apperr.Exception, override string) *StatusError {
	req := Request(ctx)
	env, err := p.builder.Failure(req, exc, override)
	if err != nil {
		logging.LogError(ctx, "error envelope not rendered", err, zap.String("tag", string(exc.ResolvedTag())))
		env = fallbackEnvelope(req, exc)
	}
	se := &StatusError{ErrorEnvelope: env, status: exc.HTTPStatus()}

	audit := logging.AuditEvent{
		Operation:  operation,
		Outcome:    logging.OutcomeFailure,
		StatusCode: env.StatusCode,
		HTTPStatus: se.status,
		Message:    env.ErrorMessage,
		ErrorCode:  env.ErrorCode,
		Kind:       exc.Kind.String(),
	}
	// Cause text and stacks may carry driver strings; keep them out of
	// non-development logs.
	if p.builder.DevMode() {
		audit.Detail = exc.Detail()
	}
	logging.LogAuditEvent(ctx, audit)
	p.metrics.ObserveOutcome(operation, env.StatusCode)
	p.emit(ctx, logbus.Event{
		LogSid:  req.RequestID,
		Type:    logbus.TypeError,
		Message: env.ErrorMessage,
		Detail:  env.ErrorDetail,
		Code:    eventCode(exc),
	})
	return se
}

// eventCode is the code of an emitted error event: the exception's own code,
// else a fresh ERROR- correlation code.
func eventCode(exc *apperr.Exception) string {
	if exc.Code != "" {
		return exc.Code
	}
	return EventCodePrefix + api.RandomCode(api.CorrelationCodeLength)
}

// succeed reports a rendered success envelope.
func (p *Pipeline) succeed(ctx context.Context, operation string, status int, statusCode, msg string) {
	logging.LogAuditEvent(ctx, logging.AuditEvent{
		Operation:  operation,
		Outcome:    logging.OutcomeSuccess,
		StatusCode: statusCode,
		HTTPStatus: status,
		Message:    "Response " + msg,
	})
	p.metrics.ObserveOutcome(operation, statusCode)
	p.emit(ctx, logbus.Event{
		LogSid:  Request(ctx).RequestID,
		Type:    logbus.TypeInfo,
		Message: "Response " + msg,
	})
}

func (p *Pipeline) emit(ctx context.Context, ev logbus.Event) {
	ev.ClientID = p.clientID
	ev.ServiceID = p.serviceID
	if err := p.emitter.Emit(ctx, logbus.Pattern, ev); err != nil {
		logging.LogWarn(ctx, "audit event not queued", zap.Error(err))
	}
}

func fallbackEnvelope(req api.Request, exc *apperr.Exception) api.ErrorEnvelope {
	return api.ErrorEnvelope{
		RequestID:    req.RequestID,
		StatusCode:   "0500",
		Message:      http.StatusText(http.StatusInternalServerError),
		ErrorMessage: http.StatusText(exc.HTTPStatus()),
		ErrorCode:    api.RandomCode(api.ErrorCodeLength),
	}
}

// write serializes body with status, bypassing huma.
func write(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(body)
}

// WriteFailure renders err as an error envelope outside huma.
func (p *Pipeline) WriteFailure(w http.ResponseWriter, r *http.Request, operation string, exc *apperr.Exception) {
	se := p.fail(r.Context(), operation, exc, "")
	if err := write(w, se.status, se.ErrorEnvelope); err != nil {
		logging.LogError(r.Context(), "failed to write error envelope", err)
	}
}

// NotFoundHandler renders ROUTE_NOT_FOUND for unmatched paths.
func (p *Pipeline) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.WriteFailure(w, r, "route-not-found", apperr.New(apperr.InternalError,
			apperr.WithTag(message.RouteNotFound),
			apperr.WithStatus(http.StatusNotFound),
			apperr.WithMessage("Cannot "+r.Method+" "+r.URL.Path),
		))
	}
}

// MethodNotAllowedHandler renders INVALID_METHOD and lists the allowed methods.
func (p *Pipeline) MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", joinMethods(allow))
		}
		p.WriteFailure(w, r, "method-not-allowed", apperr.New(apperr.InternalError,
			apperr.WithTag(message.InvalidMethod),
			apperr.WithStatus(http.StatusMethodNotAllowed),
		))
	}
}

// Recoverer turns panics into INTERNAL_SERVER_ERROR envelopes.
func (p *Pipeline) Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				exc := apperr.ClassifyRecovered(rec)
				if p.builder.DevMode() {
					logging.LogError(r.Context(), "panic recovered", exc, zap.String("stack", apperr.StackOf(exc)))
				}
				p.WriteFailure(w, r, "panic", exc)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
