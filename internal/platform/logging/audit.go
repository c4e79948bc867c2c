package logging

import (
	"context"

	"go.uber.org/zap"
)

// Outcome is the result recorded by an audit event.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AuditEvent describes the outcome of one API operation.
type AuditEvent struct {
	Operation  string
	Outcome    Outcome
	StatusCode string
	HTTPStatus int
	Message    string
	ErrorCode  string
	Kind       string
	Detail     string
}

// LogAuditEvent logs one structured audit line. Failures are logged at error
// level with the detail attached when set; successes at info level.
func LogAuditEvent(ctx context.Context, ev AuditEvent) {
	fields := []zap.Field{
		zap.String("audit.operation", ev.Operation),
		zap.String("audit.outcome", string(ev.Outcome)),
		zap.String("audit.status_code", ev.StatusCode),
		zap.Int("audit.http_status", ev.HTTPStatus),
	}
	if ev.ErrorCode != "" {
		fields = append(fields, zap.String("audit.error_code", ev.ErrorCode))
	}
	if ev.Kind != "" {
		fields = append(fields, zap.String("audit.kind", ev.Kind))
	}
	logger := LoggerFromContext(ctx)
	if ev.Outcome == OutcomeFailure {
		if ev.Detail != "" {
			fields = append(fields, zap.String("audit.detail", ev.Detail))
		}
		logger.Error(ev.Message, fields...)
		return
	}
	logger.Info(ev.Message, fields...)
}
