// Package logsink persists log events received by the log service.
package logsink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/platform/logbus"
	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
	"github.com/janisto/tms-platform/internal/platform/timeutil"
	"github.com/janisto/tms-platform/internal/repository"
	"github.com/janisto/tms-platform/internal/service/crud"
)

// Actor stamps the rows written by the sink.
const Actor = "LOG-SERVICE"

// Sink stores events in the log grouping. The sending client is resolved in
// the client grouping by its public client id; the service, when a product
// store is configured, by its public service id.
type Sink struct {
	clients  *crud.Service[entity.Client]
	services *crud.Service[entity.Service]
	logs     *crud.Service[entity.Log]
	timezone string
	clock    timeutil.Clock
	metrics  *metrics.Metrics
}

// Option configures a Sink.
type Option func(*Sink)

// WithServices resolves service_sid from the product grouping.
func WithServices(services *crud.Service[entity.Service]) Option {
	return func(s *Sink) { s.services = services }
}

// WithTimezone sets the timezone of log_date.
func WithTimezone(tz string) Option {
	return func(s *Sink) { s.timezone = tz }
}

// WithClock replaces the wall clock.
func WithClock(clock timeutil.Clock) Option {
	return func(s *Sink) { s.clock = clock }
}

// WithMetrics counts stored events.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sink) { s.metrics = m }
}

// New returns a sink writing to logs.
func New(clients *crud.Service[entity.Client], logs *crud.Service[entity.Log], opts ...Option) *Sink {
	s := &Sink{clients: clients, logs: logs, timezone: timeutil.DefaultTimezone, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleEvent implements logbus.Handler.
func (s *Sink) HandleEvent(ctx context.Context, pattern string, ev logbus.Event) error {
	if pattern != logbus.Pattern {
		return fmt.Errorf("logsink: unexpected pattern %q", pattern)
	}
	_, err := s.Store(ctx, ev)
	return err
}

// Store writes one event and returns the persisted row.
func (s *Sink) Store(ctx context.Context, ev logbus.Event) (*entity.Log, error) {
	ctx = repository.WithActor(ctx, Actor)

	logDate, err := timeutil.Format(s.clock(), s.timezone)
	if err != nil {
		return nil, err
	}
	logSid := ev.LogSid
	if logSid == "" {
		logSid = uuid.NewString()
	}
	code := ev.Code
	if code == "" {
		code = "LOG-CODE-" + api.RandomCode(api.CorrelationCodeLength)
	}
	logType := ev.Type
	if logType == "" {
		logType = logbus.TypeInfo
	}
	values := map[string]any{
		"log_sid":  logSid,
		"log_uid":  "LOG-" + api.RandomCode(api.CorrelationCodeLength),
		"log_code": code,
		"log_type": string(logType),
		"message":  ev.Message,
		"log_date": logDate,
	}
	if ev.Detail != "" {
		values["detail"] = ev.Detail
	}

	if ev.ClientID != "" {
		client, err := s.clients.FindOne(ctx, repository.Where{"client_id": ev.ClientID})
		if err != nil {
			return nil, err
		}
		if client != nil {
			values["client_sid"] = client.ClientSid
		} else {
			logging.LogWarn(ctx, "log event from unknown client", zap.String("clientId", ev.ClientID))
		}
	}
	if ev.ServiceID != "" && s.services != nil {
		svc, err := s.services.FindOne(ctx, repository.Where{"service_id": ev.ServiceID})
		if err != nil {
			return nil, err
		}
		if svc != nil {
			values["service_sid"] = svc.ServiceSid
		}
	}

	row, err := s.logs.Create(ctx, values)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLogEvent(metrics.LogStored)
	return row, nil
}

var _ logbus.Handler = (*Sink)(nil)
