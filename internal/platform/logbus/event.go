// Package logbus carries log events from the API services to the log service.
// Two transports are supported: NestJS compatible TCP framing and Redis pub/sub.
package logbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Pattern is the event pattern the log service listens on.
const Pattern = "logger"

// Type classifies an event.
type Type string

const (
	TypeInfo  Type = "info"
	TypeError Type = "error"
)

// Event is one log record. LogSid is the request correlation id.
type Event struct {
	LogSid    string `json:"logSid"`
	Type      Type   `json:"type"`
	ClientID  string `json:"clientId"`
	ServiceID string `json:"serviceId"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	Code      string `json:"code,omitempty"`
}

// Emitter publishes events under a pattern.
type Emitter interface {
	Emit(ctx context.Context, pattern string, ev Event) error
}

// Handler consumes events delivered by a server or subscriber.
type Handler interface {
	HandleEvent(ctx context.Context, pattern string, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, pattern string, ev Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, pattern string, ev Event) error {
	return f(ctx, pattern, ev)
}

// Discard drops every event. It backs LOG_ENABLED=false.
type Discard struct{}

// Emit does nothing.
func (Discard) Emit(context.Context, string, Event) error { return nil }

// ErrEmptyPattern is returned when an event arrives without a pattern.
var ErrEmptyPattern = errors.New("logbus: empty pattern")

// packet is the NestJS microservice message shape. Events carry no id.
type packet struct {
	Pattern string          `json:"pattern"`
	Data    json.RawMessage `json:"data"`
	ID      string          `json:"id,omitempty"`
}

func encodePacket(pattern string, ev Event) ([]byte, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("logbus: encode event: %w", err)
	}
	return json.Marshal(packet{Pattern: pattern, Data: data})
}

func decodePacket(raw []byte) (string, Event, error) {
	var p packet
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", Event{}, fmt.Errorf("logbus: decode packet: %w", err)
	}
	if p.Pattern == "" {
		return "", Event{}, ErrEmptyPattern
	}
	var ev Event
	if err := json.Unmarshal(p.Data, &ev); err != nil {
		return "", Event{}, fmt.Errorf("logbus: decode event: %w", err)
	}
	return p.Pattern, ev, nil
}
