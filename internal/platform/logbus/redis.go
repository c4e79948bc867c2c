package logbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
)

// DefaultChannelPrefix namespaces pub/sub channels.
const DefaultChannelPrefix = "tms"

func channel(prefix, pattern string) string {
	return prefix + ":" + pattern
}

// RedisPublisher emits events with PUBLISH <prefix>:<pattern>.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisPublisher wraps client. An empty prefix uses DefaultChannelPrefix.
func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Emit publishes ev as JSON.
func (p *RedisPublisher) Emit(ctx context.Context, pattern string, ev Event) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("logbus: encode event: %w", err)
	}
	if err := p.client.Publish(ctx, channel(p.prefix, pattern), payload).Err(); err != nil {
		return fmt.Errorf("logbus: publish: %w", err)
	}
	return nil
}

// RedisSubscriber delivers events published by RedisPublisher to a Handler.
type RedisSubscriber struct {
	client  redis.UniversalClient
	prefix  string
	handler Handler
	metrics *metrics.Metrics
	ready   chan struct{}
}

// NewRedisSubscriber returns a subscriber. Run starts consuming.
func NewRedisSubscriber(client redis.UniversalClient, prefix string, h Handler, m *metrics.Metrics) *RedisSubscriber {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisSubscriber{client: client, prefix: prefix, handler: h, metrics: m, ready: make(chan struct{})}
}

// Ready is closed once the subscription is confirmed by the server.
func (s *RedisSubscriber) Ready() <-chan struct{} { return s.ready }

// Run subscribes to patterns (Pattern when empty) and blocks until ctx is done.
func (s *RedisSubscriber) Run(ctx context.Context, patterns ...string) error {
	if len(patterns) == 0 {
		patterns = []string{Pattern}
	}
	channels := make([]string, len(patterns))
	for i, p := range patterns {
		channels[i] = channel(s.prefix, p)
	}

	sub := s.client.Subscribe(ctx, channels...)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("logbus: subscribe: %w", err)
	}
	close(s.ready)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			s.deliver(ctx, msg)
		}
	}
}

func (s *RedisSubscriber) deliver(ctx context.Context, msg *redis.Message) {
	pattern := strings.TrimPrefix(msg.Channel, s.prefix+":")
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		logging.LogWarn(ctx, "log message rejected", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	s.metrics.ObserveLogEvent(metrics.LogReceived)
	if err := s.handler.HandleEvent(ctx, pattern, ev); err != nil {
		s.metrics.ObserveLogEvent(metrics.LogFailed)
		logging.LogError(ctx, "log event not stored", err, zap.String("logSid", ev.LogSid))
	}
}
