package logbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
)

var (
	// ErrQueueFull is returned when an event is dropped because the queue is full.
	ErrQueueFull = errors.New("logbus: queue full")
	// ErrClosed is returned by Emit after Close.
	ErrClosed = errors.New("logbus: emitter closed")
)

type job struct {
	pattern string
	ev      Event
}

// Async decouples request handling from the transport. Emit never blocks: events
// go through a bounded queue drained by one worker, and transport failures are
// only logged locally.
type Async struct {
	next    Emitter
	timeout time.Duration
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}

	dropped atomic.Uint64
}

// NewAsync starts the worker. size and timeout fall back to 256 and 3s.
func NewAsync(next Emitter, size int, timeout time.Duration, m *metrics.Metrics) *Async {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	a := &Async{
		next:    next,
		timeout: timeout,
		metrics: m,
		queue:   make(chan job, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Emit enqueues ev. The request context is not retained.
func (a *Async) Emit(_ context.Context, pattern string, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- job{pattern: pattern, ev: ev}:
		return nil
	default:
		a.dropped.Add(1)
		a.metrics.ObserveLogEvent(metrics.LogDropped)
		return ErrQueueFull
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (a *Async) Dropped() uint64 { return a.dropped.Load() }

// Close stops accepting events and waits for the queue to drain or ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.next.Emit(ctx, j.pattern, j.ev)
		cancel()
		if err != nil {
			a.metrics.ObserveLogEvent(metrics.LogFailed)
			logging.LogWarn(context.Background(), "log event not delivered",
				zap.String("logSid", j.ev.LogSid), zap.Error(err))
			continue
		}
		a.metrics.ObserveLogEvent(metrics.LogSent)
	}
}
