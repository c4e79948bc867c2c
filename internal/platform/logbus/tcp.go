package logbus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/metrics"
)

// maxFrameSize bounds a single frame read by the server.
const maxFrameSize = 1 << 20

// maxHeaderLen bounds the "<len>" part of a frame.
const maxHeaderLen = 20

var (
	// ErrFrameTooLarge is returned for frames above maxFrameSize.
	ErrFrameTooLarge = errors.New("logbus: frame too large")
	// ErrHeaderTooLong is returned when no '#' follows within maxHeaderLen bytes.
	ErrHeaderTooLong = errors.New("logbus: frame header too long")
)

// writeFrame writes payload as "<len>#<payload>".
func writeFrame(w io.Writer, payload []byte) error {
	frame := make([]byte, 0, len(payload)+12)
	frame = strconv.AppendInt(frame, int64(len(payload)), 10)
	frame = append(frame, '#')
	frame = append(frame, payload...)
	_, err := w.Write(frame)
	return err
}

// readFrame reads one "<len>#<payload>" frame.
func readFrame(r *bufio.Reader) ([]byte, error) {
	head := make([]byte, 0, maxHeaderLen)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(head) == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("logbus: read frame header: %w", err)
		}
		if b == '#' {
			break
		}
		if len(head) == maxHeaderLen {
			return nil, ErrHeaderTooLong
		}
		head = append(head, b)
	}
	n, err := strconv.Atoi(string(head))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("logbus: invalid frame length %q", head)
	}
	if n > maxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("logbus: read frame body: %w", err)
	}
	return buf, nil
}

// TCPClient emits events to a NestJS style TCP microservice, one connection
// per event.
type TCPClient struct {
	Addr        string
	DialTimeout time.Duration
	dialer      net.Dialer
}

// NewTCPClient returns a client for host:port.
func NewTCPClient(host string, port int) *TCPClient {
	return &TCPClient{
		Addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		DialTimeout: 2 * time.Second,
	}
}

// Emit dials, writes one frame and closes the connection.
func (c *TCPClient) Emit(ctx context.Context, pattern string, ev Event) error {
	payload, err := encodePacket(pattern, ev)
	if err != nil {
		return err
	}
	dctx := ctx
	if c.DialTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, c.DialTimeout)
		defer cancel()
	}
	conn, err := c.dialer.DialContext(dctx, "tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("logbus: dial %s: %w", c.Addr, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if err := writeFrame(conn, payload); err != nil {
		return fmt.Errorf("logbus: write %s: %w", c.Addr, err)
	}
	return nil
}

// TCPServer accepts framed events and hands them to a Handler.
type TCPServer struct {
	addr    string
	handler Handler
	metrics *metrics.Metrics

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewTCPServer returns a server that will listen on addr.
func NewTCPServer(addr string, h Handler, m *metrics.Metrics) *TCPServer {
	return &TCPServer{addr: addr, handler: h, metrics: m}
}

// Listen binds the listening socket. Serve calls it when needed.
func (s *TCPServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("logbus: listen %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled, then waits for open
// connections to finish.
func (s *TCPServer) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("logbus: accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *TCPServer) serveConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	cctx := logging.WithLogger(ctx, logging.Logger().With(zap.String("remote", conn.RemoteAddr().String())))
	r := bufio.NewReader(conn)
	for {
		raw, err := readFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logging.LogWarn(cctx, "log frame rejected", zap.Error(err))
			}
			return
		}
		pattern, ev, err := decodePacket(raw)
		if err != nil {
			logging.LogWarn(cctx, "log packet rejected", zap.Error(err))
			continue
		}
		s.metrics.ObserveLogEvent(metrics.LogReceived)
		if err := s.handler.HandleEvent(cctx, pattern, ev); err != nil {
			s.metrics.ObserveLogEvent(metrics.LogFailed)
			logging.LogError(cctx, "log event not stored", err, zap.String("logSid", ev.LogSid))
		}
	}
}
