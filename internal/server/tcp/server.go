// Package tcp serves the treasure hunt protocol over TCP: an accept loop
// that hands every connection to its own session goroutine.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/server/activity"
	"github.com/dmitrijs2005/treasurehunt/internal/server/services"
	"golang.org/x/net/netutil"
)

const maxAcceptDelay = time.Second

// Options are the hardening knobs of the server. Zero values disable them.
type Options struct {
	// IdleTimeout closes a session that makes no I/O progress for this long.
	IdleTimeout time.Duration
	// MaxConnections caps concurrently served connections; extra clients
	// wait in the kernel backlog.
	MaxConnections int
	// ShutdownGrace is how long live sessions may finish after the
	// listener is closed before their connections are closed too.
	ShutdownGrace time.Duration
}

type Server struct {
	address  string
	service  *services.TreasureService
	activity activity.Recorder
	logger   logging.Logger
	opts     Options

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func NewServer(address string, svc *services.TreasureService, rec activity.Recorder, l logging.Logger, opts Options) *Server {
	return &Server{
		address:  address,
		service:  svc,
		activity: rec,
		logger:   l.With("module", "tcp_server"),
		opts:     opts,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then closes lis and
// waits for the sessions still running. lis is always closed on return.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	if s.opts.MaxConnections > 0 {
		lis = netutil.LimitListener(lis, s.opts.MaxConnections)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping treasure server...")
		case <-stop:
		}
		_ = lis.Close()
	}()

	s.logger.Info(ctx, "Starting treasure server", "address", lis.Addr().String())

	sessCtx := context.WithoutCancel(ctx)
	err := s.acceptLoop(ctx, sessCtx, lis)
	close(stop)

	s.waitSessions(sessCtx)
	return err
}

func (s *Server) acceptLoop(ctx, sessCtx context.Context, lis net.Listener) error {
	var delay time.Duration

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			s.logger.Error(ctx, "accept failed", "error", err)
			s.activity.Record(sessCtx, activity.ServerError(err))

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.serveConn(sessCtx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	if s.opts.IdleTimeout > 0 {
		conn = &idleConn{Conn: conn, timeout: s.opts.IdleTimeout}
	}
	newSession(conn, s.service, s.activity, s.logger).run(ctx)
}

func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) waitSessions(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.opts.ShutdownGrace)
	defer timer.Stop()

	select {
	case <-done:
		return
	case <-timer.C:
	}

	s.mu.Lock()
	if n := len(s.conns); n > 0 {
		s.logger.Warn(ctx, "closing sessions after shutdown grace", "sessions", n)
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	<-done
}

// idleConn pushes the read and write deadlines forward on every call.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *idleConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
