package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/miakizz/mop3gw/internal/logging"
)

// ListenerSpec names one protocol listener the Server should run.
type ListenerSpec struct {
	Name    string // "pop3" or "smtp", used only for logging
	Address string
	Handler ConnectionHandler
}

// Server coordinates the gateway's listeners (POP3, and SMTP unless
// disabled) and runs them to completion together.
type Server struct {
	hostname       string
	logger         *slog.Logger
	idleTimeout    time.Duration
	commandTimeout time.Duration
	maxConnections int

	specs     []ListenerSpec
	listeners []*Listener
	mu        sync.Mutex
}

// Config holds configuration for creating a new Server.
type Config struct {
	Hostname       string
	Logger         *slog.Logger
	IdleTimeout    time.Duration
	CommandTimeout time.Duration
	MaxConnections int
	Listeners      []ListenerSpec
}

// New creates a new Server from cfg. Each entry in cfg.Listeners becomes
// one Listener once Run is called.
func New(sc Config) (*Server, error) {
	logger := sc.Logger
	if logger == nil {
		logger = logging.NewLogger("info")
	}
	if len(sc.Listeners) == 0 {
		return nil, fmt.Errorf("server: at least one listener is required")
	}

	return &Server{
		hostname:       sc.Hostname,
		logger:         logger,
		idleTimeout:    sc.IdleTimeout,
		commandTimeout: sc.CommandTimeout,
		maxConnections: sc.MaxConnections,
		specs:          sc.Listeners,
	}, nil
}

// Run starts every configured listener and blocks until ctx is cancelled
// or a listener fails. Each listener processes its own connections
// sequentially (internal/server/listener.go); listeners themselves run
// concurrently with each other.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	for _, spec := range s.specs {
		if spec.Handler == nil {
			s.mu.Unlock()
			return fmt.Errorf("listener %s: %w", spec.Name, ErrNoHandler)
		}
		limiter := NewConnectionLimiter(s.maxConnections)
		l := NewListener(ListenerConfig{
			Address:        spec.Address,
			IdleTimeout:    s.idleTimeout,
			CommandTimeout: s.commandTimeout,
			Logger:         s.logger.With("protocol", spec.Name),
			Handler:        spec.Handler,
			Limiter:        limiter,
		})
		s.listeners = append(s.listeners, l)
	}
	s.mu.Unlock()

	s.logger.Info("starting server",
		slog.String("hostname", s.hostname),
		slog.Int("listener_count", len(s.listeners)),
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	errChan := make(chan error, len(s.listeners))

	for _, l := range s.listeners {
		wg.Add(1)
		go func(listener *Listener) {
			defer wg.Done()
			if err := listener.Start(runCtx); err != nil && err != context.Canceled {
				errChan <- fmt.Errorf("listener %s: %w", listener.Address(), err)
				cancelRun()
			}
		}(l)
	}

	<-runCtx.Done()
	s.logger.Info("server shutting down")

	s.Shutdown()
	wg.Wait()

	close(errChan)
	var firstErr error
	for err := range errChan {
		if firstErr == nil {
			firstErr = err
		}
		s.logger.Error("listener error", slog.String("error", err.Error()))
	}

	s.logger.Info("server stopped")

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Shutdown closes every listener, causing each Start call to return.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.listeners {
		_ = l.Close()
	}
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
