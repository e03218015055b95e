package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/miakizz/mop3gw/internal/logging"
)

// ConnectionHandler processes one accepted connection to completion.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// ListenerConfig configures a single protocol listener.
type ListenerConfig struct {
	Address        string
	IdleTimeout    time.Duration
	CommandTimeout time.Duration
	Logger         *slog.Logger
	Handler        ConnectionHandler
	Limiter        *ConnectionLimiter
}

// Listener accepts connections on one address and hands each, in turn, to
// a ConnectionHandler. Sessions are processed sequentially: Start runs the
// handler inside its accept loop, so it never begins accepting the next
// connection until the current handler returns (spec.md §5's scheduling
// model — no shared mutable state across sessions other than RecentId).
type Listener struct {
	cfg ListenerConfig
	ln  net.Listener
}

// NewListener creates a Listener from cfg. Start must be called to begin accepting.
func NewListener(cfg ListenerConfig) *Listener {
	if cfg.Limiter == nil {
		cfg.Limiter = NewConnectionLimiter(1)
	}
	return &Listener{cfg: cfg}
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	return l.cfg.Address
}

// Start binds the listen address and accepts connections until ctx is
// cancelled or Close is called.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Address)
	if err != nil {
		return err
	}
	l.ln = ln

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	l.cfg.Logger.Info("listener started", "address", l.cfg.Address)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}

		if !l.cfg.Limiter.TryAcquire() {
			_ = conn.Close()
			continue
		}
		l.handle(ctx, conn)
		l.cfg.Limiter.Release()
	}
}

func (l *Listener) handle(ctx context.Context, netConn net.Conn) {
	c := NewConnection(netConn, l.cfg.Logger, l.cfg.IdleTimeout, l.cfg.CommandTimeout)
	defer func() {
		_ = c.Close()
	}()
	ctx = logging.WithLogger(ctx, l.cfg.Logger)
	l.cfg.Handler(ctx, c)
}

// Close stops accepting new connections on this listener.
func (l *Listener) Close() error {
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}
