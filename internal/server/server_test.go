package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miakizz/mop3gw/internal/logging"
)

func TestNewRequiresAtLeastOneListener(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error when no listeners are configured")
	}
}

func TestRunRejectsSpecWithoutHandler(t *testing.T) {
	srv, err := New(Config{
		Logger:    logging.NewLogger("error"),
		Listeners: []ListenerSpec{{Name: "pop3", Address: "127.0.0.1:0"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = srv.Run(context.Background())
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("Run() error = %v, want ErrNoHandler", err)
	}
}

func TestRunServesConnectionsUntilCancelled(t *testing.T) {
	reached := make(chan struct{}, 1)
	handler := func(ctx context.Context, c *Connection) {
		select {
		case reached <- struct{}{}:
		default:
		}
	}

	srv, err := New(Config{
		Logger:         logging.NewLogger("error"),
		MaxConnections: 1,
		Listeners: []ListenerSpec{
			{Name: "pop3", Address: "127.0.0.1:0", Handler: handler},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Address() still reports the configured "127.0.0.1:0" (resolved only
	// once Start binds it), so poll until the listener accepts connections
	// rather than dialing the unresolved spec address directly.
	var dialed bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		srv.mu.Lock()
		var addr string
		if len(srv.listeners) == 1 && srv.listeners[0].ln != nil {
			addr = srv.listeners[0].ln.Addr().String()
		}
		srv.mu.Unlock()
		if addr != "" {
			if conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
				_ = conn.Close()
				dialed = true
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !dialed {
		t.Fatal("never managed to dial the listener")
	}

	select {
	case <-reached:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run() returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
