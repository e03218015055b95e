package server

import (
	"bufio"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// Connection wraps a single accepted net.Conn with the line-oriented I/O
// and timeout handling the POP3 and SMTP command loops need.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	logger *slog.Logger

	idleTimeout    time.Duration
	commandTimeout time.Duration

	closed atomic.Bool
}

// NewConnection wraps netConn for line-oriented command/response I/O.
func NewConnection(netConn net.Conn, logger *slog.Logger, idleTimeout, commandTimeout time.Duration) *Connection {
	return &Connection{
		conn:           netConn,
		reader:         bufio.NewReader(netConn),
		writer:         bufio.NewWriter(netConn),
		logger:         logger,
		idleTimeout:    idleTimeout,
		commandTimeout: commandTimeout,
	}
}

// Reader returns the buffered reader for reading CRLF-terminated command lines.
func (c *Connection) Reader() *bufio.Reader {
	return c.reader
}

// Writer returns the buffered writer for sending responses. Callers must
// call Flush after writing.
func (c *Connection) Writer() *bufio.Writer {
	return c.writer
}

// Flush writes any buffered response bytes to the underlying connection.
func (c *Connection) Flush() error {
	return c.writer.Flush()
}

// SetCommandTimeout bounds the time allowed to receive the next command line.
func (c *Connection) SetCommandTimeout() error {
	if c.commandTimeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.commandTimeout))
}

// ResetIdleTimeout extends the deadline after a successful read, bounding
// how long a connection may sit idle between commands.
func (c *Connection) ResetIdleTimeout() error {
	if c.idleTimeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.idleTimeout))
}

// Logger returns the connection's logger, satisfying ConnectionLogger for
// both the pop3 and smtp command packages.
func (c *Connection) Logger() *slog.Logger {
	return c.logger
}

// IsClosed reports whether Close has been called on this connection.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Close closes the underlying network connection.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
