package pop3

import (
	"context"
	"io"
	"strings"

	"github.com/miakizz/mop3gw/internal/logging"
	"github.com/miakizz/mop3gw/internal/metrics"
	"github.com/miakizz/mop3gw/internal/server"
)

func init() {
	RegisterAuthCommands()
	RegisterTransactionCommands()
}

// Handler creates a POP3 protocol handler bound to opts (the CLI-level
// account/token overrides and rendering configuration).
func Handler(hostname string, opts Options, collector metrics.Collector) server.ConnectionHandler {
	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, hostname, opts, collector)
	}
}

// handleConnection manages a single POP3 session end to end.
func handleConnection(ctx context.Context, conn *server.Connection, hostname string, opts Options, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened("pop3")
	defer collector.ConnectionClosed("pop3")

	sess := NewSession(hostname, opts)

	logger.Info("starting POP3 session")

	if _, err := conn.Writer().WriteString("+OK MOP3 ready\r\n"); err != nil {
		logger.Error("failed to send greeting", "error", err.Error())
		return
	}
	if err := conn.Flush(); err != nil {
		logger.Error("failed to flush greeting", "error", err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, closing connection")
			return
		default:
		}

		if conn.IsClosed() {
			return
		}

		if err := conn.SetCommandTimeout(); err != nil {
			logger.Error("failed to set command timeout", "error", err.Error())
			return
		}

		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			if err != io.EOF {
				logger.Error("error reading command", "error", err.Error())
			}
			return
		}

		if err := conn.ResetIdleTimeout(); err != nil {
			logger.Error("failed to reset idle timeout", "error", err.Error())
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		logger.Debug("received command", "line", line)

		cmdName, args, err := ParseCommand(line)
		if err != nil {
			// Unknown/blank verbs are silently ignored, per spec.md §4.1.
			continue
		}

		cmd, ok := GetCommand(cmdName)
		if !ok {
			continue
		}

		collector.CommandProcessed("pop3", cmdName)

		resp, err := cmd.Execute(ctx, sess, conn, args)
		if err != nil {
			logger.Error("command execution error", "command", cmdName, "error", err.Error())
			continue
		}

		if cmdName == "PASS" {
			collector.AuthAttempt(resp.OK)
		}
		if cmdName == "RETR" && resp.OK {
			collector.MessageRetrieved()
		}

		if _, err := conn.Writer().WriteString(resp.String()); err != nil {
			logger.Error("failed to send response", "error", err.Error())
			return
		}
		if err := conn.Flush(); err != nil {
			logger.Error("failed to flush response", "error", err.Error())
			return
		}

		if cmdName == "QUIT" {
			logger.Info("QUIT received, closing connection")
			return
		}
	}
}
