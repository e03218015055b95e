package smtp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/miakizz/mop3gw/internal/logging"
	"github.com/miakizz/mop3gw/internal/metrics"
	"github.com/miakizz/mop3gw/internal/server"
	"github.com/miakizz/mop3gw/internal/translate"
	"github.com/miakizz/mop3gw/internal/upstream"
)

func init() {
	RegisterEnvelopeCommands("localhost")
}

// Handler creates an SMTP protocol handler bound to opts. hostname is
// re-registered per listener so EHLO/HELO advertise the configured name.
func Handler(hostname string, opts Options, collector metrics.Collector) server.ConnectionHandler {
	RegisterEnvelopeCommands(hostname)

	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, hostname, opts, collector)
	}
}

func handleConnection(ctx context.Context, conn *server.Connection, hostname string, opts Options, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened("smtp")
	defer collector.ConnectionClosed("smtp")

	sess := NewSession(opts)

	logger.Info("starting SMTP session")

	greeting := fmt.Sprintf("220 %s\r\n", hostname)
	if _, err := conn.Writer().WriteString(greeting); err != nil {
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

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		verb, arg, err := ParseCommand(trimmed)
		if err != nil {
			continue
		}

		if verb == "DATA" {
			collector.CommandProcessed("smtp", "DATA")
			if !handleData(ctx, conn, sess, logger, collector) {
				return
			}
			continue
		}

		cmd, ok := GetCommand(verb)
		if !ok {
			if _, err := conn.Writer().WriteString("500 unrecognized command\r\n"); err != nil {
				return
			}
			_ = conn.Flush()
			continue
		}

		collector.CommandProcessed("smtp", verb)

		resp, err := cmd.Execute(ctx, sess, conn, arg)
		if err != nil {
			logger.Error("command execution error", "command", verb, "error", err.Error())
			continue
		}

		if _, err := conn.Writer().WriteString(resp.String()); err != nil {
			logger.Error("failed to send response", "error", err.Error())
			return
		}
		if err := conn.Flush(); err != nil {
			logger.Error("failed to flush response", "error", err.Error())
			return
		}

		if verb == "QUIT" {
			logger.Info("QUIT received, closing connection")
			return
		}
	}
}

// handleData drives the DATA transaction: the 354 intermediate reply, the
// dot-unstuffed line collection, and the deferred final ack after
// translation and upstream submission (spec.md §4.2, §9 REDESIGN FLAGS).
// Returns false if the connection should be closed.
func handleData(ctx context.Context, conn *server.Connection, sess *Session, logger *slog.Logger, collector metrics.Collector) bool {
	if _, err := conn.Writer().WriteString("354 Send message content\r\n"); err != nil {
		return false
	}
	if err := conn.Flush(); err != nil {
		return false
	}

	var raw strings.Builder
	for {
		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			return false
		}
		unstuffed, end := unstuffDataLine(line)
		if end {
			break
		}
		raw.WriteString(unstuffed)
	}

	err := submit(ctx, sess, raw.String(), logger, collector)
	sess.Reset()

	var resp string
	if err != nil {
		logger.Error("submission failed", "error", err.Error())
		resp = "554 transaction failed\r\n"
	} else {
		resp = "250 OK\r\n"
	}

	if _, err := conn.Writer().WriteString(resp); err != nil {
		return false
	}
	return conn.Flush() == nil
}

// unstuffDataLine strips a single leading "." per RFC 5321 §4.5.2 and
// reports whether line is the lone "." that ends the DATA payload.
func unstuffDataLine(line string) (string, bool) {
	body := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	if body == "." {
		return "", true
	}
	if strings.HasPrefix(body, ".") {
		body = body[1:]
	}
	return body + "\r\n", false
}

// submit parses the accumulated message and submits it upstream: resolve
// the reply thread, upload up to four attachments, then create the
// status (spec.md §4.3).
func submit(ctx context.Context, sess *Session, raw string, logger *slog.Logger, collector metrics.Collector) error {
	sub, err := translate.Parse([]byte(raw))
	if err != nil {
		return fmt.Errorf("parsing message: %w", err)
	}

	mediaIDs := make([]string, 0, len(sub.Attachments))
	for _, att := range sub.Attachments {
		id, err := sess.opts.Client.UploadMedia(ctx, att.Filename, att.ContentType, att.Data)
		if err != nil {
			return fmt.Errorf("uploading attachment %s: %w", att.Filename, err)
		}
		mediaIDs = append(mediaIDs, id)
		collector.MediaUploaded(sess.opts.MediaMode.String())
	}

	_, err = sess.opts.Client.CreateStatus(ctx, upstream.StatusSubmission{
		Status:      sub.Text,
		InReplyToID: sub.InReplyToID,
		MediaIDs:    mediaIDs,
	})
	if err != nil {
		return fmt.Errorf("creating status: %w", err)
	}

	logger.Info("submitted status", "in_reply_to", sub.InReplyToID, "media_count", len(mediaIDs))
	collector.MessageSubmitted()
	return nil
}
