package pop3

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// statCommand implements the STAT command (RFC 1939).
type statCommand struct{}

func (s *statCommand) Name() string { return "STAT" }

func (s *statCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) > 0 {
		return Response{OK: false, Message: "STAT takes no arguments"}, nil
	}
	return Response{OK: true, Message: fmt.Sprintf("%d %d", sess.MessageCount(), sess.TotalSize())}, nil
}

// listCommand implements the LIST command (RFC 1939). LIST 0 is treated
// as list-all, matching spec.md §7's edge case.
type listCommand struct{}

func (l *listCommand) Name() string { return "LIST" }

func (l *listCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) > 1 {
		return Response{OK: false, Message: "LIST takes at most one argument"}, nil
	}

	if len(args) == 0 || args[0] == "0" {
		nums := sess.AllMessages()
		lines := make([]string, len(nums))
		for i, n := range nums {
			msg, _ := sess.GetMessage(n)
			lines[i] = fmt.Sprintf("%d %d", n, msg.Octets)
		}
		return Response{
			OK:        true,
			Message:   fmt.Sprintf("%d messages (%d octets)", sess.MessageCount(), sess.TotalSize()),
			Lines:     lines,
			Multiline: true,
		}, nil
	}

	msgNum, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "invalid message number"}, nil
	}
	msg, err := sess.GetMessage(msgNum)
	if err != nil {
		if errors.Is(err, ErrNoSuchMessage) {
			return Response{OK: false, Message: "no such message"}, nil
		}
		return Response{OK: false, Message: "failed to retrieve message"}, nil
	}
	return Response{OK: true, Message: fmt.Sprintf("%d %d", msgNum, msg.Octets)}, nil
}

// retrCommand implements the RETR command (RFC 1939). The rendered bytes
// are transmitted verbatim via Response.Raw, with no dot-stuffing, per
// spec.md §4.1. The first successful RETR of a session records RecentId.
type retrCommand struct{}

func (r *retrCommand) Name() string { return "RETR" }

func (r *retrCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) != 1 {
		return Response{OK: false, Message: "RETR requires a message number"}, nil
	}

	msgNum, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "invalid message number"}, nil
	}

	msg, err := sess.GetMessage(msgNum)
	if err != nil {
		if errors.Is(err, ErrNoSuchMessage) {
			return Response{OK: false, Message: "no such message"}, nil
		}
		return Response{OK: false, Message: "failed to retrieve message"}, nil
	}

	sess.NoteRetrieval()

	return Response{
		OK:      true,
		Message: fmt.Sprintf("%d octets", msg.Octets),
		Raw:     string(msg.Bytes),
	}, nil
}

// deleCommand implements the DELE command (RFC 1939). Accepted but
// entirely inert: there is no backing store to expunge from, so DELE has
// no effect on STAT/LIST/RETR/UIDL within the session, matching
// original_source/src/main.rs's unconditional "+OK\r\n" (spec.md §4.1
// Non-goals: "true deletion").
type deleCommand struct{}

func (d *deleCommand) Name() string { return "DELE" }

func (d *deleCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) != 1 {
		return Response{OK: false, Message: "DELE requires a message number"}, nil
	}
	return Response{OK: true}, nil
}

// rsetCommand implements the RSET command (RFC 1939). With DELE already
// inert, RSET has nothing to undo; it reports the maildrop size unchanged.
type rsetCommand struct{}

func (r *rsetCommand) Name() string { return "RSET" }

func (r *rsetCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) > 0 {
		return Response{OK: false, Message: "RSET takes no arguments"}, nil
	}
	return Response{OK: true, Message: fmt.Sprintf("maildrop has %d messages", sess.MessageCount())}, nil
}

// noopCommand implements the NOOP command (RFC 1939).
type noopCommand struct{}

func (n *noopCommand) Name() string { return "NOOP" }

func (n *noopCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if len(args) > 0 {
		return Response{OK: false, Message: "NOOP takes no arguments"}, nil
	}
	return Response{OK: true}, nil
}

// uidlCommand implements the UIDL command (RFC 1939 extension). UIDs are
// "<post id>@<domain>", stable across sessions for the same post.
type uidlCommand struct{}

func (u *uidlCommand) Name() string { return "UIDL" }

func (u *uidlCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}

	if len(args) == 0 || args[0] == "0" {
		nums := sess.AllMessages()
		lines := make([]string, len(nums))
		for i, n := range nums {
			uid, _ := sess.UID(n)
			lines[i] = fmt.Sprintf("%d %s", n, uid)
		}
		return Response{OK: true, Lines: lines, Multiline: true}, nil
	}

	msgNum, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "invalid message number"}, nil
	}
	if _, err := sess.GetMessage(msgNum); err != nil {
		return Response{OK: false, Message: "no such message"}, nil
	}
	uid, err := sess.UID(msgNum)
	if err != nil {
		return Response{OK: false, Message: "no such message"}, nil
	}
	return Response{OK: true, Message: fmt.Sprintf("%d %s", msgNum, uid)}, nil
}

// topCommand implements the TOP command (RFC 2449). Headers are always
// sent in full; the body is truncated to at most k lines, where "body"
// begins after the first empty line in the rendered message.
type topCommand struct{}

func (t *topCommand) Name() string { return "TOP" }

func (t *topCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) != 2 {
		return Response{OK: false, Message: "TOP requires a message number and line count"}, nil
	}

	msgNum, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "invalid message number"}, nil
	}
	lineCount, err := strconv.Atoi(args[1])
	if err != nil || lineCount < 0 {
		return Response{OK: false, Message: "invalid line count"}, nil
	}

	msg, err := sess.GetMessage(msgNum)
	if err != nil {
		if errors.Is(err, ErrNoSuchMessage) {
			return Response{OK: false, Message: "no such message"}, nil
		}
		return Response{OK: false, Message: "failed to retrieve message"}, nil
	}

	raw := truncateToTop(string(msg.Bytes), lineCount)
	return Response{OK: true, Raw: raw}, nil
}

// truncateToTop returns headers in full, followed by at most bodyLines
// lines of body, preserving the CRLF line endings of the source.
func truncateToTop(content string, bodyLines int) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(content))
	inBody := false
	bodyCount := 0

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if !inBody {
			b.WriteString(line)
			b.WriteString("\r\n")
			if line == "" {
				inBody = true
			}
			continue
		}

		if bodyCount >= bodyLines {
			break
		}
		b.WriteString(line)
		b.WriteString("\r\n")
		bodyCount++
	}

	return b.String()
}

// RegisterTransactionCommands registers all transaction-related commands.
func RegisterTransactionCommands() {
	RegisterCommand(&statCommand{})
	RegisterCommand(&listCommand{})
	RegisterCommand(&retrCommand{})
	RegisterCommand(&deleCommand{})
	RegisterCommand(&rsetCommand{})
	RegisterCommand(&noopCommand{})
	RegisterCommand(&uidlCommand{})
	RegisterCommand(&topCommand{})
}
