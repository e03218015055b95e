package smtp

import (
	"context"
)

// heloCommand implements HELO (RFC 5321 §4.1.1.1).
type heloCommand struct{ banner string }

func (h *heloCommand) Name() string { return "HELO" }

func (h *heloCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	return Response{Code: 250, Lines: []string{h.banner}}, nil
}

// ehloCommand implements EHLO (RFC 5321 §4.1.1.1), advertising a SIZE extension.
type ehloCommand struct{ banner string }

func (e *ehloCommand) Name() string { return "EHLO" }

func (e *ehloCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	return Response{Code: 250, Lines: []string{e.banner, "SIZE 5000000", "OK"}}, nil
}

// mailCommand implements MAIL FROM (RFC 5321 §4.1.1.2).
type mailCommand struct{}

func (m *mailCommand) Name() string { return "MAIL" }

func (m *mailCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	sess.SetReversePath(extractAddr(arg))
	return Response{Code: 250, Lines: []string{"OK"}}, nil
}

// rcptCommand implements RCPT TO (RFC 5321 §4.1.1.3). Parsed but unused:
// the gateway always submits to the single account configured at startup.
type rcptCommand struct{}

func (r *rcptCommand) Name() string { return "RCPT" }

func (r *rcptCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	sess.AddForwardPath(extractAddr(arg))
	return Response{Code: 250, Lines: []string{"OK"}}, nil
}

// noopCommand implements NOOP.
type noopCommand struct{}

func (n *noopCommand) Name() string { return "NOOP" }

func (n *noopCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	return Response{Code: 250, Lines: []string{"OK"}}, nil
}

// rsetCommand implements RSET (RFC 5321 §4.1.1.5).
type rsetCommand struct{}

func (r *rsetCommand) Name() string { return "RSET" }

func (r *rsetCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	sess.Reset()
	return Response{Code: 250, Lines: []string{"OK"}}, nil
}

// quitCommand implements QUIT (RFC 5321 §4.1.1.10).
type quitCommand struct{}

func (q *quitCommand) Name() string { return "QUIT" }

func (q *quitCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, arg string) (Response, error) {
	return Response{Code: 221, Lines: []string{"good bye"}}, nil
}

// RegisterEnvelopeCommands registers every SMTP verb except DATA, which
// the handler drives directly since it must read the multi-line payload
// off the connection itself.
func RegisterEnvelopeCommands(hostname string) {
	RegisterCommand(&heloCommand{banner: hostname})
	RegisterCommand(&ehloCommand{banner: hostname})
	RegisterCommand(&mailCommand{})
	RegisterCommand(&rcptCommand{})
	RegisterCommand(&noopCommand{})
	RegisterCommand(&rsetCommand{})
	RegisterCommand(&quitCommand{})
}
