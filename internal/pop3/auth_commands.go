package pop3

import (
	"context"
	"fmt"
)

// capaCommand implements the CAPA command (RFC 2449).
type capaCommand struct{}

func (c *capaCommand) Name() string { return "CAPA" }

func (c *capaCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if len(args) > 0 {
		return Response{OK: false, Message: "CAPA takes no arguments"}, nil
	}
	return Response{
		OK:      true,
		Message: "Capability list follows",
		Lines:   []string{"USER", "TOP", "UIDL", "RESP-CODES"},
	}, nil
}

// userCommand implements the USER command (RFC 1939).
type userCommand struct{}

func (u *userCommand) Name() string { return "USER" }

func (u *userCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateAuthorization {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if len(args) != 1 || args[0] == "" {
		return Response{OK: false, Message: "USER requires a username argument"}, nil
	}

	sess.SetUsername(args[0])
	return Response{OK: true, Message: fmt.Sprintf("user %s accepted", args[0])}, nil
}

// passCommand implements the PASS command (RFC 1939). On success it runs
// the login pipeline: verify the credential upstream, then fetch and
// render the home timeline (spec.md §4.1).
type passCommand struct{}

func (p *passCommand) Name() string { return "PASS" }

func (p *passCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateAuthorization {
		return Response{OK: false, Message: "command not valid in this state"}, nil
	}
	if !sess.HasUsername() {
		return Response{OK: false, Message: "no username specified"}, nil
	}
	if len(args) != 1 {
		return Response{OK: false, Message: "PASS requires a password argument"}, nil
	}

	sess.SetPassword(args[0])

	if err := sess.Authenticate(ctx); err != nil {
		conn.Logger().Info("login failed", "username", sess.Username(), "error", err.Error())
		return Response{OK: false, Message: "authentication failed"}, nil
	}

	conn.Logger().Info("login succeeded", "username", sess.Username(), "messages", sess.MessageCount())
	return Response{OK: true, Message: "MOP3 READY, MESSAGES FETCHED"}, nil
}

// quitCommand implements the QUIT command (RFC 1939).
type quitCommand struct{}

func (q *quitCommand) Name() string { return "QUIT" }

func (q *quitCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if len(args) > 0 {
		return Response{OK: false, Message: "QUIT takes no arguments"}, nil
	}

	message := "goodbye"
	if sess.State() == StateTransaction {
		sess.EnterUpdate()
		message = "logging out"
	}

	return Response{OK: true, Message: message}, nil
}

// apopCommand rejects APOP (RFC 1939 §7): the upstream credential is a
// bearer token, not a shared secret a challenge-response scheme can work
// against, so APOP has nothing to authenticate against.
type apopCommand struct{}

func (a *apopCommand) Name() string { return "APOP" }

func (a *apopCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	return Response{OK: false, Message: "APOP not supported"}, nil
}

// authCommand rejects AUTH (RFC 5034): no SASL mechanism is implemented,
// USER/PASS is the only login path.
type authCommand struct{}

func (a *authCommand) Name() string { return "AUTH" }

func (a *authCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	return Response{OK: false, Message: "AUTH not supported"}, nil
}

// RegisterAuthCommands registers all authentication-related commands.
func RegisterAuthCommands() {
	RegisterCommand(&capaCommand{})
	RegisterCommand(&userCommand{})
	RegisterCommand(&passCommand{})
	RegisterCommand(&authCommand{})
	RegisterCommand(&apopCommand{})
	RegisterCommand(&quitCommand{})
}
