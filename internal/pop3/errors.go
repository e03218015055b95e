package pop3

import "errors"

// Protocol errors for POP3.
var (
	// ErrInvalidState names a command used outside its state. No command
	// returns it: each answers with a -ERR Response instead.
	ErrInvalidState = errors.New("command not valid in current state")

	// ErrNoUsername is returned when PASS is used before USER.
	ErrNoUsername = errors.New("username not specified")

	// ErrAuthFailed is returned when the credential fails upstream verification.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInvalidCommand names an unrecognized command. No code path returns
	// it: the handler ignores unknown verbs.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrNoSuchMessage is returned when a message number doesn't exist.
	ErrNoSuchMessage = errors.New("no such message")

	// ErrMailboxNotInitialized names mailbox access before the timeline
	// fetch has completed. No code path returns it: transaction commands
	// reject such access through their state check.
	ErrMailboxNotInitialized = errors.New("mailbox not initialized")
)
