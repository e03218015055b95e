package smtp

import "errors"

// Protocol errors for SMTP.
var (
	// ErrNoReversePath names RCPT TO or DATA attempted before MAIL FROM. No
	// code path returns it: the handler accepts both without a reverse path.
	ErrNoReversePath = errors.New("no reverse path set")

	// ErrSubmissionFailed names a failed translation or upstream submission.
	// No code path returns it: submit wraps the underlying error instead.
	ErrSubmissionFailed = errors.New("submission failed")
)
