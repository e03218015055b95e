package smtp

import (
	"strings"

	"github.com/miakizz/mop3gw/internal/translate"
	"github.com/miakizz/mop3gw/internal/upstream"
)

// Options carries the CLI-level configuration shared by every SMTP
// session. Unlike POP3, the SMTP server has no per-session credential:
// the account and token are both mandatory CLI values (spec.md §4.2).
type Options struct {
	Account   string
	Token     string
	HTML      bool
	MediaMode translate.MediaMode
	Fetcher   translate.MediaFetcher
	Client    *upstream.Client
	Domain    string
}

// Session holds the envelope state for one SMTP transaction. A session
// may carry multiple transactions (MAIL/RCPT/DATA, then RSET or another
// MAIL), matching RFC 5321's session model, but this gateway serves one
// transaction per connection in practice since clients disconnect after
// DATA completes.
type Session struct {
	opts Options

	reversePath string
	forwardPath []string
}

// NewSession creates a new SMTP session.
func NewSession(opts Options) *Session {
	return &Session{opts: opts}
}

// SetReversePath records the MAIL FROM address.
func (s *Session) SetReversePath(addr string) {
	s.reversePath = addr
}

// ReversePath returns the current MAIL FROM address, or "" if none is set.
func (s *Session) ReversePath() string {
	return s.reversePath
}

// AddForwardPath records an RCPT TO address. Parsed but unused: the
// gateway always submits to the single configured account (spec.md §4.2).
func (s *Session) AddForwardPath(addr string) {
	s.forwardPath = append(s.forwardPath, addr)
}

// Reset clears the envelope state (RSET, or after a DATA transaction completes).
func (s *Session) Reset() {
	s.reversePath = ""
	s.forwardPath = nil
}

// extractAddr pulls the bracketed token out of "MAIL FROM:<addr>" /
// "RCPT TO:<addr>"-shaped argument text; falls back to the raw argument
// when no angle brackets are present.
func extractAddr(arg string) string {
	start := strings.IndexByte(arg, '<')
	end := strings.IndexByte(arg, '>')
	if start >= 0 && end > start {
		return arg[start+1 : end]
	}
	return strings.TrimSpace(arg)
}
