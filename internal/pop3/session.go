package pop3

import (
	"context"
	"fmt"

	"github.com/miakizz/mop3gw/internal/credential"
	"github.com/miakizz/mop3gw/internal/model"
	"github.com/miakizz/mop3gw/internal/recentid"
	"github.com/miakizz/mop3gw/internal/translate"
	"github.com/miakizz/mop3gw/internal/upstream"
)

// State represents the current state in the POP3 state machine.
type State int

const (
	// StateAuthorization is the initial state where authentication is required.
	StateAuthorization State = iota

	// StateTransaction is the state after successful authentication and
	// timeline fetch.
	StateTransaction

	// StateUpdate is the state after QUIT from Transaction.
	StateUpdate
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAuthorization:
		return "AUTHORIZATION"
	case StateTransaction:
		return "TRANSACTION"
	case StateUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Options carries the CLI-level configuration a Session needs to run the
// login pipeline (spec.md §4.1). CLI-provided account/token always take
// precedence over values received on the wire.
type Options struct {
	Account     string // CLI override; empty means "use what USER supplies"
	Token       string // CLI override; empty means "use what PASS supplies"
	ASCII       bool
	HTML        bool
	MediaMode   translate.MediaMode
	Fetcher     translate.MediaFetcher
	RecentID    *recentid.Cell
	NewUpstream func(baseURL, token string) *upstream.Client
}

// Session represents a single POP3 session: the wire-level USER/PASS
// dance followed by a one-shot upstream timeline fetch and render.
type Session struct {
	opts Options

	hostname string
	state    State

	username string
	password string

	domain string

	messages     []*translate.RenderedMessage
	posts        []model.Post
	retrievedAny bool
}

// NewSession creates a new POP3 session.
func NewSession(hostname string, opts Options) *Session {
	return &Session{
		opts:     opts,
		hostname: hostname,
		state:    StateAuthorization,
	}
}

// State returns the current POP3 state.
func (s *Session) State() State {
	return s.state
}

// SetUsername stores the username from the USER command.
func (s *Session) SetUsername(username string) {
	s.username = username
}

// Username returns the effective account handle: the CLI override if one
// was configured, otherwise whatever USER supplied.
func (s *Session) Username() string {
	if s.opts.Account != "" {
		return s.opts.Account
	}
	return s.username
}

// HasUsername reports whether a USER (or CLI override) is available.
func (s *Session) HasUsername() bool {
	return s.Username() != ""
}

// SetPassword stores the token from the PASS command.
func (s *Session) SetPassword(password string) {
	s.password = password
}

// Token returns the effective bearer token: the CLI override if one was
// configured, otherwise whatever PASS supplied.
func (s *Session) Token() string {
	if s.opts.Token != "" {
		return s.opts.Token
	}
	return s.password
}

// Authenticate verifies the effective credential against the upstream,
// and on success fetches and renders the home timeline (spec.md §4.1
// steps 2-4). It transitions to StateTransaction only when both the
// credential check and timeline fetch succeed.
func (s *Session) Authenticate(ctx context.Context) error {
	if !s.HasUsername() {
		return ErrNoUsername
	}

	s.domain = credential.DomainOf(s.Username())
	client := s.opts.NewUpstream(credential.BaseURL(s.domain), s.Token())

	account, err := client.VerifyCredentials(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	var fold func(string) string
	if s.opts.ASCII {
		fold = translate.Deunicode
	}

	sinceID := ""
	if s.opts.RecentID != nil {
		sinceID = s.opts.RecentID.Get()
	}

	posts, err := client.HomeTimeline(ctx, 40, sinceID, fold)
	if err != nil {
		return fmt.Errorf("fetching timeline: %w", err)
	}

	identity := translate.Identity{
		DisplayName: account.DisplayName,
		Addr:        fmt.Sprintf("%s@%s", account.Username, s.domain),
	}
	renderOpts := translate.RenderOptions{
		Domain:    s.domain,
		HTML:      s.opts.HTML,
		MediaMode: s.opts.MediaMode,
		Fetcher:   s.opts.Fetcher,
	}

	messages := make([]*translate.RenderedMessage, 0, len(posts))
	for i := range posts {
		rendered, err := translate.Render(ctx, &posts[i], identity, renderOpts)
		if err != nil {
			return fmt.Errorf("rendering post %s: %w", posts[i].ID, err)
		}
		messages = append(messages, rendered)
	}

	s.posts = posts
	s.messages = messages
	s.state = StateTransaction
	return nil
}

// EnterUpdate transitions to StateUpdate (called when QUIT is received in Transaction).
func (s *Session) EnterUpdate() {
	if s.state == StateTransaction {
		s.state = StateUpdate
	}
}

// MessageCount returns the count of messages in the snapshot. DELE never
// changes this: it is accepted but inert (spec.md §4.1 Non-goals).
func (s *Session) MessageCount() int {
	return len(s.messages)
}

// TotalSize returns the total octets of all messages in the snapshot.
func (s *Session) TotalSize() int {
	total := 0
	for _, m := range s.messages {
		total += m.Octets
	}
	return total
}

// GetMessage returns the rendered message by 1-based message number.
func (s *Session) GetMessage(msgNum int) (*translate.RenderedMessage, error) {
	if msgNum < 1 || msgNum > len(s.messages) {
		return nil, ErrNoSuchMessage
	}
	return s.messages[msgNum-1], nil
}

// UID returns the stable unique identifier for message number i:
// "<post id>@<domain>", per spec.md §4.1.
func (s *Session) UID(msgNum int) (string, error) {
	if msgNum < 1 || msgNum > len(s.posts) {
		return "", ErrNoSuchMessage
	}
	return fmt.Sprintf("%s@%s", s.posts[msgNum-1].ID, s.domain), nil
}

// NoteRetrieval records RecentId on the first successful RETR of the
// session, using the id of the newest post in the snapshot (index 0),
// per spec.md §3/§4.1.
func (s *Session) NoteRetrieval() {
	if s.retrievedAny || len(s.posts) == 0 || s.opts.RecentID == nil {
		return
	}
	s.retrievedAny = true
	s.opts.RecentID.Set(s.posts[0].ID)
}

// AllMessages returns the 1-based message numbers of every message in the
// snapshot, in order, for LIST/UIDL with no argument.
func (s *Session) AllMessages() []int {
	nums := make([]int, len(s.messages))
	for i := range s.messages {
		nums[i] = i + 1
	}
	return nums
}
