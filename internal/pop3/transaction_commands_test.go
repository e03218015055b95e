package pop3

import (
	"context"
	"log/slog"
	"testing"

	"github.com/miakizz/mop3gw/internal/model"
	"github.com/miakizz/mop3gw/internal/recentid"
	"github.com/miakizz/mop3gw/internal/translate"
)

// testLogger satisfies ConnectionLogger without a real connection.
type testLogger struct{ logger *slog.Logger }

func (t *testLogger) Logger() *slog.Logger { return t.logger }

func newTestConn() ConnectionLogger {
	return &testLogger{logger: slog.Default()}
}

// newFixtureSession builds a Session already in StateTransaction with
// three rendered messages, skipping the network-backed Authenticate path.
func newFixtureSession() *Session {
	return &Session{
		opts:  Options{RecentID: nil},
		state: StateTransaction,
		domain: "example.social",
		posts: []model.Post{
			{ID: "1"}, {ID: "2"}, {ID: "3"},
		},
		messages: []*translate.RenderedMessage{
			{Bytes: []byte("Subject: one\r\n\r\nbody one\r\n"), Octets: 26},
			{Bytes: []byte("Subject: two\r\n\r\nbody two\r\n"), Octets: 26},
			{Bytes: []byte("Subject: three\r\n\r\nbody three line 1\r\nbody line 2\r\n"), Octets: 50},
		},
	}
}

func TestStatCommand(t *testing.T) {
	sess := newFixtureSession()
	resp, err := (&statCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK || resp.Message != "3 102" {
		t.Errorf("got %+v", resp)
	}
}

func TestStatCommandWrongState(t *testing.T) {
	sess := newFixtureSession()
	sess.state = StateAuthorization
	resp, _ := (&statCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if resp.OK {
		t.Error("STAT should fail outside TRANSACTION")
	}
}

func TestListCommandAll(t *testing.T) {
	sess := newFixtureSession()
	resp, err := (&listCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(resp.Lines))
	}
	if resp.Lines[0] != "1 26" {
		t.Errorf("lines[0] = %q", resp.Lines[0])
	}
}

func TestListCommandSingle(t *testing.T) {
	sess := newFixtureSession()
	resp, _ := (&listCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"2"})
	if !resp.OK || resp.Message != "2 26" {
		t.Errorf("got %+v", resp)
	}
}

func TestListCommandOutOfRange(t *testing.T) {
	sess := newFixtureSession()
	resp, _ := (&listCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"99"})
	if resp.OK {
		t.Error("LIST 99 should fail: no such message")
	}
	if resp.Message != "no such message" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestRetrCommandByteExact(t *testing.T) {
	sess := newFixtureSession()
	resp, err := (&retrCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Raw != "Subject: one\r\n\r\nbody one\r\n" {
		t.Errorf("Raw = %q", resp.Raw)
	}
	if resp.Lines != nil {
		t.Error("RETR must not populate Lines; it should bypass dot-stuffing")
	}
}

func TestRetrCommandRecordsRecentID(t *testing.T) {
	sess := newFixtureSession()
	sess.opts.RecentID = recentid.New()

	if _, err := (&retrCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.retrievedAny {
		t.Error("first RETR should mark retrievedAny")
	}
	if got := sess.opts.RecentID.Get(); got != "1" {
		t.Errorf("RecentID = %q, want newest post id %q", got, "1")
	}
}

func TestDeleIsInertOnListAndRetr(t *testing.T) {
	sess := newFixtureSession()
	resp, err := (&deleCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK {
		t.Error("DELE should always report +OK")
	}

	listResp, _ := (&listCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if len(listResp.Lines) != 3 {
		t.Fatalf("DELE must not remove the message from LIST, got %d lines", len(listResp.Lines))
	}

	if _, err := sess.GetMessage(2); err != nil {
		t.Errorf("GetMessage(2) after DELE = %v, want message still retrievable", err)
	}
}

func TestDeleTwiceBothSucceed(t *testing.T) {
	sess := newFixtureSession()
	if _, err := (&deleCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := (&deleCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK {
		t.Error("DELE has no state to conflict with, so repeating it should still succeed")
	}
}

func TestRsetReportsUnchangedMessageCount(t *testing.T) {
	sess := newFixtureSession()
	if _, err := (&deleCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := (&rsetCommand{}).Execute(context.Background(), sess, newTestConn(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.MessageCount() != 3 {
		t.Errorf("MessageCount() after RSET = %d, want 3", sess.MessageCount())
	}
}

func TestUidlAll(t *testing.T) {
	sess := newFixtureSession()
	resp, _ := (&uidlCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if len(resp.Lines) != 3 || resp.Lines[0] != "1 1@example.social" {
		t.Errorf("got %+v", resp.Lines)
	}
}

func TestUidlSingle(t *testing.T) {
	sess := newFixtureSession()
	resp, _ := (&uidlCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"3"})
	if !resp.OK || resp.Message != "3 3@example.social" {
		t.Errorf("got %+v", resp)
	}
}

func TestTopTruncatesBodyOnly(t *testing.T) {
	sess := newFixtureSession()
	resp, err := (&topCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"3", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Subject: three\r\n\r\nbody three line 1\r\n"
	if resp.Raw != want {
		t.Errorf("Raw = %q, want %q", resp.Raw, want)
	}
}

func TestTopZeroLinesKeepsHeadersOnly(t *testing.T) {
	sess := newFixtureSession()
	resp, _ := (&topCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"1", "0"})
	want := "Subject: one\r\n\r\n"
	if resp.Raw != want {
		t.Errorf("Raw = %q, want %q", resp.Raw, want)
	}
}

func TestNoopTakesNoArgs(t *testing.T) {
	sess := newFixtureSession()
	resp, _ := (&noopCommand{}).Execute(context.Background(), sess, newTestConn(), []string{"x"})
	if resp.OK {
		t.Error("NOOP with arguments should fail")
	}
}

func TestAllMessagesEmptyMailbox(t *testing.T) {
	sess := &Session{state: StateTransaction}
	resp, _ := (&listCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if !resp.OK || len(resp.Lines) != 0 {
		t.Errorf("LIST on empty mailbox = %+v", resp)
	}
	statResp, _ := (&statCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	if statResp.Message != "0 0" {
		t.Errorf("STAT on empty mailbox = %q", statResp.Message)
	}
}

// TestListEmptyMailboxStillTerminates is the regression for spec.md §8
// scenario 1: an empty mailbox's LIST must still send the ".\r\n"
// terminator, not just the status line, or a real client hangs waiting
// for it.
func TestListEmptyMailboxStillTerminates(t *testing.T) {
	sess := &Session{state: StateTransaction}
	resp, _ := (&listCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	want := "+OK 0 messages (0 octets)\r\n.\r\n"
	if got := resp.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestUidlEmptyMailboxStillTerminates(t *testing.T) {
	sess := &Session{state: StateTransaction}
	resp, _ := (&uidlCommand{}).Execute(context.Background(), sess, newTestConn(), nil)
	want := "+OK\r\n.\r\n"
	if got := resp.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
