package smtp

import (
	"context"
	"testing"
)

func TestHeloReturnsBanner(t *testing.T) {
	cmd := &heloCommand{banner: "mail.example"}
	resp, err := cmd.Execute(context.Background(), NewSession(Options{}), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != 250 || len(resp.Lines) != 1 || resp.Lines[0] != "mail.example" {
		t.Errorf("got %+v", resp)
	}
}

func TestEhloAdvertisesSize(t *testing.T) {
	cmd := &ehloCommand{banner: "mail.example"}
	resp, _ := cmd.Execute(context.Background(), NewSession(Options{}), nil, "")
	if len(resp.Lines) != 3 || resp.Lines[1] != "SIZE 5000000" {
		t.Errorf("got %+v", resp)
	}
}

func TestMailSetsReversePath(t *testing.T) {
	sess := NewSession(Options{})
	if _, err := (&mailCommand{}).Execute(context.Background(), sess, nil, "FROM:<a@b.example>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ReversePath() != "a@b.example" {
		t.Errorf("ReversePath() = %q", sess.ReversePath())
	}
}

func TestRsetCommandClearsEnvelope(t *testing.T) {
	sess := NewSession(Options{})
	sess.SetReversePath("a@b.example")
	if _, err := (&rsetCommand{}).Execute(context.Background(), sess, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ReversePath() != "" {
		t.Error("RSET should clear the reverse path")
	}
}

func TestQuitCommandCode(t *testing.T) {
	resp, _ := (&quitCommand{}).Execute(context.Background(), NewSession(Options{}), nil, "")
	if resp.Code != 221 {
		t.Errorf("Code = %d, want 221", resp.Code)
	}
}
