package model

import "testing"

func TestEffectiveOriginalPost(t *testing.T) {
	p := &Post{ID: "1", Content: "hello"}
	eff := Effective(p)
	if eff.Outer != p {
		t.Error("Effective() of a non-boost should use the post itself as Outer")
	}
	if eff.Content != p {
		t.Error("Effective() of a non-boost should use the post itself as Content")
	}
	if eff.Subject != "Post" {
		t.Errorf("Subject = %q, want %q", eff.Subject, "Post")
	}
}

func TestEffectiveBoost(t *testing.T) {
	original := &Post{ID: "1", Content: "original text"}
	boost := &Post{ID: "2", Reblog: original}

	eff := Effective(boost)
	if eff.Outer != boost {
		t.Error("Effective() of a boost should keep the outer post's identity")
	}
	if eff.Content != original {
		t.Error("Effective() of a boost should take content from the reblogged post")
	}
	if eff.Subject != "Boost" {
		t.Errorf("Subject = %q, want %q", eff.Subject, "Boost")
	}
}
