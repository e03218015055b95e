package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifyCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/verify_credentials" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			t.Errorf("missing/wrong Authorization header: %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(Account{Username: "bob", DisplayName: "Bob", Acct: "bob"})
	}))
	defer srv.Close()

	c := New(srv.URL, "good-token")
	acct, err := c.VerifyCredentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Username != "bob" {
		t.Errorf("Username = %q", acct.Username)
	}
}

func TestVerifyCredentialsRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bad-token")
	if _, err := c.VerifyCredentials(context.Background()); err == nil {
		t.Error("expected an error for a 401 response")
	}
}

func TestHomeTimelineIncludesSinceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("since_id") != "10" {
			t.Errorf("since_id = %q, want 10", r.URL.Query().Get("since_id"))
		}
		if r.URL.Query().Get("limit") != "40" {
			t.Errorf("limit = %q, want 40", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(`[{"id":"11","content":"hi"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	posts, err := c.HomeTimeline(context.Background(), 40, "10", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "11" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestHomeTimelineAppliesFoldHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","content":"café"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	var foldedInput string
	fold := func(s string) string {
		foldedInput = s
		return strings.ReplaceAll(s, "café", "cafe")
	}
	posts, err := c.HomeTimeline(context.Background(), 40, "", fold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(foldedInput, "café") {
		t.Error("fold hook should receive the raw response text")
	}
	if posts[0].Content != "cafe" {
		t.Errorf("Content = %q, want folded result applied before parsing", posts[0].Content)
	}
}

func TestUploadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/media" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "photo.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(UploadedMedia{ID: "media-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	id, err := c.UploadMedia(context.Background(), "photo.jpg", "image/jpeg", []byte("bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "media-1" {
		t.Errorf("id = %q", id)
	}
}

func TestCreateStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/statuses" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var sub StatusSubmission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if sub.Status != "hello" {
			t.Errorf("Status = %q", sub.Status)
		}
		if sub.InReplyToID != "7" {
			t.Errorf("InReplyToID = %q", sub.InReplyToID)
		}
		_ = json.NewEncoder(w).Encode(CreatedStatus{ID: "99"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	created, err := c.CreateStatus(context.Background(), StatusSubmission{Status: "hello", InReplyToID: "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "99" {
		t.Errorf("ID = %q", created.ID)
	}
}

func TestCreateStatusRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	if _, err := c.CreateStatus(context.Background(), StatusSubmission{Status: "x"}); err == nil {
		t.Error("expected an error for a 422 response")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("pngbytes"))
	}))
	defer srv.Close()

	c := New("", "")
	contentType, data, err := c.Fetch(context.Background(), srv.URL+"/media/a.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q", contentType)
	}
	if string(data) != "pngbytes" {
		t.Errorf("data = %q", data)
	}
}
