// Package upstream is the Mastodon HTTP/JSON client. It is deliberately
// thin: four blocking API operations, each bearer-token authenticated, each
// returning a typed result or a wrapped error, plus Fetch, an
// unauthenticated download of a media URL. Nothing here knows about
// POP3, SMTP, or RFC 5322 — that translation happens in internal/translate.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/miakizz/mop3gw/internal/model"
)

// Client talks to a single Mastodon-compatible instance on behalf of one
// bearer token. It is safe to share across goroutines; it holds no mutable
// state of its own.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the instance at baseURL ("https://example.com",
// no trailing slash) authenticating with token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Account is the subset of /api/v1/accounts/verify_credentials consumed by
// the gateway.
type Account struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Acct        string `json:"acct"`
}

// VerifyCredentials confirms the bearer token is valid and returns the
// authenticated account's identity.
func (c *Client) VerifyCredentials(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.getJSON(ctx, "/api/v1/accounts/verify_credentials", nil, &acct); err != nil {
		return nil, fmt.Errorf("verify_credentials: %w", err)
	}
	return &acct, nil
}

// HomeTimeline fetches up to limit posts from the authenticated user's home
// timeline, optionally bounded to posts newer than sinceID (empty means
// unbounded). fold, when non-nil, is applied to the raw JSON text before
// it is parsed — the hook the gateway's --ascii flag uses to deunicode the
// upstream response ahead of rendering (spec step 4.1.3).
func (c *Client) HomeTimeline(ctx context.Context, limit int, sinceID string, fold func(string) string) ([]model.Post, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if sinceID != "" {
		q.Set("since_id", sinceID)
	}
	body, err := c.get(ctx, "/api/v1/timelines/home", q)
	if err != nil {
		return nil, fmt.Errorf("timelines/home: %w", err)
	}
	text := string(body)
	if fold != nil {
		text = fold(text)
	}
	var posts []model.Post
	if err := json.Unmarshal([]byte(text), &posts); err != nil {
		return nil, fmt.Errorf("timelines/home: malformed response: %w", err)
	}
	return posts, nil
}

// UploadedMedia is the subset of /api/v2/media's response consumed here.
type UploadedMedia struct {
	ID string `json:"id"`
}

// UploadMedia posts a single file (filename + content-type known from the
// translator) and returns the upstream media id to reference from a status.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, content []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("media upload: build form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("media upload: write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("media upload: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/media", &body)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("media upload: reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("media upload: %s: %s", resp.Status, truncate(respBody, 256))
	}

	var uploaded UploadedMedia
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return "", fmt.Errorf("media upload: malformed response: %w", err)
	}
	return uploaded.ID, nil
}

// Fetch downloads a media attachment's bytes directly from its (typically
// public, CDN-hosted) URL. It implements translate.MediaFetcher structurally;
// this package does not import internal/translate to avoid a cycle.
func (c *Client) Fetch(ctx context.Context, mediaURL string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("fetch media: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", nil, fmt.Errorf("fetch media: reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("fetch media: %s: %s", resp.Status, truncate(body, 256))
	}

	return resp.Header.Get("Content-Type"), body, nil
}

// StatusSubmission is the request body for POST /api/v1/statuses.
type StatusSubmission struct {
	Status      string   `json:"status"`
	InReplyToID string   `json:"in_reply_to_id,omitempty"`
	MediaIDs    []string `json:"media_ids,omitempty"`
}

// CreatedStatus is the subset of the statuses response consumed here.
type CreatedStatus struct {
	ID string `json:"id"`
}

// CreateStatus submits a new post (optionally a reply, optionally with
// attached media) and returns the upstream status id.
func (c *Client) CreateStatus(ctx context.Context, sub StatusSubmission) (*CreatedStatus, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("create status: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/statuses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("create status: reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create status: %s: %s", resp.Status, truncate(body, 256))
	}

	var created CreatedStatus
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("create status: malformed response: %w", err)
	}
	return &created, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", resp.Status, truncate(body, 256))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
