package translate

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/miakizz/mop3gw/internal/model"
)

// createdAtLayout is the ISO-8601-with-milliseconds format Mastodon uses
// for created_at timestamps.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// Identity is the gateway account a rendered message is addressed To.
type Identity struct {
	DisplayName string
	Addr        string // local@domain
}

// MediaFetcher retrieves a media attachment's bytes and content type for
// attachment/inline delivery. Implemented over plain net/http by callers;
// kept as an interface here so the translator stays free of transport
// concerns and is easy to exercise in tests.
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaURL string) (contentType string, data []byte, err error)
}

// RenderOptions configures how a post is turned into a RenderedMessage.
type RenderOptions struct {
	Domain    string
	HTML      bool
	MediaMode MediaMode
	Fetcher   MediaFetcher // required unless MediaMode == MediaLink
}

// RenderedMessage is the byte-exact RFC 5322 form of one post, built once
// and never mutated (spec.md §3).
type RenderedMessage struct {
	Bytes  []byte
	Octets int
}

// Render builds the RenderedMessage for post, addressed to account "to".
// It selects the original or boosted content per model.Effective, then
// applies the configured text and media handling.
func Render(ctx context.Context, post *model.Post, to Identity, opts RenderOptions) (*RenderedMessage, error) {
	eff := model.Effective(post)
	outer, content := eff.Outer, eff.Content

	date, err := time.Parse(createdAtLayout, outer.CreatedAt)
	if err != nil {
		date = time.Now().UTC()
	}

	body, err := renderBody(content.Content, opts.HTML)
	if err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", fmt.Sprintf("%q <%s>", outer.Account.DisplayName, outer.Account.Acct))
	writeHeader(&buf, "To", fmt.Sprintf("%q <%s>", to.DisplayName, to.Addr))
	writeHeader(&buf, "Subject", eff.Subject)
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", fmt.Sprintf("<%s@%s>", outer.ID, opts.Domain))
	if outer.InReplyToID != nil && *outer.InReplyToID != "" {
		writeHeader(&buf, "In-Reply-To", fmt.Sprintf("<%s@%s>", *outer.InReplyToID, opts.Domain))
	}

	switch opts.MediaMode {
	case MediaAttachment, MediaInline:
		if err := writeMultipartBody(ctx, &buf, body, opts, content.MediaAttachments); err != nil {
			return nil, err
		}
	default:
		writeLinkBody(&buf, body, opts.HTML, content.MediaAttachments)
	}

	b := buf.Bytes()
	return &RenderedMessage{Bytes: b, Octets: len(b)}, nil
}

func renderBody(content string, html bool) (string, error) {
	if html {
		return normalizeCRLF(content), nil
	}
	text, err := htmlToText(content)
	if err != nil {
		return "", err
	}
	return normalizeCRLF(text), nil
}

func normalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	return s
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// writeLinkBody writes the blank header/body separator, the text body, and
// (link mode, the default) one CRLF-separated line per media URL, followed
// by exactly one trailing CRLF. Supplements original_source/src/main.rs,
// which always appended a blank separator line ahead of the media URLs:
// this implementation keeps that shape only when there is at least one
// attachment, so an empty attachment list does not leave a spurious blank
// line (spec.md's "≤ one trailing CRLF" invariant).
func writeLinkBody(buf *bytes.Buffer, body string, html bool, media []model.MediaAttachment) {
	if html {
		writeHeader(buf, "Content-Type", "text/html; charset=utf-8")
	} else {
		writeHeader(buf, "Content-Type", "text/plain; charset=utf-8")
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	if len(media) > 0 {
		buf.WriteString("\r\n")
		for _, m := range media {
			buf.WriteString(m.URL)
			buf.WriteString("\r\n")
		}
	}
	if !strings.HasSuffix(buf.String(), "\r\n") {
		buf.WriteString("\r\n")
	}
}

func writeMultipartBody(ctx context.Context, buf *bytes.Buffer, body string, opts RenderOptions, media []model.MediaAttachment) error {
	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)

	textHeader := textproto.MIMEHeader{}
	if opts.HTML {
		textHeader.Set("Content-Type", "text/html; charset=utf-8")
	} else {
		textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	}
	tw, err := mw.CreatePart(textHeader)
	if err != nil {
		return fmt.Errorf("building text part: %w", err)
	}
	if _, err := tw.Write([]byte(body)); err != nil {
		return fmt.Errorf("writing text part: %w", err)
	}

	disposition := "attachment"
	if opts.MediaMode == MediaInline {
		disposition = "inline"
	}

	for _, m := range media {
		contentType, data, err := opts.Fetcher.Fetch(ctx, m.URL)
		if err != nil {
			return fmt.Errorf("fetching attachment %s: %w", m.URL, err)
		}
		filename := filenameFromURL(m.URL)

		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, filename))
		header.Set("Content-Transfer-Encoding", "base64")

		pw, err := mw.CreatePart(header)
		if err != nil {
			return fmt.Errorf("building attachment part for %s: %w", m.URL, err)
		}
		if err := writeBase64(pw, data); err != nil {
			return fmt.Errorf("encoding attachment %s: %w", m.URL, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	writeHeader(buf, "MIME-Version", "1.0")
	writeHeader(buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()))
	buf.WriteString("\r\n")
	buf.Write(parts.Bytes())
	return nil
}

// writeBase64 writes data base64-encoded, wrapped at 76 characters per
// line with CRLF terminators, matching RFC 2045 §6.8.
func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		if _, err := w.Write([]byte(encoded + "\r\n")); err != nil {
			return err
		}
	}
	return nil
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "attachment"
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "attachment"
	}
	return base
}
