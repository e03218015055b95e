package translate

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// maxAttachments bounds how many attachments a single submission carries
// upstream, independent of how many the sender's mail client included.
const maxAttachments = 4

// Attachment is one file extracted from an inbound SMTP DATA payload,
// ready for upload via the upstream client's media endpoint.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is the result of parsing one RFC 5322 message handed to the
// SMTP DATA command into the shape the upstream status-submission API
// expects.
type Submission struct {
	Text        string
	InReplyToID string
	Attachments []Attachment
}

// Parse reads an RFC 5322 message and produces a Submission: the reply
// thread is resolved from In-Reply-To (falling back to References),
// quoted-reply preambles and object-replacement characters are removed
// from the body, and up to maxAttachments MIME parts are
// carried along as Attachments.
func Parse(raw []byte) (*Submission, error) {
	reader, err := mail.CreateReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	sub := &Submission{
		InReplyToID: resolveInReplyTo(reader.Header),
	}

	var bodyText strings.Builder
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading message part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType != "" && !strings.HasPrefix(contentType, "text/") {
				continue
			}
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("reading message text: %w", err)
			}
			bodyText.Write(data)
		case *mail.AttachmentHeader:
			if len(sub.Attachments) >= maxAttachments {
				continue
			}
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("reading attachment: %w", err)
			}
			sub.Attachments = append(sub.Attachments, Attachment{
				Filename:    filename,
				ContentType: contentType,
				Data:        data,
			})
		}
	}

	sub.Text = cleanBody(bodyText.String())
	return sub, nil
}

// cleanBody strips a quoted-reply preamble, removes the object-replacement
// character some mail clients substitute for inline images, and trims
// trailing whitespace left behind by either step.
func cleanBody(text string) string {
	text = stripQuotedReply(text)
	text = strings.ReplaceAll(text, "￼", "")
	return strings.TrimRight(text, " \t\r\n")
}

// resolveInReplyTo extracts the post ID a reply targets from In-Reply-To,
// falling back to the first entry in References when the former is absent.
// Either header's value has its last "@" and everything after it
// removed, the inverse of the Message-ID shape the translator's render side
// produces — regardless of what domain the id happens to carry, since a
// reply's In-Reply-To may point at a Message-ID minted by a different
// instance than the configured account's.
func resolveInReplyTo(h mail.Header) string {
	if ids, err := h.InReplyTo(); err == nil && len(ids) > 0 {
		return stripDomain(ids[0])
	}
	if refs, err := h.References(); err == nil && len(refs) > 0 {
		return stripDomain(refs[0])
	}
	return ""
}

// stripDomain keeps only the part of id before its last "@", matching the
// reverse of the "<post.id@domain>" Message-ID shape unconditionally.
func stripDomain(id string) string {
	if i := strings.LastIndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}
