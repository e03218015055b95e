package translate

// MediaMode selects how a post's media attachments are carried into the
// rendered RFC 5322 message. This is a three-valued tag rather than the
// original --attachment/--inline boolean pair (REDESIGN FLAGS: "boolean
// sum of delivery modes"), so the mutual exclusivity is enforced by the
// type system instead of by convention.
type MediaMode int

const (
	// MediaLink appends each attachment's URL as a body line (the default).
	MediaLink MediaMode = iota
	// MediaAttachment fetches and attaches each file as a MIME part.
	MediaAttachment
	// MediaInline is identical to MediaAttachment but marks each part
	// Content-Disposition: inline.
	MediaInline
)

func (m MediaMode) String() string {
	switch m {
	case MediaAttachment:
		return "attachment"
	case MediaInline:
		return "inline"
	default:
		return "link"
	}
}
