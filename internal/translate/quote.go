package translate

import "regexp"

// quotedReplyRe recognizes the "On <date>, <name> wrote:" preamble that a
// defined set of English-language mail clients insert ahead of quoted
// prior text. Borrowed verbatim (pattern, not implementation) from the
// open-source library the original gateway used for this; intentionally
// narrow — broader language support is an explicit non-goal.
var quotedReplyRe = regexp.MustCompile(`(?m)-*\s*(On\s.+\s.+\n?wrote:?)\s?-*$`)

// stripQuotedReply truncates text at the start of a detected quoted-reply
// preamble, leaving only what the sender actually typed. Text with no
// match is returned unchanged.
func stripQuotedReply(text string) string {
	loc := quotedReplyRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]]
}
