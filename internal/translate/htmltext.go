package translate

import (
	"strings"

	"github.com/jaytaylor/html2text"
)

// bodyWrapColumn matches the original gateway's html2text call, which
// wrapped rendered post bodies at 78 columns.
const bodyWrapColumn = 78

// htmlToText renders an HTML content fragment to plain text and wraps it
// at bodyWrapColumn, the thin HTML-to-text dependency spec.md §1 scopes
// out of this component's responsibility.
func htmlToText(htmlFragment string) (string, error) {
	text, err := html2text.FromString(htmlFragment, html2text.Options{
		PrettyTables: false,
		OmitLinks:    false,
	})
	if err != nil {
		return "", err
	}
	return wrapText(text, bodyWrapColumn), nil
}

// wrapText greedily wraps s at width columns, preserving existing blank
// lines (paragraph breaks) rather than collapsing them.
func wrapText(s string, width int) string {
	paragraphs := strings.Split(s, "\n")
	wrapped := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		wrapped = append(wrapped, wrapLine(p, width))
	}
	return strings.Join(wrapped, "\n")
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i > 0 {
			if lineLen+1+len(w) > width {
				b.WriteString("\n")
				lineLen = 0
			} else {
				b.WriteString(" ")
				lineLen++
			}
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}
