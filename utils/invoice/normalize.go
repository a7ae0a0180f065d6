package invoice

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpaceRegex = regexp.MustCompile(`[\t\f\v \x{00A0}\x{2000}-\x{200B}\x{202F}\x{3000}]+`)
	blankRunRegex        = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes OCR text: NFKC, LF line endings, single spaces,
// trimmed lines and at most one blank line between blocks.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := norm.NFKC.String(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// Document is the ordered list of non-empty lines of one normalized text.
type Document struct {
	Lines []string
	Text  string
	lower []string
}

// NewDocument splits normalized text into its non-empty lines.
func NewDocument(text string) Document {
	doc := Document{Text: text}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		doc.Lines = append(doc.Lines, line)
		doc.lower = append(doc.lower, strings.ToLower(line))
	}
	return doc
}

// Len is the number of lines.
func (d Document) Len() int { return len(d.Lines) }

func (d Document) lowerAt(i int) string {
	if i < len(d.lower) {
		return d.lower[i]
	}
	return strings.ToLower(d.Lines[i])
}
