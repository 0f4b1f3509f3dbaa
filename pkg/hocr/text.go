package hocr

import (
	"strings"
)

// ExtractText extracts all text from a document as plain text, words
// separated by spaces and lines by newlines. When repl is non-nil, entries
// keyed by word id take the place of the parsed word text.
func ExtractText(doc *Document, repl map[string]string) string {
	var builder strings.Builder

	for _, line := range doc.Page.Lines {
		for i, word := range line.Words {
			if i > 0 {
				builder.WriteString(" ")
			}
			if text, ok := repl[word.ID]; ok {
				builder.WriteString(text)
			} else {
				builder.WriteString(word.Text)
			}
		}
		builder.WriteString("\n")
	}

	return builder.String()
}
