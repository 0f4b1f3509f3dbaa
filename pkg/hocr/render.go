package hocr

import (
	"bytes"

	"golang.org/x/net/html"
)

// Render materializes the document with the given replacement texts applied,
// keyed by word id. Every byte outside a replaced word's text content is
// reproduced exactly as it appeared in the source. Words whose replacement
// equals their parsed text are left untouched, so an empty or no-op
// replacement map returns the source bytes unchanged.
func (d *Document) Render(repl map[string]string) []byte {
	return splice(d.raw, d.textSpans(repl, 0))
}

// RenderPage materializes only the page element region, with replacements
// applied. Used to concatenate pages from several documents into one file.
func (d *Document) RenderPage(repl map[string]string) []byte {
	return splice(d.raw[d.pageStart:d.pageEnd], d.textSpans(repl, d.pageStart))
}

// Prefix returns the verbatim source bytes before the page element:
// DOCTYPE, html and head markup, body open tag.
func (d *Document) Prefix() []byte {
	out := make([]byte, d.pageStart)
	copy(out, d.raw[:d.pageStart])
	return out
}

// Suffix returns the verbatim source bytes after the page element.
func (d *Document) Suffix() []byte {
	out := make([]byte, len(d.raw)-d.pageEnd)
	copy(out, d.raw[d.pageEnd:])
	return out
}

// textSpan is one replacement region, offsets relative to the rendered slice.
type textSpan struct {
	start, end int
	text       string
}

// textSpans collects the byte spans of words whose replacement text differs
// from their parsed text. Spans come out in document order because words are
// collected in source order during parsing.
func (d *Document) textSpans(repl map[string]string, base int) []textSpan {
	if len(repl) == 0 {
		return nil
	}
	var spans []textSpan
	for _, line := range d.Page.Lines {
		for _, word := range line.Words {
			text, ok := repl[word.ID]
			if !ok || text == word.Text {
				continue
			}
			spans = append(spans, textSpan{
				start: word.textStart - base,
				end:   word.textEnd - base,
				text:  html.EscapeString(text),
			})
		}
	}
	return spans
}

func splice(src []byte, spans []textSpan) []byte {
	if len(spans) == 0 {
		out := make([]byte, len(src))
		copy(out, src)
		return out
	}
	var buf bytes.Buffer
	prev := 0
	for _, s := range spans {
		buf.Write(src[prev:s.start])
		buf.WriteString(s.text)
		prev = s.end
	}
	buf.Write(src[prev:])
	return buf.Bytes()
}
