package hocr

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// ParseError describes why an hOCR document could not be parsed and
// where in the source bytes the problem was found.
type ParseError struct {
	Reason string // Human-readable description
	Offset int    // Byte offset into the (decoded) source
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("hocr: %s at byte %d", e.Reason, e.Offset)
}

// ParseFile reads and parses an hOCR file, recording its path and
// modification time on the returned Document.
func ParseFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	doc.Filename = filepath.Base(path)
	doc.Modified = info.ModTime()
	return doc, nil
}

// Parse converts raw hOCR data into a Document.
//
// The three recognized node classes (ocr_page, ocr_line, ocrx_word) are
// identified by their class attribute, not by tag name. Everything else is
// left untouched in the retained source bytes, so Render can reproduce it
// exactly. Word text byte spans are recorded during the walk; that is what
// keeps export a pure splice over the original bytes.
func Parse(data []byte) (*Document, error) {
	decoded, err := decodeCharset(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{raw: decoded}

	z := html.NewTokenizer(bytes.NewReader(decoded))
	pos := 0

	var (
		pageSeen  bool
		inPage    bool
		pageDepth int

		inLine    bool
		lineDepth int
		curLine   Line

		inWord        bool
		wordDepth     int
		curWord       Word
		wordTextStart int
		wordText      strings.Builder

		seenIDs = make(map[string]bool)
	)

	for {
		tt := z.Next()
		raw := z.Raw()
		tokStart := pos
		pos += len(raw)

		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return nil, &ParseError{Reason: z.Err().Error(), Offset: tokStart}
			}
			if inWord || inLine || inPage {
				return nil, &ParseError{Reason: "unexpected end of input inside page content", Offset: tokStart}
			}
			if !pageSeen {
				return nil, &ParseError{Reason: "no ocr_page element found", Offset: 0}
			}
			return doc, nil

		case html.DoctypeToken:
			doc.Doctype = string(raw)

		case html.TextToken:
			if inWord {
				wordText.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			closed := tt == html.SelfClosingTagToken || voidElements[tok.Data]

			if inWord {
				// Inline markup inside a word (sup, strong, ...) is
				// part of the word's content span.
				if !closed {
					wordDepth++
				}
				continue
			}

			cls := attrVal(tok, "class")
			switch {
			case !inPage && strings.Contains(cls, "ocr_page") && !pageSeen:
				bbox, perr := requireBBox(tok, "page", tokStart)
				if perr != nil {
					return nil, perr
				}
				doc.Page = Page{ID: attrVal(tok, "id"), BBox: bbox}
				doc.pageStart = tokStart
				pageSeen = true
				if closed {
					doc.pageEnd = pos
				} else {
					inPage = true
					pageDepth = 0
				}

			case inPage && strings.Contains(cls, "ocr_line") && !inLine:
				bbox, perr := requireBBox(tok, "line", tokStart)
				if perr != nil {
					return nil, perr
				}
				curLine = Line{ID: attrVal(tok, "id"), BBox: bbox}
				if closed {
					doc.Page.Lines = append(doc.Page.Lines, curLine)
				} else {
					inLine = true
					lineDepth = 0
				}

			case inPage && strings.Contains(cls, "ocrx_word"):
				id := attrVal(tok, "id")
				if id == "" {
					// Words without an identity cannot be correlated or
					// edited; they stay verbatim in the source bytes.
					if !closed {
						countOpen(inLine, &lineDepth, &pageDepth)
					}
					continue
				}
				if closed {
					return nil, &ParseError{
						Reason: fmt.Sprintf("word %q is self-closing and has no text content", id),
						Offset: tokStart,
					}
				}
				if seenIDs[id] {
					return nil, &ParseError{
						Reason: fmt.Sprintf("duplicate word id %q", id),
						Offset: tokStart,
					}
				}
				seenIDs[id] = true

				bbox, perr := requireBBox(tok, fmt.Sprintf("word %q", id), tokStart)
				if perr != nil {
					return nil, perr
				}
				curWord = Word{ID: id, BBox: bbox, Confidence: -1}
				props := ParseTitle(attrVal(tok, "title"))
				if conf, ok := props["x_wconf"]; ok && len(conf) > 0 {
					if n, err := strconv.Atoi(conf[0]); err == nil {
						curWord.Confidence = n
					}
				}
				if font, ok := props["x_font"]; ok && len(font) > 0 {
					curWord.Font = strings.Join(font, " ")
				}
				inWord = true
				wordDepth = 0
				wordTextStart = pos
				wordText.Reset()

			default:
				if inPage && !closed {
					countOpen(inLine, &lineDepth, &pageDepth)
				}
			}

		case html.EndTagToken:
			switch {
			case inWord:
				if wordDepth > 0 {
					wordDepth--
					continue
				}
				curWord.textStart = wordTextStart
				curWord.textEnd = tokStart
				curWord.Text = strings.TrimSpace(wordText.String())
				if inLine {
					curLine.Words = append(curLine.Words, curWord)
				}
				inWord = false

			case inLine:
				if lineDepth > 0 {
					lineDepth--
					continue
				}
				doc.Page.Lines = append(doc.Page.Lines, curLine)
				inLine = false

			case inPage:
				if pageDepth > 0 {
					pageDepth--
					continue
				}
				doc.pageEnd = pos
				inPage = false
			}
		}
	}
}

// ParseTitle breaks down an hOCR title attribute into its components.
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	parts := strings.Split(title, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		items := strings.Fields(part)
		if len(items) > 0 {
			key := items[0]
			values := items[1:]
			result[key] = values
		}
	}

	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string.
// Returns nil if the title carries no parseable bbox property.
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	props := ParseTitle(title)
	bbox, ok := props["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	coords := make([]int, 4)
	for i := 0; i < 4; i++ {
		n, err := strconv.Atoi(bbox[i])
		if err != nil {
			return nil
		}
		coords[i] = n
	}
	result := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
	return &result
}

// requireBBox extracts the mandatory bbox from a recognized element's title
// attribute and checks that it has positive extent.
func requireBBox(tok html.Token, what string, offset int) (BoundingBox, *ParseError) {
	bbox := ParseBoundingBoxFromTitle(attrVal(tok, "title"))
	if bbox == nil {
		return BoundingBox{}, &ParseError{
			Reason: fmt.Sprintf("%s missing bbox", what),
			Offset: offset,
		}
	}
	if !bbox.Valid() {
		return BoundingBox{}, &ParseError{
			Reason: fmt.Sprintf("%s has degenerate bbox %q", what, bbox.String()),
			Offset: offset,
		}
	}
	return *bbox, nil
}

// countOpen records an unrecognized open tag on whichever container is
// currently active, so its end tag is not mistaken for the container's.
func countOpen(inLine bool, lineDepth, pageDepth *int) {
	if inLine {
		*lineDepth++
	} else {
		*pageDepth++
	}
}

func attrVal(tok html.Token, name string) string {
	for _, attr := range tok.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// decodeCharset converts the document to UTF-8 when its declared charset
// requires it, mirroring common Tesseract/ABBYY output encodings.
func decodeCharset(data []byte) ([]byte, error) {
	content := string(data)
	idx := strings.Index(content, "charset=")
	if idx < 0 {
		return data, nil
	}

	rest := content[idx+len("charset="):]
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '"' || r == '\'' || r == ';' || r == '>' || r == ' ' || r == '\n' || r == '\r' || r == '/'
	})
	if len(fields) == 0 {
		return data, nil
	}
	enc := strings.ToLower(fields[0])
	if enc == "utf-8" || enc == "utf8" {
		return data, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", enc, err)
	}
	return decoded, nil
}

// Void elements never produce an end tag and must not count as open.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}
