package hocr

import (
	"fmt"
	"time"
)

// BoundingBox is a rectangle in page pixel coordinates.
// Corresponds to the hOCR 'bbox' title property.
type BoundingBox struct {
	X1 int // Left coordinate
	Y1 int // Top coordinate
	X2 int // Right coordinate
	Y2 int // Bottom coordinate
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 coordinates
// found in hOCR 'bbox' properties. x1, y1 is the top-left corner and
// x2, y2 the bottom-right corner.
func NewBoundingBox(x1, y1, x2, y2 int) BoundingBox {
	return BoundingBox{
		X1: x1,
		Y1: y1,
		X2: x2,
		Y2: y2,
	}
}

// Valid reports whether the box has positive extent on both axes.
func (b BoundingBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Width returns the horizontal extent in pixels.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent in pixels.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Matches reports whether every coordinate of b differs from the
// corresponding coordinate of other by at most tolerance pixels.
func (b BoundingBox) Matches(other BoundingBox, tolerance int) bool {
	return b.MaxDifference(other) <= tolerance
}

// MaxDifference returns the largest per-coordinate pixel difference
// between b and other.
func (b BoundingBox) MaxDifference(other BoundingBox) int {
	d := absInt(b.X1 - other.X1)
	if v := absInt(b.Y1 - other.Y1); v > d {
		d = v
	}
	if v := absInt(b.X2 - other.X2); v > d {
		d = v
	}
	if v := absInt(b.Y2 - other.Y2); v > d {
		d = v
	}
	return d
}

// String renders the box in hOCR title syntax, e.g. "bbox 256 161 302 196".
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox %d %d %d %d", b.X1, b.Y1, b.X2, b.Y2)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Word is a recognized word with bounding box.
// Corresponds to an hOCR element with class 'ocrx_word'.
type Word struct {
	ID         string      // Unique identifier within the document
	Text       string      // Text content, boundary whitespace trimmed
	BBox       BoundingBox // Word coordinates
	Confidence int         // Recognition confidence 0-100, -1 when unknown
	Font       string      // Font name from x_font, empty when unknown

	// Byte span of the word's text content within the document source,
	// used by Render to splice replacement text.
	textStart int
	textEnd   int
}

// Class assigns 'ocrx_word' to the Word struct.
func (Word) Class() string { return "ocrx_word" }

func (w Word) String() string {
	return fmt.Sprintf("%s: %q @ %s", w.ID, w.Text, w.BBox)
}

// Line is a line of text in reading order.
// Corresponds to an hOCR element with class 'ocr_line'.
type Line struct {
	ID    string      // Identifier, may be empty
	BBox  BoundingBox // Line coordinates
	Words []Word      // Words in the line, in source order
}

// Class assigns 'ocr_line' to the Line struct.
func (Line) Class() string { return "ocr_line" }

// Page is one page of recognized text.
// Corresponds to an hOCR element with class 'ocr_page'.
type Page struct {
	ID    string      // Identifier, may be empty
	BBox  BoundingBox // Page extent
	Lines []Line      // Lines on the page, in source order
}

// Class assigns 'ocr_page' to the Page struct.
func (Page) Class() string { return "ocr_page" }

// Words returns all words from all lines on the page, in reading order.
func (p Page) Words() []Word {
	var words []Word
	for _, line := range p.Lines {
		words = append(words, line.Words...)
	}
	return words
}

// Document is the parsed representation of one hOCR source file.
// The raw source bytes are retained so that re-export can reproduce
// everything outside edited word text byte for byte.
type Document struct {
	Path     string    // Originating file path, empty when parsed from memory
	Filename string    // Base name of the originating file
	Modified time.Time // Last modification time of the originating file
	Doctype  string    // Verbatim DOCTYPE declaration, empty if absent
	Page     Page      // The single parsed page

	raw       []byte
	pageStart int // byte offset of the page element's start tag
	pageEnd   int // byte offset just past the page element's end tag
}

// WordByID returns the word with the given id, searching all lines.
func (d *Document) WordByID(id string) (Word, bool) {
	for _, line := range d.Page.Lines {
		for _, word := range line.Words {
			if word.ID == id {
				return word, true
			}
		}
	}
	return Word{}, false
}

// Source returns a copy of the raw bytes the document was parsed from.
func (d *Document) Source() []byte {
	out := make([]byte, len(d.raw))
	copy(out, d.raw)
	return out
}
