package proofread

import (
	"sort"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
)

// Unit is one physical page under review: a scanned image plus every
// candidate hOCR transcription of it. The document set is fixed after
// loading; new transcriptions require a reload.
type Unit struct {
	Basename      string // Common file basename identifying the page
	Subdirectory  string // Batch subdirectory name, empty in flat layout
	ImagePath     string // Empty when the unit has no image
	ImageFilename string
	ImageWidth    int // Pixel width, zero when unknown
	ImageHeight   int // Pixel height, zero when unknown

	// Candidate transcriptions, newest modification time first. The most
	// recently saved correction is the most likely best default.
	Documents []*hocr.Document
}

// Primary returns the newest document, or nil when the unit has none.
func (u *Unit) Primary() *hocr.Document {
	if len(u.Documents) == 0 {
		return nil
	}
	return u.Documents[0]
}

// HasWord reports whether any document of the unit contains the word id.
func (u *Unit) HasWord(id string) bool {
	for _, doc := range u.Documents {
		if _, ok := doc.WordByID(id); ok {
			return true
		}
	}
	return false
}

// sortDocuments orders documents newest-first, breaking modification-time
// ties by filename ascending so the order is deterministic regardless of
// directory enumeration order.
func (u *Unit) sortDocuments() {
	sort.SliceStable(u.Documents, func(i, j int) bool {
		a, b := u.Documents[i], u.Documents[j]
		if !a.Modified.Equal(b.Modified) {
			return a.Modified.After(b.Modified)
		}
		return a.Filename < b.Filename
	})
}
