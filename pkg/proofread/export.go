package proofread

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
)

// ExportFile is one exported document: where it belongs relative to the
// export root, and its bytes. The exporter never touches disk; writing is
// the caller's job.
type ExportFile struct {
	RelPath string
	Data    []byte
}

// Exporter materializes corrected hOCR. All operations are pure functions
// of (units, overrides); input files are never mutated or overwritten.
type Exporter struct {
	// Now supplies the timestamp embedded in output filenames.
	// Overridable for deterministic output in tests.
	Now func() time.Time
}

// NewExporter returns an exporter using the wall clock.
func NewExporter() *Exporter {
	return &Exporter{Now: time.Now}
}

// Timestamp layout for output filenames: ISO-8601 basic, minute precision.
const timestampLayout = "20060102T1504"

// OutputFilename derives a timestamped output name from a source filename,
// so exports never collide with their sources and sort chronologically.
// For 'page_001.hocr' it yields 'page_001_20240131T0942.hocr'.
func (e *Exporter) OutputFilename(original string) string {
	ext := filepath.Ext(original)
	name := strings.TrimSuffix(original, ext)
	return fmt.Sprintf("%s_%s%s", name, e.Now().Format(timestampLayout), ext)
}

// ExportUnit rebuilds the unit's variant-0 document with the given
// replacement texts applied. Structural content outside edited word text
// stays byte-identical to the source.
func (e *Exporter) ExportUnit(unit *Unit, overrides map[string]string) ([]byte, error) {
	primary := unit.Primary()
	if primary == nil {
		return nil, fmt.Errorf("unit %s has no transcriptions to export", unit.Basename)
	}
	return primary.Render(overrides), nil
}

// ExportAll exports every dirty unit of the session, one entry per unit,
// preserving each unit's subdirectory placement so a caller can re-create
// the batch layout.
func (e *Exporter) ExportAll(s *Session) ([]ExportFile, error) {
	var files []ExportFile
	for i, unit := range s.Units() {
		if !s.IsDirty(i) {
			continue
		}
		data, err := e.ExportUnit(unit, s.OverridesFor(i))
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
		name := e.OutputFilename(unit.Primary().Filename)
		rel := name
		if unit.Subdirectory != "" {
			rel = path.Join(unit.Subdirectory, name)
		}
		files = append(files, ExportFile{RelPath: rel, Data: data})
	}
	return files, nil
}

// ExportMerged concatenates every unit's corrected page into one document:
// the first transcribed unit provides the DOCTYPE/header shell, then each
// unit contributes its page element in unit order. Used for a single file
// covering the whole book.
func (e *Exporter) ExportMerged(s *Session) ([]byte, error) {
	var shell *hocr.Document
	for _, unit := range s.Units() {
		if doc := unit.Primary(); doc != nil {
			shell = doc
			break
		}
	}
	if shell == nil {
		return nil, fmt.Errorf("nothing to merge: %w", ErrNoUnits)
	}

	var buf bytes.Buffer
	buf.Write(shell.Prefix())
	for i, unit := range s.Units() {
		primary := unit.Primary()
		if primary == nil {
			continue
		}
		buf.Write(primary.RenderPage(s.OverridesFor(i)))
		buf.WriteByte('\n')
	}
	buf.Write(shell.Suffix())
	return buf.Bytes(), nil
}

var trailingDigits = regexp.MustCompile(`[_-]?\d+$`)

// MergedFilename derives the whole-book output name from the first page's
// image filename: 'page_0001.jpg' becomes 'page-onepage.hocr'.
func MergedFilename(firstImage string) string {
	name := strings.TrimSuffix(firstImage, filepath.Ext(firstImage))
	name = trailingDigits.ReplaceAllString(name, "")
	return name + "-onepage.hocr"
}
