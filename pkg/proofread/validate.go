package proofread

import (
	"sort"
	"strings"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
)

// Severity grades a validation finding.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// GeometryStatus classifies a word's bounding-box agreement across the
// unit's documents.
type GeometryStatus string

const (
	// GeometryMatching: the word appears in every document and all boxes
	// agree within tolerance.
	GeometryMatching GeometryStatus = "matching"
	// GeometryDivergent: at least one box differs beyond tolerance.
	GeometryDivergent GeometryStatus = "divergent"
	// GeometryUnmatched: the word is missing from some documents, but the
	// boxes that do exist agree. Absence is not a geometry mismatch.
	GeometryUnmatched GeometryStatus = "unmatched"
)

// TextStatus classifies a word's text agreement across the documents that
// contain it.
type TextStatus string

const (
	TextMatching  TextStatus = "matching"
	TextDivergent TextStatus = "divergent"
)

// WordDelta is one document's bounding box compared against the reference
// box (the lowest-indexed document containing the word).
type WordDelta struct {
	DocIndex        int    // Index into the unit's document list
	File            string // Document filename, for log rendering
	Present         bool   // False when the document lacks this word id
	MaxDiff         int    // Largest per-coordinate difference, if present
	WithinTolerance bool
}

// WordMatch is the validator's verdict for one word id.
type WordMatch struct {
	Geometry GeometryStatus
	Text     TextStatus
	Severity Severity
	Deltas   []WordDelta // One entry per document, in document order
}

// PageDimCheck compares the image's pixel dimensions against one document's
// page bbox extent. A mismatch here means the transcription describes a
// different page than the image, a structural error rather than an OCR one.
type PageDimCheck struct {
	DocIndex    int
	File        string
	ImageWidth  int
	ImageHeight int
	PageWidth   int
	PageHeight  int
	WidthDelta  int // Absolute difference
	HeightDelta int // Absolute difference
	Severity    Severity
}

// MatchReport is the full validation result for one unit. It contains
// facts only; filtering (such as "skip matching pages") belongs to front
// ends.
type MatchReport struct {
	PageChecks []PageDimCheck
	Words      map[string]WordMatch
}

// WordIDs returns the reported word ids in sorted order, for deterministic
// rendering.
func (r *MatchReport) WordIDs() []string {
	ids := make([]string, 0, len(r.Words))
	for id := range r.Words {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllMatching reports whether every word agrees in both geometry and text.
// This is the fact behind skip-eligibility of a page.
func (r *MatchReport) AllMatching() bool {
	for _, wm := range r.Words {
		if wm.Geometry != GeometryMatching || wm.Text != TextMatching {
			return false
		}
	}
	return true
}

// MaxSeverity returns the worst severity in the report.
func (r *MatchReport) MaxSeverity() Severity {
	worst := SeverityOK
	raise := func(s Severity) {
		if s == SeverityCritical || (s == SeverityWarning && worst == SeverityOK) {
			worst = s
		}
	}
	for _, pc := range r.PageChecks {
		raise(pc.Severity)
	}
	for _, wm := range r.Words {
		raise(wm.Severity)
	}
	return worst
}

// Validator compares a unit's transcriptions against each other and
// against the page image's pixel dimensions.
type Validator struct {
	Tolerance         int // Per-coordinate pixel tolerance for box matching
	CriticalThreshold int // Delta beyond which a finding is critical
}

// NewValidator creates a validator from config thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{
		Tolerance:         cfg.TolerancePixels,
		CriticalThreshold: cfg.CriticalThresholdPixels,
	}
}

// Validate produces the unit's MatchReport. The result is deterministic
// for identical inputs; it depends only on the unit's documents, the image
// dimensions, and the configured thresholds.
func (v *Validator) Validate(unit *Unit) *MatchReport {
	report := &MatchReport{Words: make(map[string]WordMatch)}

	if unit.ImageWidth > 0 && unit.ImageHeight > 0 {
		for i, doc := range unit.Documents {
			report.PageChecks = append(report.PageChecks, v.checkPageDims(unit, i, doc))
		}
	}

	docs := unit.Documents
	if len(docs) == 0 {
		return report
	}

	// Per-document word index, scoped to this unit. Ids are only ever
	// compared within one unit; a bare id means nothing across units.
	perDoc := make([]map[string]hocr.Word, len(docs))
	for i, doc := range docs {
		perDoc[i] = make(map[string]hocr.Word)
		for _, word := range doc.Page.Words() {
			perDoc[i][word.ID] = word
		}
	}

	for id := range unionIDs(perDoc) {
		report.Words[id] = v.matchWord(id, docs, perDoc)
	}
	return report
}

func (v *Validator) checkPageDims(unit *Unit, docIndex int, doc *hocr.Document) PageDimCheck {
	check := PageDimCheck{
		DocIndex:    docIndex,
		File:        doc.Filename,
		ImageWidth:  unit.ImageWidth,
		ImageHeight: unit.ImageHeight,
		PageWidth:   doc.Page.BBox.Width(),
		PageHeight:  doc.Page.BBox.Height(),
	}
	check.WidthDelta = abs(check.PageWidth - check.ImageWidth)
	check.HeightDelta = abs(check.PageHeight - check.ImageHeight)

	worst := check.WidthDelta
	if check.HeightDelta > worst {
		worst = check.HeightDelta
	}
	switch {
	case worst == 0:
		check.Severity = SeverityOK
	case worst > v.CriticalThreshold:
		check.Severity = SeverityCritical
	default:
		check.Severity = SeverityWarning
	}
	return check
}

func (v *Validator) matchWord(id string, docs []*hocr.Document, perDoc []map[string]hocr.Word) WordMatch {
	// Reference box: the newest document containing the word.
	var ref hocr.Word
	refFound := false
	for i := range docs {
		if w, ok := perDoc[i][id]; ok {
			ref = w
			refFound = true
			break
		}
	}

	wm := WordMatch{Deltas: make([]WordDelta, len(docs))}

	present := 0
	divergent := false
	maxDiff := 0
	texts := make([]string, 0, len(docs))
	for i, doc := range docs {
		delta := WordDelta{DocIndex: i, File: doc.Filename}
		if w, ok := perDoc[i][id]; ok && refFound {
			delta.Present = true
			delta.MaxDiff = w.BBox.MaxDifference(ref.BBox)
			delta.WithinTolerance = delta.MaxDiff <= v.Tolerance
			if !delta.WithinTolerance {
				divergent = true
			}
			if delta.MaxDiff > maxDiff {
				maxDiff = delta.MaxDiff
			}
			present++
			texts = append(texts, normalizeText(w.Text))
		}
		wm.Deltas[i] = delta
	}

	switch {
	case divergent:
		wm.Geometry = GeometryDivergent
	case len(docs) > 1 && present < len(docs):
		wm.Geometry = GeometryUnmatched
	default:
		wm.Geometry = GeometryMatching
	}

	wm.Text = TextMatching
	for _, t := range texts[1:] {
		if t != texts[0] {
			wm.Text = TextDivergent
			break
		}
	}

	switch {
	case maxDiff > v.CriticalThreshold:
		wm.Severity = SeverityCritical
	case wm.Geometry != GeometryMatching || wm.Text != TextMatching:
		wm.Severity = SeverityWarning
	default:
		wm.Severity = SeverityOK
	}
	return wm
}

// normalizeText collapses runs of whitespace before comparing word texts.
// Comparison stays case-sensitive.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func unionIDs(perDoc []map[string]hocr.Word) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, m := range perDoc {
		for id := range m {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
