package proofread

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
)

type testWord struct {
	id, bbox, text string
}

// testDoc builds a one-line hOCR document in memory.
func testDoc(t *testing.T, filename string, mod time.Time, pageBBox string, words []testWord) *hocr.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<html><head><title>t</title></head><body>`)
	fmt.Fprintf(&b, `<div class="ocr_page" id="page_1" title="bbox %s">`, pageBBox)
	fmt.Fprintf(&b, `<span class="ocr_line" id="line_1" title="bbox %s">`, pageBBox)
	for _, w := range words {
		fmt.Fprintf(&b, `<span class="ocrx_word" id=%q title="bbox %s">%s</span>`, w.id, w.bbox, w.text)
	}
	b.WriteString(`</span></div></body></html>`)

	doc, err := hocr.Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("building test document %s: %v", filename, err)
	}
	doc.Filename = filename
	doc.Modified = mod
	return doc
}

func defaultValidator() *Validator {
	return NewValidator(DefaultConfig())
}

var baseTime = time.Date(2024, 1, 31, 9, 42, 0, 0, time.UTC)

func TestValidateGeometryWithinTolerance(t *testing.T) {
	// Two transcriptions of the same word, boxes off by one pixel.
	unit := &Unit{
		Basename: "page_001",
		Documents: []*hocr.Document{
			testDoc(t, "page_001-proofread.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "chief"}}),
			testDoc(t, "page_001.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "11 11 49 31", "chief"}}),
		},
	}

	report := defaultValidator().Validate(unit)
	wm, ok := report.Words["w1"]
	if !ok {
		t.Fatal("w1 missing from report")
	}
	if wm.Geometry != GeometryMatching {
		t.Errorf("geometry = %q, want matching", wm.Geometry)
	}
	if wm.Text != TextMatching {
		t.Errorf("text = %q, want matching", wm.Text)
	}
	if wm.Severity != SeverityOK {
		t.Errorf("severity = %q, want ok", wm.Severity)
	}
	if !report.AllMatching() {
		t.Error("AllMatching = false for an agreeing unit")
	}

	// The same unit fails under zero tolerance.
	strict := &Validator{Tolerance: 0, CriticalThreshold: 20}
	wm = strict.Validate(unit).Words["w1"]
	if wm.Geometry != GeometryDivergent {
		t.Errorf("zero tolerance: geometry = %q, want divergent", wm.Geometry)
	}
	if wm.Severity != SeverityWarning {
		t.Errorf("zero tolerance: severity = %q, want warning", wm.Severity)
	}
}

func TestValidateSymmetry(t *testing.T) {
	a := testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
		[]testWord{{"w1", "10 10 50 30", "chief"}})
	b := testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
		[]testWord{{"w1", "13 10 50 30", "chief"}})

	forward := defaultValidator().Validate(&Unit{Documents: []*hocr.Document{a, b}}).Words["w1"]
	reverse := defaultValidator().Validate(&Unit{Documents: []*hocr.Document{b, a}}).Words["w1"]

	if forward.Geometry != reverse.Geometry {
		t.Errorf("geometry not symmetric: %q vs %q", forward.Geometry, reverse.Geometry)
	}
	if forward.Severity != reverse.Severity {
		t.Errorf("severity not symmetric: %q vs %q", forward.Severity, reverse.Severity)
	}
}

func TestValidateToleranceMonotonicity(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}}),
			testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "13 10 50 30", "x"}}),
		},
	}

	matched := false
	for tol := 0; tol <= 6; tol++ {
		v := &Validator{Tolerance: tol, CriticalThreshold: 20}
		wm := v.Validate(unit).Words["w1"]
		if matched && wm.Geometry != GeometryMatching {
			t.Fatalf("tolerance %d: word stopped matching after matching at a lower tolerance", tol)
		}
		if wm.Geometry == GeometryMatching {
			matched = true
		}
	}
	if !matched {
		t.Error("word never matched even at tolerance 6 with max delta 3")
	}
}

func TestValidateMissingWordIsUnmatched(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}, {"w2", "60 10 90 30", "y"}}),
			testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}}),
		},
	}

	wm := defaultValidator().Validate(unit).Words["w2"]
	if wm.Geometry != GeometryUnmatched {
		t.Errorf("geometry = %q, want unmatched", wm.Geometry)
	}
	if wm.Severity != SeverityWarning {
		t.Errorf("severity = %q, want warning", wm.Severity)
	}
	if len(wm.Deltas) != 2 {
		t.Fatalf("got %d deltas, want 2", len(wm.Deltas))
	}
	if !wm.Deltas[0].Present || wm.Deltas[1].Present {
		t.Errorf("presence flags = %v/%v", wm.Deltas[0].Present, wm.Deltas[1].Present)
	}
}

func TestValidateNoSharedWords(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}}),
			testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w9", "10 10 50 30", "x"}}),
		},
	}

	report := defaultValidator().Validate(unit)
	if len(report.Words) != 2 {
		t.Fatalf("got %d words, want 2", len(report.Words))
	}
	for id, wm := range report.Words {
		if wm.Geometry != GeometryUnmatched {
			t.Errorf("%s: geometry = %q, want unmatched", id, wm.Geometry)
		}
	}
	if report.AllMatching() {
		t.Error("AllMatching = true with disjoint word sets")
	}
}

func TestValidateCriticalGeometry(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}}),
			testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "10 10 80 30", "x"}}),
		},
	}

	wm := defaultValidator().Validate(unit).Words["w1"]
	if wm.Geometry != GeometryDivergent {
		t.Errorf("geometry = %q, want divergent", wm.Geometry)
	}
	if wm.Severity != SeverityCritical {
		t.Errorf("severity = %q, want critical for delta 30", wm.Severity)
	}
}

func TestValidateTextDivergence(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "chief"}}),
			testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "chef"}}),
		},
	}

	wm := defaultValidator().Validate(unit).Words["w1"]
	if wm.Geometry != GeometryMatching {
		t.Errorf("geometry = %q, want matching", wm.Geometry)
	}
	if wm.Text != TextDivergent {
		t.Errorf("text = %q, want divergent", wm.Text)
	}
	if wm.Severity != SeverityWarning {
		t.Errorf("severity = %q, want warning", wm.Severity)
	}
}

func TestValidateTextWhitespaceNormalized(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime.Add(time.Hour), "0 0 1000 1500",
				[]testWord{{"w1", "10 10 90 30", "New  York"}}),
			testDoc(t, "b.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "10 10 90 30", "New York"}}),
		},
	}

	wm := defaultValidator().Validate(unit).Words["w1"]
	if wm.Text != TextMatching {
		t.Errorf("text = %q, want matching after whitespace normalization", wm.Text)
	}
}

func TestValidateSingleDocument(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}}),
		},
	}

	report := defaultValidator().Validate(unit)
	wm := report.Words["w1"]
	if wm.Geometry != GeometryMatching || wm.Text != TextMatching {
		t.Errorf("single document: geometry = %q, text = %q", wm.Geometry, wm.Text)
	}
	if !report.AllMatching() {
		t.Error("AllMatching = false for a single-document unit")
	}
}

func TestValidatePageDimensions(t *testing.T) {
	tests := []struct {
		name       string
		pageBBox   string
		imgW, imgH int
		want       Severity
	}{
		{"exact", "0 0 1000 1500", 1000, 1500, SeverityOK},
		{"small drift", "0 0 1000 1505", 1000, 1500, SeverityWarning},
		{"wrong page", "0 0 1000 1523", 1000, 1500, SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := &Unit{
				ImageWidth:  tt.imgW,
				ImageHeight: tt.imgH,
				Documents: []*hocr.Document{
					testDoc(t, "a.hocr", baseTime, tt.pageBBox,
						[]testWord{{"w1", "10 10 50 30", "x"}}),
				},
			}

			report := defaultValidator().Validate(unit)
			if len(report.PageChecks) != 1 {
				t.Fatalf("got %d page checks, want 1", len(report.PageChecks))
			}
			pc := report.PageChecks[0]
			if pc.Severity != tt.want {
				t.Errorf("severity = %q, want %q (deltas %d/%d)",
					pc.Severity, tt.want, pc.WidthDelta, pc.HeightDelta)
			}
		})
	}
}

func TestValidateNoImageSkipsPageChecks(t *testing.T) {
	unit := &Unit{
		Documents: []*hocr.Document{
			testDoc(t, "a.hocr", baseTime, "0 0 1000 1500",
				[]testWord{{"w1", "10 10 50 30", "x"}}),
		},
	}

	report := defaultValidator().Validate(unit)
	if len(report.PageChecks) != 0 {
		t.Errorf("got %d page checks without image dimensions, want 0", len(report.PageChecks))
	}
}

func TestMatchReportHelpers(t *testing.T) {
	report := &MatchReport{
		Words: map[string]WordMatch{
			"b": {Geometry: GeometryMatching, Text: TextMatching, Severity: SeverityOK},
			"a": {Geometry: GeometryDivergent, Text: TextMatching, Severity: SeverityCritical},
			"c": {Geometry: GeometryMatching, Text: TextDivergent, Severity: SeverityWarning},
		},
	}

	ids := report.WordIDs()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("WordIDs = %v, want sorted", ids)
	}
	if report.AllMatching() {
		t.Error("AllMatching = true with divergent words")
	}
	if got := report.MaxSeverity(); got != SeverityCritical {
		t.Errorf("MaxSeverity = %q, want critical", got)
	}
}
