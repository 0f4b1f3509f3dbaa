// Package proofread implements the core of an OCR proofreading workflow:
// correlating scanned page images with their candidate hOCR transcriptions,
// detecting agreement and disagreement between transcriptions, tracking
// user corrections, and exporting corrected hOCR.
//
// The workflow:
//
// - Loader scans a directory (flat or batch layout) and builds one Unit per physical page
// - Validator compares each unit's transcriptions against each other and against the image dimensions, producing a MatchReport
// - Session records per-word text overrides without mutating parsed documents
// - Exporter materializes corrected hOCR bytes, leaving unedited structure byte-identical to the source
//
// All operations are synchronous. Units and their documents are immutable
// once loaded; the Session is the only mutable shared state and is safe for
// concurrent readers with a single writer.
//
// Key Types:
//
// - Unit: one page image plus its candidate transcriptions, newest first
// - MatchReport: per-word geometry and text agreement across transcriptions
// - Session: the ordered working set plus the override overlay
// - Exporter: pure byte producers for unit, batch, and merged export
package proofread
