// Package hocr implements parsing and regeneration of single-page hOCR
// documents, the HTML-based format for representing OCR results with
// per-word bounding boxes.
//
// This package provides:
//
// - A strict object model for the word/line/page convention (BoundingBox, Word, Line, Page, Document)
// - A parser that identifies elements by their hOCR class attribute, not by tag name
// - Byte-faithful regeneration: everything outside edited word text is reproduced exactly
// - Utilities for the title-attribute microsyntax (bbox, x_wconf, x_font)
//
// Parsed documents retain their source bytes together with the byte spans
// of every word's text content. Render applies replacement texts as a pure
// splice over those spans, which is what makes round-tripping an unedited
// document the identity function.
//
// Key Types:
//
// - Document: one parsed hOCR file and its preserved source structure
// - Page, Line, Word: the recognized hierarchy, each with a BoundingBox
// - ParseError: failure reason plus byte offset into the source
//
// Main Functions:
//
// - Parse / ParseFile: hOCR bytes into the object model
// - Document.Render / Document.RenderPage: corrected hOCR bytes back out
package hocr
