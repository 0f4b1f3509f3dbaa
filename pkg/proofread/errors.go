package proofread

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousStructure means the load root mixes page files with
	// batch subdirectories, so neither layout can be assumed.
	ErrAmbiguousStructure = errors.New("directory mixes page files and batch subdirectories")

	// ErrNoUnits means the load root yielded no proofreading units at all.
	ErrNoUnits = errors.New("no proofreading units found")

	// ErrUnknownWord means a word id exists in none of a unit's documents.
	ErrUnknownWord = errors.New("unknown word id")

	// ErrUnknownUnit means a unit index is out of range for the session.
	ErrUnknownUnit = errors.New("unit index out of range")
)

// UnitProblem records a non-fatal failure attached to one unit during
// loading: a transcription that would not parse, a missing image, an image
// whose dimensions could not be read. Problems never abort the overall load.
type UnitProblem struct {
	Unit string // Unit key: basename or subdirectory name
	Path string // Offending file, empty when the problem is the absence of one
	Err  error
}

func (p UnitProblem) String() string {
	if p.Path != "" {
		return fmt.Sprintf("unit %s: %s: %v", p.Unit, p.Path, p.Err)
	}
	return fmt.Sprintf("unit %s: %v", p.Unit, p.Err)
}

// TextTooLongWarning is the advisory returned when an override's text is
// more than twice as long as the text it replaces. The override is still
// recorded; the warning exists so front ends can flag suspicious edits.
type TextTooLongWarning struct {
	WordID         string
	Length         int
	OriginalLength int
}

func (w *TextTooLongWarning) String() string {
	return fmt.Sprintf("replacement for %s is %d chars, original is %d", w.WordID, w.Length, w.OriginalLength)
}
