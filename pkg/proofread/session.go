package proofread

import (
	"fmt"
	"sync"
)

// Override is one recorded user edit: replacement text for a word, plus
// which transcription variant the editor based the decision on.
type Override struct {
	Text    string
	Variant int
}

// Session is the ordered working set of units plus the override overlay.
// Parsed documents are never mutated; every edit lives here. The session is
// safe for concurrent readers with a single writer.
type Session struct {
	mu         sync.RWMutex
	units      []*Unit
	problems   []UnitProblem
	totalBytes int64
	overrides  map[int]map[string]Override
}

// NewSession wraps an ordered unit list in a fresh session with no edits.
func NewSession(units []*Unit) *Session {
	return &Session{
		units:     units,
		overrides: make(map[int]map[string]Override),
	}
}

// Len returns the number of units.
func (s *Session) Len() int {
	return len(s.units)
}

// Unit returns the unit at index i.
func (s *Session) Unit(i int) (*Unit, error) {
	if i < 0 || i >= len(s.units) {
		return nil, fmt.Errorf("unit %d: %w", i, ErrUnknownUnit)
	}
	return s.units[i], nil
}

// Units returns the ordered unit list. The slice is a copy; the units are
// shared and must be treated as read-only.
func (s *Session) Units() []*Unit {
	out := make([]*Unit, len(s.units))
	copy(out, s.units)
	return out
}

// Problems returns the non-fatal issues recorded during loading.
func (s *Session) Problems() []UnitProblem {
	out := make([]UnitProblem, len(s.problems))
	copy(out, s.problems)
	return out
}

// TotalBytes returns the cumulative size of all files discovered during
// loading, for the caller's quota enforcement.
func (s *Session) TotalBytes() int64 {
	return s.totalBytes
}

// SetOverride records replacement text for a word. It fails with
// ErrUnknownWord when the id exists in none of the unit's documents. When
// the replacement is more than twice as long as the variant-0 text, a
// TextTooLongWarning is returned alongside success; the override is still
// recorded, the signal is advisory only.
func (s *Session) SetOverride(unitIdx int, wordID, text string, variant int) (*TextTooLongWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, err := s.Unit(unitIdx)
	if err != nil {
		return nil, err
	}
	if variant < 0 || variant >= len(unit.Documents) {
		return nil, fmt.Errorf("unit %d has no variant %d", unitIdx, variant)
	}
	if !unit.HasWord(wordID) {
		return nil, fmt.Errorf("unit %d, word %q: %w", unitIdx, wordID, ErrUnknownWord)
	}

	if s.overrides[unitIdx] == nil {
		s.overrides[unitIdx] = make(map[string]Override)
	}
	s.overrides[unitIdx][wordID] = Override{Text: text, Variant: variant}

	if primary := unit.Primary(); primary != nil {
		if word, ok := primary.WordByID(wordID); ok && len(text) > 2*len(word.Text) {
			return &TextTooLongWarning{
				WordID:         wordID,
				Length:         len(text),
				OriginalLength: len(word.Text),
			}, nil
		}
	}
	return nil, nil
}

// EffectiveText returns the override for a word when present, otherwise
// the text from variant 0 (the newest document).
func (s *Session) EffectiveText(unitIdx int, wordID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unit, err := s.Unit(unitIdx)
	if err != nil {
		return "", err
	}
	if ov, ok := s.overrides[unitIdx][wordID]; ok {
		return ov.Text, nil
	}
	if primary := unit.Primary(); primary != nil {
		if word, ok := primary.WordByID(wordID); ok {
			return word.Text, nil
		}
	}
	if unit.HasWord(wordID) {
		// Present only in an older variant; without an override the
		// effective text of the exported (variant 0) document is empty.
		return "", nil
	}
	return "", fmt.Errorf("unit %d, word %q: %w", unitIdx, wordID, ErrUnknownWord)
}

// ChosenVariant returns the variant index recorded with a word's override,
// or 0 when the word has none.
func (s *Session) ChosenVariant(unitIdx int, wordID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ov, ok := s.overrides[unitIdx][wordID]; ok {
		return ov.Variant
	}
	return 0
}

// IsDirty reports whether any word in the unit has an override that
// differs from its variant-0 text. Re-typing the original text does not
// dirty the unit.
func (s *Session) IsDirty(unitIdx int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isDirtyLocked(unitIdx)
}

func (s *Session) isDirtyLocked(unitIdx int) bool {
	unit, err := s.Unit(unitIdx)
	if err != nil {
		return false
	}
	primary := unit.Primary()
	for wordID, ov := range s.overrides[unitIdx] {
		if primary != nil {
			if word, ok := primary.WordByID(wordID); ok && word.Text == ov.Text {
				continue
			}
		}
		return true
	}
	return false
}

// OverridesFor returns the unit's replacement texts keyed by word id, as a
// copy safe to hand to the exporter.
func (s *Session) OverridesFor(unitIdx int) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.overrides[unitIdx]))
	for wordID, ov := range s.overrides[unitIdx] {
		out[wordID] = ov.Text
	}
	return out
}
