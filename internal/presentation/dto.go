package presentation

import (
	"strconv"

	"github.com/schhibra/ntuple-tools/internal/selection"
)

// SelectionDTO is the JSON shape of a selection.
type SelectionDTO struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	RawLabel  string `json:"raw_label,omitempty"`
	Predicate string `json:"predicate"`
	Signature string `json:"signature"`
}

// CollectionDTO is a named, ordered group of selections.
type CollectionDTO struct {
	Name       string         `json:"name"`
	Size       int            `json:"size"`
	Selections []SelectionDTO `json:"selections"`
}

// MismatchDTO pairs the two selections found at the same sorted position.
type MismatchDTO struct {
	A SelectionDTO `json:"a"`
	B SelectionDTO `json:"b"`
}

// ComparisonDTO reports a collection comparison.
type ComparisonDTO struct {
	Equal      bool          `json:"equal"`
	LenA       int           `json:"len_a"`
	LenB       int           `json:"len_b"`
	Mismatches []MismatchDTO `json:"mismatches"`
}

// FromSelection converts a selection. RawLabel is only set when it differs
// from the resolved label.
func FromSelection(s selection.Selection) SelectionDTO {
	dto := SelectionDTO{
		Name:      s.Name(),
		Label:     s.Label(),
		Predicate: s.Predicate(),
		Signature: strconv.FormatUint(s.Signature(), 16),
	}
	if s.RawLabel() != dto.Label {
		dto.RawLabel = s.RawLabel()
	}
	return dto
}

// FromSelections converts a slice of selections, keeping order.
func FromSelections(sels []selection.Selection) []SelectionDTO {
	dtos := make([]SelectionDTO, len(sels))
	for i, s := range sels {
		dtos[i] = FromSelection(s)
	}
	return dtos
}

// FromCollection converts a named collection.
func FromCollection(name string, sels []selection.Selection) CollectionDTO {
	return CollectionDTO{
		Name:       name,
		Size:       len(sels),
		Selections: FromSelections(sels),
	}
}

// FromComparison converts a comparison result.
func FromComparison(c selection.Comparison) ComparisonDTO {
	mismatches := make([]MismatchDTO, len(c.Mismatches))
	for i, m := range c.Mismatches {
		mismatches[i] = MismatchDTO{A: FromSelection(m.A), B: FromSelection(m.B)}
	}
	return ComparisonDTO{
		Equal:      c.Equal,
		LenA:       c.LenA,
		LenB:       c.LenB,
		Mismatches: mismatches,
	}
}
