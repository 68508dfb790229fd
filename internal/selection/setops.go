package selection

import (
	"slices"
	"strings"

	"github.com/schhibra/ntuple-tools/internal/log"
)

// CombineAll returns a.And(b) for every pair, outer loop over a and inner loop
// over b. Nothing is recorded.
func CombineAll(a, b []Selection) []Selection {
	result := make([]Selection, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			result = append(result, x.And(y))
		}
	}
	return result
}

// Dedup returns sels with later duplicates (by name) removed. Surviving
// elements keep their input order.
func Dedup(sels []Selection) []Selection {
	seen := make(map[string]struct{}, len(sels))
	result := make([]Selection, 0, len(sels))
	for _, s := range sels {
		if _, ok := seen[s.name]; ok {
			continue
		}
		seen[s.name] = struct{}{}
		result = append(result, s)
	}
	return result
}

// Exclude returns the selections whose name does not contain substr.
func Exclude(sels []Selection, substr string) []Selection {
	result := make([]Selection, 0, len(sels))
	for _, s := range sels {
		if !strings.Contains(s.name, substr) {
			result = append(result, s)
		}
	}
	return result
}

// Find returns the first selection named name.
func Find(sels []Selection, name string) (Selection, bool) {
	for _, s := range sels {
		if s.name == name {
			return s, true
		}
	}
	return Selection{}, false
}

// Mismatch is a pair of selections at the same sorted position that differ.
type Mismatch struct {
	A Selection
	B Selection
}

// Comparison is the outcome of Compare.
type Comparison struct {
	Equal      bool
	LenA       int
	LenB       int
	Mismatches []Mismatch
}

// LengthDiffers reports whether the comparison stopped on a length mismatch.
func (c Comparison) LengthDiffers() bool {
	return c.LenA != c.LenB
}

// Compare checks a and b for order-independent equality. Both are sorted by
// name (stable, on copies) and compared position by position on name,
// resolved label and predicate. A length difference fails immediately.
func Compare(a, b []Selection) Comparison {
	cmp := Comparison{LenA: len(a), LenB: len(b)}
	if len(a) != len(b) {
		log.Debug(log.CatSelection, "[DIFF] length", "len1", len(a), "len2", len(b))
		return cmp
	}

	sortedA := sortedByName(a)
	sortedB := sortedByName(b)
	for i := range sortedA {
		if !sortedA[i].Equal(sortedB[i]) {
			log.Debug(log.CatSelection, "[DIFF]", "a", sortedA[i], "b", sortedB[i])
			cmp.Mismatches = append(cmp.Mismatches, Mismatch{A: sortedA[i], B: sortedB[i]})
		}
	}
	cmp.Equal = len(cmp.Mismatches) == 0
	return cmp
}

func sortedByName(sels []Selection) []Selection {
	out := slices.Clone(sels)
	slices.SortStableFunc(out, func(x, y Selection) int {
		return strings.Compare(x.name, y.name)
	})
	return out
}
