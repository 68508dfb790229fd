package selector

import (
	"slices"
	"strings"

	"github.com/schhibra/ntuple-tools/internal/selection"
)

// Selector is an ordered result set of selections bound to the pool it was
// built from. The zero value is an empty selector with no pool.
type Selector struct {
	pool   *Pool
	result []selection.Selection
}

// And returns the cartesian product of s and other, outer loop over s. New
// composites are recorded on the pool's registry when there is one.
func (s Selector) And(other Selector) Selector {
	p := s.poolOr(other)
	var result []selection.Selection
	if p != nil && p.registry != nil {
		result = p.registry.CombineAll(s.result, other.result)
	} else {
		result = selection.CombineAll(s.result, other.result)
	}
	out := Selector{pool: p, result: result}
	p.trace("and", "", out)
	return out
}

// AndPattern selects pattern from s's pool and returns s.And of the result.
func (s Selector) AndPattern(pattern string) (Selector, error) {
	if s.pool == nil {
		return Selector{}, ErrNoPool
	}
	other, err := s.pool.Select(pattern)
	if err != nil {
		return Selector{}, err
	}
	return s.And(other), nil
}

// Union returns s followed by other. Duplicates are kept.
func (s Selector) Union(other Selector) Selector {
	p := s.poolOr(other)
	out := Selector{pool: p, result: slices.Concat(s.result, other.result)}
	p.trace("union", "", out)
	return out
}

// UnionPattern selects pattern from s's pool and returns s.Union of the result.
func (s Selector) UnionPattern(pattern string) (Selector, error) {
	if s.pool == nil {
		return Selector{}, ErrNoPool
	}
	other, err := s.pool.Select(pattern)
	if err != nil {
		return Selector{}, err
	}
	return s.Union(other), nil
}

// Selections materializes the result set. The returned slice is a copy.
func (s Selector) Selections() []selection.Selection {
	return slices.Clone(s.result)
}

// Len returns the number of selections in the result set.
func (s Selector) Len() int {
	return len(s.result)
}

// Names returns the selection names in order.
func (s Selector) Names() []string {
	return selection.Names(s.result)
}

func (s Selector) String() string {
	lines := make([]string, len(s.result))
	for i, sel := range s.result {
		lines[i] = sel.String()
	}
	return "<Selector sels=\n" + strings.Join(lines, "\n") + "\n>"
}

func (s Selector) poolOr(other Selector) *Pool {
	if s.pool != nil {
		return s.pool
	}
	return other.pool
}
