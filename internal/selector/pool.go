// Package selector filters and combines selections by name pattern.
//
// A Pool is a one-time snapshot of a selection Registry. Pool.Select keeps the
// snapshot entries whose name matches a regular expression anchored at the
// start of the name (prefix semantics, not a full-string match), then
// deduplicates by name. Selectors combine with And (cartesian product) and
// Union (concatenation, duplicates kept). Selectors are values: every
// combinator returns a new Selector and leaves its operands untouched.
package selector

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/schhibra/ntuple-tools/internal/cachemanager"
	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/selection"
)

const (
	DefaultCacheTTL        = cachemanager.DefaultExpiration
	DefaultCleanupInterval = cachemanager.DefaultCleanupInterval
)

var (
	// ErrEmptyExpression is returned by Expr for an empty union or an empty product term.
	ErrEmptyExpression = errors.New("empty selector expression")
	// ErrNoPool is returned when a pattern is applied to a selector without a pool.
	ErrNoPool = errors.New("selector has no primitive pool")
)

// PatternError reports a pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid selector pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// CacheObserver is told about every pattern lookup.
type CacheObserver interface {
	PatternLookup(hit bool)
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithDiagnostics logs the selection names produced by every selector step at info level.
func WithDiagnostics(enabled bool) PoolOption {
	return func(p *Pool) { p.diagnostics = enabled }
}

// WithCacheTTL sets how long filtered pattern results stay cached.
func WithCacheTTL(ttl time.Duration) PoolOption {
	return func(p *Pool) { p.ttl = ttl }
}

// WithCacheObserver attaches an observer for pattern cache hits and misses.
func WithCacheObserver(o CacheObserver) PoolOption {
	return func(p *Pool) { p.observer = o }
}

// Pool is the primitive pool: a frozen copy of a registry's contents plus the
// registry that records composites built from it.
type Pool struct {
	id          string
	registry    *selection.Registry
	primitives  []selection.Selection
	cache       *cachemanager.ReadThroughCache[string, []selection.Selection]
	ttl         time.Duration
	diagnostics bool
	observer    CacheObserver
	opts        []PoolOption
}

// NewPool snapshots reg. Selections defined on reg afterwards are not visible
// to the pool; composites built through the pool are still recorded on reg.
func NewPool(reg *selection.Registry, opts ...PoolOption) *Pool {
	p := &Pool{
		id:       uuid.NewString(),
		registry: reg,
		ttl:      DefaultCacheTTL,
		opts:     opts,
	}
	if reg != nil {
		p.primitives = reg.Snapshot()
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = cachemanager.NewReadThroughCache(
		cachemanager.NewInMemoryCacheManager[string, []selection.Selection]("selector patterns", p.ttl, DefaultCleanupInterval),
		p.match,
		p.observe,
	)

	log.Debug(log.CatSelector, "primitive pool snapshot", "pool", p.id, "size", len(p.primitives))
	return p
}

// NewStaticPool builds a pool over a fixed list of primitives. Composites are
// not recorded anywhere.
func NewStaticPool(primitives []selection.Selection, opts ...PoolOption) *Pool {
	p := NewPool(nil, opts...)
	p.primitives = slices.Clone(primitives)
	return p
}

// Refresh returns a new pool with a fresh snapshot of the same registry and
// the same options.
func (p *Pool) Refresh() *Pool {
	if p.registry == nil {
		return NewStaticPool(p.primitives, p.opts...)
	}
	return NewPool(p.registry, p.opts...)
}

// ID identifies the snapshot in logs.
func (p *Pool) ID() string { return p.id }

// Len returns the number of primitives in the snapshot.
func (p *Pool) Len() int { return len(p.primitives) }

// Primitives returns a copy of the snapshot.
func (p *Pool) Primitives() []selection.Selection {
	return slices.Clone(p.primitives)
}

// Select returns a Selector over the primitives whose name matches pattern at
// the start, deduplicated by name.
func (p *Pool) Select(pattern string) (Selector, error) {
	result, err := p.filter(pattern)
	if err != nil {
		return Selector{}, err
	}
	s := Selector{pool: p, result: result}
	p.trace("select", pattern, s)
	return s, nil
}

// MustSelect is like Select but panics on an invalid pattern.
func (p *Pool) MustSelect(pattern string) Selector {
	s, err := p.Select(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Expr evaluates a union of products. Each term is a list of patterns that are
// combined with And from left to right; the terms are then joined with Union.
//
//	[["^GEN$", "Ee", "^Pt15|^Pt30"], ["^GEN$", "^EtaF"]]
func (p *Pool) Expr(terms [][]string) (Selector, error) {
	if len(terms) == 0 {
		return Selector{}, ErrEmptyExpression
	}

	var out Selector
	for i, term := range terms {
		if len(term) == 0 {
			return Selector{}, fmt.Errorf("term %d: %w", i, ErrEmptyExpression)
		}
		product, err := p.Select(term[0])
		if err != nil {
			return Selector{}, err
		}
		for _, pattern := range term[1:] {
			if product, err = product.AndPattern(pattern); err != nil {
				return Selector{}, err
			}
		}
		if i == 0 {
			out = product
			continue
		}
		out = out.Union(product)
	}
	return out, nil
}

func (p *Pool) filter(pattern string) ([]selection.Selection, error) {
	return p.cache.Get(pattern, p.ttl)
}

// match runs pattern against the snapshot and deduplicates the result.
func (p *Pool) match(pattern string) ([]selection.Selection, error) {
	// Anchor at the start only: "Em" matches "EmLoose" but not "TkEm".
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	matched := make([]selection.Selection, 0)
	for _, s := range p.primitives {
		if re.MatchString(s.Name()) {
			matched = append(matched, s)
		}
	}
	return selection.Dedup(matched), nil
}

func (p *Pool) observe(hit bool) {
	if p.observer != nil {
		p.observer.PatternLookup(hit)
	}
}

func (p *Pool) trace(op, pattern string, s Selector) {
	if p == nil {
		return
	}
	fields := []any{"pool", p.id, "op", op, "pattern", pattern, "count", len(s.result)}
	if p.diagnostics {
		log.Info(log.CatSelector, "selector step", append(fields, "names", selection.Names(s.result))...)
		return
	}
	log.Debug(log.CatSelector, "selector step", fields...)
}
