// Package flags gates the cold working-point paths of the selection catalog.
// Flags are read-only after initialization and unknown flags read as disabled.
package flags

import (
	"maps"
	"slices"

	"github.com/schhibra/ntuple-tools/internal/log"
)

const (
	// FlagIsoWorkingPoints extends the isolation lists with working points read
	// from the iso working-point document.
	FlagIsoWorkingPoints = "iso-working-points"

	// FlagIsoPtWorkingPoints builds the iso/pt families from the rate-point
	// document instead of their fallback product.
	FlagIsoPtWorkingPoints = "iso-pt-working-points"

	// FlagIsoGrid expands the hand-written isolation/pt grids into selections.
	FlagIsoGrid = "iso-grid"
)

// Known lists every flag the catalog understands.
func Known() []string {
	return []string{FlagIsoWorkingPoints, FlagIsoPtWorkingPoints, FlagIsoGrid}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables everything.
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: maps.Clone(flags)}
	for name := range flags {
		if !slices.Contains(Known(), name) {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. Unknown flags and a nil
// registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}
