// Package metrics counts selection registrations, pattern-cache lookups and
// catalog family builds on a private Prometheus registry.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/selection"
)

const namespace = "selections"

// Recorder implements selection.Observer and selector.CacheObserver.
type Recorder struct {
	registry *prometheus.Registry

	registered   prometheus.Counter
	lookups      *prometheus.CounterVec
	familyBuilds *prometheus.CounterVec
	familySize   *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "registered_total",
			Help:      "Selections recorded on the registry",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "pattern_lookups_total",
			Help:      "Pattern filter lookups against the pool cache, by result",
		}, []string{"result"}),
		familyBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "family_builds_total",
			Help:      "Catalog families built, by operation",
		}, []string{"op"}),
		familySize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "family_size",
			Help:      "Number of selections in each built family",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"op"}),
	}
	r.registry.MustRegister(r.registered, r.lookups, r.familyBuilds, r.familySize)
	return r
}

// SelectionRegistered implements selection.Observer.
func (r *Recorder) SelectionRegistered(selection.Selection) {
	r.registered.Inc()
}

// PatternLookup implements selector.CacheObserver.
func (r *Recorder) PatternLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.WithLabelValues(result).Inc()
}

// FamilyBuilt records a finished family.
func (r *Recorder) FamilyBuilt(op string, size int) {
	r.familyBuilds.WithLabelValues(op).Inc()
	r.familySize.WithLabelValues(op).Observe(float64(size))
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteText writes every metric family in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	log.Debug(log.CatMetrics, "wrote metrics", "families", len(families))
	return nil
}
