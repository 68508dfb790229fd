package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/schhibra/ntuple-tools/internal/selection"
)

func TestRecorder_ObservesRegistry(t *testing.T) {
	rec := New()
	reg := selection.NewRegistry(selection.WithObserver(rec))

	pt := reg.Define("Pt10", "", "pt >= 10")
	eta := reg.Define("EtaF", "", "abs(eta) <= 1.479")
	reg.And(pt, eta)
	reg.And(selection.Identity(), pt)

	require.Equal(t, 3.0, testutil.ToFloat64(rec.registered))
}

func TestRecorder_PatternLookups(t *testing.T) {
	rec := New()
	rec.PatternLookup(false)
	rec.PatternLookup(true)
	rec.PatternLookup(true)

	require.Equal(t, 2.0, testutil.ToFloat64(rec.lookups.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.lookups.WithLabelValues("miss")))
}

func TestRecorder_FamilyBuilt(t *testing.T) {
	rec := New()
	rec.FamilyBuilt("select", 9)
	rec.FamilyBuilt("select", 4)
	rec.FamilyBuilt("product", 0)

	require.Equal(t, 2.0, testutil.ToFloat64(rec.familyBuilds.WithLabelValues("select")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.familyBuilds.WithLabelValues("product")))
	require.Equal(t, 2, testutil.CollectAndCount(rec.familySize))
}

func TestRecorder_WriteText(t *testing.T) {
	rec := New()
	rec.PatternLookup(true)
	rec.FamilyBuilt("concat", 3)

	var buf bytes.Buffer
	require.NoError(t, rec.WriteText(&buf))

	out := buf.String()
	require.Contains(t, out, "# TYPE selections_selector_pattern_lookups_total counter")
	require.Contains(t, out, `selections_selector_pattern_lookups_total{result="hit"} 1`)
	require.Contains(t, out, `selections_catalog_family_builds_total{op="concat"} 1`)
	require.Contains(t, out, "selections_registry_registered_total 0")
}
