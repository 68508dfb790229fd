package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schhibra/ntuple-tools/internal/catalog"
	"github.com/schhibra/ntuple-tools/internal/presentation"
	"github.com/schhibra/ntuple-tools/internal/selection"
)

// run executes the root command against a config file holding configYAML and
// returns what the command wrote to stdout.
func run(t *testing.T, configYAML, stdin string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))
	return runWithConfig(t, path, stdin, args...)
}

func runWithConfig(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prepare(t, configPath, strings.NewReader(stdin), &out, args...)
	err := execute(context.Background())
	return out.String(), err
}

// prepare points the root command at configPath, in and out.
func prepare(t *testing.T, configPath string, in io.Reader, out io.Writer, args ...string) {
	t.Helper()
	t.Setenv("SELECTIONS_DEBUG", "")

	// Flag variables outlive a single Execute.
	cfgFile, debugFlag = "", false
	showJSON, compareJSON, interactiveWatch = false, false, false

	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	def, err := catalog.Default()
	require.NoError(t, err)
	cat, err := catalog.Build(context.Background(), selection.NewRegistry(), def)
	require.NoError(t, err)
	return cat
}

func formatted(t *testing.T, sels []selection.Selection) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, presentation.NewFormatter(&buf).FormatSelections(sels))
	return buf.String()
}

func TestList(t *testing.T) {
	out, err := run(t, "", "", "list")
	require.NoError(t, err)

	names := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, defaultCatalog(t).Names(), names)
	require.Equal(t, "tp_id_sel", names[0])
}

func TestShow(t *testing.T) {
	cat := defaultCatalog(t)
	rate, err := cat.Lookup("tp_rate_selections")
	require.NoError(t, err)
	match, err := cat.Lookup("tp_match_selections")
	require.NoError(t, err)

	out, err := run(t, "", "", "show", "tp_rate_selections", "tp_match_selections")
	require.NoError(t, err)
	require.Equal(t, formatted(t, rate)+formatted(t, match), out)
}

func TestShow_JSON(t *testing.T) {
	out, err := run(t, "", "", "show", "--json", "tp_rate_selections")
	require.NoError(t, err)

	var collections []presentation.CollectionDTO
	require.NoError(t, json.Unmarshal([]byte(out), &collections))
	require.Len(t, collections, 1)
	require.Equal(t, "tp_rate_selections", collections[0].Name)
	require.Equal(t, 6, collections[0].Size)
	require.Equal(t, "all", collections[0].Selections[0].Name)
	require.Equal(t, "EmEtaBCD", collections[0].Selections[5].Name)
}

func TestShow_UnknownCollection(t *testing.T) {
	_, err := run(t, "", "", "show", "no_such_selections")
	require.ErrorIs(t, err, catalog.ErrUnknownCollection)
}

func TestLabels(t *testing.T) {
	out, err := run(t, "", "", "labels")
	require.NoError(t, err)

	var labels map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &labels))
	require.Equal(t, defaultCatalog(t).Registry().Labels(), labels)
}

func TestCompare_Equal(t *testing.T) {
	out, err := run(t, "", "", "compare", "tp_rate_selections", "tp_rate_selections")
	require.NoError(t, err)
	require.Equal(t, "equal: 6 selections\n", out)
}

func TestCompare_Differ(t *testing.T) {
	out, err := run(t, "", "", "compare", "tp_rate_selections", "tp_match_selections")
	require.ErrorIs(t, err, errCollectionsDiffer)
	require.Contains(t, out, "[DIFF] len 1: 6 len2: 8")
}

func TestCompare_HelpExamplesNameCollections(t *testing.T) {
	cat := defaultCatalog(t)
	examples := 0
	for _, line := range strings.Split(compareCmd.Long, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "selections" || fields[1] != "compare" {
			continue
		}
		examples++
		for _, name := range fields[2:4] {
			_, err := cat.Lookup(name)
			require.NoError(t, err, "example line %q", line)
		}
	}
	require.Equal(t, 2, examples)
}

func TestCompare_JSON(t *testing.T) {
	out, err := run(t, "", "", "compare", "--json", "tp_calib_selections", "tp_calib_selections")
	require.NoError(t, err)

	var result presentation.ComparisonDTO
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.True(t, result.Equal)
	require.Equal(t, 2, result.LenA)
}

func TestInteractive(t *testing.T) {
	calib, err := defaultCatalog(t).Lookup("tp_calib_selections")
	require.NoError(t, err)

	out, err := run(t, "", "tp_calib_selections\nbogus\nquit\nignored\n", "interactive")
	require.NoError(t, err)

	want := prompt + formatted(t, calib) + prompt + "unknown collection \"bogus\"\n" + prompt
	require.Equal(t, want, out)
}

func TestInteractive_EndOfInput(t *testing.T) {
	out, err := run(t, "", "", "interactive")
	require.NoError(t, err)
	require.Equal(t, prompt, out)
}

func TestInteractive_WatchNeedsCatalogFile(t *testing.T) {
	_, err := run(t, "", "", "interactive", "--watch")
	require.ErrorIs(t, err, errWatchEmbedded)
}

func TestStats(t *testing.T) {
	out, err := run(t, "", "", "stats")
	require.NoError(t, err)
	require.Contains(t, out, "selections_registry_registered_total")
	require.Contains(t, out, `selections_catalog_family_builds_total{op="select"} 32`)
	require.Contains(t, out, `selections_catalog_family_builds_total{op="empty"} 1`)
}

func TestCustomCatalogFile(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
lists:
  - name: base
    selections:
      - {name: all}
      - {name: Em, label: EGId, predicate: "hwQual == 5"}
  - name: pt
    selections:
      - {name: Pt10, label: "p_{T}^{TOBJ}>=10GeV", predicate: "pt >= 10"}
families:
  - {name: combined, product: [base, pt]}
`), 0o600))

	out, err := run(t, "catalog:\n  path: "+catalogPath+"\n", "", "list")
	require.NoError(t, err)
	require.Equal(t, "base\npt\ncombined\n", out)

	out, err = run(t, "catalog:\n  path: "+catalogPath+"\n", "", "show", "combined")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "n: EmPt10")
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "flags:\n  no-such-flag: true\n", "", "list")
	require.ErrorContains(t, err, "invalid configuration")
}

func TestFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# analysis settings\nflags:\n  iso-grid: false\n"), 0o600))

	out, err := runWithConfig(t, path, "", "flag", "iso-grid", "true")
	require.NoError(t, err)
	require.Contains(t, out, "iso-grid: true")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "# analysis settings")
	require.Contains(t, string(content), "iso-grid: true")

	out, err = runWithConfig(t, path, "", "flag")
	require.NoError(t, err)
	require.Contains(t, out, "iso-grid: true\n")
	require.Contains(t, out, "iso-working-points: false\n")

	_, err = runWithConfig(t, path, "", "flag", "no-such-flag")
	require.Error(t, err)

	_, err = runWithConfig(t, path, "", "flag", "iso-grid", "maybe")
	require.ErrorContains(t, err, "flag value")
}

const watchCatalogV1 = `
lists:
  - name: base
    selections: [{name: all}, {name: Em, label: EGId, predicate: "hwQual == 5"}]
  - name: pt
    selections: [{name: Pt10, label: "p_{T}^{TOBJ}>=10GeV", predicate: "pt >= 10"}]
families:
  - {name: first, product: [base]}
`

const watchCatalogV2 = watchCatalogV1 + `  - {name: second, product: [base, pt]}
`

func TestInteractive_WatchReloadsCatalog(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(watchCatalogV1), 0o600))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("catalog:\n  path: "+catalogPath+"\n"), 0o600))

	stdin, input := io.Pipe()
	out := &syncBuffer{}
	prepare(t, configPath, stdin, out, "interactive", "--watch")

	done := make(chan error, 1)
	go func() { done <- execute(context.Background()) }()

	waitFor := func(substr string, count int) {
		t.Helper()
		require.Eventually(t, func() bool {
			return strings.Count(out.String(), substr) >= count
		}, 5*time.Second, 20*time.Millisecond, "waiting for %q in:\n%s", substr, out.String())
	}
	send := func(line string) {
		t.Helper()
		_, err := io.WriteString(input, line+"\n")
		require.NoError(t, err)
	}

	waitFor(prompt, 1)
	send("second")
	waitFor(`unknown collection "second"`, 1)

	require.NoError(t, os.WriteFile(catalogPath, []byte(watchCatalogV2), 0o600))
	waitFor("catalog reloaded: 4 collections", 1)
	send("second")
	waitFor("n: EmPt10", 1)

	require.NoError(t, os.WriteFile(catalogPath, []byte("lists: [unterminated\n"), 0o600))
	waitFor("reload failed, keeping previous catalog", 1)
	send("second")
	waitFor("n: EmPt10", 2)

	require.NoError(t, input.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("interactive did not return at end of input")
	}
}

func TestDebugLogLevel(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "debug.log")
	t.Setenv("SELECTIONS_LOG", logPath)

	_, err := run(t, "log:\n  level: warn\n", "", "--debug", "list")
	require.NoError(t, err)
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.NotContains(t, string(content), "[INFO]")

	require.NoError(t, os.Remove(logPath))
	_, err = run(t, "log:\n  level: info\n", "", "--debug", "list")
	require.NoError(t, err)
	content, err = os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "catalog built")
	require.NotContains(t, string(content), "[DEBUG]")

	_, err = run(t, "log:\n  level: verbose\n", "", "list")
	require.ErrorContains(t, err, "log.level")
}
