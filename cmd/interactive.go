package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schhibra/ntuple-tools/internal/catalog"
	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/presentation"
	"github.com/schhibra/ntuple-tools/internal/watcher"
)

const prompt = "enter selection name: "

// errWatchEmbedded is returned by --watch when no catalog file is configured.
var errWatchEmbedded = errors.New("--watch needs catalog.path: the embedded catalog cannot change")

var interactiveWatch bool

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Look up collections by name at a prompt",
	Long: `Read a collection name per line and print its selections. Unknown names
are reported and the prompt continues. An empty line, "quit", "exit" or end of
input ends the session.

With --watch the catalog is rebuilt whenever the configured catalog file
changes.`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func init() {
	interactiveCmd.Flags().BoolVarP(&interactiveWatch, "watch", "w", false,
		"rebuild the catalog when the catalog file changes")
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	formatter := presentation.NewFormatter(out)

	var changes <-chan struct{}
	if interactiveWatch {
		if sess.cfg.Catalog.Path == "" {
			return errWatchEmbedded
		}
		w, err := watcher.New(watcher.DefaultConfig(sess.cfg.Catalog.Path))
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
		if changes, err = w.Start(); err != nil {
			return err
		}
		log.Info(log.CatWatcher, "watching catalog", "path", sess.cfg.Catalog.Path)
	}

	done := make(chan struct{})
	defer close(done)
	lines := readLines(cmd.InOrStdin(), done)
	_, _ = fmt.Fprint(out, prompt)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-changes:
			reloadCatalog(cmd, out)
			_, _ = fmt.Fprint(out, prompt)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			name := strings.TrimSpace(line)
			switch name {
			case "", "quit", "exit":
				return nil
			}
			sels, err := sess.catalog.Lookup(name)
			switch {
			case errors.Is(err, catalog.ErrUnknownCollection):
				_, _ = fmt.Fprintf(out, "unknown collection %q\n", name)
			case err != nil:
				return err
			default:
				if err := formatter.FormatSelections(sels); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprint(out, prompt)
		}
	}
}

// reloadCatalog rebuilds the catalog. A failed rebuild keeps the previous one.
func reloadCatalog(cmd *cobra.Command, out io.Writer) {
	cat, err := sess.build(cmd.Context())
	if err != nil {
		log.ErrorErr(log.CatWatcher, "catalog reload failed", err)
		_, _ = fmt.Fprintf(out, "\nreload failed, keeping previous catalog: %v\n", err)
		return
	}
	sess.catalog = cat
	log.Info(log.CatWatcher, "catalog reloaded", "build", cat.ID(), "collections", len(cat.Names()))
	_, _ = fmt.Fprintf(out, "\ncatalog reloaded: %d collections\n", len(cat.Names()))
}

// readLines streams the lines of r until end of input or until done closes.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}
