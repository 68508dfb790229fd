package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schhibra/ntuple-tools/internal/catalog"
	"github.com/schhibra/ntuple-tools/internal/config"
	"github.com/schhibra/ntuple-tools/internal/flags"
	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/metrics"
	"github.com/schhibra/ntuple-tools/internal/selection"
	"github.com/schhibra/ntuple-tools/internal/selector"
	"github.com/schhibra/ntuple-tools/internal/tracing"
)

// session holds what one command invocation builds: the tracing provider,
// the metrics recorder and the catalog.
type session struct {
	cfg        config.Config
	tracer     *tracing.Provider
	metrics    *metrics.Recorder
	catalog    *catalog.Catalog
	logCleanup func()
}

func (s *session) open(ctx context.Context, c config.Config) error {
	s.cfg = c
	s.metrics = metrics.New()

	tp, err := tracing.NewProvider(c.TracingOptions())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	s.tracer = tp

	cat, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.catalog = cat
	return nil
}

// build loads the configured definition and builds it on a fresh registry.
func (s *session) build(ctx context.Context) (*catalog.Catalog, error) {
	def, err := loadDefinition(s.cfg)
	if err != nil {
		return nil, err
	}

	reg := selection.NewRegistry(selection.WithObserver(s.metrics))
	return catalog.Build(ctx, reg, def,
		catalog.WithFlags(flags.New(s.cfg.Flags)),
		catalog.WithDataFS(os.DirFS(s.cfg.WorkingPoints.DataDir)),
		catalog.WithTracer(s.tracer.Tracer()),
		catalog.WithFamilyObserver(s.metrics),
		catalog.WithPoolOptions(
			selector.WithDiagnostics(s.cfg.Selector.Diagnostics),
			selector.WithCacheTTL(s.cfg.Selector.CacheTTL),
			selector.WithCacheObserver(s.metrics),
		),
	)
}

func loadDefinition(c config.Config) (*catalog.Definition, error) {
	if c.Catalog.Path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(c.Catalog.Path)
}

func (s *session) close(ctx context.Context) error {
	var err error
	if s.tracer != nil {
		if shutdownErr := s.tracer.Shutdown(ctx); shutdownErr != nil {
			log.ErrorErr(log.CatConfig, "tracing shutdown failed", shutdownErr)
			err = errors.Join(err, shutdownErr)
		}
	}
	if s.logCleanup != nil {
		s.logCleanup()
	}
	return err
}
