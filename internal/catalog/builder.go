package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/schhibra/ntuple-tools/internal/flags"
	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/selection"
	"github.com/schhibra/ntuple-tools/internal/selector"
	"github.com/schhibra/ntuple-tools/internal/tracing"
	"github.com/schhibra/ntuple-tools/internal/workingpoint"
)

// FamilyObserver is told about every family once it is built.
type FamilyObserver interface {
	FamilyBuilt(op string, size int)
}

// Option configures Build.
type Option func(*builder)

// WithFlags sets the feature flags gating working-point paths. Without it
// every gated path is off.
func WithFlags(f *flags.Registry) Option {
	return func(b *builder) { b.flags = f }
}

// WithDataFS sets the filesystem working-point files are read from. The
// default is the current directory.
func WithDataFS(fsys fs.FS) Option {
	return func(b *builder) { b.data = fsys }
}

// WithTracer records a span per build and per family.
func WithTracer(t trace.Tracer) Option {
	return func(b *builder) {
		if t != nil {
			b.tracer = t
		}
	}
}

// WithFamilyObserver attaches an observer for built families.
func WithFamilyObserver(o FamilyObserver) Option {
	return func(b *builder) { b.observer = o }
}

// WithPoolOptions passes options to the selector pool taken during the build.
func WithPoolOptions(opts ...selector.PoolOption) Option {
	return func(b *builder) { b.poolOpts = append(b.poolOpts, opts...) }
}

// Catalog is a built definition: every list and family by name.
type Catalog struct {
	id          string
	source      string
	registry    *selection.Registry
	pool        *selector.Pool
	names       []string
	collections map[string][]selection.Selection
}

type builder struct {
	def      *Definition
	reg      *selection.Registry
	flags    *flags.Registry
	data     fs.FS
	tracer   trace.Tracer
	observer FamilyObserver
	poolOpts []selector.PoolOption

	cat *Catalog
}

// Build defines the lists of def on reg, snapshots the selector pool, applies
// the enabled working-point extensions and builds the families in order.
func Build(ctx context.Context, reg *selection.Registry, def *Definition, opts ...Option) (*Catalog, error) {
	b := &builder{
		def:    def,
		reg:    reg,
		data:   os.DirFS("."),
		tracer: noop.NewTracerProvider().Tracer("noop"),
		cat: &Catalog{
			id:          uuid.NewString(),
			source:      def.Source,
			registry:    reg,
			collections: make(map[string][]selection.Selection, len(def.Lists)+len(def.Families)),
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	ctx, span := b.tracer.Start(ctx, tracing.SpanCatalogBuild, trace.WithAttributes(
		attribute.String(tracing.AttrCatalogSource, def.Source),
		attribute.String(tracing.AttrBuildID, b.cat.id),
	))
	defer span.End()

	if err := b.build(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatCatalog, "catalog build failed", err, "build", b.cat.id, "source", def.Source)
		return nil, err
	}

	span.SetAttributes(attribute.Int(tracing.AttrRegistrySize, reg.Len()))
	span.SetStatus(codes.Ok, "")
	log.Info(log.CatCatalog, "catalog built", "build", b.cat.id, "source", def.Source,
		"collections", len(b.cat.names), "registered", reg.Len())
	return b.cat, nil
}

func (b *builder) build(ctx context.Context, span trace.Span) error {
	for _, l := range b.def.Lists {
		b.defineList(l)
	}
	span.AddEvent(tracing.EventListsDefined)

	b.cat.pool = selector.NewPool(b.reg, b.poolOpts...)
	span.AddEvent(tracing.EventPoolSnapshot, trace.WithAttributes(
		attribute.String(tracing.AttrPoolID, b.cat.pool.ID()),
		attribute.Int(tracing.AttrPoolSize, b.cat.pool.Len()),
	))

	if err := b.extendWorkingPoints(ctx); err != nil {
		return err
	}

	for _, f := range b.def.Families {
		if err := b.buildFamily(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) defineList(l ListDef) {
	sels := make([]selection.Selection, 0, len(l.Selections))
	for _, s := range l.Selections {
		sels = append(sels, b.reg.Define(s.Name, s.Label, s.Predicate))
	}

	b.cat.add(l.Name, sels)
	log.Debug(log.CatCatalog, "list defined", "list", l.Name, "size", len(sels))
}

func (b *builder) extendWorkingPoints(ctx context.Context) error {
	_, span := b.tracer.Start(ctx, tracing.SpanWorkingPoints)
	defer span.End()

	for _, wp := range b.def.WorkingPoints {
		enabled := b.flags.Enabled(wp.Flag)
		if !enabled {
			log.Debug(log.CatCatalog, "working points skipped", "list", wp.List, "flag", wp.Flag)
			continue
		}
		ext, err := workingpoint.ReadIso(b.data, wp.File, wp.Object, wp.EtaRegion)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("extend list %q: %w", wp.List, err)
		}
		b.reg.DefineAll(ext...)
		b.cat.collections[wp.List] = append(b.cat.collections[wp.List], ext...)

		span.AddEvent(tracing.EventExtensionAdded, trace.WithAttributes(
			attribute.String(tracing.AttrListName, wp.List),
			attribute.String(tracing.AttrFlag, wp.Flag),
			attribute.Int(tracing.AttrFamilySize, len(ext)),
		))
		log.Debug(log.CatCatalog, "working points added", "list", wp.List, "object", wp.Object, "count", len(ext))
	}

	// Grids are expanded after the snapshot, so the pool never sees them.
	for _, l := range b.def.Lists {
		if len(l.IsoGrid) == 0 || (l.IsoGridFlag != "" && !b.flags.Enabled(l.IsoGridFlag)) {
			continue
		}
		grid, err := workingpoint.FillIso(l.IsoGrid)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("list %q: %w", l.Name, err)
		}
		b.reg.DefineAll(grid...)
		b.cat.collections[l.Name] = append(b.cat.collections[l.Name], grid...)

		span.AddEvent(tracing.EventExtensionAdded, trace.WithAttributes(
			attribute.String(tracing.AttrListName, l.Name),
			attribute.String(tracing.AttrFlag, l.IsoGridFlag),
			attribute.Int(tracing.AttrFamilySize, len(grid)),
		))
		log.Debug(log.CatCatalog, "iso grid added", "list", l.Name, "count", len(grid))
	}
	return nil
}

func (b *builder) buildFamily(ctx context.Context, f FamilyDef) (err error) {
	_, span := b.tracer.Start(ctx, tracing.SpanPrefixFamily+f.Name,
		trace.WithAttributes(attribute.String(tracing.AttrFamilyName, f.Name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	op := f.Op()
	var sels []selection.Selection

	if f.IsoPt != nil {
		enabled := b.flags.Enabled(f.IsoPt.Flag)
		span.SetAttributes(attribute.String(tracing.AttrFlag, f.IsoPt.Flag), attribute.Bool(tracing.AttrFlagEnabled, enabled))
		switch {
		case enabled:
			op = OpIsoPt
		case op == OpIsoPt:
			op = OpEmpty
		default:
			span.AddEvent(tracing.EventFallbackUsed)
		}
	}

	switch op {
	case OpSelect:
		s, err := b.cat.pool.Expr(f.Select)
		if err != nil {
			return fmt.Errorf("family %q: %w", f.Name, err)
		}
		sels = s.Selections()
	case OpProduct:
		sels = b.product(f.Product)
	case OpConcat:
		for _, t := range f.Concat {
			sels = append(sels, b.product(t)...)
		}
	case OpIsoPt:
		sels, err = b.isoPt(f.IsoPt)
		if err != nil {
			return fmt.Errorf("family %q: %w", f.Name, err)
		}
	case OpEmpty:
		sels = []selection.Selection{}
	}

	if f.Prune {
		sels = selection.Dedup(sels)
	}
	if f.Exclude != "" {
		sels = selection.Exclude(sels, f.Exclude)
	}

	b.cat.add(f.Name, sels)
	span.SetAttributes(attribute.String(tracing.AttrFamilyOp, op), attribute.Int(tracing.AttrFamilySize, len(sels)))
	if b.observer != nil {
		b.observer.FamilyBuilt(op, len(sels))
	}
	log.Debug(log.CatCatalog, "family built", "family", f.Name, "op", op, "size", len(sels))
	return nil
}

// product folds names left to right with the recording cartesian product. A
// single name yields a copy of that collection.
func (b *builder) product(names []string) []selection.Selection {
	acc := slices.Clone(b.cat.collections[names[0]])
	for _, name := range names[1:] {
		acc = b.reg.CombineAll(acc, b.cat.collections[name])
	}
	return acc
}

func (b *builder) isoPt(def *IsoPtDef) ([]selection.Selection, error) {
	pairs, err := workingpoint.ReadIsoPt(b.data, def.File, def.Object)
	if err != nil {
		return nil, err
	}
	// Rate points are recorded as read, ahead of the composites built from them.
	for _, p := range pairs {
		b.reg.Register(p.Pt)
	}

	from := b.cat.collections[def.From]
	sels := make([]selection.Selection, 0, len(pairs))
	for _, p := range pairs {
		iso, ok := selection.Find(from, p.IsoSelection)
		if !ok {
			return nil, fmt.Errorf("%w: iso selection %q in %s", workingpoint.ErrKeyNotFound, p.IsoSelection, def.From)
		}
		sels = append(sels, b.reg.And(iso, p.Pt))
	}
	return sels, nil
}

func (c *Catalog) add(name string, sels []selection.Selection) {
	c.names = append(c.names, name)
	c.collections[name] = sels
}

// ID identifies this build in logs and traces.
func (c *Catalog) ID() string { return c.id }

// Source is where the definition was read from.
func (c *Catalog) Source() string { return c.source }

// Registry returns the registry the catalog was built on.
func (c *Catalog) Registry() *selection.Registry { return c.registry }

// Pool returns the selector pool snapshotted after the lists were defined.
func (c *Catalog) Pool() *selector.Pool { return c.pool }

// Names lists every collection, lists first, in definition order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Lookup returns a copy of the named collection.
func (c *Catalog) Lookup(name string) ([]selection.Selection, error) {
	sels, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return slices.Clone(sels), nil
}
