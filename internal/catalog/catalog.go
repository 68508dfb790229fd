// Package catalog holds the named selection collections of an analysis: the
// hand-authored lists, the working-point extensions gated by feature flags,
// and the families derived from both through selector expressions, products
// and concatenations.
//
// A catalog is declared in YAML. The default declaration is embedded; Load
// reads a replacement from any fs.FS. Build turns a Definition into a Catalog
// against a selection.Registry.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/schhibra/ntuple-tools/internal/flags"
	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/workingpoint"
)

// DefaultSource names the embedded catalog in logs and spans.
const DefaultSource = "embedded:catalog.yaml"

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	// ErrInvalidCatalog is returned when a definition fails validation.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrUnknownCollection is returned by Lookup for a name that is neither a list nor a family.
	ErrUnknownCollection = errors.New("unknown collection")
)

var catalogValidate *validator.Validate

func init() {
	catalogValidate = validator.New()
	_ = catalogValidate.RegisterValidation("pattern", validatePattern)
	_ = catalogValidate.RegisterValidation("knownflag", validateKnownFlag)
}

// validatePattern accepts strings that compile as selector patterns.
func validatePattern(fl validator.FieldLevel) bool {
	_, err := regexp.Compile("^(?:" + fl.Field().String() + ")")
	return err == nil
}

func validateKnownFlag(fl validator.FieldLevel) bool {
	return slices.Contains(flags.Known(), fl.Field().String())
}

// SelectionDef declares one selection. An empty label or predicate is allowed.
type SelectionDef struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	Predicate string `yaml:"predicate"`
}

// ListDef declares a hand-authored list. IsoGrid rows are expanded with
// workingpoint.FillIso and appended when IsoGridFlag is empty or enabled.
type ListDef struct {
	Name        string                `yaml:"name" validate:"required"`
	Selections  []SelectionDef        `yaml:"selections" validate:"dive"`
	IsoGrid     []workingpoint.IsoCut `yaml:"iso_grid" validate:"dive"`
	IsoGridFlag string                `yaml:"iso_grid_flag" validate:"omitempty,knownflag"`
}

// WorkingPointDef appends the iso working points of Object in File to List
// when Flag is enabled.
type WorkingPointDef struct {
	List      string `yaml:"list" validate:"required"`
	Flag      string `yaml:"flag" validate:"required,knownflag"`
	File      string `yaml:"file" validate:"required"`
	Object    string `yaml:"object" validate:"required"`
	EtaRegion string `yaml:"eta_region" validate:"required"`
}

// IsoPtDef builds a family by pairing each rate point of Object in File with
// the iso selection of the same name found in collection From.
type IsoPtDef struct {
	Flag   string `yaml:"flag" validate:"required,knownflag"`
	File   string `yaml:"file" validate:"required"`
	Object string `yaml:"object" validate:"required"`
	From   string `yaml:"from" validate:"required"`
}

// Term is one element of a concat: a single collection name, or a sequence
// of names whose cartesian product is taken.
type Term []string

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (t *Term) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*t = Term{n.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return err
		}
		*t = names
		return nil
	default:
		return fmt.Errorf("line %d: concat term must be a name or a list of names", n.Line)
	}
}

// FamilyDef declares a derived collection. Exactly one of Select, Product and
// Concat is set, or IsoPt optionally accompanied by one of them as the
// flag-off fallback.
type FamilyDef struct {
	Name    string     `yaml:"name" validate:"required"`
	Select  [][]string `yaml:"select" validate:"omitempty,dive,min=1,dive,pattern"`
	Product []string   `yaml:"product" validate:"omitempty,dive,required"`
	Concat  []Term     `yaml:"concat" validate:"omitempty,dive,min=1,dive,required"`
	IsoPt   *IsoPtDef  `yaml:"iso_pt"`
	Prune   bool       `yaml:"prune"`
	Exclude string     `yaml:"exclude"`
}

// Op names the operation that builds the family when its iso_pt path, if
// any, is not taken.
func (f FamilyDef) Op() string {
	switch {
	case len(f.Select) > 0:
		return OpSelect
	case len(f.Product) > 0:
		return OpProduct
	case len(f.Concat) > 0:
		return OpConcat
	case f.IsoPt != nil:
		return OpIsoPt
	}
	return ""
}

func (f FamilyDef) opCount() int {
	n := 0
	for _, set := range []bool{len(f.Select) > 0, len(f.Product) > 0, len(f.Concat) > 0} {
		if set {
			n++
		}
	}
	return n
}

// Family operations.
const (
	OpSelect  = "select"
	OpProduct = "product"
	OpConcat  = "concat"
	OpIsoPt   = "iso_pt"
	OpEmpty   = "empty"
)

// Definition is a parsed catalog file.
type Definition struct {
	Lists         []ListDef         `yaml:"lists" validate:"dive"`
	WorkingPoints []WorkingPointDef `yaml:"working_points" validate:"dive"`
	Families      []FamilyDef       `yaml:"families" validate:"dive"`

	// Source is where the definition was read from.
	Source string `yaml:"-"`
}

// Default parses the embedded catalog.
func Default() (*Definition, error) {
	return Parse(defaultCatalog, DefaultSource)
}

// Load reads and parses the catalog file at path in fsys.
func Load(fsys fs.FS, path string) (*Definition, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(content, path)
}

// Parse decodes and validates a catalog document. Unknown keys are rejected.
func Parse(content []byte, source string) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", ErrInvalidCatalog, source)
		}
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidCatalog, source, err)
	}
	def.Source = source

	if err := def.Validate(); err != nil {
		log.ErrorErr(log.CatCatalog, "catalog validation failed", err, "source", source)
		return nil, err
	}
	log.Debug(log.CatCatalog, "catalog parsed", "source", source,
		"lists", len(def.Lists), "working_points", len(def.WorkingPoints), "families", len(def.Families))
	return &def, nil
}

// Validate checks field constraints and the structure of the definition:
// collection names are unique, every reference names a list or an earlier
// family, and every family has a valid operation set.
func (d *Definition) Validate() error {
	if err := catalogValidate.Struct(d); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	known := make(map[string]bool, len(d.Lists)+len(d.Families))
	lists := make(map[string]bool, len(d.Lists))
	for _, l := range d.Lists {
		if known[l.Name] {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidCatalog, l.Name)
		}
		known[l.Name] = true
		lists[l.Name] = true
	}

	for i, wp := range d.WorkingPoints {
		if !lists[wp.List] {
			return fmt.Errorf("%w: working point %d extends unknown list %q", ErrInvalidCatalog, i, wp.List)
		}
	}

	for _, f := range d.Families {
		if known[f.Name] {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidCatalog, f.Name)
		}
		ops := f.opCount()
		switch {
		case f.IsoPt == nil && ops != 1:
			return fmt.Errorf("%w: family %q needs exactly one of select, product, concat (has %d)", ErrInvalidCatalog, f.Name, ops)
		case f.IsoPt != nil && ops > 1:
			return fmt.Errorf("%w: family %q has more than one iso_pt fallback", ErrInvalidCatalog, f.Name)
		}

		refs := slices.Clone(f.Product)
		for _, t := range f.Concat {
			refs = append(refs, t...)
		}
		if f.IsoPt != nil {
			refs = append(refs, f.IsoPt.From)
		}
		for _, ref := range refs {
			if !known[ref] {
				return fmt.Errorf("%w: family %q references unknown collection %q", ErrInvalidCatalog, f.Name, ref)
			}
		}
		known[f.Name] = true
	}
	return nil
}

// LoadFile reads a catalog from a path on the local filesystem.
func LoadFile(path string) (*Definition, error) {
	def, err := Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	def.Source = path
	return def, nil
}
