// Package workingpoint reads isolation working points from JSON documents and
// turns them into selections.
//
// Documents are decoded into yaml.v3 nodes (JSON is valid YAML) so that map
// entries are visited in document order, which fixes the order of the
// resulting selections. Loaders return unregistered values; callers record
// them on a selection.Registry.
package workingpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrKeyNotFound is returned when a required object, region or selection key is absent.
	ErrKeyNotFound = errors.New("working point key not found")
	// ErrMalformed is returned when a document or key does not have the expected shape.
	ErrMalformed = errors.New("malformed working point document")
)

// entry is one key/value pair of a mapping node, in document order.
type entry struct {
	key   string
	value *yaml.Node
}

func readDocument(fsys fs.FS, file string) (*yaml.Node, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s: %w: empty document", file, ErrMalformed)
	}
	return doc.Content[0], nil
}

func entries(n *yaml.Node, path string) ([]entry, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformed, path)
	}
	out := make([]entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, entry{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return out, nil
}

func lookup(n *yaml.Node, key, path string) (*yaml.Node, error) {
	items, err := entries(n, path)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.key == key {
			return it.value, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrKeyNotFound, key, path)
}

// scalar returns the text of a scalar node. Floats are rewritten in their
// shortest round-trip form, so 0.10 reads as 0.1 and 20 as 20 but 20.0 stays
// 20.0.
func scalar(n *yaml.Node, path string) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%w: %s is not a scalar", ErrMalformed, path)
	}
	if n.ShortTag() != "!!float" {
		return n.Value, nil
	}
	f, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	return formatFloat(f), nil
}

// formatFloat writes f in fixed notation with at least one decimal for
// decimal exponents in [-4, 16) and in exponent notation ("1e-05") otherwise.
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}
