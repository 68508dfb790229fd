package selection

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// IdentityName is the reserved name of the identity selection.
	IdentityName = "all"

	// ObjectPlaceholder is substituted in labels by the object token.
	ObjectPlaceholder = "TOBJ"

	// GenMarker in a name marks a generator-level selection.
	GenMarker = "GEN"

	genObject  = "GEN"
	recoObject = "L1"
)

// Selection is an immutable named predicate. The zero value is a selection
// with empty name, label and predicate.
type Selection struct {
	name      string
	label     string
	predicate string
	signature uint64
}

// New builds a Selection. Nothing is validated and nothing is recorded; use
// Registry.Define to record the value.
func New(name, label, predicate string) Selection {
	return Selection{
		name:      name,
		label:     label,
		predicate: predicate,
		signature: xxhash.Sum64String(predicate),
	}
}

// Identity returns the identity selection (name "all", empty label and predicate).
func Identity() Selection {
	return New(IdentityName, "", "")
}

// Name returns the selection name.
func (s Selection) Name() string { return s.name }

// RawLabel returns the label as stored, placeholder included.
func (s Selection) RawLabel() string { return s.label }

// Predicate returns the boolean-filter expression.
func (s Selection) Predicate() string { return s.predicate }

// Signature returns the content hash of the predicate.
func (s Selection) Signature() uint64 { return s.signature }

// IsIdentity reports whether s is the identity element of And.
func (s Selection) IsIdentity() bool { return s.name == IdentityName }

// Label returns the display label. ObjectPlaceholder is replaced by "GEN" when
// the name contains GenMarker and by "L1" otherwise.
func (s Selection) Label() string {
	obj := recoObject
	if strings.Contains(s.name, GenMarker) {
		obj = genObject
	}
	return strings.ReplaceAll(s.label, ObjectPlaceholder, obj)
}

// And composes s with other (logical AND).
//
// If other is the identity, s is returned; if s is the identity, other is
// returned. Otherwise the label is "s.raw, other.raw", replaced by other.raw
// when s.raw is empty and by s.raw when other's resolved label is empty. The
// emptiness check on the right operand uses the resolved label while the left
// uses the raw one; existing outputs depend on that.
func (s Selection) And(other Selection) Selection {
	if other.IsIdentity() {
		return s
	}
	if s.IsIdentity() {
		return other
	}

	label := s.label + ", " + other.label
	if s.label == "" {
		label = other.label
	}
	if other.Label() == "" {
		label = s.label
	}

	return New(
		s.name+other.name,
		label,
		"("+s.predicate+") & ("+other.predicate+")",
	)
}

// Equal reports whether s and other agree on name, resolved label and predicate.
func (s Selection) Equal(other Selection) bool {
	return s.name == other.name && s.Label() == other.Label() && s.predicate == other.predicate
}

func (s Selection) String() string {
	return fmt.Sprintf("n: %s, s: %s, l:%s", s.name, s.predicate, s.Label())
}

// GoString is used by %#v and in test failure output.
func (s Selection) GoString() string {
	return fmt.Sprintf("<Selection n: %s, s: %s, l:%s>", s.name, s.predicate, s.Label())
}

// Names returns the names of sels in order.
func Names(sels []Selection) []string {
	names := make([]string, len(sels))
	for i, s := range sels {
		names[i] = s.name
	}
	return names
}
