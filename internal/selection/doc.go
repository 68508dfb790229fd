// Package selection implements the selection algebra used to build analysis cuts.
//
// A Selection is a named, labelled boolean-filter expression. The expression is
// opaque here: it is evaluated by whatever tabular query engine consumes the
// selections downstream. This package only names, composes and compares them.
//
// # Composition
//
// Selections compose with And. The selection named "all" is the identity
// element: composing with it returns the other operand unchanged. Any other
// pair yields a new Selection whose name is the concatenation of both names and
// whose predicate is "(P) & (Q)".
//
// # Registry
//
// Registry is the explicit record of every selection an application defines.
// It replaces a process-wide singleton: the composition root constructs one
// Registry and threads it through. Define and And record new values; the pure
// constructors (New, Selection.And, CombineAll) record nothing.
//
// # Set operations
//
// CombineAll builds the ordered cartesian product of two sequences, Dedup
// keeps the first selection per name, and Compare checks two sequences for
// order-independent equality while collecting every mismatch.
package selection
