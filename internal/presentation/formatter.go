package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/schhibra/ntuple-tools/internal/selection"
)

// Formatter writes command output.
type Formatter struct {
	writer io.Writer
	styled bool
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithStyle enables lipgloss styling of diff output.
func WithStyle(styled bool) FormatterOption {
	return func(f *Formatter) { f.styled = styled }
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer, opts ...FormatterOption) *Formatter {
	f := &Formatter{writer: writer}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatJSON writes v as indented JSON.
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatSelections writes one selection per line in its String form.
func (f *Formatter) FormatSelections(sels []selection.Selection) error {
	for _, s := range sels {
		if _, err := fmt.Fprintln(f.writer, s.String()); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames writes one name per line.
func (f *Formatter) FormatNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := io.WriteString(f.writer, strings.Join(names, "\n")+"\n")
	return err
}

// FormatComparison writes a [DIFF] block per mismatch, each followed by the
// character diff of the differing fields. A length difference is reported
// alone.
func (f *Formatter) FormatComparison(c selection.Comparison) error {
	var sb strings.Builder
	switch {
	case c.LengthDiffers():
		sb.WriteString(header(fmt.Sprintf("[DIFF] len 1: %d len2: %d", c.LenA, c.LenB), f.styled))
		sb.WriteString("\n")
	case c.Equal:
		fmt.Fprintf(&sb, "equal: %d selections\n", c.LenA)
	default:
		for _, m := range c.Mismatches {
			sb.WriteString(header("[DIFF]", f.styled))
			fmt.Fprintf(&sb, "\n %s \n %s\n", m.A, m.B)
			f.fieldDiff(&sb, "name", m.A.Name(), m.B.Name())
			f.fieldDiff(&sb, "label", m.A.Label(), m.B.Label())
			f.fieldDiff(&sb, "predicate", m.A.Predicate(), m.B.Predicate())
		}
	}
	_, err := io.WriteString(f.writer, sb.String())
	return err
}

func (f *Formatter) fieldDiff(sb *strings.Builder, field, a, b string) {
	if a == b {
		return
	}
	fmt.Fprintf(sb, "   %s: %s\n", field, CharDiff(a, b, f.styled))
}
