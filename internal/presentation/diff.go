package presentation

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffTimeout bounds a single character diff.
const DiffTimeout = 50 * time.Millisecond

var (
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F")).Bold(true)
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787")).Strikethrough(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FECA57")).Bold(true)
)

// CharDiff renders the character-level edit from a to b. Unstyled output marks
// deletions as [-text-] and insertions as {+text+}.
func CharDiff(a, b string, styled bool) string {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = DiffTimeout
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			if styled {
				sb.WriteString(deleteStyle.Render(d.Text))
			} else {
				sb.WriteString("[-" + d.Text + "-]")
			}
		case diffmatchpatch.DiffInsert:
			if styled {
				sb.WriteString(insertStyle.Render(d.Text))
			} else {
				sb.WriteString("{+" + d.Text + "+}")
			}
		}
	}
	return sb.String()
}

func header(s string, styled bool) string {
	if styled {
		return headerStyle.Render(s)
	}
	return s
}
