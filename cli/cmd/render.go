package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/chtl/lang"
)

// diagStyle colors diagnostics written to a terminal. Styles are bound to
// the renderer of the output, so redirected output stays plain.
type diagStyle struct {
	pos, category, hint lipgloss.Style
	severity            map[lang.Severity]lipgloss.Style
}

func newDiagStyle(w io.Writer) diagStyle {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return diagStyle{
		pos:      r.NewStyle().Bold(true),
		category: fg("8"),
		hint:     fg("6"),
		severity: map[lang.Severity]lipgloss.Style{
			lang.SeverityInfo:    fg("4"),
			lang.SeverityWarning: fg("3").Bold(true),
			lang.SeverityError:   fg("1").Bold(true),
		},
	}
}

// tally counts diagnostics by severity.
type tally map[lang.Severity]int

func (t tally) String() string {
	var part []string

	for _, s := range []lang.Severity{lang.SeverityError, lang.SeverityWarning, lang.SeverityInfo} {
		if n := t[s]; n > 0 {
			part = append(part, plural(n, s.String()))
		}
	}

	return strings.Join(part, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}

	return fmt.Sprintf("%d %ss", n, word)
}

// writeDiagnostics writes one line per diagnostic in diags to w, followed
// by suggestions where present, and returns the counts written.
func writeDiagnostics(w io.Writer, diags *lang.Diagnostics) tally {
	count := make(tally)

	if diags == nil || diags.Len() == 0 {
		return count
	}

	st := newDiagStyle(w)

	var sb strings.Builder

	for d := range diags.All() {
		count[d.Severity]++

		sb.WriteString(st.pos.Render(d.Pos.String()))
		sb.WriteString(": ")
		sb.WriteString(st.severity[d.Severity].Render(d.Severity.String()))
		sb.WriteString(": ")
		sb.WriteString(d.Message())
		sb.WriteByte(' ')
		sb.WriteString(st.category.Render("[" + d.Category.String() + "]"))
		sb.WriteByte('\n')

		if len(d.Suggestions) > 0 {
			sb.WriteString("    ")
			sb.WriteString(st.hint.Render("did you mean " + strings.Join(d.Suggestions, ", ") + "?"))
			sb.WriteByte('\n')
		}
	}

	_, _ = io.WriteString(w, sb.String())

	return count
}
