// internal/report/terminal.go
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/util"
)

const terminalWidth = 78

// Terminal renders the result as a styled console table.
func Terminal(res evaluation.Result, a artifact.Artifact) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	labelStyle := lipgloss.NewStyle().Width(26)
	numberStyle := lipgloss.NewStyle().Width(10).Align(lipgloss.Right)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Analysis quality"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("query: " + util.TruncateRunes(util.SingleLine(a.Query()), terminalWidth-7)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("metric"),
		numberStyle.Render("rate"),
		numberStyle.Render("threshold"),
		"  result",
	))
	b.WriteString("\n")
	for _, v := range res.Verdicts() {
		verdict := failStyle.Render("FAIL")
		if v.Pass {
			verdict = passStyle.Render("PASS")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(v.Metric.Label()),
			numberStyle.Render(util.FormatPercent(v.Rate)),
			numberStyle.Render(v.Direction.Symbol()+" "+util.FormatPercent(v.Threshold)),
			"  "+verdict,
		))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	summary := Summarize(res)
	overall := failStyle.Bold(true).Render(summary.Status)
	if res.OverallPass {
		overall = passStyle.Bold(true).Render(summary.Status)
	}
	b.WriteString(fmt.Sprintf("verdict: %s  confidence: %s\n", overall, summary.Confidence))
	b.WriteString(util.WrapToWidth(Explain(res), terminalWidth))
	b.WriteString("\n")

	counted := 0
	for _, f := range res.Findings {
		if f.Advisory {
			continue
		}
		if counted == 0 {
			b.WriteString("\n")
			b.WriteString(titleStyle.Render("findings"))
			b.WriteString("\n")
		}
		counted++
		line := fmt.Sprintf("  - %s %s: %s", f.Rule, f.Field, f.Detail)
		b.WriteString(util.TruncateRunes(line, terminalWidth))
		b.WriteString("\n")
	}
	if advisory := len(res.Findings) - counted; advisory > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d advisory note(s) omitted; use --format markdown for details", advisory)))
		b.WriteString("\n")
	}
	return b.String()
}
