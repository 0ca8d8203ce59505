package qagate

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/qagate/internal/evaluation"
)

// runListCommands prints the command tree in a two-column layout.
func runListCommands(out io.Writer, rootCmd *cobra.Command) {
	rows := collectCommandData(rootCmd, "", "")

	width := 0
	for _, row := range rows {
		if len(row.path) > width {
			width = len(row.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, row := range rows {
		if strings.Contains(row.path, "completion") || strings.HasSuffix(row.path, " help") {
			continue
		}
		fmt.Fprintf(out, "  %s%s%s\n", row.path, strings.Repeat(" ", width-len(row.path)+2), row.description)
	}
}

// runListMetrics prints each metric's threshold key, label and direction.
func runListMetrics(out io.Writer) {
	fmt.Fprintln(out, "Metrics:")
	for _, m := range evaluation.Metrics {
		fmt.Fprintf(out, "  %-22s %-24s %s threshold\n", string(m), m.Label(), m.Direction().Symbol())
	}
}

type commandInfo struct {
	path        string
	description string
}

// collectCommandData walks the command tree and returns a flattened slice of
// indented path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	fullPath := cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	rows := []commandInfo{{path: indent + fullPath, description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		rows = append(rows, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return rows
}
