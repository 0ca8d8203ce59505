// internal/cli/show.go
package qagate

import (
	"github.com/spf13/cobra"
)

// showCmd groups the commands that display configuration.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying configuration",
	Long:  `The 'show' command groups subcommands that display qagate configuration and the effective threshold policy.`,
}

func init() {
	rootCmd.AddCommand(showCmd)
}
