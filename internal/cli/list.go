// internal/cli/list.go
package qagate

import "github.com/spf13/cobra"

// listCmd groups the listing commands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing resources",
	Long:  `The 'list' command groups subcommands that list qagate resources such as its commands and metrics.`,
}

func init() {
	rootCmd.AddCommand(listCmd)
}
