// internal/cli/list_commands.go
package qagate

import "github.com/spf13/cobra"

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Long:  `The 'commands' subcommand lists all commands and subcommands in a hierarchical, indented format, with the command path in the first column and its short description in the second column.`,
	Run: func(cmd *cobra.Command, args []string) {
		runListCommands(cmd.OutOrStdout(), rootCmd)
	},
}

// metricsCmd implements 'list metrics'.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the four quality metrics with their threshold keys",
	Run: func(cmd *cobra.Command, args []string) {
		runListMetrics(cmd.OutOrStdout())
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
	listCmd.AddCommand(metricsCmd)
}
