// internal/cli/thresholds.go
package qagate

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/qagate/internal/appconfig"
)

// thresholdsCmd prints the policy evaluate and gate would apply.
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show the effective threshold policy",
	Long:  `Print each metric's threshold after the strict/default base and any configured overrides have been applied. Overrides passed with --threshold on evaluate are not included.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return appconfig.ShowPolicy(cmd.OutOrStdout(), configOrDefault())
	},
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)
	showCmd.AddCommand(&cobra.Command{
		Use:   "thresholds",
		Short: "Show the effective threshold policy",
		Args:  cobra.NoArgs,
		RunE:  thresholdsCmd.RunE,
	})
}
