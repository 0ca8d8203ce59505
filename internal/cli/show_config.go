// internal/cli/show_config.go
package qagate

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/qagate/internal/appconfig"
)

// showConfigCmd implements 'show config', which prints the merged
// configuration after flags have been applied over the config file.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		appconfig.ShowConfig(cmd.OutOrStdout(), loadedFile, GetConfig(), appconfig.Config{
			Debug:        viper.GetBool("debug"),
			StrictMode:   viper.GetBool("strictMode"),
			FailOnReject: viper.GetBool("failOnReject"),
			ReportFormat: viper.GetString("reportFormat"),
		})
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
