// internal/cli/root.go
package qagate

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/qagate/internal/appconfig"
	"github.com/mwiater/qagate/internal/logging"
)

// ErrRejected is returned when an analysis fails the gate and failOnReject is set.
var ErrRejected = errors.New("analysis rejected")

var (
	cfgFile       string
	loadedFile    string
	currentConfig *appconfig.Config
)

// boolFlags maps persistent bool flags to their viper keys.
var boolFlags = map[string]string{
	"debug":        "debug",
	"strict":       "strictMode",
	"failOnReject": "failOnReject",
}

var rootCmd = &cobra.Command{
	Use:   "qagate",
	Short: "qagate: accept or reject automated data analyses on four quality metrics",
	Long: `qagate scores a finished analysis episode (the question, the generated
queries, the computed results and the execution logs) on semantic error rate,
execution success rate, empty result rate and accuracy, then accepts it only
if every metric meets its threshold.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(cmd); err != nil {
			return err
		}

		// 2) If user did NOT set a flag, copy the config value into the flag so
		//    both pflags and viper reflect the same, final value.
		for name, key := range boolFlags {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(key)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}

		// 3) Materialize the fully merged configuration into currentConfig
		//    (flags > config > defaults).
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = loadedFile
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		if cfg.Debug {
			pp.Println(cfg)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = logging.Close()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "dump configuration and results")
	rootCmd.PersistentFlags().Bool("strict", false, "use the strict threshold policy as the base")
	rootCmd.PersistentFlags().Bool("failOnReject", false, "exit non-zero when an analysis is rejected")
	rootCmd.PersistentFlags().String("format", "", "report format: markdown, json or terminal")
	rootCmd.PersistentFlags().String("logFile", "", "log file path (default qagate.log)")
	rootCmd.PersistentFlags().String("historyFile", "", "record evaluation statistics in this JSON history file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("strictMode", rootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("failOnReject", rootCmd.PersistentFlags().Lookup("failOnReject"))
	_ = viper.BindPFlag("reportFormat", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("historyFile", rootCmd.PersistentFlags().Lookup("historyFile"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and sets safe defaults. A missing file
// is fine unless --config named it explicitly.
func ensureConfigLoaded(cmd *cobra.Command) error {
	viper.SetDefault("debug", false)
	viper.SetDefault("strictMode", false)
	viper.SetDefault("failOnReject", false)
	viper.SetDefault("reportFormat", appconfig.FormatMarkdown)

	loadedFile = ""
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	// schema check
	if _, err := appconfig.Load(viper.ConfigFileUsed()); err != nil {
		return err
	}
	loadedFile = viper.ConfigFileUsed()
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

func configOrDefault() appconfig.Config {
	if currentConfig == nil {
		return appconfig.Config{}
	}
	return *currentConfig
}
