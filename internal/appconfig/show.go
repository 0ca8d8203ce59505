package appconfig

import (
	"fmt"
	"io"

	"github.com/mwiater/qagate/internal/evaluation"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &fallback
	}

	format, err := cfg.Format()
	if err != nil {
		format = fmt.Sprintf("%s (invalid)", cfg.ReportFormat)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:             %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Strict Mode:       %v\n", cfg.StrictMode)
	fmt.Fprintf(out, "  Report Format:     %s\n", format)
	fmt.Fprintf(out, "  Output:            %s\n", orStdout(cfg.OutputPath))
	fmt.Fprintf(out, "  Ground Truth:      %s\n", orNone(cfg.GroundTruthPath))
	fmt.Fprintf(out, "  Gate Max Attempts: %d\n", cfg.MaxAttempts())
	fmt.Fprintf(out, "  Fail On Reject:    %v\n", cfg.FailOnReject)
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  History File:      %s\n", orNone(cfg.HistoryFile))
	if len(cfg.Thresholds) == 0 {
		fmt.Fprintln(out, "  Threshold Overrides: none")
		return
	}
	fmt.Fprintln(out, "  Threshold Overrides:")
	for _, name := range cfg.ThresholdNames() {
		fmt.Fprintf(out, "    %s: %v\n", name, cfg.Thresholds[name])
	}
}

// ShowPolicy prints the effective thresholds, one metric per line.
func ShowPolicy(out io.Writer, cfg Config) error {
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	base := "default"
	if cfg.StrictMode {
		base = "strict"
	}
	fmt.Fprintf(out, "Effective thresholds (%s base):\n", base)
	for _, m := range evaluation.Metrics {
		marker := ""
		if policy.Threshold(m) != cfg.BasePolicy().Threshold(m) {
			marker = "  (override)"
		}
		fmt.Fprintf(out, "  %-24s %s %.2f%s\n", m.Label(), m.Direction().Symbol(), policy.Threshold(m), marker)
	}
	return nil
}

func orStdout(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

func orNone(path string) string {
	if path == "" {
		return "none"
	}
	return path
}
