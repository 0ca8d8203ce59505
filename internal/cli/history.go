// internal/cli/history.go
package qagate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/metrics"
)

type historyEntry struct {
	result       evaluation.Result
	resultFields int
}

// recordHistory folds entries into the history file. An empty path disables
// recording.
func recordHistory(path string, entries ...historyEntry) error {
	if path == "" || len(entries) == 0 {
		return nil
	}
	agg, err := metrics.NewAggregator(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		agg.Record(e.result, e.resultFields)
	}
	if err := agg.Save(); err != nil {
		return fmt.Errorf("unable to save history %s: %w", path, err)
	}
	return nil
}

// showHistoryCmd implements 'show history'.
var showHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show running statistics of recorded evaluations",
	Long:  `Print pass counts and the mean, min, max and standard deviation of each metric across every evaluation recorded in the history file, overall and per result-set size.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configOrDefault()
		if cfg.HistoryFile == "" {
			return fmt.Errorf("no history file configured (set historyFile or pass --historyFile)")
		}
		agg, err := metrics.NewAggregator(cfg.HistoryFile)
		if err != nil {
			return err
		}
		metrics.WriteSummary(cmd.OutOrStdout(), agg.Snapshot())
		return nil
	},
}

func init() {
	showCmd.AddCommand(showHistoryCmd)
}
