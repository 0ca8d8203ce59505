// internal/cli/gate.go
package qagate

import (
	"context"
	"fmt"
	"io"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/qagate/internal/appconfig"
	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/gate"
	"github.com/mwiater/qagate/internal/report"
)

type gateOptions struct {
	inputPaths      []string
	thresholds      []string
	groundTruthPath string
	maxAttempts     int
}

var gateOpts gateOptions

// gateCmd evaluates candidate artifacts in order until one is accepted.
var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Accept the first candidate artifact that passes all thresholds",
	Long: `Evaluate candidate artifacts in the order given, as successive retries of the
same analysis. The gate stops at the first candidate that passes and reports
every attempt. At most gateMaxAttempts candidates are evaluated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configOrDefault()
		outcome, err := runGate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, gateOpts)
		if err != nil {
			return err
		}
		if !outcome.Passed && cfg.FailOnReject {
			return ErrRejected
		}
		return nil
	},
}

func init() {
	gateCmd.Flags().StringArrayVarP(&gateOpts.inputPaths, "input", "i", nil, "Candidate artifact JSON, repeatable, evaluated in order (required)")
	gateCmd.Flags().StringArrayVarP(&gateOpts.thresholds, "threshold", "t", nil, "Threshold override as name=value, repeatable")
	gateCmd.Flags().StringVar(&gateOpts.groundTruthPath, "ground-truth", "", "Optional JSON object of expected result values")
	gateCmd.Flags().IntVar(&gateOpts.maxAttempts, "max-attempts", 0, "Maximum candidates to evaluate (default from config, 3)")
	_ = gateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(gateCmd)
}

// runGate loads candidates lazily, one per attempt. One line per attempt goes
// to status; only the accepted report goes to out.
func runGate(ctx context.Context, out, status io.Writer, cfg appconfig.Config, opts gateOptions) (gate.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(opts.inputPaths) == 0 {
		return gate.Outcome{}, fmt.Errorf("at least one candidate is required (pass --input)")
	}

	evaluator, overrides, err := buildEvaluator(cfg, opts.thresholds)
	if err != nil {
		return gate.Outcome{}, err
	}

	maxAttempts := opts.maxAttempts
	if maxAttempts <= 0 {
		maxAttempts = cfg.MaxAttempts()
	}
	options := []gate.Option{gate.WithMaxAttempts(maxAttempts), gate.WithOverrides(overrides)}

	groundTruthPath := opts.groundTruthPath
	if groundTruthPath == "" {
		groundTruthPath = cfg.GroundTruthPath
	}
	if groundTruthPath != "" {
		expected, err := loadGroundTruth(groundTruthPath)
		if err != nil {
			return gate.Outcome{}, err
		}
		options = append(options, gate.WithGroundTruth(expected))
	}

	producer := gate.ProducerFunc(func(_ context.Context, attempt int) (artifact.Artifact, error) {
		if attempt > len(opts.inputPaths) {
			return artifact.Artifact{}, gate.ErrExhausted
		}
		return artifact.Load(opts.inputPaths[attempt-1])
	})

	outcome, err := gate.New(evaluator, options...).Run(ctx, producer)
	if err != nil {
		return outcome, err
	}
	if cfg.Debug {
		pp.Println(outcome)
	}
	var entries []historyEntry
	for _, attempt := range outcome.Attempts {
		if attempt.Err == nil {
			entries = append(entries, historyEntry{attempt.Result, attempt.Artifact.Results().Len()})
		}
	}
	if err := recordHistory(cfg.HistoryFile, entries...); err != nil {
		return outcome, err
	}

	for _, attempt := range outcome.Attempts {
		fmt.Fprintln(status, attemptLine(attempt, opts.inputPaths))
	}

	accepted, ok := outcome.Accepted()
	if !ok {
		fmt.Fprintf(status, "%s  no candidate passed after %d attempt(s) (run %s)\n", failLabel(report.StatusFail), len(outcome.Attempts), outcome.RunID)
		return outcome, nil
	}

	format, err := cfg.Format()
	if err != nil {
		return outcome, err
	}
	rendered, err := renderReport(format, outcome.RunID, accepted.Result, accepted.Artifact)
	if err != nil {
		return outcome, err
	}
	fmt.Fprint(out, rendered)
	return outcome, nil
}

func attemptLine(a gate.Attempt, paths []string) string {
	source := ""
	if a.Number-1 < len(paths) {
		source = paths[a.Number-1]
	}
	if a.Err != nil {
		return fmt.Sprintf("attempt %d %s: %s %v", a.Number, source, failLabel(report.StatusFail), a.Err)
	}
	label := failLabel(a.Summary.Status)
	if a.Passed() {
		label = passLabel(a.Summary.Status)
	}
	return fmt.Sprintf("attempt %d %s: %s semantic=%s execution=%s empty=%s accuracy=%s",
		a.Number, source, label,
		a.Summary.SemanticError, a.Summary.ExecutionSuccess, a.Summary.EmptyResult, a.Summary.Accuracy)
}
