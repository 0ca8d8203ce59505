// internal/cli/evaluate.go
package qagate

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/qagate/internal/appconfig"
	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/logging"
	"github.com/mwiater/qagate/internal/report"
	"github.com/mwiater/qagate/internal/util"
)

type evaluateOptions struct {
	inputPath       string
	thresholds      []string
	groundTruthPath string
	outputPath      string
}

var evaluateOpts evaluateOptions

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
)

// evaluateCmd scores one artifact file and renders its report.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one analysis artifact and print its quality report",
	Long: `Read an analysis artifact (JSON with query, generated_queries, results and
execution_logs), compute the four quality metrics, compare them with the
effective thresholds and render the verdict as Markdown, JSON or a terminal
table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configOrDefault()
		res, err := runEvaluate(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, evaluateOpts)
		if err != nil {
			return err
		}
		if !res.OverallPass && cfg.FailOnReject {
			return ErrRejected
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateOpts.inputPath, "input", "i", "", "Path to the artifact JSON (required)")
	evaluateCmd.Flags().StringArrayVarP(&evaluateOpts.thresholds, "threshold", "t", nil, "Threshold override as name=value, repeatable (e.g. accuracy=0.5)")
	evaluateCmd.Flags().StringVar(&evaluateOpts.groundTruthPath, "ground-truth", "", "Optional JSON object of expected result values")
	evaluateCmd.Flags().StringVarP(&evaluateOpts.outputPath, "output", "o", "", "Write the report to this path instead of stdout")
	_ = evaluateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(evaluateCmd)
}

// runEvaluate loads, evaluates and renders one artifact. The report goes to out
// (or the output file); the coloured verdict line goes to status.
func runEvaluate(out, status io.Writer, cfg appconfig.Config, opts evaluateOptions) (evaluation.Result, error) {
	if opts.inputPath == "" {
		return evaluation.Result{}, fmt.Errorf("input artifact is required (pass --input)")
	}
	a, err := artifact.Load(opts.inputPath)
	if err != nil {
		return evaluation.Result{}, err
	}

	evaluator, overrides, err := buildEvaluator(cfg, opts.thresholds)
	if err != nil {
		return evaluation.Result{}, err
	}

	groundTruthPath := opts.groundTruthPath
	if groundTruthPath == "" {
		groundTruthPath = cfg.GroundTruthPath
	}
	var res evaluation.Result
	if groundTruthPath != "" {
		expected, err := loadGroundTruth(groundTruthPath)
		if err != nil {
			return evaluation.Result{}, err
		}
		res, err = evaluator.EvaluateAgainst(a, expected, overrides)
		if err != nil {
			return evaluation.Result{}, err
		}
	} else {
		res, err = evaluator.Evaluate(a, overrides)
		if err != nil {
			return evaluation.Result{}, err
		}
	}

	runID := report.NewRunID()
	summary := report.Summarize(res)
	logging.LogEvaluation(runID, a.Query(), summary.Status, summary.Rates())
	if err := recordHistory(cfg.HistoryFile, historyEntry{res, a.Results().Len()}); err != nil {
		return evaluation.Result{}, err
	}
	if cfg.Debug {
		pp.Println(res)
	}

	format, err := cfg.Format()
	if err != nil {
		return evaluation.Result{}, err
	}
	rendered, err := renderReport(format, runID, res, a)
	if err != nil {
		return evaluation.Result{}, err
	}

	outputPath := opts.outputPath
	if outputPath == "" {
		outputPath = cfg.OutputPath
	}
	if outputPath != "" {
		if err := util.WriteFile(outputPath, []byte(rendered)); err != nil {
			return evaluation.Result{}, fmt.Errorf("unable to write report %s: %w", outputPath, err)
		}
		fmt.Fprintf(status, "Report written to %s\n", outputPath)
	} else {
		fmt.Fprint(out, rendered)
	}

	fmt.Fprintln(status, verdictLine(res, summary))
	return res, nil
}

// buildEvaluator combines the configured policy with --threshold overrides.
func buildEvaluator(cfg appconfig.Config, flagThresholds []string) (*evaluation.Evaluator, map[string]float64, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	overrides, err := evaluation.ParseOverrideFlags(flagThresholds)
	if err != nil {
		return nil, nil, err
	}
	return evaluation.New(evaluation.WithPolicy(policy)), overrides, nil
}

func loadGroundTruth(path string) (artifact.Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return artifact.Results{}, fmt.Errorf("unable to read ground truth %s: %w", path, err)
	}
	expected, err := artifact.DecodeResults(data)
	if err != nil {
		return artifact.Results{}, fmt.Errorf("ground truth %s: %w", path, err)
	}
	return expected, nil
}

func renderReport(format, runID string, res evaluation.Result, a artifact.Artifact) (string, error) {
	switch format {
	case appconfig.FormatJSON:
		data, err := report.NewEnvelope(runID, res, a, time.Now()).JSON()
		if err != nil {
			return "", fmt.Errorf("unable to marshal report JSON: %w", err)
		}
		return string(data) + "\n", nil
	case appconfig.FormatTerminal:
		return report.Terminal(res, a), nil
	default:
		return report.Generate(res, a), nil
	}
}

func verdictLine(res evaluation.Result, summary report.Summary) string {
	if res.OverallPass {
		return fmt.Sprintf("%s  accepted (confidence %s)", passLabel(summary.Status), summary.Confidence)
	}
	return fmt.Sprintf("%s  rejected: %s", failLabel(summary.Status), summary.Recommendation)
}
