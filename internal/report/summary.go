// internal/report/summary.go
package report

import (
	"strings"

	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/util"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// remediation is the suggested next step for each failed metric.
var remediation = map[evaluation.Metric]string{
	evaluation.SemanticError:    "review query logic",
	evaluation.ExecutionSuccess: "check execution environment",
	evaluation.EmptyResult:      "confirm data presence",
	evaluation.Accuracy:         "validate calculation logic",
}

// Summary is the condensed, presentation-ready view of a Result.
type Summary struct {
	Status           string   `json:"status"`
	Confidence       string   `json:"confidence"`
	SemanticError    string   `json:"semantic_error_rate"`
	ExecutionSuccess string   `json:"execution_success_rate"`
	EmptyResult      string   `json:"empty_result_rate"`
	Accuracy         string   `json:"accuracy_rate"`
	Failed           []string `json:"failed_metrics,omitempty"`
	Recommendation   string   `json:"recommendation"`
}

// Summarize condenses a Result into a status, percentages and a recommendation.
func Summarize(res evaluation.Result) Summary {
	s := Summary{
		Status:           StatusFail,
		Confidence:       "low",
		SemanticError:    util.FormatPercent(res.Rates.SemanticError),
		ExecutionSuccess: util.FormatPercent(res.Rates.ExecutionSuccess),
		EmptyResult:      util.FormatPercent(res.Rates.EmptyResult),
		Accuracy:         util.FormatPercent(res.Rates.Accuracy),
	}
	if res.OverallPass {
		s.Status = StatusPass
		s.Confidence = "high"
		s.Recommendation = "no action needed"
		return s
	}

	steps := make([]string, 0, len(evaluation.Metrics))
	for _, m := range res.Failed() {
		s.Failed = append(s.Failed, string(m))
		steps = append(steps, remediation[m])
	}
	s.Recommendation = strings.Join(steps, "; ")
	return s
}

// Rates returns the four percentages keyed by metric name, for log lines.
func (s Summary) Rates() map[string]string {
	return map[string]string{
		string(evaluation.SemanticError):    s.SemanticError,
		string(evaluation.ExecutionSuccess): s.ExecutionSuccess,
		string(evaluation.EmptyResult):      s.EmptyResult,
		string(evaluation.Accuracy):         s.Accuracy,
	}
}
