// internal/metrics/summary.go
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/util"
)

// WriteSummary prints the history as an overall block followed by one block
// per result-size bucket.
func WriteSummary(out io.Writer, h History) {
	if h.OverallStats.TotalEvaluations == 0 {
		fmt.Fprintln(out, "No evaluations recorded yet.")
		return
	}
	fmt.Fprintf(out, "Evaluation history (last updated %s)\n\n", h.LastUpdatedUTC.Format("2006-01-02 15:04:05Z"))
	writeStats(out, "Overall", h.OverallStats)

	buckets := append([]SizeBucket(nil), h.SizeBuckets...)
	sort.SliceStable(buckets, func(i, j int) bool { return bucketOrder(buckets[i].Bucket) < bucketOrder(buckets[j].Bucket) })
	for _, b := range buckets {
		fmt.Fprintln(out)
		writeStats(out, fmt.Sprintf("Result fields %s", b.Bucket), b.Stats)
	}
}

func writeStats(out io.Writer, title string, s RunningAggregatedStats) {
	fmt.Fprintf(out, "%s: %d evaluation(s), %d passed (%s)\n", title, s.TotalEvaluations, s.Passed, util.FormatPercent(s.PassRate()))
	for _, m := range evaluation.Metrics {
		rs := statFor(s, m)
		fmt.Fprintf(out, "  %-24s mean %s  min %s  max %s  sd %.3f  failed %d\n",
			m.Label(), util.FormatPercent(rs.Mean), util.FormatPercent(rs.Min), util.FormatPercent(rs.Max), rs.StdDev(), s.FailedBy[string(m)])
	}
}

func statFor(s RunningAggregatedStats, m evaluation.Metric) RunningStat {
	switch m {
	case evaluation.SemanticError:
		return s.SemanticError
	case evaluation.ExecutionSuccess:
		return s.ExecutionSuccess
	case evaluation.EmptyResult:
		return s.EmptyResult
	default:
		return s.Accuracy
	}
}

func bucketOrder(bucket string) int {
	switch bucket {
	case "0":
		return 0
	case "1-5":
		return 1
	case "6-20":
		return 2
	default:
		return 3
	}
}
