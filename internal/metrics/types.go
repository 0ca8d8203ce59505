// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// History is the persisted document of every evaluation recorded so far.
type History struct {
	LastUpdatedUTC time.Time              `json:"last_updated_utc"`
	OverallStats   RunningAggregatedStats `json:"overall_stats"`
	SizeBuckets    []SizeBucket           `json:"size_buckets"`
}

// SizeBucket holds aggregated stats for evaluations whose result set falls in
// one size range.
type SizeBucket struct {
	Dimension string                 `json:"dimension"`
	Bucket    string                 `json:"bucket"`
	Stats     RunningAggregatedStats `json:"stats"`
}

// RunningAggregatedStats stores running values for the four metric rates and
// the verdict counts.
type RunningAggregatedStats struct {
	TotalEvaluations int64            `json:"total_evaluations"`
	Passed           int64            `json:"passed"`
	FailedBy         map[string]int64 `json:"failed_by,omitempty"`

	SemanticError    RunningStat `json:"semantic_error_rate"`
	ExecutionSuccess RunningStat `json:"execution_success_rate"`
	EmptyResult      RunningStat `json:"empty_result_rate"`
	Accuracy         RunningStat `json:"accuracy_rate"`
}

// PassRate returns the fraction of recorded evaluations that passed.
func (s RunningAggregatedStats) PassRate() float64 {
	if s.TotalEvaluations == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.TotalEvaluations)
}

// RunningStat holds the values for online calculation of mean, variance and
// standard deviation (Welford).
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"` // sum of squared differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// StdDev returns the population standard deviation.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count))
}
