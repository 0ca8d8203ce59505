// internal/evaluation/measurement.go
package evaluation

import (
	"fmt"

	"github.com/mwiater/qagate/internal/artifact"
)

// Finding explains why a single field or entry moved a metric.
type Finding struct {
	Metric   Metric `json:"metric"`
	Field    string `json:"field,omitempty"`
	Rule     string `json:"rule"`
	Detail   string `json:"detail"`
	Advisory bool   `json:"advisory,omitempty"` // reported but not counted in the rate
}

// Tally records the numerator and denominator behind a rate.
type Tally struct {
	Counted  int `json:"counted"`
	Total    int `json:"total"`
	Excluded int `json:"excluded,omitempty"`
}

// Evidence sources recorded on a measurement.
const (
	EvidenceLogs        = "logs"
	EvidenceInferred    = "inferred"
	EvidenceNone        = "none"
	EvidenceConsistency = "consistency"
	EvidenceGroundTruth = "ground_truth"
)

// Measurement is the output of one calculator.
type Measurement struct {
	Metric   Metric
	Rate     float64
	Tally    Tally
	Evidence string
	Findings []Finding
}

// Calculator computes one metric over an artifact. Implementations must be
// pure: no I/O, no shared mutable state.
type Calculator interface {
	Metric() Metric
	Measure(a artifact.Artifact) Measurement
}

// guard runs fn and reports false if it panicked, so a single malformed field
// can be excluded instead of aborting the whole calculation.
func guard(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	fn()
	return true
}

// measureSafely runs a calculator and fails closed if it panics outright.
func measureSafely(c Calculator, a artifact.Artifact) (m Measurement) {
	defer func() {
		if r := recover(); r != nil {
			metric := c.Metric()
			m = Measurement{
				Metric: metric,
				Rate:   worstRate(metric),
				Findings: []Finding{{
					Metric: metric,
					Rule:   "calculator_failure",
					Detail: fmt.Sprintf("calculator aborted: %v", r),
				}},
			}
		}
	}()
	m = c.Measure(a)
	m.Metric = c.Metric()
	m.Rate = clampRate(m.Metric, m.Rate)
	return m
}
