// internal/evaluation/groundtruth.go
package evaluation

import (
	"fmt"
	"strings"

	"github.com/mwiater/qagate/internal/artifact"
)

// GroundTruthScorer scores accuracy against known expected values. Only fields
// present in both the artifact and the expectations are compared; with no
// overlap it falls back to internal consistency.
type GroundTruthScorer struct {
	expected artifact.Results
	fallback Calculator
}

// NewGroundTruthScorer returns a scorer comparing results against expected.
func NewGroundTruthScorer(expected artifact.Results) GroundTruthScorer {
	return GroundTruthScorer{expected: expected, fallback: NewConsistencyScorer()}
}

// Metric implements Calculator.
func (GroundTruthScorer) Metric() Metric { return Accuracy }

// Measure implements Calculator.
func (g GroundTruthScorer) Measure(a artifact.Artifact) Measurement {
	m := Measurement{Metric: Accuracy, Evidence: EvidenceGroundTruth}
	results := a.Results()
	g.expected.Each(func(key string, want artifact.Value) {
		got, ok := results.Get(key)
		if !ok {
			return
		}
		var match bool
		if !guard(func() { match = valuesMatch(got, want) }) {
			m.Tally.Excluded++
			return
		}
		m.Tally.Total++
		if match {
			m.Tally.Counted++
			return
		}
		m.Findings = append(m.Findings, Finding{
			Metric: Accuracy,
			Field:  key,
			Rule:   "ground_truth_mismatch",
			Detail: fmt.Sprintf("got %s, expected %s", got.String(), want.String()),
		})
	})
	if m.Tally.Total == 0 {
		return g.fallback.Measure(a)
	}
	m.Rate = ratio(m.Tally.Counted, m.Tally.Total, 1)
	return m
}

// valuesMatch compares a computed value with an expected one. Numbers match
// within tolerance, text case-insensitively after trimming, and collections
// element by element.
func valuesMatch(got, want artifact.Value) bool {
	if got.Kind() != want.Kind() {
		return false
	}
	switch got.Kind() {
	case artifact.KindNull:
		return true
	case artifact.KindNumber:
		a, aok := got.FiniteFloat()
		b, bok := want.FiniteFloat()
		if !aok || !bok {
			return false
		}
		return approxEqual(a, b)
	case artifact.KindText:
		a, _ := got.Str()
		b, _ := want.Str()
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	case artifact.KindBool:
		a, _ := got.Boolean()
		b, _ := want.Boolean()
		return a == b
	case artifact.KindError:
		a, _ := got.ErrorMessage()
		b, _ := want.ErrorMessage()
		return a == b
	case artifact.KindCollection:
		if got.Keyed() != want.Keyed() || got.Len() != want.Len() {
			return false
		}
		if got.Keyed() {
			wf := want.Fields()
			for k, gv := range got.Fields() {
				wv, ok := wf[k]
				if !ok || !valuesMatch(gv, wv) {
					return false
				}
			}
			return true
		}
		gi, wi := got.Items(), want.Items()
		for i := range gi {
			if !valuesMatch(gi[i], wi[i]) {
				return false
			}
		}
		return true
	}
	return false
}
