// internal/evaluation/consistency.go
package evaluation

import (
	"fmt"
	"strings"

	"github.com/mwiater/qagate/internal/artifact"
)

// checkOutcome is the result of one consistency check.
type checkOutcome struct {
	field  string
	passed bool
	detail string
}

// consistencyCheck derives zero or more checks from the numeric fields.
type consistencyCheck struct {
	name string
	run  func(nf numericFields) []checkOutcome
}

// ConsistencyScorer approximates accuracy without ground truth by checking that
// related result fields agree with each other. When nothing can be checked the
// rate is 1.0.
type ConsistencyScorer struct {
	checks []consistencyCheck
}

// NewConsistencyScorer returns the scorer with its built-in checks.
func NewConsistencyScorer() ConsistencyScorer {
	return ConsistencyScorer{
		checks: []consistencyCheck{
			{name: "rate_in_range", run: ratesInRange},
			{name: "count_non_negative", run: countsNonNegative},
			{name: "parts_sum_to_total", run: partsSumToTotal},
			{name: "repeated_quantity_agrees", run: repeatedQuantitiesAgree},
		},
	}
}

// Metric implements Calculator.
func (ConsistencyScorer) Metric() Metric { return Accuracy }

// Measure implements Calculator.
func (s ConsistencyScorer) Measure(a artifact.Artifact) Measurement {
	nf := newNumericFields(a.Results())
	m := Measurement{Metric: Accuracy, Evidence: EvidenceConsistency}
	for _, check := range s.checks {
		var outcomes []checkOutcome
		if !guard(func() { outcomes = check.run(nf) }) {
			m.Tally.Excluded++
			continue
		}
		for _, o := range outcomes {
			m.Tally.Total++
			if o.passed {
				continue
			}
			m.Tally.Counted++
			m.Findings = append(m.Findings, Finding{
				Metric: Accuracy,
				Field:  o.field,
				Rule:   check.name,
				Detail: o.detail,
			})
		}
	}
	m.Rate = 1 - ratio(m.Tally.Counted, m.Tally.Total, 0)
	return m
}

func ratesInRange(nf numericFields) []checkOutcome {
	var out []checkOutcome
	for _, key := range nf.keys {
		if !isRateLike(key) || isChangeMetric(key) {
			continue
		}
		v := nf.values[key]
		out = append(out, checkOutcome{
			field:  key,
			passed: v >= 0 && v <= 100,
			detail: fmt.Sprintf("rate %v is outside [0, 100]", v),
		})
	}
	return out
}

func countsNonNegative(nf numericFields) []checkOutcome {
	var out []checkOutcome
	for _, key := range nf.keys {
		if !isCountLike(key) || isRateLike(key) || isChangeMetric(key) {
			continue
		}
		v := nf.values[key]
		out = append(out, checkOutcome{
			field:  key,
			passed: v >= 0,
			detail: fmt.Sprintf("count %v is negative", v),
		})
	}
	return out
}

// partsSumToTotal checks each total against its declared parts. A bare "total"
// is made of part_* fields only; total_S and S_total are made of <label>_S
// fields. At least two parts are needed for a check.
func partsSumToTotal(nf numericFields) []checkOutcome {
	var out []checkOutcome
	for _, key := range nf.keys {
		stem, ok := totalStem(key)
		if !ok {
			continue
		}
		parts := declaredParts(nf, key, stem)
		if len(parts) < 2 {
			continue
		}
		var sum float64
		for _, p := range parts {
			sum += nf.values[p]
		}
		total := nf.values[key]
		out = append(out, checkOutcome{
			field:  key,
			passed: approxEqual(sum, total),
			detail: fmt.Sprintf("parts %s sum to %v, not %v", strings.Join(parts, "+"), sum, total),
		})
	}
	return out
}

func declaredParts(nf numericFields, totalKey string, stem []string) []string {
	var parts []string
	if len(stem) > 0 {
		for _, key := range nf.keys {
			if key == totalKey || isTotalField(key) || isDerived(key) {
				continue
			}
			if hasSuffixTokens(nf.toks[key], stem) {
				parts = append(parts, key)
			}
		}
		return parts
	}

	for _, key := range nf.keys {
		toks := nf.toks[key]
		if key == totalKey || len(toks) < 2 {
			continue
		}
		if toks[0] == "part" || toks[len(toks)-1] == "part" {
			parts = append(parts, key)
		}
	}
	return parts
}

func isTotalField(key string) bool {
	_, ok := totalStem(key)
	return ok
}

// repeatedQuantitiesAgree compares every extra computation of a quantity with
// the first one in key order.
func repeatedQuantitiesAgree(nf numericFields) []checkOutcome {
	groups := make(map[string][]string)
	var order []string
	for _, key := range nf.keys {
		q := quantityKey(key)
		if q == "" {
			continue
		}
		if _, seen := groups[q]; !seen {
			order = append(order, q)
		}
		groups[q] = append(groups[q], key)
	}

	var out []checkOutcome
	for _, q := range order {
		keys := groups[q]
		if len(keys) < 2 {
			continue
		}
		ref := keys[0]
		for _, other := range keys[1:] {
			a, b := nf.values[ref], nf.values[other]
			out = append(out, checkOutcome{
				field:  other,
				passed: approxEqual(a, b),
				detail: fmt.Sprintf("%s=%v disagrees with %s=%v", other, b, ref, a),
			})
		}
	}
	return out
}
