// internal/evaluation/empty.go
package evaluation

import (
	"math"
	"strings"

	"github.com/mwiater/qagate/internal/artifact"
)

var (
	errorMarkers = []string{"error", "exception", "fail"}
	placeholders = tokenSet("null", "nil", "none", "nan", "n/a", "undefined")
)

// emptyRule classifies a value as void of information. The first matching rule
// wins so no field is counted twice.
type emptyRule struct {
	name  string
	match func(v artifact.Value) bool
}

// EmptyResultClassifier measures the share of result fields that carry no
// information. An artifact that returned nothing at all scores 1.0.
type EmptyResultClassifier struct {
	rules []emptyRule
}

// NewEmptyResultClassifier returns the classifier with its ordered rule list.
func NewEmptyResultClassifier() EmptyResultClassifier {
	return EmptyResultClassifier{
		rules: []emptyRule{
			{name: "null", match: func(v artifact.Value) bool { return v.Kind() == artifact.KindNull }},
			{name: "empty_collection", match: func(v artifact.Value) bool { return v.Kind() == artifact.KindCollection && v.Len() == 0 }},
			{name: "blank_text", match: isBlankText},
			{name: "error_value", match: isErrorValue},
			{name: "placeholder_text", match: isPlaceholderText},
			{name: "non_finite_number", match: isNonFinite},
		},
	}
}

// Metric implements Calculator.
func (EmptyResultClassifier) Metric() Metric { return EmptyResult }

// Measure implements Calculator.
func (c EmptyResultClassifier) Measure(a artifact.Artifact) Measurement {
	m := Measurement{Metric: EmptyResult}
	a.Results().Each(func(key string, v artifact.Value) {
		if v.Kind() == artifact.KindInvalid {
			m.Tally.Excluded++
			return
		}
		var matched string
		if !guard(func() { matched = c.classify(v) }) {
			m.Tally.Excluded++
			return
		}
		m.Tally.Total++
		if matched == "" {
			return
		}
		m.Tally.Counted++
		m.Findings = append(m.Findings, Finding{
			Metric: EmptyResult,
			Field:  key,
			Rule:   matched,
			Detail: "value carries no information: " + v.String(),
		})
	})
	m.Rate = ratio(m.Tally.Counted, m.Tally.Total, 1)
	return m
}

func (c EmptyResultClassifier) classify(v artifact.Value) string {
	for _, rule := range c.rules {
		if rule.match(v) {
			return rule.name
		}
	}
	return ""
}

func isBlankText(v artifact.Value) bool {
	s, ok := v.Str()
	return ok && strings.TrimSpace(s) == ""
}

// isErrorValue reports whether v is an explicit error marker or text that reads
// like an error message.
func isErrorValue(v artifact.Value) bool {
	if v.Kind() == artifact.KindError {
		return true
	}
	s, ok := v.Str()
	if !ok {
		return false
	}
	lower := strings.ToLower(s)
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isPlaceholderText(v artifact.Value) bool {
	s, ok := v.Str()
	if !ok {
		return false
	}
	_, hit := placeholders[strings.ToLower(strings.TrimSpace(s))]
	return hit
}

func isNonFinite(v artifact.Value) bool {
	f, ok := v.Float()
	return ok && (math.IsNaN(f) || math.IsInf(f, 0))
}
