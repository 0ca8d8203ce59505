// internal/evaluation/policy.go
package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownMetric is returned for a threshold override naming no metric.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrInvalidThreshold is returned for a threshold that is not a number in [0,1].
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Metric names one of the four quality metrics.
type Metric string

const (
	SemanticError    Metric = "semantic_error"
	ExecutionSuccess Metric = "execution_success"
	EmptyResult      Metric = "empty_result"
	Accuracy         Metric = "accuracy"
)

// Metrics lists every metric in report order.
var Metrics = []Metric{SemanticError, ExecutionSuccess, EmptyResult, Accuracy}

// Direction is how a rate is compared against its threshold.
type Direction int

const (
	// LowerIsBetter passes when rate <= threshold.
	LowerIsBetter Direction = iota
	// HigherIsBetter passes when rate >= threshold.
	HigherIsBetter
)

// Symbol returns the comparison operator a rate must satisfy.
func (d Direction) Symbol() string {
	if d == HigherIsBetter {
		return "≥"
	}
	return "≤"
}

// ParseMetric resolves a metric name. The "_rate" suffix is accepted.
func ParseMetric(name string) (Metric, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, "_rate")
	for _, m := range Metrics {
		if string(m) == n {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownMetric, name, metricList())
}

func metricList() string {
	names := make([]string, 0, len(Metrics))
	for _, m := range Metrics {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

// Direction returns the fixed comparison direction of the metric.
func (m Metric) Direction() Direction {
	switch m {
	case ExecutionSuccess, Accuracy:
		return HigherIsBetter
	}
	return LowerIsBetter
}

// Label returns the human-readable metric name.
func (m Metric) Label() string {
	switch m {
	case SemanticError:
		return "Semantic error rate"
	case ExecutionSuccess:
		return "Execution success rate"
	case EmptyResult:
		return "Empty result rate"
	case Accuracy:
		return "Accuracy rate"
	}
	return string(m)
}

// Passes compares a rate against a threshold in the metric's direction.
func (m Metric) Passes(rate, threshold float64) bool {
	if m.Direction() == HigherIsBetter {
		return rate >= threshold
	}
	return rate <= threshold
}

func worstRate(m Metric) float64 {
	if m.Direction() == HigherIsBetter {
		return 0
	}
	return 1
}

// clampRate pins a rate into [0,1]; NaN becomes the worst value for the metric.
func clampRate(m Metric, rate float64) float64 {
	switch {
	case math.IsNaN(rate):
		return worstRate(m)
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	}
	return rate
}

// Policy holds the pass/fail boundary of each metric.
type Policy struct {
	SemanticError    float64 `json:"semantic_error"`
	ExecutionSuccess float64 `json:"execution_success"`
	EmptyResult      float64 `json:"empty_result"`
	Accuracy         float64 `json:"accuracy"`
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		SemanticError:    0.1,
		ExecutionSuccess: 0.9,
		EmptyResult:      0.2,
		Accuracy:         0.9,
	}
}

// StrictPolicy returns tighter thresholds for analyses feeding decisions.
func StrictPolicy() Policy {
	return Policy{
		SemanticError:    0.05,
		ExecutionSuccess: 0.95,
		EmptyResult:      0.1,
		Accuracy:         0.95,
	}
}

// Threshold returns the boundary configured for m.
func (p Policy) Threshold(m Metric) float64 {
	switch m {
	case SemanticError:
		return p.SemanticError
	case ExecutionSuccess:
		return p.ExecutionSuccess
	case EmptyResult:
		return p.EmptyResult
	case Accuracy:
		return p.Accuracy
	}
	return math.NaN()
}

func (p *Policy) set(m Metric, v float64) {
	switch m {
	case SemanticError:
		p.SemanticError = v
	case ExecutionSuccess:
		p.ExecutionSuccess = v
	case EmptyResult:
		p.EmptyResult = v
	case Accuracy:
		p.Accuracy = v
	}
}

// Validate checks that every threshold lies in [0,1].
func (p Policy) Validate() error {
	for _, m := range Metrics {
		if err := checkThreshold(m, p.Threshold(m)); err != nil {
			return err
		}
	}
	return nil
}

func checkThreshold(m Metric, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s=%v must be within [0,1]", ErrInvalidThreshold, m, v)
	}
	return nil
}

// WithOverrides returns a copy of p with the named thresholds replaced.
// Unspecified metrics keep their current values.
func (p Policy) WithOverrides(overrides map[string]float64) (Policy, error) {
	out := p
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := make(map[Metric]string, len(names))
	for _, name := range names {
		m, err := ParseMetric(name)
		if err != nil {
			return Policy{}, err
		}
		if err := checkDuplicate(seen, m, name); err != nil {
			return Policy{}, err
		}
		v := overrides[name]
		if err := checkThreshold(m, v); err != nil {
			return Policy{}, err
		}
		out.set(m, v)
	}
	return out, nil
}

// ParseOverrides converts loosely typed overrides (decoded JSON, config maps)
// into numeric thresholds. Non-numeric values fail; strings are not coerced.
func ParseOverrides(raw map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := make(map[Metric]string, len(names))
	for _, name := range names {
		m, err := ParseMetric(name)
		if err != nil {
			return nil, err
		}
		if err := checkDuplicate(seen, m, name); err != nil {
			return nil, err
		}
		v, err := toThreshold(raw[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidThreshold, m, err)
		}
		if err := checkThreshold(m, v); err != nil {
			return nil, err
		}
		out[string(m)] = v
	}
	return out, nil
}

// checkDuplicate rejects a second name resolving to an already seen metric,
// such as "accuracy" and "accuracy_rate" in one override set.
func checkDuplicate(seen map[Metric]string, m Metric, name string) error {
	if prev, ok := seen[m]; ok {
		return fmt.Errorf("%w: %q and %q both set %s", ErrInvalidThreshold, prev, name, m)
	}
	seen[m] = name
	return nil
}

// ParseOverrideFlags parses "name=value" pairs as given on the command line.
func ParseOverrideFlags(pairs []string) (map[string]float64, error) {
	raw := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not in name=value form", ErrInvalidThreshold, pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not numeric", ErrInvalidThreshold, strings.TrimSpace(name), value)
		}
		name = strings.TrimSpace(name)
		if _, dup := raw[name]; dup {
			return nil, fmt.Errorf("%w: %q given more than once", ErrInvalidThreshold, name)
		}
		raw[name] = f
	}
	return ParseOverrides(raw)
}

func toThreshold(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("%v (%T) is not numeric", v, v)
}
