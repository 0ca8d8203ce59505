// internal/evaluation/result.go
package evaluation

// Rates holds the four raw metric values, each in [0,1].
type Rates struct {
	SemanticError    float64 `json:"semantic_error_rate"`
	ExecutionSuccess float64 `json:"execution_success_rate"`
	EmptyResult      float64 `json:"empty_result_rate"`
	Accuracy         float64 `json:"accuracy_rate"`
}

// Of returns the rate recorded for m.
func (r Rates) Of(m Metric) float64 {
	switch m {
	case SemanticError:
		return r.SemanticError
	case ExecutionSuccess:
		return r.ExecutionSuccess
	case EmptyResult:
		return r.EmptyResult
	case Accuracy:
		return r.Accuracy
	}
	return worstRate(m)
}

func (r *Rates) set(m Metric, v float64) {
	switch m {
	case SemanticError:
		r.SemanticError = v
	case ExecutionSuccess:
		r.ExecutionSuccess = v
	case EmptyResult:
		r.EmptyResult = v
	case Accuracy:
		r.Accuracy = v
	}
}

// Verdict is the derived pass/fail of one metric.
type Verdict struct {
	Metric    Metric    `json:"metric"`
	Rate      float64   `json:"rate"`
	Threshold float64   `json:"threshold"`
	Direction Direction `json:"-"`
	Pass      bool      `json:"pass"`
}

// Result is the outcome of one evaluation. It is never modified after
// construction; per-metric verdicts are derived from Rates and Policy.
type Result struct {
	Rates             Rates            `json:"rates"`
	Policy            Policy           `json:"policy"`
	OverallPass       bool             `json:"overall_pass"`
	ExecutionEvidence string           `json:"execution_evidence,omitempty"`
	AccuracySource    string           `json:"accuracy_source,omitempty"`
	Tallies           map[Metric]Tally `json:"tallies,omitempty"`
	Findings          []Finding        `json:"findings,omitempty"`
}

// NewResult builds a Result from raw rates. Rates are clamped into [0,1] and
// OverallPass is the conjunction of all four verdicts.
func NewResult(rates Rates, policy Policy) Result {
	var clamped Rates
	for _, m := range Metrics {
		clamped.set(m, clampRate(m, rates.Of(m)))
	}
	res := Result{Rates: clamped, Policy: policy}
	res.OverallPass = true
	for _, v := range res.Verdicts() {
		res.OverallPass = res.OverallPass && v.Pass
	}
	return res
}

// Verdict derives the pass/fail of a single metric.
func (r Result) Verdict(m Metric) Verdict {
	rate := r.Rates.Of(m)
	threshold := r.Policy.Threshold(m)
	return Verdict{
		Metric:    m,
		Rate:      rate,
		Threshold: threshold,
		Direction: m.Direction(),
		Pass:      m.Passes(rate, threshold),
	}
}

// Verdicts derives every per-metric verdict in report order.
func (r Result) Verdicts() []Verdict {
	out := make([]Verdict, 0, len(Metrics))
	for _, m := range Metrics {
		out = append(out, r.Verdict(m))
	}
	return out
}

// Failed lists the metrics that missed their threshold, in report order.
func (r Result) Failed() []Metric {
	var failed []Metric
	for _, v := range r.Verdicts() {
		if !v.Pass {
			failed = append(failed, v.Metric)
		}
	}
	return failed
}

// FindingsFor returns the findings attached to m.
func (r Result) FindingsFor(m Metric) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Metric == m {
			out = append(out, f)
		}
	}
	return out
}
