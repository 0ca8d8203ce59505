// internal/evaluation/evaluator.go
// Package evaluation scores a completed analysis episode on four quality
// metrics and turns them into a fail-closed Pass/Fail verdict.
package evaluation

import (
	"fmt"

	"github.com/mwiater/qagate/internal/artifact"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs the four calculators and applies a threshold policy. It holds
// no mutable state and is safe for concurrent use.
type Evaluator struct {
	policy      Policy
	calculators map[Metric]Calculator
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPolicy sets the base policy that per-call overrides are applied on top of.
func WithPolicy(p Policy) Option {
	return func(e *Evaluator) { e.policy = p }
}

// WithCalculator replaces the calculator for the metric it reports.
func WithCalculator(c Calculator) Option {
	return func(e *Evaluator) { e.calculators[c.Metric()] = c }
}

// New creates an Evaluator with the default policy and built-in calculators.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		policy: DefaultPolicy(),
		calculators: map[Metric]Calculator{
			SemanticError:    NewSemanticErrorDetector(),
			ExecutionSuccess: NewExecutionHealthScorer(),
			EmptyResult:      NewEmptyResultClassifier(),
			Accuracy:         NewConsistencyScorer(),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the evaluator's base policy.
func (e *Evaluator) Policy() Policy { return e.policy }

// Evaluate scores the artifact. overrides may be nil; unknown metric names and
// thresholds outside [0,1] are rejected before any metric is computed.
func (e *Evaluator) Evaluate(a artifact.Artifact, overrides map[string]float64) (Result, error) {
	return e.evaluate(a, overrides, e.calculators[Accuracy])
}

// EvaluateAgainst scores the artifact with accuracy measured against expected
// values instead of internal consistency.
func (e *Evaluator) EvaluateAgainst(a artifact.Artifact, expected artifact.Results, overrides map[string]float64) (Result, error) {
	return e.evaluate(a, overrides, NewGroundTruthScorer(expected))
}

func (e *Evaluator) evaluate(a artifact.Artifact, overrides map[string]float64, accuracy Calculator) (Result, error) {
	if err := e.policy.Validate(); err != nil {
		return Result{}, fmt.Errorf("base policy: %w", err)
	}
	policy, err := e.policy.WithOverrides(overrides)
	if err != nil {
		return Result{}, err
	}

	calcs := []Calculator{
		e.calculators[SemanticError],
		e.calculators[ExecutionSuccess],
		e.calculators[EmptyResult],
		accuracy,
	}
	measurements := make([]Measurement, len(calcs))
	var g errgroup.Group
	for i, c := range calcs {
		g.Go(func() error {
			measurements[i] = measureSafely(c, a)
			return nil
		})
	}
	_ = g.Wait()

	var rates Rates
	for _, m := range measurements {
		rates.set(m.Metric, m.Rate)
	}
	res := NewResult(rates, policy)
	res.Tallies = make(map[Metric]Tally, len(measurements))
	for _, m := range measurements {
		res.Tallies[m.Metric] = m.Tally
		res.Findings = append(res.Findings, m.Findings...)
		switch m.Metric {
		case ExecutionSuccess:
			res.ExecutionEvidence = m.Evidence
		case Accuracy:
			res.AccuracySource = m.Evidence
		}
	}
	return res, nil
}

// Evaluate scores the artifact with the default policy and built-in calculators.
func Evaluate(a artifact.Artifact, overrides map[string]float64) (Result, error) {
	return New().Evaluate(a, overrides)
}
