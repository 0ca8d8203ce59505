// internal/gate/gate.go
// Package gate runs the evaluator as an accept/reject gate over successive
// candidate analyses, stopping at the first one that passes.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/logging"
	"github.com/mwiater/qagate/internal/report"
)

// DefaultMaxAttempts is used when no positive limit is configured.
const DefaultMaxAttempts = 3

var (
	// ErrExhausted is returned by a Producer that has no further candidates.
	ErrExhausted = errors.New("no more candidates")
	// ErrNoCandidates is returned by Run when not a single candidate was produced.
	ErrNoCandidates = errors.New("no candidate artifacts")
)

// Producer supplies the candidate artifact for a 1-based attempt number.
type Producer interface {
	Produce(ctx context.Context, attempt int) (artifact.Artifact, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, attempt int) (artifact.Artifact, error)

// Produce implements Producer.
func (f ProducerFunc) Produce(ctx context.Context, attempt int) (artifact.Artifact, error) {
	return f(ctx, attempt)
}

// Candidates returns a Producer that hands out the given artifacts in order.
func Candidates(artifacts ...artifact.Artifact) Producer {
	return ProducerFunc(func(_ context.Context, attempt int) (artifact.Artifact, error) {
		if attempt < 1 || attempt > len(artifacts) {
			return artifact.Artifact{}, ErrExhausted
		}
		return artifacts[attempt-1], nil
	})
}

// Attempt is one evaluated candidate. Err is set when the producer failed for
// this attempt; such an attempt counts as rejected.
type Attempt struct {
	Number   int
	Artifact artifact.Artifact
	Result   evaluation.Result
	Summary  report.Summary
	Err      error
}

// Passed reports whether the attempt was accepted.
func (a Attempt) Passed() bool { return a.Err == nil && a.Result.OverallPass }

// Outcome is the record of one gate run.
type Outcome struct {
	RunID    string
	Passed   bool
	Attempts []Attempt
}

// Accepted returns the passing attempt, if any.
func (o Outcome) Accepted() (Attempt, bool) {
	for _, a := range o.Attempts {
		if a.Passed() {
			return a, true
		}
	}
	return Attempt{}, false
}

// Last returns the final attempt made.
func (o Outcome) Last() (Attempt, bool) {
	if len(o.Attempts) == 0 {
		return Attempt{}, false
	}
	return o.Attempts[len(o.Attempts)-1], true
}

// Gate retries candidate analyses against one evaluator and policy.
type Gate struct {
	evaluator   *evaluation.Evaluator
	maxAttempts int
	overrides   map[string]float64
	expected    *artifact.Results
}

// Option configures a Gate.
type Option func(*Gate)

// WithMaxAttempts bounds the number of candidates evaluated.
func WithMaxAttempts(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithOverrides applies per-run threshold overrides to every attempt.
func WithOverrides(overrides map[string]float64) Option {
	return func(g *Gate) { g.overrides = overrides }
}

// WithGroundTruth scores accuracy of every attempt against expected values.
func WithGroundTruth(expected artifact.Results) Option {
	return func(g *Gate) { g.expected = &expected }
}

// New returns a gate around the evaluator. A nil evaluator uses the defaults.
func New(e *evaluation.Evaluator, opts ...Option) *Gate {
	if e == nil {
		e = evaluation.New()
	}
	g := &Gate{evaluator: e, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts returns the attempt limit.
func (g *Gate) MaxAttempts() int { return g.maxAttempts }

// Run asks the producer for candidates until one passes, the producer is
// exhausted, or the attempt limit is reached. Cancellation is checked between
// attempts. Invalid threshold overrides abort the run.
func (g *Gate) Run(ctx context.Context, p Producer) (Outcome, error) {
	out := Outcome{RunID: report.NewRunID()}

	for n := 1; n <= g.maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		a, err := p.Produce(ctx, n)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			logging.LogAttempt(out.RunID, n, g.maxAttempts, report.StatusFail, err)
			out.Attempts = append(out.Attempts, Attempt{Number: n, Err: fmt.Errorf("attempt %d: %w", n, err)})
			continue
		}

		res, err := g.evaluate(a)
		if err != nil {
			return out, err
		}
		summary := report.Summarize(res)
		out.Attempts = append(out.Attempts, Attempt{Number: n, Artifact: a, Result: res, Summary: summary})

		logging.LogEvaluation(fmt.Sprintf("%s/%d", out.RunID, n), a.Query(), summary.Status, summary.Rates())
		logging.LogAttempt(out.RunID, n, g.maxAttempts, summary.Status, summary.Recommendation)

		if res.OverallPass {
			out.Passed = true
			return out, nil
		}
	}

	if len(out.Attempts) == 0 {
		return out, ErrNoCandidates
	}
	return out, nil
}

func (g *Gate) evaluate(a artifact.Artifact) (evaluation.Result, error) {
	if g.expected != nil {
		return g.evaluator.EvaluateAgainst(a, *g.expected, g.overrides)
	}
	return g.evaluator.Evaluate(a, g.overrides)
}
