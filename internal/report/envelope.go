// internal/report/envelope.go
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/evaluation"
)

// Envelope is the machine-readable report written for --format json.
type Envelope struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Query       string               `json:"query"`
	CapturedAt  *time.Time           `json:"captured_at,omitempty"`
	Summary     Summary              `json:"summary"`
	Rates       evaluation.Rates     `json:"rates"`
	Policy      evaluation.Policy    `json:"policy"`
	Verdicts    []evaluation.Verdict `json:"verdicts"`
	Explanation string               `json:"explanation"`
	Findings    []evaluation.Finding `json:"findings,omitempty"`
	Results     map[string]any       `json:"results"`
	Evidence    map[string]string    `json:"evidence,omitempty"`
}

// NewRunID returns a fresh identifier for one evaluation run.
func NewRunID() string { return uuid.NewString() }

// NewEnvelope wraps a result for JSON output. An empty runID is replaced with a
// fresh one.
func NewEnvelope(runID string, res evaluation.Result, a artifact.Artifact, generatedAt time.Time) Envelope {
	if runID == "" {
		runID = NewRunID()
	}
	env := Envelope{
		RunID:       runID,
		GeneratedAt: generatedAt.UTC(),
		Query:       a.Query(),
		Summary:     Summarize(res),
		Rates:       res.Rates,
		Policy:      res.Policy,
		Verdicts:    res.Verdicts(),
		Explanation: Explain(res),
		Findings:    res.Findings,
		Results:     a.Results().Interface(),
	}
	if ts := a.Timestamp(); !ts.IsZero() {
		ts = ts.UTC()
		env.CapturedAt = &ts
	}
	if res.ExecutionEvidence != "" || res.AccuracySource != "" {
		env.Evidence = map[string]string{
			string(evaluation.ExecutionSuccess): res.ExecutionEvidence,
			string(evaluation.Accuracy):         res.AccuracySource,
		}
	}
	return env
}

// JSON encodes the envelope with indentation.
func (e Envelope) JSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
