// internal/evaluation/execution.go
package evaluation

import (
	"fmt"
	"strings"

	"github.com/mwiater/qagate/internal/artifact"
)

// ExecutionHealthScorer measures how reliably the generated queries executed.
//
// Execution logs are the primary signal. Without logs, success is inferred from
// the share of result values that are not error markers, which is a weaker
// signal and is recorded as such. With neither logs nor queries there is no
// evidence of any successful execution and the rate is 0.
type ExecutionHealthScorer struct{}

// NewExecutionHealthScorer returns the scorer.
func NewExecutionHealthScorer() ExecutionHealthScorer { return ExecutionHealthScorer{} }

// Metric implements Calculator.
func (ExecutionHealthScorer) Metric() Metric { return ExecutionSuccess }

// Measure implements Calculator.
func (s ExecutionHealthScorer) Measure(a artifact.Artifact) Measurement {
	m := Measurement{Metric: ExecutionSuccess}

	for i, entry := range a.Logs() {
		var success, usable bool
		if !guard(func() { success, usable = entry.Outcome() }) || !usable {
			m.Tally.Excluded++
			m.Findings = append(m.Findings, Finding{
				Metric:   ExecutionSuccess,
				Field:    logLabel(i, entry),
				Rule:     "unusable_log_entry",
				Detail:   fmt.Sprintf("status %q carries no outcome", entry.Status),
				Advisory: true,
			})
			continue
		}
		m.Tally.Total++
		if success {
			m.Tally.Counted++
			continue
		}
		m.Findings = append(m.Findings, Finding{
			Metric: ExecutionSuccess,
			Field:  logLabel(i, entry),
			Rule:   "execution_failed",
			Detail: failureDetail(entry),
		})
	}
	if m.Tally.Total > 0 {
		m.Evidence = EvidenceLogs
		m.Rate = ratio(m.Tally.Counted, m.Tally.Total, 0)
		return m
	}

	if len(a.Queries()) == 0 {
		m.Evidence = EvidenceNone
		m.Rate = 0
		m.Findings = append(m.Findings, Finding{
			Metric: ExecutionSuccess,
			Rule:   "no_execution_evidence",
			Detail: "no execution logs and no generated queries",
		})
		return m
	}

	m.Evidence = EvidenceInferred
	m.Tally = Tally{Excluded: m.Tally.Excluded}
	a.Results().Each(func(key string, v artifact.Value) {
		if v.Kind() == artifact.KindInvalid {
			m.Tally.Excluded++
			return
		}
		m.Tally.Total++
		if isErrorValue(v) {
			m.Findings = append(m.Findings, Finding{
				Metric: ExecutionSuccess,
				Field:  key,
				Rule:   "error_result",
				Detail: "result carries an error instead of a value",
			})
			return
		}
		m.Tally.Counted++
	})
	if m.Tally.Total == 0 {
		m.Findings = append(m.Findings, Finding{
			Metric: ExecutionSuccess,
			Rule:   "no_execution_evidence",
			Detail: fmt.Sprintf("%d queries but no logs and no usable results", len(a.Queries())),
		})
	}
	m.Rate = ratio(m.Tally.Counted, m.Tally.Total, 0)
	return m
}

func logLabel(i int, entry artifact.LogEntry) string {
	if entry.QueryIndex != nil {
		return fmt.Sprintf("log[%d] query[%d]", i, *entry.QueryIndex)
	}
	return fmt.Sprintf("log[%d]", i)
}

func failureDetail(entry artifact.LogEntry) string {
	for _, s := range []string{entry.Error, entry.Message} {
		if s = strings.TrimSpace(s); s != "" {
			return fmt.Sprintf("status %s: %s", artifact.ParseStatus(string(entry.Status)), s)
		}
	}
	return fmt.Sprintf("status %s", artifact.ParseStatus(string(entry.Status)))
}
