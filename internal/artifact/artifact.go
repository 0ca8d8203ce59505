// internal/artifact/artifact.go
// Package artifact holds the immutable snapshot of one analysis episode that the
// evaluator consumes: the analyst's query, the generated database queries, the
// computed results and the execution logs.
package artifact

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrInvalidArtifact is returned when an artifact document is structurally invalid.
var ErrInvalidArtifact = errors.New("invalid artifact")

// Status is the outcome recorded by an execution log entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
)

// ParseStatus normalizes a raw status string. "failed" is accepted as an alias
// of failure; unrecognized values are returned lowercased and trimmed.
func ParseStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "success", "succeeded", "ok":
		return StatusSuccess
	case "failure", "failed", "fail":
		return StatusFailure
	case "error":
		return StatusError
	}
	return Status(s)
}

// Known reports whether the status is one of the recognized outcomes.
func (s Status) Known() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusError:
		return true
	}
	return false
}

// LogEntry is a single execution log record.
type LogEntry struct {
	Status        Status  `json:"status"`
	Error         string  `json:"error,omitempty"`
	Message       string  `json:"message,omitempty"`
	QueryIndex    *int    `json:"query_index,omitempty"`
	ExecutionTime float64 `json:"execution_time,omitempty"`
}

// Outcome reports whether the entry records a success. ok is false when the
// entry carries neither a recognized status nor any error detail, in which case
// it says nothing about the execution.
func (e LogEntry) Outcome() (success bool, ok bool) {
	status := ParseStatus(string(e.Status))
	hasError := strings.TrimSpace(e.Error) != ""
	if !status.Known() {
		if hasError {
			return false, true
		}
		return false, false
	}
	return status == StatusSuccess && !hasError, true
}

// Results is an immutable mapping from result field name to value.
type Results struct {
	values map[string]Value
	keys   []string
}

// NewResults converts a plain mapping into Results.
func NewResults(m map[string]any) Results {
	values := make(map[string]Value, len(m))
	for k, v := range m {
		values[k] = FromAny(v)
	}
	return newResults(values)
}

// ResultsOf builds Results from already-typed values.
func ResultsOf(m map[string]Value) Results {
	values := make(map[string]Value, len(m))
	for k, v := range m {
		values[k] = v
	}
	return newResults(values)
}

func newResults(values map[string]Value) Results {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Results{values: values, keys: keys}
}

// Len returns the number of result fields.
func (r Results) Len() int { return len(r.keys) }

// Keys returns the field names in sorted order.
func (r Results) Keys() []string {
	cp := make([]string, len(r.keys))
	copy(cp, r.keys)
	return cp
}

// Get returns the value stored under key.
func (r Results) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Each calls fn for every field in sorted key order.
func (r Results) Each(fn func(key string, v Value)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// Interface converts the results back into plain Go data.
func (r Results) Interface() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.values[k].Interface()
	}
	return out
}

// Artifact is the immutable snapshot of one analysis episode.
type Artifact struct {
	query     string
	queries   []string
	results   Results
	logs      []LogEntry
	timestamp time.Time
}

// Option customizes an Artifact at construction time.
type Option func(*Artifact)

// WithTimestamp records when the analysis was captured.
func WithTimestamp(t time.Time) Option {
	return func(a *Artifact) { a.timestamp = t }
}

// New builds an artifact. Nil containers are replaced with empty ones.
func New(query string, queries []string, results map[string]any, logs []LogEntry, opts ...Option) Artifact {
	return build(query, queries, NewResults(results), logs, opts...)
}

// NewWithResults builds an artifact from already-typed results.
func NewWithResults(query string, queries []string, results Results, logs []LogEntry, opts ...Option) Artifact {
	if results.values == nil {
		results = newResults(map[string]Value{})
	}
	return build(query, queries, results, logs, opts...)
}

func build(query string, queries []string, results Results, logs []LogEntry, opts ...Option) Artifact {
	a := Artifact{
		query:   query,
		queries: append([]string{}, queries...),
		results: results,
		logs:    append([]LogEntry{}, logs...),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Query returns the analyst's natural-language request.
func (a Artifact) Query() string { return a.query }

// Queries returns a copy of the generated database queries in execution order.
func (a Artifact) Queries() []string { return append([]string{}, a.queries...) }

// Results returns the computed result fields.
func (a Artifact) Results() Results {
	if a.results.values == nil {
		return newResults(map[string]Value{})
	}
	return a.results
}

// Logs returns a copy of the execution log entries.
func (a Artifact) Logs() []LogEntry { return append([]LogEntry{}, a.logs...) }

// Timestamp returns when the analysis was captured, or the zero time.
func (a Artifact) Timestamp() time.Time { return a.timestamp }
