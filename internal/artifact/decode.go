// internal/artifact/decode.go
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Raw is the wire shape of an artifact document as produced by the upstream
// analysis pipeline.
type Raw struct {
	Query            string     `json:"query"`
	GeneratedQueries []string   `json:"generated_queries"`
	Results          any        `json:"results"`
	ExecutionLogs    []LogEntry `json:"execution_logs"`
	Timestamp        string     `json:"timestamp,omitempty"`
}

// documentSchema describes a valid artifact document.
var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{"type": "string"},
		"generated_queries": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"results": map[string]any{"type": "object"},
		"execution_logs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status":         map[string]any{"type": "string"},
					"error":          map[string]any{"type": []string{"string", "null"}},
					"message":        map[string]any{"type": []string{"string", "null"}},
					"query_index":    map[string]any{"type": "integer", "minimum": 0},
					"execution_time": map[string]any{"type": "number", "minimum": 0},
				},
				"required": []string{"status"},
			},
		},
		"timestamp": map[string]any{"type": "string"},
	},
	"required": []string{"query"},
}

// Validate checks a raw JSON document against the artifact schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(documentSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, strings.Join(errs, ", "))
}

// Decode validates and parses a JSON artifact document.
func Decode(data []byte) (Artifact, error) {
	if err := Validate(data); err != nil {
		return Artifact{}, err
	}
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return FromRaw(raw)
}

// Load reads and decodes an artifact document from path.
func Load(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("could not read artifact %q: %w", path, err)
	}
	a, err := Decode(data)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact %q: %w", path, err)
	}
	return a, nil
}

// FromRaw converts a raw document into an Artifact. Results must be a mapping
// (or absent); any other container type is rejected rather than coerced.
func FromRaw(raw Raw) (Artifact, error) {
	var results map[string]any
	switch r := raw.Results.(type) {
	case nil:
		results = map[string]any{}
	case map[string]any:
		results = r
	default:
		return Artifact{}, fmt.Errorf("%w: results must be a mapping of field name to value, got %T", ErrInvalidArtifact, raw.Results)
	}

	var opts []Option
	if ts := strings.TrimSpace(raw.Timestamp); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return Artifact{}, fmt.Errorf("%w: timestamp %q is not RFC 3339: %v", ErrInvalidArtifact, ts, err)
		}
		opts = append(opts, WithTimestamp(parsed))
	}

	return New(raw.Query, raw.GeneratedQueries, results, raw.ExecutionLogs, opts...), nil
}

// DecodeResults parses a JSON object of expected values, as used for ground truth.
func DecodeResults(data []byte) (Results, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Results{}, fmt.Errorf("%w: expected a JSON object of result values: %v", ErrInvalidArtifact, err)
	}
	if m == nil {
		return Results{}, fmt.Errorf("%w: expected a JSON object of result values", ErrInvalidArtifact)
	}
	return NewResults(m), nil
}
