// internal/appconfig/schema.go
package appconfig

// configSchema describes the accepted shape of a configuration file. Metric
// names inside thresholds are checked later against the known metrics.
var configSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"thresholds": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
		},
		"strictMode":      map[string]any{"type": "boolean"},
		"reportFormat":    map[string]any{"type": "string"},
		"output":          map[string]any{"type": "string"},
		"groundTruth":     map[string]any{"type": "string"},
		"gateMaxAttempts": map[string]any{"type": "integer", "minimum": 0},
		"failOnReject":    map[string]any{"type": "boolean"},
		"logFile":         map[string]any{"type": "string"},
		"historyFile":     map[string]any{"type": "string"},
		"debug":           map[string]any{"type": "boolean"},
	},
}
