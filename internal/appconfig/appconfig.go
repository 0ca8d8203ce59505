// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/qagate/internal/evaluation"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is checked when the default path does not exist.
	legacyConfigPath = "qagate.json"
	// defaultLogFile receives log output when the config names none.
	defaultLogFile = "qagate.log"
	// defaultGateMaxAttempts bounds the quality gate when the config omits it.
	defaultGateMaxAttempts = 3
)

// Report formats accepted by reportFormat and --format.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatTerminal = "terminal"
)

// ErrUnknownFormat is returned for a report format other than the three supported ones.
var ErrUnknownFormat = errors.New("unknown report format")

// Config represents the top-level application configuration.
type Config struct {
	Thresholds      map[string]float64 `json:"thresholds,omitempty"`
	StrictMode      bool               `json:"strictMode"`
	ReportFormat    string             `json:"reportFormat,omitempty"`
	OutputPath      string             `json:"output,omitempty" mapstructure:"output"`
	GroundTruthPath string             `json:"groundTruth,omitempty" mapstructure:"groundTruth"`
	GateMaxAttempts int                `json:"gateMaxAttempts,omitempty"`
	FailOnReject    bool               `json:"failOnReject"`
	LogFile         string             `json:"logFile,omitempty"`
	HistoryFile     string             `json:"historyFile,omitempty"`
	Debug           bool               `json:"debug"`
	ConfigPath      string             `json:"-" mapstructure:"-"`
}

// Format returns the normalized report format, defaulting to Markdown.
func (c Config) Format() (string, error) {
	return ParseFormat(c.ReportFormat)
}

// ParseFormat normalizes a report format name. An empty name means Markdown.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "", "md", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTerminal, "text", "console":
		return FormatTerminal, nil
	default:
		return "", fmt.Errorf("%w: %q (expected %s, %s or %s)", ErrUnknownFormat, name, FormatMarkdown, FormatJSON, FormatTerminal)
	}
}

// MaxAttempts returns how many candidates the quality gate evaluates at most.
func (c Config) MaxAttempts() int {
	if c.GateMaxAttempts <= 0 {
		return defaultGateMaxAttempts
	}
	return c.GateMaxAttempts
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// BasePolicy returns the default or strict policy before any overrides.
func (c Config) BasePolicy() evaluation.Policy {
	if c.StrictMode {
		return evaluation.StrictPolicy()
	}
	return evaluation.DefaultPolicy()
}

// Policy returns the effective policy: the base policy with the configured
// threshold overrides applied and validated.
func (c Config) Policy() (evaluation.Policy, error) {
	p, err := c.BasePolicy().WithOverrides(c.Thresholds)
	if err != nil {
		return evaluation.Policy{}, fmt.Errorf("config thresholds: %w", err)
	}
	return p, nil
}

// ThresholdNames returns the configured override names in sorted order.
func (c Config) ThresholdNames() []string {
	names := make([]string, 0, len(c.Thresholds))
	for name := range c.Thresholds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the interpreted configuration.
func (c Config) Validate() error {
	if _, err := c.Format(); err != nil {
		return err
	}
	if c.GateMaxAttempts < 0 {
		return fmt.Errorf("gateMaxAttempts must not be negative, got %d", c.GateMaxAttempts)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath reads, schema-checks and decodes one configuration file.
func loadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse validates a JSON configuration document and decodes it.
func Parse(data []byte) (Config, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(configSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return Config{}, fmt.Errorf("invalid config: %s", strings.Join(errs, ", "))
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
