package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init sends the standard logger to stderr and, when logPath is set, to an
// append-mode log file. Stdout carries only rendered reports.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stderr)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogEvaluation writes one [EVAL] line per evaluation run.
func LogEvaluation(runID, query, status string, rates map[string]string) {
	log.Println(buildEvaluationMessage(runID, query, status, rates))
}

// LogAttempt writes one [GATE] line per quality gate attempt.
func LogAttempt(runID string, attempt, maxAttempts int, status string, detail any) {
	msg := fmt.Sprintf("[GATE] run=%s attempt=%d/%d status=%s detail=%s",
		orUnknown(runID), attempt, maxAttempts, orUnknown(status), formatPayload(detail))
	log.Println(msg)
}

func buildEvaluationMessage(runID, query, status string, rates map[string]string) string {
	parts := []string{"[EVAL]"}
	parts = append(parts, fmt.Sprintf("run=%s", orUnknown(runID)))
	parts = append(parts, fmt.Sprintf("query=%q", strings.Join(strings.Fields(query), " ")))
	parts = append(parts, fmt.Sprintf("status=%s", orUnknown(strings.ToUpper(strings.TrimSpace(status)))))

	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, rates[name]))
	}
	return strings.Join(parts, " ")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
