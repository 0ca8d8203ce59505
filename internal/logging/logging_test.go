package logging

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "qagate.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogEvaluation("run-1", "월별 매출", "pass", map[string]string{"accuracy": "100.0%"})
	LogAttempt("gate-1", 2, 3, "FAIL", errors.New("empty results"))
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "[EVAL] run=run-1") {
		t.Fatalf("expected LogEvaluation content, got: %s", content)
	}
	if !strings.Contains(content, "[GATE] run=gate-1 attempt=2/3 status=FAIL detail=empty results") {
		t.Fatalf("expected LogAttempt content, got: %s", content)
	}
}

func TestBuildEvaluationMessage(t *testing.T) {
	msg := buildEvaluationMessage(" ", "활성 사용자\n 수", " fail ", map[string]string{
		"semantic_error": "100.0%",
		"accuracy":       "0.0%",
	})
	want := `[EVAL] run=unknown query="활성 사용자 수" status=FAIL accuracy=0.0% semantic_error=100.0%`
	if msg != want {
		t.Fatalf("unexpected message\nwant: %s\ngot:  %s", want, msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
	if got := formatPayload(errors.New("boom")); got != "boom" {
		t.Fatalf("error payload: %s", got)
	}
	if got := formatPayload([]string{"accuracy"}); got != `["accuracy"]` {
		t.Fatalf("json payload: %s", got)
	}
}

func TestInitWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	LogEvent("stdout only")
	if buf.Len() != 0 {
		t.Fatalf("expected previous writer replaced, got: %s", buf.String())
	}
}
