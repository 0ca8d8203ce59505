package evaluation

import (
	"errors"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	want := map[Metric]float64{SemanticError: 0.1, ExecutionSuccess: 0.9, EmptyResult: 0.2, Accuracy: 0.9}
	for m, v := range want {
		if got := p.Threshold(m); got != v {
			t.Fatalf("%s threshold = %v, want %v", m, got, v)
		}
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if err := StrictPolicy().Validate(); err != nil {
		t.Fatalf("strict policy invalid: %v", err)
	}
}

func TestDirections(t *testing.T) {
	if !SemanticError.Passes(0.1, 0.1) || SemanticError.Passes(0.11, 0.1) {
		t.Fatal("semantic error should pass iff rate <= threshold")
	}
	if !Accuracy.Passes(0.9, 0.9) || Accuracy.Passes(0.89, 0.9) {
		t.Fatal("accuracy should pass iff rate >= threshold")
	}
	if EmptyResult.Direction() != LowerIsBetter || ExecutionSuccess.Direction() != HigherIsBetter {
		t.Fatal("unexpected directions")
	}
}

func TestWithOverridesLeavesReceiverUntouched(t *testing.T) {
	base := DefaultPolicy()
	p, err := base.WithOverrides(map[string]float64{"empty_result_rate": 0.5})
	if err != nil {
		t.Fatalf("WithOverrides error: %v", err)
	}
	if p.EmptyResult != 0.5 {
		t.Fatalf("override not applied: %+v", p)
	}
	if base.EmptyResult != 0.2 {
		t.Fatalf("base policy mutated: %+v", base)
	}
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides(map[string]any{"accuracy": 0.5, "semantic_error": 0})
	if err != nil {
		t.Fatalf("ParseOverrides error: %v", err)
	}
	if got["accuracy"] != 0.5 || got["semantic_error"] != 0 {
		t.Fatalf("unexpected overrides: %v", got)
	}
	if _, err := ParseOverrides(map[string]any{"accuracy": "high"}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold for text, got %v", err)
	}
	if _, err := ParseOverrides(map[string]any{"accuracy": "0.5"}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("numeric text must not be coerced, got %v", err)
	}
	if _, err := ParseOverrides(map[string]any{"speed": 0.5}); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestOverridesRejectAliasedDuplicates(t *testing.T) {
	if _, err := ParseOverrides(map[string]any{"accuracy": 0.5, "accuracy_rate": 0.8}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("ParseOverrides: expected ErrInvalidThreshold for accuracy + accuracy_rate, got %v", err)
	}
	if _, err := DefaultPolicy().WithOverrides(map[string]float64{"empty_result": 0.3, "EMPTY_RESULT_RATE": 0.4}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("WithOverrides: expected ErrInvalidThreshold for aliased names, got %v", err)
	}
	if _, err := ParseOverrideFlags([]string{"accuracy=0.5", "accuracy_rate=0.8"}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("ParseOverrideFlags: expected ErrInvalidThreshold for aliased flags, got %v", err)
	}
	if _, err := ParseOverrideFlags([]string{"accuracy=0.5", "accuracy=0.8"}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("ParseOverrideFlags: expected ErrInvalidThreshold for a repeated flag, got %v", err)
	}
	got, err := ParseOverrides(map[string]any{"accuracy_rate": 0.8})
	if err != nil || got["accuracy"] != 0.8 {
		t.Fatalf("single alias should still resolve, got %v, %v", got, err)
	}
}

func TestParseOverrideFlags(t *testing.T) {
	got, err := ParseOverrideFlags([]string{"accuracy=0.5", " empty_result = 0.3 "})
	if err != nil {
		t.Fatalf("ParseOverrideFlags error: %v", err)
	}
	if got["accuracy"] != 0.5 || got["empty_result"] != 0.3 {
		t.Fatalf("unexpected overrides: %v", got)
	}
	if _, err := ParseOverrideFlags([]string{"accuracy"}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected error for missing value, got %v", err)
	}
	if _, err := ParseOverrideFlags([]string{"accuracy=abc"}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected error for non-numeric value, got %v", err)
	}
}
