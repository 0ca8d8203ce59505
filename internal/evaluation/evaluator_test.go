package evaluation

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/mwiater/qagate/internal/artifact"
)

type fixedCalculator struct {
	metric Metric
	rate   float64
}

func (f fixedCalculator) Metric() Metric { return f.metric }

func (f fixedCalculator) Measure(artifact.Artifact) Measurement {
	return Measurement{Metric: f.metric, Rate: f.rate}
}

type panickingCalculator struct{ metric Metric }

func (p panickingCalculator) Metric() Metric { return p.metric }

func (p panickingCalculator) Measure(artifact.Artifact) Measurement { panic("boom") }

func revenueArtifact() artifact.Artifact {
	return artifact.New(
		"월별 매출",
		[]string{"db.orders.aggregate(...)"},
		map[string]any{"revenue": 125000, "growth_rate": 15.74},
		[]artifact.LogEntry{{Status: artifact.StatusSuccess}},
	)
}

func TestEvaluateRevenueScenarioPasses(t *testing.T) {
	res, err := Evaluate(revenueArtifact(), nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if res.Rates.ExecutionSuccess != 1.0 {
		t.Fatalf("execution success: got %v, want 1.0", res.Rates.ExecutionSuccess)
	}
	if res.Rates.EmptyResult != 0.0 {
		t.Fatalf("empty result: got %v, want 0.0", res.Rates.EmptyResult)
	}
	if res.Rates.SemanticError != 0.0 {
		t.Fatalf("semantic error: got %v, want 0.0", res.Rates.SemanticError)
	}
	if res.Rates.Accuracy != 1.0 {
		t.Fatalf("accuracy: got %v, want 1.0", res.Rates.Accuracy)
	}
	if !res.OverallPass {
		t.Fatalf("expected overall pass, failed metrics: %v", res.Failed())
	}
	if res.ExecutionEvidence != EvidenceLogs {
		t.Fatalf("expected logs evidence, got %q", res.ExecutionEvidence)
	}
}

func TestOverallPassIsConjunctionOfVerdicts(t *testing.T) {
	policy := DefaultPolicy()
	passing := Rates{SemanticError: 0.0, ExecutionSuccess: 1.0, EmptyResult: 0.0, Accuracy: 1.0}
	failing := Rates{SemanticError: 0.5, ExecutionSuccess: 0.5, EmptyResult: 0.5, Accuracy: 0.5}

	for mask := 0; mask < 16; mask++ {
		var rates Rates
		want := true
		for i, m := range Metrics {
			if mask&(1<<i) != 0 {
				rates.set(m, passing.Of(m))
			} else {
				rates.set(m, failing.Of(m))
				want = false
			}
		}

		res := NewResult(rates, policy)
		if res.OverallPass != want {
			t.Fatalf("mask %04b: overall pass = %v, want %v", mask, res.OverallPass, want)
		}
		for i, v := range res.Verdicts() {
			if v.Pass != (mask&(1<<i) != 0) {
				t.Fatalf("mask %04b: verdict %s = %v", mask, v.Metric, v.Pass)
			}
		}

		opts := []Option{}
		for _, m := range Metrics {
			opts = append(opts, WithCalculator(fixedCalculator{metric: m, rate: rates.Of(m)}))
		}
		viaEvaluator, err := New(opts...).Evaluate(artifact.Artifact{}, nil)
		if err != nil {
			t.Fatalf("mask %04b: Evaluate error: %v", mask, err)
		}
		if viaEvaluator.OverallPass != want {
			t.Fatalf("mask %04b: evaluator overall pass = %v, want %v", mask, viaEvaluator.OverallPass, want)
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	a := artifact.New(
		"활성 사용자 수 계산",
		[]string{"db.users.find({'user_id': {'$ne': '$user_id'}})", "db.sessions.count({'invalid_field': true})"},
		map[string]any{"active_users": -10, "error_result": nil, "invalid_rate": 150},
		[]artifact.LogEntry{{Status: "error", Message: "Field not found"}, {Status: "success"}},
	)
	e := New()
	first, err := e.Evaluate(a, map[string]float64{"accuracy": 0.5})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	second, err := e.Evaluate(a, map[string]float64{"accuracy": 0.5})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ between runs:\n%+v\n%+v", first, second)
	}
	if math.Float64bits(first.Rates.SemanticError) != math.Float64bits(second.Rates.SemanticError) {
		t.Fatalf("semantic error rate not bit-identical")
	}
}

func TestEvaluateConcurrentCallers(t *testing.T) {
	e := New()
	a := revenueArtifact()
	want, err := e.Evaluate(a, nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Evaluate(a, nil)
			if err != nil || !reflect.DeepEqual(got, want) {
				errs <- "concurrent evaluation diverged"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestEvaluateNoEvidenceFailsClosed(t *testing.T) {
	a := artifact.New("q", nil, map[string]any{"total": 100, "part_a": 40, "part_b": 60}, nil)
	res, err := Evaluate(a, nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if res.Rates.ExecutionSuccess != 0.0 {
		t.Fatalf("execution success: got %v, want 0", res.Rates.ExecutionSuccess)
	}
	if res.OverallPass {
		t.Fatal("expected overall fail without execution evidence")
	}
	if res.ExecutionEvidence != EvidenceNone {
		t.Fatalf("expected no evidence, got %q", res.ExecutionEvidence)
	}
	// the other three still report
	if res.Rates.EmptyResult != 0 || res.Rates.SemanticError != 0 || res.Rates.Accuracy != 1 {
		t.Fatalf("unexpected rates: %+v", res.Rates)
	}
}

func TestAccuracyOverride(t *testing.T) {
	mocked := New(WithCalculator(fixedCalculator{metric: Accuracy, rate: 0.6}))
	a := revenueArtifact()

	withDefault, err := mocked.Evaluate(a, nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if withDefault.Verdict(Accuracy).Pass {
		t.Fatal("accuracy 0.6 should fail the default 0.9 threshold")
	}

	overridden, err := mocked.Evaluate(a, map[string]float64{"accuracy": 0.5})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if !overridden.Verdict(Accuracy).Pass {
		t.Fatal("accuracy 0.6 should pass a 0.5 threshold")
	}
	if overridden.Policy.SemanticError != DefaultPolicy().SemanticError {
		t.Fatalf("unspecified thresholds must keep defaults, got %+v", overridden.Policy)
	}
	if !overridden.OverallPass {
		t.Fatalf("expected overall pass, failed: %v", overridden.Failed())
	}
}

func TestEvaluateRejectsMalformedOverrides(t *testing.T) {
	a := revenueArtifact()
	if _, err := Evaluate(a, map[string]float64{"latency": 0.5}); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	if _, err := Evaluate(a, map[string]float64{"accuracy": 1.5}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if _, err := Evaluate(a, map[string]float64{"accuracy": math.NaN()}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold for NaN, got %v", err)
	}
}

func TestCalculatorPanicFailsClosed(t *testing.T) {
	e := New(WithCalculator(panickingCalculator{metric: SemanticError}))
	res, err := e.Evaluate(revenueArtifact(), nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if res.Rates.SemanticError != 1 {
		t.Fatalf("expected worst semantic rate, got %v", res.Rates.SemanticError)
	}
	if res.OverallPass {
		t.Fatal("expected overall fail")
	}
	if res.Rates.ExecutionSuccess != 1 {
		t.Fatalf("other calculators should still run, got %+v", res.Rates)
	}
}

func TestEvaluateAgainstGroundTruth(t *testing.T) {
	a := artifact.New("q", []string{"db.c.find()"},
		map[string]any{"user_count": 3, "label": " Premium ", "chat_count": 9},
		[]artifact.LogEntry{{Status: "success"}})
	expected := artifact.NewResults(map[string]any{"user_count": 3.001, "label": "premium", "chat_count": 8, "unrelated": 1})

	res, err := New().EvaluateAgainst(a, expected, nil)
	if err != nil {
		t.Fatalf("EvaluateAgainst error: %v", err)
	}
	if res.AccuracySource != EvidenceGroundTruth {
		t.Fatalf("expected ground truth source, got %q", res.AccuracySource)
	}
	if got, want := res.Rates.Accuracy, 2.0/3.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("accuracy: got %v, want %v", got, want)
	}

	noOverlap := artifact.NewResults(map[string]any{"other": 1})
	res, err = New().EvaluateAgainst(a, noOverlap, nil)
	if err != nil {
		t.Fatalf("EvaluateAgainst error: %v", err)
	}
	if res.AccuracySource != EvidenceConsistency {
		t.Fatalf("expected consistency fallback, got %q", res.AccuracySource)
	}
}

func TestRatesAlwaysWithinUnitInterval(t *testing.T) {
	artifacts := []artifact.Artifact{
		{},
		artifact.New("", nil, nil, nil),
		artifact.New("q", []string{"x"}, map[string]any{"a": math.NaN(), "b": math.Inf(1), "c": "", "d": []any{}}, nil),
		artifact.New("q", []string{"x"}, map[string]any{"rate": -5, "count": -1, "total": 1, "x": 5, "y": 9}, []artifact.LogEntry{{Status: "weird"}}),
		artifact.New("q", nil, map[string]any{"f": func() {}, "ch": make(chan int)}, []artifact.LogEntry{{Status: "failure"}}),
		revenueArtifact(),
	}
	for i, a := range artifacts {
		res, err := Evaluate(a, nil)
		if err != nil {
			t.Fatalf("artifact %d: Evaluate error: %v", i, err)
		}
		for _, m := range Metrics {
			if r := res.Rates.Of(m); r < 0 || r > 1 || math.IsNaN(r) {
				t.Fatalf("artifact %d: %s rate %v outside [0,1]", i, m, r)
			}
		}
	}
}

func TestEvaluateAcceptsRealisticAnalyses(t *testing.T) {
	logs := []artifact.LogEntry{{Status: artifact.StatusSuccess}}
	cases := map[string]map[string]any{
		"year over year":   {"revenue_2023": 100000, "revenue_2024": 125000, "growth_rate": 25},
		"total with peers": {"total": 1200, "orders": 30, "customers": 12},
		"loss":             {"total_profit": -5000, "revenue": 20000},
	}
	for name, fields := range cases {
		res, err := Evaluate(artifact.New("q", []string{"db.c.aggregate()"}, fields, logs), nil)
		if err != nil {
			t.Fatalf("%s: Evaluate error: %v", name, err)
		}
		if !res.OverallPass || res.Rates.Accuracy != 1 || res.Rates.SemanticError != 0 {
			t.Fatalf("%s: expected acceptance, got %+v findings %+v", name, res.Rates, res.Findings)
		}
	}
}
