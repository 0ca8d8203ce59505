package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/evaluation"
)

func passing() artifact.Artifact {
	return artifact.New("월별 매출", []string{"db.orders.aggregate(...)"},
		map[string]any{"revenue": 125000, "growth_rate": 15.74},
		[]artifact.LogEntry{{Status: "success"}})
}

func failing() artifact.Artifact {
	return artifact.New("q", nil, nil, nil)
}

func TestRunStopsAtFirstPass(t *testing.T) {
	calls := 0
	producer := ProducerFunc(func(_ context.Context, attempt int) (artifact.Artifact, error) {
		calls++
		if attempt == 2 {
			return passing(), nil
		}
		return failing(), nil
	})

	out, err := New(nil, WithMaxAttempts(5)).Run(context.Background(), producer)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !out.Passed || len(out.Attempts) != 2 || calls != 2 {
		t.Fatalf("expected pass on attempt 2, got passed=%v attempts=%d calls=%d", out.Passed, len(out.Attempts), calls)
	}
	accepted, ok := out.Accepted()
	if !ok || accepted.Number != 2 || accepted.Summary.Status != "PASS" {
		t.Fatalf("unexpected accepted attempt %+v", accepted)
	}
	if out.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestRunRespectsAttemptLimit(t *testing.T) {
	producer := ProducerFunc(func(context.Context, int) (artifact.Artifact, error) {
		return failing(), nil
	})
	out, err := New(nil, WithMaxAttempts(2)).Run(context.Background(), producer)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out.Passed || len(out.Attempts) != 2 {
		t.Fatalf("expected two rejected attempts, got %+v", out)
	}
	last, _ := out.Last()
	if last.Summary.Status != "FAIL" || last.Result.Rates.ExecutionSuccess != 0 {
		t.Fatalf("unexpected last attempt %+v", last.Summary)
	}
}

func TestRunWithCandidates(t *testing.T) {
	out, err := New(nil).Run(context.Background(), Candidates(failing()))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out.Passed || len(out.Attempts) != 1 {
		t.Fatalf("expected single rejected attempt, got %+v", out)
	}

	if _, err := New(nil).Run(context.Background(), Candidates()); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestRunRecordsProducerFailures(t *testing.T) {
	boom := errors.New("pipeline crashed")
	producer := ProducerFunc(func(_ context.Context, attempt int) (artifact.Artifact, error) {
		if attempt == 1 {
			return artifact.Artifact{}, boom
		}
		return passing(), nil
	})
	out, err := New(nil).Run(context.Background(), producer)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !out.Passed || len(out.Attempts) != 2 {
		t.Fatalf("expected pass after producer failure, got %+v", out)
	}
	if !errors.Is(out.Attempts[0].Err, boom) || out.Attempts[0].Passed() {
		t.Fatalf("first attempt should carry the producer error: %+v", out.Attempts[0])
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	producer := ProducerFunc(func(context.Context, int) (artifact.Artifact, error) {
		cancel()
		return failing(), nil
	})
	out, err := New(nil, WithMaxAttempts(3)).Run(ctx, producer)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(out.Attempts) != 1 {
		t.Fatalf("expected one attempt before cancellation, got %d", len(out.Attempts))
	}
}

func TestRunRejectsInvalidOverrides(t *testing.T) {
	g := New(nil, WithOverrides(map[string]float64{"latency": 0.1}))
	if _, err := g.Run(context.Background(), Candidates(passing())); !errors.Is(err, evaluation.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestRunWithGroundTruth(t *testing.T) {
	expected := artifact.NewResults(map[string]any{"revenue": 1})
	out, err := New(nil, WithGroundTruth(expected)).Run(context.Background(), Candidates(passing()))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out.Passed {
		t.Fatal("expected ground truth mismatch to reject the candidate")
	}
	last, _ := out.Last()
	if last.Result.AccuracySource != evaluation.EvidenceGroundTruth {
		t.Fatalf("accuracy source %q", last.Result.AccuracySource)
	}
}

func TestWithMaxAttemptsIgnoresNonPositive(t *testing.T) {
	if got := New(nil, WithMaxAttempts(0)).MaxAttempts(); got != DefaultMaxAttempts {
		t.Fatalf("MaxAttempts() = %d, want %d", got, DefaultMaxAttempts)
	}
}
