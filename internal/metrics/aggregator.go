// internal/metrics/aggregator.go
// Package metrics keeps a running history of evaluation outcomes on disk.
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/logging"
	"github.com/mwiater/qagate/internal/util"
)

// Aggregator collects evaluation rates and verdicts into a History.
type Aggregator struct {
	mutex    sync.Mutex
	history  History
	filePath string
	now      func() time.Time
}

// NewAggregator loads the history stored at path. A missing file starts an
// empty history; an unreadable one is an error.
func NewAggregator(path string) (*Aggregator, error) {
	agg := &Aggregator{filePath: path, now: time.Now}
	if err := agg.load(); err != nil {
		return nil, err
	}
	return agg, nil
}

// load reads the history from the JSON file into memory.
func (a *Aggregator) load() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	data, err := os.ReadFile(a.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to read history %s: %w", a.filePath, err)
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("unable to parse history %s: %w", a.filePath, err)
	}
	a.history = h
	return nil
}

// Save writes the current history to the JSON file.
func (a *Aggregator) Save() error {
	logging.LogEvent("[METRICS] Saving evaluation history to %s", a.filePath)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	data, err := json.MarshalIndent(a.history, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal history: %w", err)
	}
	return util.WriteFile(a.filePath, data)
}

// Record folds one evaluation into the overall and per-size statistics.
// resultFields is the number of fields the evaluated artifact returned.
func (a *Aggregator) Record(res evaluation.Result, resultFields int) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.history.LastUpdatedUTC = a.now().UTC()
	updateStats(&a.history.OverallStats, res)

	bucket := getBucket(resultFields)
	for i := range a.history.SizeBuckets {
		if a.history.SizeBuckets[i].Dimension == "result_fields" && a.history.SizeBuckets[i].Bucket == bucket {
			updateStats(&a.history.SizeBuckets[i].Stats, res)
			return
		}
	}
	b := SizeBucket{Dimension: "result_fields", Bucket: bucket}
	updateStats(&b.Stats, res)
	a.history.SizeBuckets = append(a.history.SizeBuckets, b)
}

// Snapshot returns a copy of the current history.
func (a *Aggregator) Snapshot() History {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	h := a.history
	h.OverallStats = copyStats(a.history.OverallStats)
	h.SizeBuckets = make([]SizeBucket, len(a.history.SizeBuckets))
	for i, b := range a.history.SizeBuckets {
		b.Stats = copyStats(b.Stats)
		h.SizeBuckets[i] = b
	}
	return h
}

func copyStats(s RunningAggregatedStats) RunningAggregatedStats {
	if s.FailedBy != nil {
		failed := make(map[string]int64, len(s.FailedBy))
		for k, v := range s.FailedBy {
			failed[k] = v
		}
		s.FailedBy = failed
	}
	return s
}

func updateStats(stats *RunningAggregatedStats, res evaluation.Result) {
	stats.TotalEvaluations++
	if res.OverallPass {
		stats.Passed++
	}
	for _, m := range res.Failed() {
		if stats.FailedBy == nil {
			stats.FailedBy = make(map[string]int64)
		}
		stats.FailedBy[string(m)]++
	}
	updateRunningStat(&stats.SemanticError, res.Rates.SemanticError)
	updateRunningStat(&stats.ExecutionSuccess, res.Rates.ExecutionSuccess)
	updateRunningStat(&stats.EmptyResult, res.Rates.EmptyResult)
	updateRunningStat(&stats.Accuracy, res.Rates.Accuracy)
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// getBucket names the result-set size range for a field count.
func getBucket(fields int) string {
	switch {
	case fields <= 0:
		return "0"
	case fields <= 5:
		return "1-5"
	case fields <= 20:
		return "6-20"
	default:
		return "21+"
	}
}
