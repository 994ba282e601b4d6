/*
PURPOSE:
  Statistical aggregation of per-question results and the winner vote.
  Turns raw latency and score lists into comparable system summaries.

REQUIREMENTS:
  User-specified:
  - Percentiles computed over successful latencies only, with index
    formulas int(n*0.50) and min(int(n*0.95), n-1). Kept as-is for
    comparability with historical runs; not a textbook percentile.
  - Zero successes yield all-zero latency stats, never a division error.
  - Per-metric {mean,min,max,std} over all recorded scores; std is 0 for
    single-sample sets.
  - Winner vote: success rate 40%, avg latency (lower wins) 30%, mean of
    mutually-present metrics 30%. Ties split a factor's weight. Final
    result is "tie" iff the score gap is strictly below 0.1.

  Implementation-discovered:
  - The latency metric's raw scores already drive the latency factor, so
    they are excluded from the quality-metric factor (LatencyName).

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli
  - Uses: internal/metrics (LatencyName), google/uuid

ERROR HANDLING:
  - None: aggregation is total over its inputs.

USAGE:
  sm := results.NewSystemMetrics("dust", latencies, successes, total, scores)

RELATED FILES:
  - internal/results/report.go

MAINTENANCE:
  - Adjust weights/threshold here only; report rendering adapts.
*/

package results

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arenalabs/rag-arena/internal/metrics"
)

// tieThreshold is the winner-vote gap below which the verdict is a tie.
// The comparison is strict: a gap of exactly 0.1 produces a winner.
const tieThreshold = 0.1

// Vote weights for the three comparison factors.
const (
	successWeight = 0.4
	latencyWeight = 0.3
	metricWeight  = 0.3
)

// MetricStats summarizes one metric's scores for one system.
type MetricStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Std  float64 `json:"std"`
}

// SystemMetrics is the derived, read-only aggregate for one backend.
type SystemMetrics struct {
	SystemName   string                 `json:"system_name"`
	SuccessRate  float64                `json:"success_rate"`
	AvgLatencyMs float64                `json:"avg_latency_ms"`
	P50LatencyMs float64                `json:"p50_latency_ms"`
	P95LatencyMs float64                `json:"p95_latency_ms"`
	MinLatencyMs float64                `json:"min_latency_ms"`
	MaxLatencyMs float64                `json:"max_latency_ms"`
	MetricScores map[string]MetricStats `json:"metric_scores,omitempty"`
}

// NewSystemMetrics aggregates raw per-question data for one system.
// latencies must contain successful-query latencies only.
func NewSystemMetrics(systemName string, latencies []float64, successCount, totalCount int, metricScores map[string][]float64) SystemMetrics {
	sm := SystemMetrics{
		SystemName:   systemName,
		MetricScores: aggregateScores(metricScores),
	}
	if totalCount > 0 {
		sm.SuccessRate = float64(successCount) / float64(totalCount)
	}

	if len(latencies) == 0 {
		return sm
	}

	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)
	n := len(sorted)

	p50Idx := int(float64(n) * 0.50)
	p95Idx := int(float64(n) * 0.95)
	if p95Idx > n-1 {
		p95Idx = n - 1
	}

	sm.AvgLatencyMs = mean(sorted)
	sm.P50LatencyMs = sorted[p50Idx]
	sm.P95LatencyMs = sorted[p95Idx]
	sm.MinLatencyMs = sorted[0]
	sm.MaxLatencyMs = sorted[n-1]
	return sm
}

func aggregateScores(metricScores map[string][]float64) map[string]MetricStats {
	if len(metricScores) == 0 {
		return nil
	}
	out := make(map[string]MetricStats, len(metricScores))
	for name, values := range metricScores {
		if len(values) == 0 {
			continue
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		out[name] = MetricStats{
			Mean: mean(values),
			Min:  sorted[0],
			Max:  sorted[len(sorted)-1],
			Std:  stddev(values),
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation; 0 for fewer than two samples.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// ComparisonSummary is the verdict of the winner vote.
type ComparisonSummary struct {
	Winner string  `json:"winner"` // system name, or "tie"
	Margin float64 `json:"margin"` // absolute score gap
}

// DetermineWinner runs the three-factor weighted vote between two systems.
func DetermineWinner(a, b SystemMetrics) ComparisonSummary {
	scoreA, scoreB := 0.0, 0.0

	// Factor 1: success rate.
	switch {
	case a.SuccessRate > b.SuccessRate:
		scoreA += successWeight
	case b.SuccessRate > a.SuccessRate:
		scoreB += successWeight
	default:
		scoreA += successWeight / 2
		scoreB += successWeight / 2
	}

	// Factor 2: average latency, lower is better.
	switch {
	case a.AvgLatencyMs < b.AvgLatencyMs:
		scoreA += latencyWeight
	case b.AvgLatencyMs < a.AvgLatencyMs:
		scoreB += latencyWeight
	default:
		scoreA += latencyWeight / 2
		scoreB += latencyWeight / 2
	}

	// Factor 3: mean of every mutually-present quality metric. Latency
	// scores are already counted by factor 2 and are excluded here. When no
	// metric is shared, neither side receives this factor.
	meanA, meanB, shared := sharedMetricMeans(a, b)
	if shared > 0 {
		switch {
		case meanA > meanB:
			scoreA += metricWeight
		case meanB > meanA:
			scoreB += metricWeight
		default:
			scoreA += metricWeight / 2
			scoreB += metricWeight / 2
		}
	}

	margin := math.Abs(scoreA - scoreB)
	switch {
	case margin < tieThreshold:
		return ComparisonSummary{Winner: "tie", Margin: margin}
	case scoreA > scoreB:
		return ComparisonSummary{Winner: a.SystemName, Margin: margin}
	default:
		return ComparisonSummary{Winner: b.SystemName, Margin: margin}
	}
}

func sharedMetricMeans(a, b SystemMetrics) (meanA, meanB float64, shared int) {
	for name, statsA := range a.MetricScores {
		if name == metrics.LatencyName {
			continue
		}
		statsB, ok := b.MetricScores[name]
		if !ok {
			continue
		}
		meanA += statsA.Mean
		meanB += statsB.Mean
		shared++
	}
	if shared > 0 {
		meanA /= float64(shared)
		meanB /= float64(shared)
	}
	return meanA, meanB, shared
}

// ExperimentResult is the complete, immutable report of one experiment run.
type ExperimentResult struct {
	ExperimentID   string            `json:"experiment_id"`
	ExperimentName string            `json:"experiment_name"`
	CreatedAt      time.Time         `json:"created_at"`
	DatasetName    string            `json:"dataset_name"`
	QuestionCount  int               `json:"question_count"`
	SystemA        SystemMetrics     `json:"system_a"`
	SystemB        SystemMetrics     `json:"system_b"`
	Comparison     ComparisonSummary `json:"comparison_summary"`
}

// NewExperimentResult assembles the final report, including the winner vote.
func NewExperimentResult(name, datasetName string, questionCount int, a, b SystemMetrics) *ExperimentResult {
	return &ExperimentResult{
		ExperimentID:   uuid.NewString(),
		ExperimentName: name,
		CreatedAt:      time.Now(),
		DatasetName:    datasetName,
		QuestionCount:  questionCount,
		SystemA:        a,
		SystemB:        b,
		Comparison:     DetermineWinner(a, b),
	}
}
