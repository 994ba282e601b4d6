package results

import (
	"math"
	"strings"
	"testing"
)

func TestNewSystemMetricsPercentiles(t *testing.T) {
	latencies := []float64{500, 100, 300, 200, 400}
	sm := NewSystemMetrics("dust", latencies, 5, 5, nil)

	if sm.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", sm.SuccessRate)
	}
	if sm.AvgLatencyMs != 300 {
		t.Errorf("AvgLatencyMs = %v, want 300", sm.AvgLatencyMs)
	}
	// n=5: p50 index int(5*0.50)=2 -> 300; p95 index min(int(5*0.95), 4)=4 -> 500
	if sm.P50LatencyMs != 300 {
		t.Errorf("P50LatencyMs = %v, want 300", sm.P50LatencyMs)
	}
	if sm.P95LatencyMs != 500 {
		t.Errorf("P95LatencyMs = %v, want 500", sm.P95LatencyMs)
	}
	if sm.MinLatencyMs != 100 || sm.MaxLatencyMs != 500 {
		t.Errorf("min/max = %v/%v, want 100/500", sm.MinLatencyMs, sm.MaxLatencyMs)
	}
}

func TestNewSystemMetricsZeroSuccesses(t *testing.T) {
	scores := map[string][]float64{"status": {0, 0, 0}}
	sm := NewSystemMetrics("graphrag", nil, 0, 3, scores)

	if sm.SuccessRate != 0 {
		t.Errorf("SuccessRate = %v, want 0", sm.SuccessRate)
	}
	for name, v := range map[string]float64{
		"avg": sm.AvgLatencyMs, "p50": sm.P50LatencyMs, "p95": sm.P95LatencyMs,
		"min": sm.MinLatencyMs, "max": sm.MaxLatencyMs,
	} {
		if v != 0 {
			t.Errorf("%s latency = %v, want 0 with no successful queries", name, v)
		}
	}
	// Metric scores are still aggregated even when every query failed.
	stats, ok := sm.MetricScores["status"]
	if !ok {
		t.Fatal("status scores should be aggregated despite zero successes")
	}
	if stats.Mean != 0 || stats.Std != 0 {
		t.Errorf("status stats = %+v", stats)
	}
}

func TestAggregateScoresStddev(t *testing.T) {
	sm := NewSystemMetrics("dust", []float64{100}, 1, 1, map[string][]float64{
		"single": {0.8},
		"pair":   {0.0, 1.0},
	})

	if got := sm.MetricScores["single"].Std; got != 0 {
		t.Errorf("single-sample std = %v, want 0", got)
	}
	// Sample stddev of {0,1}: sqrt(((0-.5)^2+(1-.5)^2)/1) = sqrt(0.5)
	want := math.Sqrt(0.5)
	if got := sm.MetricScores["pair"].Std; math.Abs(got-want) > 1e-12 {
		t.Errorf("pair std = %v, want %v", got, want)
	}
}

func TestDetermineWinnerNoSharedMetrics(t *testing.T) {
	a := SystemMetrics{SystemName: "dust", SuccessRate: 0.9, AvgLatencyMs: 500}
	b := SystemMetrics{SystemName: "graphrag", SuccessRate: 0.8, AvgLatencyMs: 300}

	// dust takes success (0.4), graphrag takes latency (0.3); no metric factor.
	got := DetermineWinner(a, b)
	if got.Winner != "dust" {
		t.Errorf("winner = %q, want dust", got.Winner)
	}
	// 0.4 - 0.3 in float64 lands a hair above the 0.1 tie threshold, so this
	// is a win, not a tie.
	if got.Margin < 0.1 {
		t.Errorf("margin = %v, expected >= threshold", got.Margin)
	}
}

func TestDetermineWinnerAllFactors(t *testing.T) {
	a := SystemMetrics{
		SystemName: "dust", SuccessRate: 1.0, AvgLatencyMs: 100,
		MetricScores: map[string]MetricStats{
			"status":   {Mean: 1.0},
			"contains": {Mean: 0.8},
		},
	}
	b := SystemMetrics{
		SystemName: "graphrag", SuccessRate: 0.5, AvgLatencyMs: 200,
		MetricScores: map[string]MetricStats{
			"status":   {Mean: 0.5},
			"contains": {Mean: 0.4},
		},
	}

	got := DetermineWinner(a, b)
	if got.Winner != "dust" {
		t.Errorf("winner = %q, want dust", got.Winner)
	}
	if math.Abs(got.Margin-1.0) > 1e-12 {
		t.Errorf("margin = %v, want 1.0 (clean sweep)", got.Margin)
	}
}

func TestDetermineWinnerTie(t *testing.T) {
	a := SystemMetrics{SystemName: "dust", SuccessRate: 0.9, AvgLatencyMs: 300,
		MetricScores: map[string]MetricStats{"contains": {Mean: 0.7}}}
	b := SystemMetrics{SystemName: "graphrag", SuccessRate: 0.9, AvgLatencyMs: 300,
		MetricScores: map[string]MetricStats{"contains": {Mean: 0.7}}}

	got := DetermineWinner(a, b)
	if got.Winner != "tie" {
		t.Errorf("winner = %q, want tie", got.Winner)
	}
	if got.Margin != 0 {
		t.Errorf("margin = %v, want 0", got.Margin)
	}
}

func TestDetermineWinnerExcludesLatencyScores(t *testing.T) {
	// latency_ms raw values would dwarf quality scores if counted as a
	// quality metric; the vote must ignore them there.
	a := SystemMetrics{
		SystemName: "dust", SuccessRate: 1.0, AvgLatencyMs: 100,
		MetricScores: map[string]MetricStats{
			"latency_ms": {Mean: 100},
			"status":     {Mean: 1.0},
		},
	}
	b := SystemMetrics{
		SystemName: "graphrag", SuccessRate: 0.0, AvgLatencyMs: 0,
		MetricScores: map[string]MetricStats{
			"latency_ms": {Mean: 30000},
			"status":     {Mean: 0.0},
		},
	}

	got := DetermineWinner(a, b)
	if got.Winner != "dust" {
		t.Errorf("winner = %q, want dust", got.Winner)
	}
	// dust: success 0.4 + metric 0.3 = 0.7; graphrag: latency 0.3 (avg 0 < 100).
	if math.Abs(got.Margin-0.4) > 1e-12 {
		t.Errorf("margin = %v, want 0.4", got.Margin)
	}
}

func TestExperimentResultAssembly(t *testing.T) {
	a := NewSystemMetrics("dust", []float64{100, 200}, 2, 2, map[string][]float64{"contains": {1, 1}})
	b := NewSystemMetrics("graphrag", []float64{50}, 1, 2, map[string][]float64{"contains": {0}})

	res := NewExperimentResult("exp", "civic-law", 2, a, b)
	if res.ExperimentID == "" {
		t.Error("ExperimentID should be generated")
	}
	if res.Comparison.Winner != "dust" {
		t.Errorf("winner = %q, want dust", res.Comparison.Winner)
	}
	if res.QuestionCount != 2 || res.DatasetName != "civic-law" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRenderFormats(t *testing.T) {
	a := NewSystemMetrics("dust", []float64{100}, 1, 1, map[string][]float64{"contains": {1}})
	b := NewSystemMetrics("graphrag", nil, 0, 1, map[string][]float64{"contains": {0}})
	res := NewExperimentResult("exp", "ds", 1, a, b)

	md, err := res.Render("markdown")
	if err != nil {
		t.Fatalf("markdown render failed: %v", err)
	}
	for _, want := range []string{"# RAG Comparison Report: exp", "**Winner**: DUST", "## dust", "## graphrag", "| contains |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	if _, err := res.Render("json"); err != nil {
		t.Errorf("json render failed: %v", err)
	}
	if _, err := res.Render("text"); err != nil {
		t.Errorf("text render failed: %v", err)
	}
	if _, err := res.Render("xml"); err == nil {
		t.Error("unknown format must be rejected")
	}
}
