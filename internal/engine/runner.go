/*
PURPOSE:
  High-level runner that orchestrates a comparison experiment.
  Runs both backends over the question set, scores every result with every
  configured metric, and aggregates per-system summaries.

REQUIREMENTS:
  User-specified:
  - Each (system, question) evaluation is an independent unit of work;
    both systems run under identical configuration.
  - A panicking adapter call becomes an error QueryResult, never a crash.
  - Timeouts are enforced by the adapters; the runner only cancels.

  Implementation-discovered:
  - Worker pool per system (parallel_workers) with an optional QPS limiter
    so the harness doesn't hammer production backends.
  - Per-question rows stream to the CSV/JSONL writers as they complete.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Uses: internal/metrics, internal/results, internal/output
  - Dependencies: golang.org/x/time/rate

ERROR HANDLING:
  - Per-query failures are data; only context cancellation aborts a run.
  - A metric returning a hard error (judge parse failure) is logged and
    that single score is dropped; the batch continues.

IMPLEMENTATION RULES:
  - No shared mutable state between workers; the collector goroutine owns
    all accumulation.

USAGE:
  r := engine.NewRunner(cfg, dustClient, graphragClient, metricSet)
  res, err := r.Run(ctx, "civic-law-eval", questions, "")

RELATED FILES:
  - internal/engine/client.go
  - internal/results/results.go

MAINTENANCE:
  - Update when adding a third backend (generalize the client pair).
*/

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/arenalabs/rag-arena/internal/config"
	"github.com/arenalabs/rag-arena/internal/metrics"
	"github.com/arenalabs/rag-arena/internal/model"
	"github.com/arenalabs/rag-arena/internal/output"
	"github.com/arenalabs/rag-arena/internal/results"
)

// RowWriter receives per-question rows as they complete.
type RowWriter interface {
	Write(model.Row) error
}

// Runner orchestrates comparison experiments between two RAG systems.
type Runner struct {
	cfg     *config.Config
	first   RAGClient
	second  RAGClient
	metrics []metrics.Metric
	writers []RowWriter
}

// NewRunner creates an experiment runner over two backend adapters.
func NewRunner(cfg *config.Config, first, second RAGClient, ms []metrics.Metric) *Runner {
	return &Runner{
		cfg:     cfg,
		first:   first,
		second:  second,
		metrics: ms,
	}
}

// AddWriter registers a per-question row sink (CSV, JSONL).
func (r *Runner) AddWriter(w RowWriter) {
	r.writers = append(r.writers, w)
}

// Run executes the full comparison experiment and returns the final report.
func (r *Runner) Run(ctx context.Context, datasetName string, questions []model.Question, experimentName string) (*results.ExperimentResult, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("dataset %s contains no questions", datasetName)
	}
	if experimentName == "" {
		experimentName = fmt.Sprintf("rag_comparison_%s", time.Now().Format("20060102_150405"))
	}

	output.Logger.Info("starting experiment",
		"name", experimentName, "dataset", datasetName, "questions", len(questions))

	for _, client := range []RAGClient{r.first, r.second} {
		if !client.HealthCheck(ctx) {
			output.Logger.Warn("backend failed health check; evaluating anyway", "system", client.SystemName())
		}
	}

	outFirst, err := r.evaluateSystem(ctx, r.first, questions)
	if err != nil {
		return nil, err
	}
	outSecond, err := r.evaluateSystem(ctx, r.second, questions)
	if err != nil {
		return nil, err
	}

	res := results.NewExperimentResult(
		experimentName,
		datasetName,
		len(questions),
		results.NewSystemMetrics(r.first.SystemName(), outFirst.latencies, outFirst.successCount, len(questions), outFirst.scores),
		results.NewSystemMetrics(r.second.SystemName(), outSecond.latencies, outSecond.successCount, len(questions), outSecond.scores),
	)

	output.Logger.Info("experiment complete",
		"winner", res.Comparison.Winner, "margin", fmt.Sprintf("%.2f", res.Comparison.Margin))
	return res, nil
}

// systemOutcome accumulates raw per-question data for one system.
type systemOutcome struct {
	latencies    []float64 // successful queries only
	successCount int
	scores       map[string][]float64
}

type itemOutcome struct {
	question model.Question
	result   model.QueryResult
	scores   []model.ScoreResult
}

// evaluateSystem runs one backend over the whole question set with a worker
// pool, returning the raw data the aggregator needs.
func (r *Runner) evaluateSystem(ctx context.Context, client RAGClient, questions []model.Question) (*systemOutcome, error) {
	workers := r.cfg.ParallelWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(questions) {
		workers = len(questions)
	}

	var limiter *rate.Limiter
	if r.cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.QPS), 1)
	}

	output.Logger.Info("evaluating system", "system", client.SystemName(), "workers", workers)

	jobs := make(chan model.Question)
	items := make(chan itemOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}
				res := safeQuery(ctx, client, q.Question)
				items <- itemOutcome{question: q, result: res, scores: r.scoreResult(ctx, q, res)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, q := range questions {
			select {
			case jobs <- q:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(items)
	}()

	outcome := &systemOutcome{scores: make(map[string][]float64)}
	for item := range items {
		r.writeRow(client.SystemName(), item)

		if item.result.IsSuccess() {
			outcome.successCount++
			outcome.latencies = append(outcome.latencies, item.result.LatencyMs)
		}
		for _, sr := range item.scores {
			// Latency scores feed the latency statistics via the list
			// above, not the quality-metric aggregation.
			if sr.Name == metrics.LatencyName {
				continue
			}
			outcome.scores[sr.Name] = append(outcome.scores[sr.Name], sr.Value)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcome, nil
}

// safeQuery shields the batch from a panicking adapter.
func safeQuery(ctx context.Context, client RAGClient, question string) (res model.QueryResult) {
	defer func() {
		if p := recover(); p != nil {
			output.Logger.Error("adapter panicked", "system", client.SystemName(), "panic", p)
			res = model.Error(fmt.Sprintf("panic: %v", p), 0)
		}
	}()
	return client.Query(ctx, question)
}

// scoreResult applies every configured metric to one query result. Hard
// metric errors (judge parse failures) drop that single score with a log
// line; they never abort the batch.
func (r *Runner) scoreResult(ctx context.Context, q model.Question, res model.QueryResult) []model.ScoreResult {
	in := metrics.Input{
		Question:  q.Question,
		Expected:  q.Expected,
		Output:    res.Answer,
		LatencyMs: res.LatencyMs,
		Status:    res.Status,
	}

	scores := make([]model.ScoreResult, 0, len(r.metrics))
	for _, m := range r.metrics {
		sr, err := m.Score(ctx, in)
		if err != nil {
			output.Logger.Error("metric scoring failed",
				"metric", m.Name(), "question", q.Question, "error", err)
			continue
		}
		scores = append(scores, sr)
	}
	return scores
}

func (r *Runner) writeRow(system string, item itemOutcome) {
	row := model.Row{
		System:    system,
		Question:  item.question.Question,
		Expected:  item.question.Expected,
		Result:    item.result,
		Scores:    item.scores,
		Timestamp: time.Now(),
	}
	for _, w := range r.writers {
		if err := w.Write(row); err != nil {
			output.Logger.Error("failed to write result row", "error", err)
		}
	}
}
