/*
PURPOSE:
  Defines the scoring-metric contract and metric-set construction.
  Every metric maps one (question, result) pair to a normalized score.

REQUIREMENTS:
  User-specified:
  - Metrics are stateless or externally configured; they never mutate the
    result they score.
  - The same metric set is applied to both systems for fair comparison.
  - enable_llm_judge adds the judge only when a credential is present;
    otherwise the harness warns and proceeds.

ARCHITECTURE INTEGRATION:
  - Implemented by: latency.go, status.go, contains.go, judge.go
  - Called by: internal/engine/runner.go

ERROR HANDLING:
  - Score returns an error only for hard failures (judge parse errors);
    everything else is encoded in the ScoreResult.

USAGE:
  ms := metrics.Build(cfg.Metrics, cfg.Judge)
  sr, err := ms[0].Score(ctx, metrics.Input{Output: res.Answer, Status: res.Status})

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Register new metric names in Build.
*/

package metrics

import (
	"context"

	"github.com/arenalabs/rag-arena/internal/config"
	"github.com/arenalabs/rag-arena/internal/model"
	"github.com/arenalabs/rag-arena/internal/output"
)

// Input is everything a metric may look at when scoring one query result.
type Input struct {
	Question  string
	Expected  string
	Output    string
	LatencyMs float64
	Status    string
}

// Metric scores one backend result. Implementations must be safe for
// concurrent use: the runner scores from worker goroutines.
type Metric interface {
	Name() string
	Score(ctx context.Context, in Input) (model.ScoreResult, error)
}

// Build resolves configured metric names into metric instances. Unknown
// names are skipped with a warning; the judge is added only when enabled
// and configured with a credential.
func Build(names []string, judge config.JudgeConfig) []Metric {
	var ms []Metric
	for _, name := range names {
		switch name {
		case "latency":
			ms = append(ms, NewLatencyMetric())
		case "status":
			ms = append(ms, NewStatusMetric())
		case "contains":
			ms = append(ms, NewContainsMetric())
		case "llm_precision":
			if !judge.Enable {
				continue
			}
			if judge.APIKey == "" {
				output.Logger.Warn("llm_precision metric requested but OPENAI_API_KEY not set; skipping")
				continue
			}
			ms = append(ms, NewPrecisionJudge(judge))
		default:
			output.Logger.Warn("unknown metric; skipping", "name", name)
		}
	}
	return ms
}
