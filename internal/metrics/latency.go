package metrics

import (
	"context"
	"fmt"

	"github.com/arenalabs/rag-arena/internal/model"
)

// LatencyName is the latency metric's score key. The aggregator treats this
// name specially: its values feed the latency statistics, not the quality
// metric means.
const LatencyName = "latency_ms"

// LatencyMetric records response time as a score. Purely observational.
type LatencyMetric struct {
	name string
}

// NewLatencyMetric creates a latency metric with the default name.
func NewLatencyMetric() *LatencyMetric {
	return &LatencyMetric{name: LatencyName}
}

// Name implements Metric.
func (m *LatencyMetric) Name() string { return m.name }

// Score implements Metric: the value is the measured latency itself.
func (m *LatencyMetric) Score(_ context.Context, in Input) (model.ScoreResult, error) {
	return model.ScoreResult{
		Name:   m.name,
		Value:  in.LatencyMs,
		Reason: fmt.Sprintf("Response time: %.0fms", in.LatencyMs),
	}, nil
}
