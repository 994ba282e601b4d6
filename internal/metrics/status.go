package metrics

import (
	"context"

	"github.com/arenalabs/rag-arena/internal/model"
)

// StatusMetric converts query status into a binary score: 1.0 for success,
// 0.0 for anything else. The raw status string is preserved as the reason so
// timeout/error remain distinguishable in reports.
type StatusMetric struct {
	name string
}

// NewStatusMetric creates a status metric with the default name.
func NewStatusMetric() *StatusMetric {
	return &StatusMetric{name: "status"}
}

// Name implements Metric.
func (m *StatusMetric) Name() string { return m.name }

// Score implements Metric.
func (m *StatusMetric) Score(_ context.Context, in Input) (model.ScoreResult, error) {
	value := 0.0
	if in.Status == model.StatusSuccess {
		value = 1.0
	}
	return model.ScoreResult{
		Name:   m.name,
		Value:  value,
		Reason: in.Status,
	}, nil
}
