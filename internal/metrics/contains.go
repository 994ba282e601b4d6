package metrics

import (
	"context"
	"strings"

	"github.com/arenalabs/rag-arena/internal/model"
)

// ContainsMetric scores 1.0 when the expected answer appears as a
// case-insensitive substring of the output. A cheap reference check that
// needs no external model.
type ContainsMetric struct {
	name          string
	caseSensitive bool
}

// NewContainsMetric creates a case-insensitive contains metric.
func NewContainsMetric() *ContainsMetric {
	return &ContainsMetric{name: "contains"}
}

// Name implements Metric.
func (m *ContainsMetric) Name() string { return m.name }

// Score implements Metric.
func (m *ContainsMetric) Score(_ context.Context, in Input) (model.ScoreResult, error) {
	output, expected := in.Output, in.Expected
	if !m.caseSensitive {
		output = strings.ToLower(output)
		expected = strings.ToLower(expected)
	}

	if strings.Contains(output, expected) {
		return model.ScoreResult{Name: m.name, Value: 1.0, Reason: "expected answer found in output"}, nil
	}
	return model.ScoreResult{Name: m.name, Value: 0.0, Reason: "expected answer not found in output"}, nil
}
