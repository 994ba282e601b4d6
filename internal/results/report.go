/*
PURPOSE:
  Renders an ExperimentResult into human- and machine-readable reports.
  Supported formats: markdown, colored text, JSON.

REQUIREMENTS:
  User-specified:
  - --format json|markdown|text on the run command.
  - Markdown report mirrors the per-system tables plus a winner summary.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Dependencies: fatih/color (text format)

ERROR HANDLING:
  - Render returns an error only for an unknown format name.

USAGE:
  out, err := result.Render("markdown")

RELATED FILES:
  - internal/results/results.go

MAINTENANCE:
  - Keep formats in sync when adding fields to SystemMetrics.
*/

package results

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Render returns the report in the requested format.
func (r *ExperimentResult) Render(format string) (string, error) {
	switch format {
	case "markdown":
		return r.Markdown(), nil
	case "text":
		return r.Text(), nil
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json, markdown, or text)", format)
	}
}

// Markdown generates the markdown summary report.
func (r *ExperimentResult) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# RAG Comparison Report: %s\n\n", r.ExperimentName)
	fmt.Fprintf(&b, "**Date**: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Dataset**: %s\n", r.DatasetName)
	fmt.Fprintf(&b, "**Questions**: %d\n\n", r.QuestionCount)
	b.WriteString("---\n\n## Summary\n\n")

	if r.Comparison.Winner == "tie" {
		b.WriteString("**Result**: Tie (similar performance)\n\n")
	} else {
		fmt.Fprintf(&b, "**Winner**: %s (%.0f%%)\n\n",
			strings.ToUpper(r.Comparison.Winner), r.Comparison.Margin*100)
	}

	r.writeSystemMarkdown(&b, r.SystemA)
	r.writeSystemMarkdown(&b, r.SystemB)

	return b.String()
}

func (r *ExperimentResult) writeSystemMarkdown(b *strings.Builder, sm SystemMetrics) {
	fmt.Fprintf(b, "## %s\n\n", sm.SystemName)
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(b, "| Success Rate | %.1f%% |\n", sm.SuccessRate*100)
	fmt.Fprintf(b, "| Avg Latency | %.0fms |\n", sm.AvgLatencyMs)
	fmt.Fprintf(b, "| P50 Latency | %.0fms |\n", sm.P50LatencyMs)
	fmt.Fprintf(b, "| P95 Latency | %.0fms |\n", sm.P95LatencyMs)
	b.WriteString("\n")

	if len(sm.MetricScores) == 0 {
		return
	}
	b.WriteString("### Metric Scores\n\n")
	b.WriteString("| Metric | Mean | Min | Max | Std |\n|--------|------|-----|-----|-----|\n")
	for _, name := range sortedMetricNames(sm.MetricScores) {
		stats := sm.MetricScores[name]
		fmt.Fprintf(b, "| %s | %.3f | %.3f | %.3f | %.3f |\n",
			name, stats.Mean, stats.Min, stats.Max, stats.Std)
	}
	b.WriteString("\n")
}

// Text generates a colored terminal report.
func (r *ExperimentResult) Text() string {
	var b strings.Builder

	title := color.New(color.Bold)
	green := color.New(color.Bold, color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Fprintf(&b, "%s\n", title.Sprintf("RAG Comparison: %s", r.ExperimentName))
	fmt.Fprintf(&b, "Dataset: %s  Questions: %d  Date: %s\n\n",
		r.DatasetName, r.QuestionCount, r.CreatedAt.Format("2006-01-02 15:04:05"))

	if r.Comparison.Winner == "tie" {
		fmt.Fprintf(&b, "%s\n\n", yellow.Sprint("Result: tie (similar performance)"))
	} else {
		fmt.Fprintf(&b, "%s\n\n", green.Sprintf("Winner: %s (margin %.0f%%)",
			r.Comparison.Winner, r.Comparison.Margin*100))
	}

	for _, sm := range []SystemMetrics{r.SystemA, r.SystemB} {
		fmt.Fprintf(&b, "%s\n", title.Sprint(sm.SystemName))
		fmt.Fprintf(&b, "  success rate  %.1f%%\n", sm.SuccessRate*100)
		fmt.Fprintf(&b, "  avg latency   %.0fms (p50 %.0fms, p95 %.0fms, min %.0fms, max %.0fms)\n",
			sm.AvgLatencyMs, sm.P50LatencyMs, sm.P95LatencyMs, sm.MinLatencyMs, sm.MaxLatencyMs)
		for _, name := range sortedMetricNames(sm.MetricScores) {
			stats := sm.MetricScores[name]
			fmt.Fprintf(&b, "  %-13s mean %.3f (min %.3f, max %.3f, std %.3f)\n",
				name, stats.Mean, stats.Min, stats.Max, stats.Std)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func sortedMetricNames(scores map[string]MetricStats) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
