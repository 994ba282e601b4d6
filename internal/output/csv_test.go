package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arenalabs/rag-arena/internal/model"
)

func sampleRow(system string) model.Row {
	return model.Row{
		System:   system,
		Question: "What does article 12 say?",
		Expected: "It defines X.",
		Result:   model.Success("Article 12 defines X.", 123.4, nil),
		Scores: []model.ScoreResult{
			{Name: "contains", Value: 1.0, Reason: "expected answer found in output"},
		},
		Timestamp: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	if err := w.Write(sampleRow("dust")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Write(sampleRow("graphrag")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	if records[0][0] != "system" || records[0][5] != "scores" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "dust" || records[2][0] != "graphrag" {
		t.Errorf("systems = %q, %q", records[1][0], records[2][0])
	}
	if !strings.Contains(records[1][5], `"contains"`) {
		t.Errorf("scores column should carry JSON, got %q", records[1][5])
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("NewJSONWriter failed: %v", err)
	}
	if err := w.Write(sampleRow("dust")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], `"system":"dust"`) {
		t.Errorf("line = %q", lines[0])
	}
}
