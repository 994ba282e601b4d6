/*
PURPOSE:
  Writes per-question evaluation rows to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Output to CSV for spreadsheet-style inspection of individual answers.
  - Keep file handle open for flushing.

  Implementation-discovered:
  - Metric scores vary per run, so they are serialized as one JSON column
    instead of a moving set of headers.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (runner)
  - Consumes: internal/model.Row

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex-guarded: the runner writes from worker goroutines.

USAGE:
  w, err := output.NewCSVWriter("results.csv")
  w.Write(row)
  w.Close()

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when Row changes.
*/

package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/arenalabs/rag-arena/internal/model"
)

// CSVWriter handles writing rows to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)

	header := []string{
		"system", "question", "status", "latency_ms", "answer", "scores", "timestamp",
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single row to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.Row) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	scoreBytes, _ := json.Marshal(r.Scores)

	record := []string{
		r.System,
		r.Question,
		r.Result.Status,
		fmt.Sprintf("%.1f", r.Result.LatencyMs),
		r.Result.Answer,
		string(scoreBytes),
		r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}
