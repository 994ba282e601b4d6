/*
PURPOSE:
  Defines the core data structures shared across the harness.
  QueryResult is the normalized shape every RAG backend produces.

REQUIREMENTS:
  User-specified:
  - One result shape for heterogeneous backends (answer, latency, status).
  - Status fully determines success/timeout/error classification.

  Implementation-discovered:
  - Raw response kept as opaque JSON for provenance/debugging.
  - Need JSON tags for the JSONL result writer.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/metrics, internal/results, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs). Failures are encoded in Status, not errors.

IMPLEMENTATION RULES:
  - QueryResult is constructed once per query attempt and never mutated.
  - Exactly one of IsSuccess/IsTimeout/IsError is true for any Status.

USAGE:
  res := model.Error("connection refused", 12.4)

RELATED FILES:
  - internal/engine/client.go
  - internal/output/json.go

MAINTENANCE:
  - Update writers when adding fields to Row.
*/

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status values. Error statuses are "error: <message>" and are matched by
// prefix, so the message survives into reports.
const (
	StatusSuccess = "success"
	StatusTimeout = "timeout"

	errorPrefix = "error:"
)

// QueryResult is the normalized outcome of one backend query attempt.
type QueryResult struct {
	Answer    string          `json:"answer"`
	LatencyMs float64         `json:"latency_ms"`
	Status    string          `json:"status"`
	Raw       json.RawMessage `json:"raw_response,omitempty"`
}

// Success builds a successful result carrying the answer and, optionally,
// the raw backend payload.
func Success(answer string, latencyMs float64, raw json.RawMessage) QueryResult {
	return QueryResult{Answer: answer, LatencyMs: latencyMs, Status: StatusSuccess, Raw: raw}
}

// Timeout builds a timeout result. latencyMs records how long we waited.
func Timeout(latencyMs float64) QueryResult {
	return QueryResult{LatencyMs: latencyMs, Status: StatusTimeout}
}

// Error builds an error result from a message.
func Error(message string, latencyMs float64) QueryResult {
	return QueryResult{LatencyMs: latencyMs, Status: fmt.Sprintf("error: %s", message)}
}

// IsSuccess reports whether the query completed successfully.
func (r QueryResult) IsSuccess() bool { return r.Status == StatusSuccess }

// IsTimeout reports whether the query timed out.
func (r QueryResult) IsTimeout() bool { return r.Status == StatusTimeout }

// IsError reports whether the query failed with an error.
func (r QueryResult) IsError() bool { return strings.HasPrefix(r.Status, errorPrefix) }

// Question is one dataset item: a question and an optional reference answer.
type Question struct {
	Question string `json:"question"`
	Expected string `json:"expected_answer,omitempty"`
}

// ScoreResult is one metric's verdict on one query result.
type ScoreResult struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason,omitempty"`
}

// Row is one per-question record for the result writers: which system,
// which question, what came back, and how every metric scored it.
type Row struct {
	System    string        `json:"system"`
	Question  string        `json:"question"`
	Expected  string        `json:"expected_answer,omitempty"`
	Result    QueryResult   `json:"result"`
	Scores    []ScoreResult `json:"scores"`
	Timestamp time.Time     `json:"timestamp"`
}
