/*
PURPOSE:
  Defines the RAGClient contract every backend adapter implements.
  The contract normalizes heterogeneous RAG backends into one result shape.

REQUIREMENTS:
  User-specified:
  - query / health_check / system_name capability set.
  - Query must never return an error: ordinary failures (timeout, backend
    error, malformed response) become non-success QueryResults.
  - Health checks are hard-capped at 5 seconds and non-throwing.

  Implementation-discovered:
  - Routing hints (retrieval mode, book scope) only apply to some backends,
    so they travel as functional options the others ignore.
  - Adapters own their HTTP client: lazily created, released via Close().

ARCHITECTURE INTEGRATION:
  - Implemented by: dust.go, graphrag.go (and test doubles)
  - Called by: internal/engine/runner.go, internal/cli

ERROR HANDLING:
  - Timeout supersedes error when both could apply.
  - Latency is wall-clock from call entry to outcome, polling included.

IMPLEMENTATION RULES:
  - context.Context on every network operation.
  - No shared state between adapters; each owns its connection resource.

USAGE:
  var c engine.RAGClient = engine.NewGraphRAGClient(cfg.GraphRAG, cfg.Timeout)
  res := c.Query(ctx, "What does article 12 say?")

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - New backends implement this interface; the runner needs no changes.
*/

package engine

import (
	"context"
	"time"

	"github.com/arenalabs/rag-arena/internal/model"
)

// healthCheckTimeout is the hard cap on liveness probes.
const healthCheckTimeout = 5 * time.Second

// QueryOptions carries optional routing hints. Adapters that have no use
// for a hint ignore it.
type QueryOptions struct {
	Mode   string // retrieval mode, e.g. "local" or "global"
	BookID string // scope identifier
}

// QueryOption customizes a single query.
type QueryOption func(*QueryOptions)

// WithMode overrides the retrieval mode for one query.
func WithMode(mode string) QueryOption {
	return func(o *QueryOptions) { o.Mode = mode }
}

// WithBook scopes one query to a specific book.
func WithBook(bookID string) QueryOption {
	return func(o *QueryOptions) { o.BookID = bookID }
}

func applyOptions(opts []QueryOption) QueryOptions {
	var o QueryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RAGClient is the capability contract for a RAG backend adapter.
type RAGClient interface {
	// SystemName is the stable identifier used for logging and metric keys.
	SystemName() string

	// Query sends a question to the backend and classifies the outcome into
	// exactly one of success, timeout, or error. It does not return an
	// error: failures are data.
	Query(ctx context.Context, question string, opts ...QueryOption) model.QueryResult

	// HealthCheck reports whether the backend is responsive. It never takes
	// longer than healthCheckTimeout and never fails loudly.
	HealthCheck(ctx context.Context) bool

	// Close releases the adapter's connection resources.
	Close() error
}

// elapsedMs returns wall-clock milliseconds since start.
func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
