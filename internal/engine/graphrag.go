/*
PURPOSE:
  Adapter for the GraphRAG reconciliation API (graph-retrieval backend).
  Single-shot POST per query, plus a read-only book listing.

REQUIREMENTS:
  User-specified:
  - POST {query, mode, book_id?} to /query.
  - Non-200 responses become error results carrying status code and body.
  - A 200 body with success=false becomes an error result with its message.
  - Answer from the `answer` field, falling back to `response`.
  - Book listing failures degrade to an empty list, never an error.

  Implementation-discovered:
  - The success flag is absent on some deployments; absent means success.

ARCHITECTURE INTEGRATION:
  - Implements: engine.RAGClient
  - Uses: internal/config, internal/model

ERROR HANDLING:
  - Timeout supersedes error when both conditions could apply.

IMPLEMENTATION RULES:
  - The HTTP client is created lazily on first use and reused.

USAGE:
  c := engine.NewGraphRAGClient(cfg.GraphRAG, cfg.Timeout)
  res := c.Query(ctx, question, engine.WithMode("global"))

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/dust.go

MAINTENANCE:
  - Update endpoints if the reconciliation API changes.
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arenalabs/rag-arena/internal/config"
	"github.com/arenalabs/rag-arena/internal/model"
)

// Book is one retrievable scope exposed by the GraphRAG backend.
type Book struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HasData bool   `json:"has_data"`
}

// GraphRAGClient talks to the GraphRAG reconciliation API.
type GraphRAGClient struct {
	apiURL        string
	timeout       time.Duration
	defaultMode   string
	defaultBookID string

	mu         sync.Mutex
	httpClient *http.Client
}

// NewGraphRAGClient creates a GraphRAG adapter from configuration.
func NewGraphRAGClient(cfg config.GraphRAGConfig, timeout time.Duration) *GraphRAGClient {
	mode := cfg.Mode
	if mode == "" {
		mode = "local"
	}
	return &GraphRAGClient{
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		timeout:       timeout,
		defaultMode:   mode,
		defaultBookID: cfg.BookID,
	}
}

// SystemName implements RAGClient.
func (c *GraphRAGClient) SystemName() string { return "graphrag" }

func (c *GraphRAGClient) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c.httpClient
}

// Close releases idle connections.
func (c *GraphRAGClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// Query implements RAGClient.
func (c *GraphRAGClient) Query(ctx context.Context, question string, opts ...QueryOption) model.QueryResult {
	start := time.Now()
	o := applyOptions(opts)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mode := o.Mode
	if mode == "" {
		mode = c.defaultMode
	}
	payload := map[string]any{
		"query": question,
		"mode":  mode,
	}
	if bookID := c.bookID(o); bookID != "" {
		payload["book_id"] = bookID
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/query", bytes.NewReader(body))
	if err != nil {
		return model.Error(err.Error(), elapsedMs(start))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Timeout(elapsedMs(start))
		}
		return model.Error(err.Error(), elapsedMs(start))
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Timeout(elapsedMs(start))
		}
		return model.Error(err.Error(), elapsedMs(start))
	}

	if resp.StatusCode != http.StatusOK {
		return model.Error(fmt.Sprintf("graphrag api error (%d): %s", resp.StatusCode, string(raw)), elapsedMs(start))
	}

	var data struct {
		// Absent success flag means success on older deployments.
		Success  *bool  `json:"success"`
		Answer   string `json:"answer"`
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return model.Error(fmt.Sprintf("invalid query response: %v", err), elapsedMs(start))
	}

	if data.Success != nil && !*data.Success {
		message := data.Error
		if message == "" {
			message = "unknown error"
		}
		return model.Error(message, elapsedMs(start))
	}

	answer := data.Answer
	if answer == "" {
		answer = data.Response
	}

	return model.Success(answer, elapsedMs(start), raw)
}

func (c *GraphRAGClient) bookID(o QueryOptions) string {
	if o.BookID != "" {
		return o.BookID
	}
	return c.defaultBookID
}

// ListBooks enumerates the available book scopes. Listing is non-critical:
// any failure degrades to an empty list.
func (c *GraphRAGClient) ListBooks(ctx context.Context) []Book {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/books", nil)
	if err != nil {
		return nil
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var payload struct {
		Books []Book `json:"books"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}
	return payload.Books
}

// HealthCheck implements RAGClient.
func (c *GraphRAGClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
