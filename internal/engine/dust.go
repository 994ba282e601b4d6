/*
PURPOSE:
  Adapter for the Dust Conversations API (conversational RAG backend).
  Creates a conversation, then polls it until the agent message settles.

REQUIREMENTS:
  User-specified:
  - POST a new conversation with the question and agent reference.
  - Missing conversation id is an immediate error result.
  - Poll every poll_interval until the agent message is `succeeded` or
    `failed`, or the cumulative timeout budget is spent.
  - Non-200 poll responses are silently retried, not counted as failure.

  Implementation-discovered:
  - Conversation content arrives as a list whose items are themselves
    lists of messages; items of other shapes are skipped.
  - An SSE token-stream parser exists as the alternative single-pass path.

ARCHITECTURE INTEGRATION:
  - Implements: engine.RAGClient
  - Uses: internal/config, internal/model, internal/output

ERROR HANDLING:
  - Timeout supersedes error when both conditions could apply.
  - Every failure is returned as a non-success QueryResult.

IMPLEMENTATION RULES:
  - Latency is wall-clock from Query entry, polling included.
  - The HTTP client is created lazily on first use and reused.

USAGE:
  c := engine.NewDustClient(cfg.Dust, cfg.Timeout, cfg.PollInterval)
  res := c.Query(ctx, question)

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/graphrag.go

MAINTENANCE:
  - Update endpoints if the Dust assistant API changes.
*/

package engine

import (
	"bufio"
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
	"github.com/arenalabs/rag-arena/internal/output"
)

// errPollBudget marks exhaustion of the polling time budget.
var errPollBudget = errors.New("poll budget exhausted")

// DustClient talks to the Dust Conversations API.
type DustClient struct {
	baseURL      string
	apiKey       string
	workspaceID  string
	agentID      string
	timeout      time.Duration
	pollInterval time.Duration

	mu         sync.Mutex
	httpClient *http.Client
}

// NewDustClient creates a Dust adapter from configuration.
func NewDustClient(cfg config.DustConfig, timeout, pollInterval time.Duration) *DustClient {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &DustClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		workspaceID:  cfg.WorkspaceID,
		agentID:      cfg.AgentID,
		timeout:      timeout,
		pollInterval: pollInterval,
	}
}

// SystemName implements RAGClient.
func (c *DustClient) SystemName() string { return "dust" }

// client lazily creates the shared HTTP client.
func (c *DustClient) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c.httpClient
}

// Close releases idle connections.
func (c *DustClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// Query implements RAGClient. Routing hints are not meaningful for Dust and
// are ignored.
func (c *DustClient) Query(ctx context.Context, question string, _ ...QueryOption) model.QueryResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]any{
		"message": map[string]any{
			"content":  question,
			"mentions": []map[string]string{{"configurationId": c.agentID}},
			"context": map[string]any{
				"timezone":          "Europe/Paris",
				"username":          "api-user",
				"profilePictureUrl": nil,
			},
		},
		"visibility": "unlisted",
		"title":      nil,
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/w/%s/assistant/conversations", c.baseURL, c.workspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.Error(err.Error(), elapsedMs(start))
	}
	c.setHeaders(req)

	resp, err := c.client().Do(req)
	if err != nil {
		return c.classify(err, start)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return c.classify(err, start)
	}

	if resp.StatusCode != http.StatusOK {
		return model.Error(fmt.Sprintf("dust api error (%d): %s", resp.StatusCode, string(raw)), elapsedMs(start))
	}

	var created struct {
		Conversation struct {
			SID string `json:"sId"`
		} `json:"conversation"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return model.Error(fmt.Sprintf("invalid conversation response: %v", err), elapsedMs(start))
	}
	if created.Conversation.SID == "" {
		return model.Error("no conversation ID in response", elapsedMs(start))
	}

	answer, err := c.pollConversation(ctx, created.Conversation.SID, start)
	if err != nil {
		return c.classify(err, start)
	}

	return model.Success(answer, elapsedMs(start), raw)
}

// classify maps an error to a timeout or error result. Timeout wins if both
// could apply.
func (c *DustClient) classify(err error, start time.Time) model.QueryResult {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errPollBudget) {
		return model.Timeout(elapsedMs(start))
	}
	return model.Error(err.Error(), elapsedMs(start))
}

func (c *DustClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// dustMessage is one entry inside a conversation content item.
type dustMessage struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Content string `json:"content"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// pollConversation polls the conversation resource until the agent message
// reaches a terminal state or the time budget runs out.
func (c *DustClient) pollConversation(ctx context.Context, conversationID string, start time.Time) (string, error) {
	url := fmt.Sprintf("%s/w/%s/assistant/conversations/%s", c.baseURL, c.workspaceID, conversationID)

	for {
		if time.Since(start) >= c.timeout {
			return "", errPollBudget
		}

		answer, done, err := c.checkConversation(ctx, url)
		if err != nil {
			return "", err
		}
		if done {
			return answer, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// checkConversation performs one poll attempt. Transport errors with a live
// context, non-200 responses and undecodable payloads are all transient:
// they report not-done so the loop retries until the budget is spent.
func (c *DustClient) checkConversation(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	c.setHeaders(req)

	resp, err := c.client().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", false, nil
	}

	var payload struct {
		Conversation struct {
			Content []json.RawMessage `json:"content"`
		} `json:"conversation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, nil
	}

	for _, item := range payload.Conversation.Content {
		var msgs []dustMessage
		if err := json.Unmarshal(item, &msgs); err != nil {
			// Items that are not message lists are skipped.
			continue
		}
		for _, msg := range msgs {
			if msg.Type != "agent_message" {
				continue
			}
			switch msg.Status {
			case "succeeded":
				return msg.Content, true, nil
			case "failed":
				message := msg.Error.Message
				if message == "" {
					message = "agent failed"
				}
				return "", false, fmt.Errorf("dust api error (500): %s", message)
			}
		}
	}

	return "", false, nil
}

// ParseEventStream is the alternative single-pass path: it aggregates a Dust
// SSE token stream into one answer. It stops early on an
// agent_message_success event, fails on an explicit error event, and skips
// malformed event lines.
func (c *DustClient) ParseEventStream(r io.Reader) (string, error) {
	var tokens []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := line[len("data: "):]
		if data == "[DONE]" {
			break
		}

		var event struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			Content string `json:"content"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			output.Logger.Debug("skipping malformed SSE line", "line", line)
			continue
		}

		switch event.Type {
		case "generation_tokens":
			tokens = append(tokens, event.Text)
		case "agent_message_success":
			if event.Content != "" {
				return event.Content, nil
			}
		case "error":
			message := event.Message
			if message == "" {
				message = "unknown error"
			}
			return "", fmt.Errorf("dust api error (500): %s", message)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.Join(tokens, ""), nil
}

// HealthCheck implements RAGClient: a workspace data-sources listing probe.
func (c *DustClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/w/%s/data_sources", c.baseURL, c.workspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)

	resp, err := c.client().Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
