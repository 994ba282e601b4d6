/*
PURPOSE:
  LLM-as-judge metric for semantic precision evaluation.
  Grades a RAG answer against the question and an optional reference answer.

REQUIREMENTS:
  User-specified:
  - Fixed 5-band rubric, temperature 0, strict JSON {score, reasoning} reply.
  - Markdown code fences are stripped before parsing.
  - Parse failure is a hard error; a missing credential degrades to a 0.0
    score with an explanatory reason.
  - Out-of-range scores are clamped with a logged warning.
  - Scores in [0.4, 0.6] are flagged for mandatory human review.

  Implementation-discovered:
  - Identical (question, expected, answer) triples are judged once; an LRU
    cache short-circuits repeats so reruns don't re-bill the judge model.

ARCHITECTURE INTEGRATION:
  - Implements: metrics.Metric
  - Dependencies: sashabaranov/go-openai, hashicorp/golang-lru/v2

ERROR HANDLING:
  - JudgeError distinguishes unparseable judge output from transport-level
    judge unavailability (which degrades gracefully).

IMPLEMENTATION RULES:
  - The judge is non-deterministic up to provider-level variance even at
    temperature 0; tests must stub the provider.

USAGE:
  j := metrics.NewPrecisionJudge(cfg.Judge)
  sr, err := j.Score(ctx, metrics.Input{Question: q, Expected: ref, Output: ans})

RELATED FILES:
  - internal/metrics/metrics.go

MAINTENANCE:
  - Keep the rubric prompt stable; scores are only comparable within one
    rubric version.
*/

package metrics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/arenalabs/rag-arena/internal/config"
	"github.com/arenalabs/rag-arena/internal/model"
	"github.com/arenalabs/rag-arena/internal/output"
)

const judgeCacheSize = 512

const judgeSystemPrompt = `You are a legal precision evaluator. Given a legal question,
an expected answer, and a RAG system response, score how precisely the response
answers the question.

Scoring criteria:
- 1.0: Perfectly accurate, complete, legally sound
- 0.8-0.9: Mostly accurate with minor omissions
- 0.5-0.7: Partially correct but missing key information
- 0.2-0.4: Relevant but contains inaccuracies
- 0.0-0.1: Incorrect or irrelevant

Consider:
1. Factual accuracy of legal information
2. Completeness of the answer
3. Quality of legal reasoning
4. Proper citation of relevant articles/laws

Respond with JSON only: {"score": <0-1>, "reasoning": "<explanation>"}`

// JudgeError reports judge output that could not be parsed as a valid
// {score, reasoning} object. Distinct from judge unavailability.
type JudgeError struct {
	Message  string
	Response string
}

func (e *JudgeError) Error() string {
	raw := e.Response
	if len(raw) > 100 {
		raw = raw[:100] + "..."
	}
	if raw != "" {
		return fmt.Sprintf("llm judge error: %s (raw: %s)", e.Message, raw)
	}
	return fmt.Sprintf("llm judge error: %s", e.Message)
}

// PrecisionJudge delegates answer grading to an external judge model.
type PrecisionJudge struct {
	name    string
	model   string
	apiKey  string
	baseURL string

	mu     sync.Mutex
	client *openai.Client
	cache  *lru.Cache[string, model.ScoreResult]
}

// JudgeOption customizes judge construction.
type JudgeOption func(*PrecisionJudge)

// WithJudgeBaseURL points the judge at a different chat-completion endpoint
// (used by tests and OpenAI-compatible providers).
func WithJudgeBaseURL(url string) JudgeOption {
	return func(j *PrecisionJudge) { j.baseURL = url }
}

// NewPrecisionJudge creates the judge metric from configuration.
func NewPrecisionJudge(cfg config.JudgeConfig, opts ...JudgeOption) *PrecisionJudge {
	judgeModel := cfg.Model
	if judgeModel == "" {
		judgeModel = "gpt-4o-mini"
	}
	j := &PrecisionJudge{
		name:   "llm_precision",
		model:  judgeModel,
		apiKey: cfg.APIKey,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.cache, _ = lru.New[string, model.ScoreResult](judgeCacheSize)
	return j
}

// Name implements Metric.
func (j *PrecisionJudge) Name() string { return j.name }

func (j *PrecisionJudge) openaiClient() *openai.Client {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.client == nil {
		cfg := openai.DefaultConfig(j.apiKey)
		if j.baseURL != "" {
			cfg.BaseURL = j.baseURL
		}
		j.client = openai.NewClientWithConfig(cfg)
	}
	return j.client
}

// Score implements Metric. A missing credential or an unreachable judge
// yields a zero score with a reason; unparseable judge output is a hard
// error for this scoring attempt.
func (j *PrecisionJudge) Score(ctx context.Context, in Input) (model.ScoreResult, error) {
	if j.apiKey == "" {
		return model.ScoreResult{
			Name:   j.name,
			Value:  0.0,
			Reason: "LLM judge not configured (missing OPENAI_API_KEY)",
		}, nil
	}

	key := judgeCacheKey(in)
	if cached, ok := j.cache.Get(key); ok {
		return cached, nil
	}

	resp, err := j.openaiClient().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(in)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		// Graded at temperature 0. A literal 0 is dropped by the client's
		// omitempty tag, so the smallest positive float stands in for it.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		output.Logger.Error("llm judge call failed", "error", err)
		return model.ScoreResult{
			Name:   j.name,
			Value:  0.0,
			Reason: fmt.Sprintf("Evaluation failed: %v", err),
		}, nil
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	score, reasoning, err := parseJudgeResponse(content)
	if err != nil {
		return model.ScoreResult{}, err
	}

	sr := model.ScoreResult{
		Name:   j.name,
		Value:  score,
		Reason: flagAmbiguous(score, reasoning),
	}
	j.cache.Add(key, sr)
	return sr, nil
}

func buildUserPrompt(in Input) string {
	expected := in.Expected
	if expected == "" {
		expected = "Not provided"
	}
	return fmt.Sprintf("Question: %s\n\nExpected Answer: %s\n\nRAG Response: %s",
		in.Question, expected, in.Output)
}

// parseJudgeResponse extracts (score, reasoning) from the judge reply,
// stripping markdown code fences first. Scores outside [0, 1] are clamped
// with a logged warning.
func parseJudgeResponse(content string) (float64, string, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var data struct {
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return 0, "", &JudgeError{Message: fmt.Sprintf("failed to parse JSON: %v", err), Response: content}
	}

	score := data.Score
	if score < 0 || score > 1 {
		output.Logger.Warn("judge score out of range, clamping to [0, 1]", "score", score)
		score = min(max(score, 0), 1)
	}

	reasoning := data.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	return score, reasoning, nil
}

// flagAmbiguous marks scores near the decision boundary for human review.
func flagAmbiguous(score float64, reasoning string) string {
	if score >= 0.4 && score <= 0.6 {
		return "[REVIEW RECOMMENDED] " + reasoning
	}
	return reasoning
}

func judgeCacheKey(in Input) string {
	h := sha256.New()
	h.Write([]byte(in.Question))
	h.Write([]byte{0})
	h.Write([]byte(in.Expected))
	h.Write([]byte{0})
	h.Write([]byte(in.Output))
	return hex.EncodeToString(h.Sum(nil))
}
