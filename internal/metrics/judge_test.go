package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/arenalabs/rag-arena/internal/config"
)

func TestParseJudgeResponse(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantScore float64
		wantErr   bool
	}{
		{"plain json", `{"score": 0.9, "reasoning": "accurate"}`, 0.9, false},
		{"json fence", "```json\n{\"score\": 0.8, \"reasoning\": \"ok\"}\n```", 0.8, false},
		{"bare fence", "```\n{\"score\": 0.7, \"reasoning\": \"ok\"}\n```", 0.7, false},
		{"clamp high", `{"score": 1.5, "reasoning": "over"}`, 1.0, false},
		{"clamp low", `{"score": -0.3, "reasoning": "under"}`, 0.0, false},
		{"not json", "the answer looks good to me", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _, err := parseJudgeResponse(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error, got nil")
				}
				var je *JudgeError
				if !errors.As(err, &je) {
					t.Fatalf("expected *JudgeError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestParseJudgeResponseDefaultReasoning(t *testing.T) {
	_, reasoning, err := parseJudgeResponse(`{"score": 0.9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reasoning != "No reasoning provided" {
		t.Errorf("reasoning = %q", reasoning)
	}
}

func TestFlagAmbiguous(t *testing.T) {
	tests := []struct {
		score   float64
		flagged bool
	}{
		{0.39, false},
		{0.4, true},
		{0.5, true},
		{0.6, true},
		{0.61, false},
		{0.9, false},
	}

	for _, tt := range tests {
		got := flagAmbiguous(tt.score, "reason")
		flagged := strings.HasPrefix(got, "[REVIEW RECOMMENDED] ")
		if flagged != tt.flagged {
			t.Errorf("flagAmbiguous(%v): flagged = %v, want %v", tt.score, flagged, tt.flagged)
		}
	}
}

func TestJudgeMissingKeyDegrades(t *testing.T) {
	j := NewPrecisionJudge(config.JudgeConfig{Enable: true})
	sr, err := j.Score(context.Background(), Input{Question: "q", Output: "a"})
	if err != nil {
		t.Fatalf("missing key must not be an error: %v", err)
	}
	if sr.Value != 0.0 {
		t.Errorf("score = %v, want 0.0", sr.Value)
	}
	if !strings.Contains(sr.Reason, "OPENAI_API_KEY") {
		t.Errorf("reason should name the missing variable, got %q", sr.Reason)
	}
}

func TestJudgeTruncatesRawInError(t *testing.T) {
	long := strings.Repeat("x", 200)
	err := &JudgeError{Message: "failed to parse JSON", Response: long}
	msg := err.Error()
	if strings.Contains(msg, long) {
		t.Error("raw response should be truncated in the error message")
	}
	if !strings.Contains(msg, "...") {
		t.Errorf("truncated message should carry an ellipsis, got %q", msg)
	}
}

func judgeTestServer(t *testing.T, calls *int32, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestJudgeScoreAgainstStubProvider(t *testing.T) {
	var calls int32
	srv := judgeTestServer(t, &calls, `{"score": 0.85, "reasoning": "mostly accurate"}`)
	defer srv.Close()

	j := NewPrecisionJudge(
		config.JudgeConfig{Enable: true, APIKey: "sk-test", Model: "gpt-4o-mini"},
		WithJudgeBaseURL(srv.URL+"/v1"),
	)

	in := Input{Question: "What does article 12 say?", Expected: "It defines X.", Output: "Article 12 defines X."}
	sr, err := j.Score(context.Background(), in)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if sr.Value != 0.85 {
		t.Errorf("score = %v, want 0.85", sr.Value)
	}
	if sr.Reason != "mostly accurate" {
		t.Errorf("reason = %q", sr.Reason)
	}

	// Identical input is served from the cache, not the provider.
	if _, err := j.Score(context.Background(), in); err != nil {
		t.Fatalf("cached Score returned error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("provider called %d times, want 1 (second hit cached)", n)
	}
}

func TestJudgeRequestPinsTemperature(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding judge request failed: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"score": 0.9, "reasoning": "ok"}`}},
			},
		})
	}))
	defer srv.Close()

	j := NewPrecisionJudge(
		config.JudgeConfig{Enable: true, APIKey: "sk-test"},
		WithJudgeBaseURL(srv.URL+"/v1"),
	)
	if _, err := j.Score(context.Background(), Input{Question: "q", Output: "a"}); err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	// The client library drops a literal 0 via omitempty, so the field must
	// be present and effectively zero; absent means the provider default.
	raw, ok := body["temperature"]
	if !ok {
		t.Fatalf("temperature field absent from judge request; body keys: %v", body)
	}
	temp, ok := raw.(float64)
	if !ok {
		t.Fatalf("temperature = %T(%v), want number", raw, raw)
	}
	if temp < 0 || temp > 1e-6 {
		t.Errorf("temperature = %v, want effectively 0", temp)
	}
}

func TestJudgeAmbiguousScoreFlagged(t *testing.T) {
	var calls int32
	srv := judgeTestServer(t, &calls, `{"score": 0.5, "reasoning": "partially correct"}`)
	defer srv.Close()

	j := NewPrecisionJudge(
		config.JudgeConfig{Enable: true, APIKey: "sk-test"},
		WithJudgeBaseURL(srv.URL+"/v1"),
	)
	sr, err := j.Score(context.Background(), Input{Question: "q", Output: "a"})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !strings.HasPrefix(sr.Reason, "[REVIEW RECOMMENDED] ") {
		t.Errorf("mid-band score must be flagged for review, got %q", sr.Reason)
	}
}

func TestJudgeUnparseableReplyIsHardError(t *testing.T) {
	var calls int32
	srv := judgeTestServer(t, &calls, "I would rate this answer quite highly.")
	defer srv.Close()

	j := NewPrecisionJudge(
		config.JudgeConfig{Enable: true, APIKey: "sk-test"},
		WithJudgeBaseURL(srv.URL+"/v1"),
	)
	_, err := j.Score(context.Background(), Input{Question: "q", Output: "a"})
	var je *JudgeError
	if !errors.As(err, &je) {
		t.Fatalf("expected *JudgeError, got %v", err)
	}
}

func TestJudgeProviderFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	j := NewPrecisionJudge(
		config.JudgeConfig{Enable: true, APIKey: "sk-test"},
		WithJudgeBaseURL(srv.URL+"/v1"),
	)
	sr, err := j.Score(context.Background(), Input{Question: "q", Output: "a"})
	if err != nil {
		t.Fatalf("provider failure must degrade, not error: %v", err)
	}
	if sr.Value != 0.0 {
		t.Errorf("score = %v, want 0.0", sr.Value)
	}
	if !strings.HasPrefix(sr.Reason, "Evaluation failed:") {
		t.Errorf("reason = %q, want Evaluation failed prefix", sr.Reason)
	}
}
