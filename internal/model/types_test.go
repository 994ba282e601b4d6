package model

import (
	"strings"
	"testing"
)

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		result  QueryResult
		success bool
		timeout bool
		isErr   bool
	}{
		{"success", Success("answer", 120, nil), true, false, false},
		{"timeout", Timeout(30000), false, true, false},
		{"error", Error("connection refused", 12.4), false, false, true},
		{"error with colon in message", Error("dust api error (500): boom", 80), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.success)
			}
			if got := tt.result.IsTimeout(); got != tt.timeout {
				t.Errorf("IsTimeout() = %v, want %v", got, tt.timeout)
			}
			if got := tt.result.IsError(); got != tt.isErr {
				t.Errorf("IsError() = %v, want %v", got, tt.isErr)
			}

			// Exactly one classification holds for any constructed result.
			count := 0
			for _, b := range []bool{tt.result.IsSuccess(), tt.result.IsTimeout(), tt.result.IsError()} {
				if b {
					count++
				}
			}
			if count != 1 {
				t.Errorf("expected exactly one classification, got %d for status %q", count, tt.result.Status)
			}
		})
	}
}

func TestErrorPreservesMessage(t *testing.T) {
	res := Error("no conversation ID in response", 42)
	if res.Status != "error: no conversation ID in response" {
		t.Errorf("unexpected status %q", res.Status)
	}
	if !strings.HasPrefix(res.Status, "error:") {
		t.Errorf("error status must carry the error: prefix, got %q", res.Status)
	}
	if res.LatencyMs != 42 {
		t.Errorf("LatencyMs = %v, want 42", res.LatencyMs)
	}
}

func TestSuccessCarriesAnswerAndRaw(t *testing.T) {
	raw := []byte(`{"answer":"yes"}`)
	res := Success("yes", 100, raw)
	if res.Answer != "yes" || res.Status != StatusSuccess {
		t.Errorf("unexpected result %+v", res)
	}
	if string(res.Raw) != string(raw) {
		t.Errorf("raw payload not preserved")
	}
}
