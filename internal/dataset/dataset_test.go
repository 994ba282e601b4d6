package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arenalabs/rag-arena/internal/model"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSONArray(t *testing.T) {
	path := writeTemp(t, "qs.json", `[
		{"question": "What is article 12?", "expected_answer": "It defines X."},
		{"question": "What is article 13?", "answer": "It defines Y."}
	]`)

	qs, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	if qs[0].Expected != "It defines X." {
		t.Errorf("expected_answer not parsed: %+v", qs[0])
	}
	// "answer" is accepted as an alias for expected_answer.
	if qs[1].Expected != "It defines Y." {
		t.Errorf("answer alias not parsed: %+v", qs[1])
	}
}

func TestLoadJSONLines(t *testing.T) {
	path := writeTemp(t, "qs.jsonl",
		`{"question": "q1", "expected_answer": "a1"}

{"question": "q2"}
`)

	qs, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2 (blank lines skipped)", len(qs))
	}
	if qs[1].Expected != "" {
		t.Errorf("missing reference should stay empty, got %q", qs[1].Expected)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file must fail")
	}

	bad := writeTemp(t, "bad.jsonl", `{"question": "q1"}`+"\n"+`not json`)
	if _, err := Load(bad); err == nil {
		t.Error("malformed line must fail")
	}

	empty := writeTemp(t, "empty.json", `[]`)
	if _, err := Load(empty); err == nil {
		t.Error("empty dataset must fail")
	}
}

func TestSample(t *testing.T) {
	qs := []model.Question{{Question: "a"}, {Question: "b"}, {Question: "c"}}

	if got := Sample(qs, 2); len(got) != 2 || got[0].Question != "a" {
		t.Errorf("Sample(2) = %v", got)
	}
	if got := Sample(qs, 0); len(got) != 3 {
		t.Errorf("Sample(0) should keep all, got %d", len(got))
	}
	if got := Sample(qs, 10); len(got) != 3 {
		t.Errorf("Sample(10) should keep all, got %d", len(got))
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/questions.json", "questions"},
		{"eval.jsonl", "eval"},
		{"/abs/path/civic-law.json", "civic-law"},
	}
	for _, tt := range tests {
		if got := Name(tt.path); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
