/*
PURPOSE:
  Loads question sets from local files.
  Accepts a JSON array or JSONL of {question, expected_answer} objects.

REQUIREMENTS:
  User-specified:
  - Dataset is a list of question/expected-answer pairs.
  - Optional sample-size truncation from the CLI.

  Implementation-discovered:
  - Some exports use "answer" instead of "expected_answer"; accept both.
  - An empty dataset is a startup error, caught before any queries run.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Produces: internal/model.Question

ERROR HANDLING:
  - Explicit errors for unreadable files, bad JSON, and empty sets.

USAGE:
  questions, err := dataset.Load("questions.json")
  questions = dataset.Sample(questions, 25)

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Extend parseItem if dataset exports grow new field names.
*/

package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arenalabs/rag-arena/internal/model"
)

type item struct {
	Question string `json:"question"`
	Expected string `json:"expected_answer"`
	Answer   string `json:"answer"`
}

func (it item) toQuestion() model.Question {
	expected := it.Expected
	if expected == "" {
		expected = it.Answer
	}
	return model.Question{Question: it.Question, Expected: expected}
}

// Load reads a question set from path. A leading '[' selects JSON-array
// parsing; anything else is treated as JSON Lines.
func Load(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	var questions []model.Question

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
		}
		for _, it := range items {
			questions = append(questions, it.toQuestion())
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var it item
			if err := json.Unmarshal([]byte(line), &it); err != nil {
				return nil, fmt.Errorf("failed to parse dataset %s line %d: %w", path, lineNo, err)
			}
			questions = append(questions, it.toQuestion())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
		}
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("dataset %s contains no questions", path)
	}
	return questions, nil
}

// Sample truncates the question set to at most n items. Non-positive n
// means the full set.
func Sample(questions []model.Question, n int) []model.Question {
	if n <= 0 || n >= len(questions) {
		return questions
	}
	return questions[:n]
}

// Name derives the dataset name from its file path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
