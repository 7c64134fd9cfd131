package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/maxinebot/maxine/pkg/maxine/summarize"
)

// ErrNoJSON is returned when a response contains no JSON object.
var ErrNoJSON = errors.New("llm: response contains no JSON object")

// DecodeJSON extracts the first top-level JSON object from a model response
// and unmarshals it into v. Reasoning blocks, code fences and surrounding
// prose are ignored.
func DecodeJSON(response string, v any) error {
	text := summarize.StripReasoning(response)
	start := strings.Index(text, "{")
	if start < 0 {
		return ErrNoJSON
	}

	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(v); err != nil {
		// Retry on the widest {...} span in case the first brace was prose.
		end := strings.LastIndex(text, "}")
		if end <= start {
			return fmt.Errorf("llm: decode JSON: %w", err)
		}
		if err2 := json.Unmarshal([]byte(text[start:end+1]), v); err2 != nil {
			return fmt.Errorf("llm: decode JSON: %w", err)
		}
	}
	return nil
}
