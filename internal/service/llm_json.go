package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeLLMJSON unmarshals a JSON payload out of raw LLM text. Models often
// wrap the payload in markdown code fences or surround it with prose, so the
// fences are stripped and the outermost JSON value is located first.
func decodeLLMJSON(raw string, out any) error {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return fmt.Errorf("no JSON value in response")
	}
	var end int
	if text[start] == '[' {
		end = strings.LastIndex(text, "]")
	} else {
		end = strings.LastIndex(text, "}")
	}
	if end <= start {
		return fmt.Errorf("unterminated JSON value in response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to decode LLM JSON: %w", err)
	}
	return nil
}
