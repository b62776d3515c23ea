package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON extracts the JSON object from model output and unmarshals it.
func DecodeJSON(content string, result any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(content)), result); err != nil {
		return fmt.Errorf("llm: unmarshal structured response: %w", err)
	}
	return nil
}

// ExtractJSON pulls a JSON object from LLM output that may contain markdown fences.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s[3:], "\n"); idx >= 0 {
			s = s[3+idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// Messages builds the message list for a prompt, appending it as a user
// turn after history.
func Messages(history []Message, prompt string) []Message {
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	if prompt != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: prompt})
	}
	return msgs
}
