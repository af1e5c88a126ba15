package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CompleteJSON issues a completion whose system prompt demands a JSON
// object matching the caller's schema description, then unmarshals the
// result into out. Used by the duration estimator (spec.md §4.7), which
// needs a structured {duration_category, estimated_minutes, due_date,
// reasoning} response rather than free text.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	raw, err := c.Complete(ctx, systemPrompt+"\nRespond with a single JSON object and nothing else.", userPrompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), out); err != nil {
		return fmt.Errorf("llmclient: parse JSON completion: %w", err)
	}
	return nil
}

// stripCodeFence removes a leading/trailing ```json ... ``` fence some
// models wrap JSON responses in despite the system prompt's instruction.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
