package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CompleteJSON runs a schema-constrained completion and decodes it into out.
// Unknown fields are rejected so a drifting model fails loudly.
func CompleteJSON(ctx context.Context, p Provider, req CompletionRequest, out any) (*CompletionResponse, error) {
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	raw := StripCodeFence(resp.Content)
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return resp, fmt.Errorf("decode %s output: %w", p.Name(), err)
	}
	return resp, nil
}

// StripCodeFence removes a surrounding ```json fence some models add
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
