package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cassandra-labs/foresight/internal/domain"
)

// StripFences removes markdown code fences models wrap around JSON output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Invoke performs one generation call and parses the output into T. Any
// failure, transport or parse, means the call produced nothing usable;
// callers never see partial output.
func Invoke[T any](ctx context.Context, client domain.GenerationClient, prompt string) (T, error) {
	var zero T
	raw, err := client.Complete(ctx, prompt)
	if err != nil {
		return zero, err
	}

	raw = StripFences(raw)

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, fmt.Errorf("parse generation result: %w (raw: %s)", err, raw)
	}
	return out, nil
}
