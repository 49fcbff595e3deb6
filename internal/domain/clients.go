package domain

import "context"

// GenerationClient is a text-generation backend. A failed call produced
// nothing usable; callers never see partial output.
type GenerationClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SearchClient is an evidence-search backend. The returned block is opaque
// text appended to follow-up generation prompts.
type SearchClient interface {
	Search(ctx context.Context, query string) (string, error)
}
