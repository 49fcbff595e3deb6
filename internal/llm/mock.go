package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type stub struct {
	match string
	text  string
	err   error
}

// MockClient is a configurable generation client for testing. Responses are
// routed by prompt substring so concurrent fan-outs stay deterministic
// regardless of completion order.
type MockClient struct {
	mu    sync.Mutex
	stubs []stub

	// DefaultResponse is returned when no stub matches. If empty, an
	// unmatched prompt is an error.
	DefaultResponse string

	// Calls records every prompt received, in arrival order.
	Calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// On registers a response for prompts containing match. Stubs are checked
// in registration order; the first match wins.
func (c *MockClient) On(match, response string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs = append(c.stubs, stub{match: match, text: response})
	return c
}

// OnErr registers an error for prompts containing match.
func (c *MockClient) OnErr(match string, err error) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs = append(c.stubs, stub{match: match, err: err})
	return c
}

func (c *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, prompt)

	for _, s := range c.stubs {
		if strings.Contains(prompt, s.match) {
			if s.err != nil {
				return "", s.err
			}
			return s.text, nil
		}
	}
	if c.DefaultResponse != "" {
		return c.DefaultResponse, nil
	}
	return "", fmt.Errorf("mock: no stubbed response for prompt: %.80s", prompt)
}

// CallCount returns the number of prompts received so far.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Reset clears all stubs and recorded calls.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs = nil
	c.Calls = nil
	c.DefaultResponse = ""
}
