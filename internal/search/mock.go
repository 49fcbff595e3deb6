package search

import (
	"context"
	"strings"
	"sync"
)

type stub struct {
	match string
	text  string
	err   error
}

// MockSearcher is a configurable search client for testing. Responses are
// routed by query substring.
type MockSearcher struct {
	mu    sync.Mutex
	stubs []stub

	// DefaultResponse is returned when no stub matches.
	DefaultResponse string

	// Calls records every query received, in arrival order.
	Calls []string
}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{DefaultResponse: "No relevant coverage found."}
}

// On registers a response for queries containing match.
func (m *MockSearcher) On(match, response string) *MockSearcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{match: match, text: response})
	return m
}

// OnErr registers an error for queries containing match.
func (m *MockSearcher) OnErr(match string, err error) *MockSearcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{match: match, err: err})
	return m
}

func (m *MockSearcher) Search(ctx context.Context, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, query)

	for _, s := range m.stubs {
		if strings.Contains(query, s.match) {
			if s.err != nil {
				return "", s.err
			}
			return s.text, nil
		}
	}
	return m.DefaultResponse, nil
}

// CallCount returns the number of queries received so far.
func (m *MockSearcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
