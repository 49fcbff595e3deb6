package search

import (
	"fmt"

	"github.com/cassandra-labs/foresight/internal/domain"
)

// Provider constants
const (
	ProviderAskNews = "asknews"
	ProviderMock    = "mock"
)

// NewClient creates an evidence-search client based on the provider name.
func NewClient(provider, apiKey string) (domain.SearchClient, error) {
	switch provider {
	case ProviderAskNews:
		if apiKey == "" {
			return nil, fmt.Errorf("ASKNEWS_API_KEY is required for AskNews provider")
		}
		return NewAskNewsClient(apiKey), nil

	case ProviderMock:
		return NewMockSearcher(), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s (valid options: asknews, mock)", provider)
	}
}
