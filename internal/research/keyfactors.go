package research

import (
	"context"
	"fmt"
	"sort"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/llm"
	"go.uber.org/zap"
)

const (
	DefaultKeyFactorCount  = 5
	DefaultKeyFactorSample = 10
)

// KeyFactorService extracts and ranks the key factors bearing on a question.
type KeyFactorService struct {
	gen    domain.GenerationClient
	logger *zap.Logger
}

func NewKeyFactorService(gen domain.GenerationClient, logger *zap.Logger) *KeyFactorService {
	return &KeyFactorService{gen: gen, logger: logger}
}

// FindAndSortKeyFactors asks for up to sampleSize candidate factors and
// returns the top count by score, descending.
func (s *KeyFactorService) FindAndSortKeyFactors(ctx context.Context, q domain.Question, count, sampleSize int) ([]domain.ScoredKeyFactor, error) {
	if count <= 0 {
		count = DefaultKeyFactorCount
	}
	if sampleSize < count {
		sampleSize = DefaultKeyFactorSample
	}

	prompt := fmt.Sprintf(llm.KeyFactorsPrompt, sampleSize, q.DetailsMarkdown())
	factors, err := llm.Invoke[[]domain.ScoredKeyFactor](ctx, s.gen, prompt)
	if err != nil {
		return nil, fmt.Errorf("key factor research: %w", err)
	}

	sort.SliceStable(factors, func(i, j int) bool { return factors[i].Score > factors[j].Score })
	if len(factors) > count {
		factors = factors[:count]
	}
	s.logger.Debug("key factors researched", zap.Int("factors", len(factors)))
	return factors, nil
}
