package research

import (
	"context"
	"fmt"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/llm"
	"go.uber.org/zap"
)

const DefaultBaseRateCount = 3

// BaseRateService estimates historical base rates from reference classes.
type BaseRateService struct {
	gen    domain.GenerationClient
	logger *zap.Logger
}

func NewBaseRateService(gen domain.GenerationClient, logger *zap.Logger) *BaseRateService {
	return &BaseRateService{gen: gen, logger: logger}
}

// ResearchBaseRates produces count reference-class estimates in one
// generation call.
func (s *BaseRateService) ResearchBaseRates(ctx context.Context, q domain.Question, count int) ([]domain.BaseRateEstimate, error) {
	if count <= 0 {
		count = DefaultBaseRateCount
	}
	prompt := fmt.Sprintf(llm.BaseRatePrompt, count, q.DetailsMarkdown())
	estimates, err := llm.Invoke[[]domain.BaseRateEstimate](ctx, s.gen, prompt)
	if err != nil {
		return nil, fmt.Errorf("base rate research: %w", err)
	}
	s.logger.Debug("base rates researched", zap.Int("estimates", len(estimates)))
	return estimates, nil
}
