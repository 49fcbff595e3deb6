package research

import (
	"context"
	"fmt"

	"github.com/cassandra-labs/foresight/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const DefaultMaxConcurrentResearch = 2

// Section titles for the assembled report, in output order.
const (
	driversSectionTitle    = "## STEEP Driver Analysis\n"
	keyFactorsSectionTitle = "## Key Factors\n"
	baseRatesSectionTitle  = "## Base Rate Analysis\n"
)

// ResearchService runs the driver pipeline alongside the sibling research
// streams and assembles a combined markdown report. A single semaphore
// bounds how many orchestrations run at once; the inner fan-outs are not
// gated here.
type ResearchService struct {
	drivers    *DriverService
	keyFactors *KeyFactorService
	baseRates  *BaseRateService
	news       domain.SearchClient
	gate       *semaphore.Weighted
	logger     *zap.Logger
}

func NewResearchService(drivers *DriverService, keyFactors *KeyFactorService, baseRates *BaseRateService, news domain.SearchClient, logger *zap.Logger) *ResearchService {
	return &ResearchService{
		drivers:    drivers,
		keyFactors: keyFactors,
		baseRates:  baseRates,
		news:       news,
		gate:       semaphore.NewWeighted(DefaultMaxConcurrentResearch),
		logger:     logger,
	}
}

// SetMaxConcurrent resizes the orchestration gate.
func (s *ResearchService) SetMaxConcurrent(n int64) {
	s.gate = semaphore.NewWeighted(n)
}

// RunResearch produces the research report for a question. Every stream is
// fault-isolated: a failed stream is logged and its section omitted, so the
// report degrades down to (at minimum) whatever the news fetch returned.
// The only error returned is a failed gate acquisition (context cancelled).
func (s *ResearchService) RunResearch(ctx context.Context, q domain.Question) (string, error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire research slot: %w", err)
	}
	defer s.gate.Release(1)

	type stream func(ctx context.Context) (string, error)
	streams := []stream{
		func(ctx context.Context) (string, error) {
			drivers, _, err := s.drivers.ResearchDrivers(ctx, q, DefaultDriverCount, "")
			if err != nil {
				return "", err
			}
			if len(drivers) == 0 {
				return "", nil
			}
			return driversSectionTitle + domain.DriversToMarkdown(drivers) + "\n\n", nil
		},
		func(ctx context.Context) (string, error) {
			factors, err := s.keyFactors.FindAndSortKeyFactors(ctx, q, DefaultKeyFactorCount, DefaultKeyFactorSample)
			if err != nil {
				return "", err
			}
			if len(factors) == 0 {
				return "", nil
			}
			return keyFactorsSectionTitle + domain.KeyFactorsToMarkdown(factors) + "\n\n", nil
		},
		func(ctx context.Context) (string, error) {
			rates, err := s.baseRates.ResearchBaseRates(ctx, q, DefaultBaseRateCount)
			if err != nil {
				return "", err
			}
			if len(rates) == 0 {
				return "", nil
			}
			return baseRatesSectionTitle + domain.BaseRatesToMarkdown(rates) + "\n\n", nil
		},
	}

	streamNames := []string{"drivers", "key factors", "base rates"}
	sections, errs := gather(ctx, streams, func(ctx context.Context, _ int, run stream) (string, error) {
		return run(ctx)
	})
	for i, err := range errs {
		if err != nil {
			s.logger.Error("research stream failed, continuing without",
				zap.String("stream", streamNames[i]), zap.Error(err))
			sections[i] = ""
		}
	}

	// News is fetched outside the gathered group but isolated the same way.
	newsSection := ""
	if news, err := s.news.Search(ctx, q.Text); err != nil {
		s.logger.Warn("news research failed", zap.Error(err))
	} else {
		newsSection = news
	}

	report := sections[0] + sections[1] + sections[2] + newsSection
	s.logger.Info("research assembled",
		zap.String("question", q.Text),
		zap.Int("report_bytes", len(report)))
	return report, nil
}
