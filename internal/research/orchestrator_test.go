package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cassandra-labs/foresight/internal/llm"
	"github.com/cassandra-labs/foresight/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResearchService(gen *llm.MockClient, news *search.MockSearcher) *ResearchService {
	logger := zap.NewNop()
	drivers := NewDriverService(gen, search.NewMockSearcher(), logger)
	keyFactors := NewKeyFactorService(gen, logger)
	baseRates := NewBaseRateService(gen, logger)
	return NewResearchService(drivers, keyFactors, baseRates, news, logger)
}

func TestRunResearchAllStreamsFailDegradesToNews(t *testing.T) {
	gen := llm.NewMockClient()
	gen.OnErr("horizon-scanning analyst", errors.New("drivers down"))
	gen.OnErr("key factors", errors.New("factors down"))
	gen.OnErr("base rate analysis", errors.New("rates down"))

	news := search.NewMockSearcher()
	news.On("levee", "Recent coverage: water levels holding steady.")

	svc := newTestResearchService(gen, news)
	report, err := svc.RunResearch(context.Background(), testQuestion())
	require.NoError(t, err, "stream failures must not fail the orchestration")

	assert.Equal(t, "Recent coverage: water levels holding steady.", report)
	assert.NotContains(t, report, "## STEEP Driver Analysis")
	assert.NotContains(t, report, "## Key Factors")
	assert.NotContains(t, report, "## Base Rate Analysis")
}

func TestRunResearchSectionOrdering(t *testing.T) {
	gen := llm.NewMockClient()
	// Empty driver scan: the section is omitted entirely, not rendered empty.
	gen.On("horizon-scanning analyst", `[]`)
	gen.On("key factors", `[
		{"text":"Lesser factor","score":0.3},
		{"text":"Top factor","score":0.9}
	]`)
	gen.On("base rate analysis", `[{
		"reference_class":"levee failures in major floods",
		"numerator_description":"failures","denominator_description":"floods",
		"numerator":1,"denominator":4,"historical_rate":0.25,
		"time_period":"1990-2020","relevance_reasoning":"directly comparable"
	}]`)

	news := search.NewMockSearcher()
	news.DefaultResponse = "Recent coverage: nothing notable."

	svc := newTestResearchService(gen, news)
	report, err := svc.RunResearch(context.Background(), testQuestion())
	require.NoError(t, err)

	assert.NotContains(t, report, "## STEEP Driver Analysis")

	factorsAt := strings.Index(report, "## Key Factors")
	ratesAt := strings.Index(report, "## Base Rate Analysis")
	newsAt := strings.Index(report, "Recent coverage: nothing notable.")
	require.GreaterOrEqual(t, factorsAt, 0)
	require.Greater(t, ratesAt, factorsAt)
	require.Greater(t, newsAt, ratesAt)

	// Key factors render in descending score order.
	assert.Less(t, strings.Index(report, "- Top factor"), strings.Index(report, "- Lesser factor"))
	assert.Contains(t, report, "1/4 = 25%.")
}

func TestRunResearchIncludesDriverSection(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("horizon-scanning analyst", `[
		{"name":"Omega","category":"economic","mechanism":"funding shifts","directionality":"accelerating","relevance":0.9}
	]`)
	gen.On("filtering candidate drivers", `[0]`)
	gen.On("Driver: Omega [", `{"scenario_description":"Omega dominates","timescale_plausibility":"high","system_effects":[]}`)
	gen.On("Driver: Omega\nDominance", `[{"description":"budget passes","rationale":"r"}]`)
	gen.On(`driver "Omega" (`, `[{"summary":"s1","citation":"c1"}]`)
	gen.On(`driver "Omega"`, `{"index":0,"status":"stable","evidence_summary":"confirmed","citations":["src"]}`)
	gen.On(`"direction_of_pressure", "strength"`, `[{"index":0,"direction_of_pressure":"pushes toward Yes","strength":"moderate","uncertainty":"medium"}]`)
	gen.On("key factors", `[{"text":"KF","score":0.5}]`)
	gen.On("base rate analysis", `[]`)

	news := search.NewMockSearcher()
	news.DefaultResponse = "Recent coverage: budget vote scheduled."

	svc := newTestResearchService(gen, news)
	report, err := svc.RunResearch(context.Background(), testQuestion())
	require.NoError(t, err)

	driversAt := strings.Index(report, "## STEEP Driver Analysis")
	factorsAt := strings.Index(report, "## Key Factors")
	require.GreaterOrEqual(t, driversAt, 0)
	require.Greater(t, factorsAt, driversAt)
	assert.Contains(t, report, "**Omega**")
	// Empty base rates omit the section rather than printing the sentinel.
	assert.NotContains(t, report, "## Base Rate Analysis")
	assert.Contains(t, report, "Recent coverage: budget vote scheduled.")
}

func TestRunResearchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestResearchService(llm.NewMockClient(), search.NewMockSearcher())
	_, err := svc.RunResearch(ctx, testQuestion())
	require.Error(t, err)
}

func TestFindAndSortKeyFactorsTruncates(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("key factors", `[
		{"text":"a","score":0.2},
		{"text":"b","score":0.9},
		{"text":"c","score":0.5}
	]`)

	svc := NewKeyFactorService(gen, zap.NewNop())
	factors, err := svc.FindAndSortKeyFactors(context.Background(), testQuestion(), 2, 10)
	require.NoError(t, err)
	require.Len(t, factors, 2)
	assert.Equal(t, "b", factors[0].Text)
	assert.Equal(t, "c", factors[1].Text)
}
