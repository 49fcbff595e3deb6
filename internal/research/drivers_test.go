package research

import (
	"context"
	"errors"
	"testing"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/llm"
	"github.com/cassandra-labs/foresight/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testQuestion() domain.Question {
	return domain.Question{Text: "Will the levee hold through 2027?"}
}

func TestResearchDriversHappyPath(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("horizon-scanning analyst", `[
		{"name":"Alpha","category":"technological","mechanism":"alpha mech","directionality":"accelerating","relevance":0.9},
		{"name":"Beta","category":"political","mechanism":"beta mech","directionality":"decelerating","relevance":0.8},
		{"name":"Gamma","category":"social","mechanism":"gamma mech","directionality":"stable","relevance":0.2}
	]`)
	gen.On("filtering candidate drivers", `[0, 1, 5]`)
	gen.On("Driver: Alpha [", `{"scenario_description":"Alpha dominates","timescale_plausibility":"high","system_effects":["e1"]}`)
	gen.On("Driver: Beta [", `{"scenario_description":"Beta dominates","timescale_plausibility":"medium","system_effects":["e2"]}`)
	gen.On("Driver: Alpha\nDominance", `[
		{"description":"chips available","rationale":"r1"},
		{"description":"funding grows","rationale":"r2"}
	]`)
	gen.OnErr("Driver: Beta\nDominance", errors.New("backend hiccup"))
	gen.On(`driver "Alpha" (`, `[{"summary":"s1","citation":"c1"}]`)
	gen.On(`driver "Alpha"`, `{"index":0,"status":"stable","evidence_summary":"seen in trade press","citations":["https://example.com/a"]}`)
	gen.On(`"direction_of_pressure", "strength"`, `[{"index":0,"direction_of_pressure":"pushes toward Yes","strength":"strong","uncertainty":"low"}]`)

	searcher := search.NewMockSearcher()
	svc := NewDriverService(gen, searcher, zap.NewNop())

	drivers, analyses, err := svc.ResearchDrivers(context.Background(), testQuestion(), 1, "")
	require.NoError(t, err)

	require.Len(t, drivers, 1)
	assert.Equal(t, "Alpha", drivers[0].Name)
	assert.Equal(t, domain.StrengthStrong, drivers[0].Strength)
	assert.Equal(t, "pushes toward Yes", drivers[0].DirectionOfPressure)
	require.Len(t, drivers[0].Signals, 1)

	// Beta failed during precondition generation: one analysis remains.
	require.Len(t, analyses, 1)
	assert.Equal(t, "Alpha", analyses[0].DriverName)
	assert.Equal(t, 1.0, analyses[0].AlignmentScore)
	assert.Equal(t, "strong", analyses[0].EmergenceLabel)
	require.Len(t, analyses[0].Preconditions, 2)
	assert.Equal(t, domain.PreconditionStable, analyses[0].Preconditions[0].Status)
	assert.NotEmpty(t, analyses[0].Preconditions[0].Citations)
}

func TestResearchDriversZeroCandidates(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("horizon-scanning analyst", `[]`)
	searcher := search.NewMockSearcher()
	svc := NewDriverService(gen, searcher, zap.NewNop())

	drivers, analyses, err := svc.ResearchDrivers(context.Background(), testQuestion(), 4, "")
	require.NoError(t, err)
	assert.Empty(t, drivers)
	assert.Empty(t, analyses)
	assert.Equal(t, 1, gen.CallCount(), "no calls should follow an empty broad scan")
	assert.Equal(t, 0, searcher.CallCount())
}

func TestResearchDriversBroadScanFailureIsFatal(t *testing.T) {
	gen := llm.NewMockClient()
	gen.OnErr("horizon-scanning analyst", errors.New("model unavailable"))
	svc := NewDriverService(gen, search.NewMockSearcher(), zap.NewNop())

	_, _, err := svc.ResearchDrivers(context.Background(), testQuestion(), 4, "")
	require.Error(t, err)
}

func TestResearchDriversFilterDropsOutOfRangeIndices(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("horizon-scanning analyst", `[
		{"name":"Alpha","category":"technological","mechanism":"m","directionality":"accelerating","relevance":0.9}
	]`)
	gen.On("filtering candidate drivers", `[7, -2]`)
	searcher := search.NewMockSearcher()
	svc := NewDriverService(gen, searcher, zap.NewNop())

	drivers, analyses, err := svc.ResearchDrivers(context.Background(), testQuestion(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, drivers)
	assert.Empty(t, analyses)
	assert.Equal(t, 2, gen.CallCount(), "nothing to analyze after filtering")
}

func TestResearchDriversPreconditionFailureDefaultsToAbsent(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("horizon-scanning analyst", `[
		{"name":"Delta","category":"environmental","mechanism":"delta mech","directionality":"unclear","relevance":0.9}
	]`)
	gen.On("filtering candidate drivers", `[0]`)
	gen.On("Driver: Delta [", `{"scenario_description":"Delta dominates","timescale_plausibility":"medium","system_effects":[]}`)
	gen.On("Driver: Delta\nDominance", `[
		{"description":"water rising","rationale":"r1"},
		{"description":"levee funding stalls","rationale":"r2"}
	]`)
	gen.On(`driver "Delta" (`, `[]`)
	gen.On(`driver "Delta"`, `{"index":0,"status":"emerging","evidence_summary":"early signs","citations":[]}`)

	searcher := search.NewMockSearcher()
	searcher.OnErr("water rising", errors.New("search down"))
	svc := NewDriverService(gen, searcher, zap.NewNop())

	drivers, analyses, err := svc.ResearchDrivers(context.Background(), testQuestion(), 1, "")
	require.NoError(t, err)

	// Zero extracted signals: Delta cannot become a ScoredDriver.
	assert.Empty(t, drivers)

	require.Len(t, analyses, 1)
	require.Len(t, analyses[0].Preconditions, 2)
	assert.Equal(t, domain.PreconditionAbsent, analyses[0].Preconditions[0].Status,
		"failed search task must default its precondition to absent")
	assert.Equal(t, domain.PreconditionEmerging, analyses[0].Preconditions[1].Status)
	assert.Equal(t, 0.5, analyses[0].AlignmentScore)
	assert.Equal(t, "moderate", analyses[0].EmergenceLabel)
}

func TestResearchDriversCombinedScoreThreshold(t *testing.T) {
	gen := llm.NewMockClient()
	gen.On("horizon-scanning analyst", `[
		{"name":"Epsilon","category":"economic","mechanism":"m","directionality":"stable","relevance":0.1}
	]`)
	gen.On("filtering candidate drivers", `[0]`)
	gen.On("Driver: Epsilon [", `{"scenario_description":"unlikely","timescale_plausibility":"very_low","system_effects":[]}`)
	gen.On("Driver: Epsilon\nDominance", `[{"description":"rates spike","rationale":"r"}]`)
	gen.On(`driver "Epsilon"`, `{"index":0,"status":"contrary","evidence_summary":"counter-evidence","citations":[]}`)

	searcher := search.NewMockSearcher()
	svc := NewDriverService(gen, searcher, zap.NewNop())

	drivers, analyses, err := svc.ResearchDrivers(context.Background(), testQuestion(), 1, "")
	require.NoError(t, err)

	// combined = 0.3*0.1 + 0.4*0 + 0.2*0.1 + 0.1*0 = 0.05 < 0.2
	assert.Empty(t, drivers)
	require.Len(t, analyses, 1, "filtered candidates still get an analysis entry")
	// One precondition search ran; no phase-4 search for a dropped candidate.
	assert.Equal(t, 1, searcher.CallCount())
}

func TestCombinedScore(t *testing.T) {
	assert.InDelta(t, 1.0, combinedScore(1.0, 1.0, 1.0, 1.0), 1e-9)

	// Monotonically non-decreasing in alignment, other terms fixed.
	low := combinedScore(0.5, 0.2, 0.7, 0.5)
	high := combinedScore(0.5, 0.9, 0.7, 0.5)
	assert.Greater(t, high, low)
}

func TestEmergenceLabel(t *testing.T) {
	tests := []struct {
		alignment float64
		want      string
	}{
		{1.0, "strong"},
		{0.75, "strong"},
		{0.6, "moderate"},
		{0.5, "moderate"},
		{0.3, "weak"},
		{0.25, "weak"},
		{0.1, "very_weak"},
		{0, "very_weak"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, emergenceLabel(tt.alignment), "alignment %v", tt.alignment)
	}
}

func TestPlausibilityWeight(t *testing.T) {
	assert.Equal(t, 1.0, plausibilityWeight("high"))
	assert.Equal(t, 1.0, plausibilityWeight(" High "))
	assert.Equal(t, 0.1, plausibilityWeight("Very Low"))
	assert.Equal(t, 0.7, plausibilityWeight("medium"))
	assert.Equal(t, 0.4, plausibilityWeight("low"))
	assert.Equal(t, 0.5, plausibilityWeight("someday"), "unrecognized labels fall back to 0.5")
}
