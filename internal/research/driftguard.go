package research

import (
	"math"
	"sort"

	"github.com/cassandra-labs/foresight/internal/domain"
)

// Drift guard constants
const (
	MaxBinaryDrift  = 0.15
	MaxNumericDrift = 0.15
	NewWeight       = 0.6

	minBinaryForecast = 0.001
	maxBinaryForecast = 0.999
)

// GuardBinary bounds single-step movement of a binary forecast against the
// question's history. Only the newest history entry matters. Pure function,
// no external calls.
func GuardBinary(aggregate float64, q domain.BinaryQuestion) float64 {
	if len(q.PreviousForecasts) == 0 {
		return aggregate
	}
	previous := q.PreviousForecasts[len(q.PreviousForecasts)-1].Prediction
	drift := math.Abs(aggregate - previous)
	if drift <= MaxBinaryDrift {
		return aggregate
	}
	blended := NewWeight*aggregate + (1-NewWeight)*previous
	return math.Max(minBinaryForecast, math.Min(maxBinaryForecast, blended))
}

// GuardNumeric bounds single-step movement of a numeric forecast against
// the question's history. The medians compared are the values at the exact
// middle element of the sorted percentile keys common to both forecasts.
// When drift exceeds the threshold, every declared percentile of the new
// forecast is blended against the previous value at the same percentile
// (falling back to the new value where absent) and the result is rebuilt
// through the bound-normalizing constructor, which is authoritative.
func GuardNumeric(aggregate domain.NumericDistribution, q domain.NumericQuestion) domain.NumericDistribution {
	if len(q.PreviousForecasts) == 0 {
		return aggregate
	}
	previous := q.PreviousForecasts[len(q.PreviousForecasts)-1]

	var common []float64
	for _, p := range aggregate.DeclaredPercentiles {
		if _, ok := previous.ValueAt(p.Percentile); ok {
			common = append(common, p.Percentile)
		}
	}
	if len(common) == 0 {
		return aggregate
	}
	sort.Float64s(common)
	midPct := common[len(common)/2]

	newMid, _ := aggregate.ValueAt(midPct)
	prevMid, _ := previous.ValueAt(midPct)

	span := q.UpperBound - q.LowerBound
	if span <= 0 {
		return aggregate
	}
	relativeDrift := math.Abs(newMid-prevMid) / span
	if relativeDrift <= MaxNumericDrift {
		return aggregate
	}

	blended := make([]domain.Percentile, 0, len(aggregate.DeclaredPercentiles))
	for _, p := range aggregate.DeclaredPercentiles {
		prevValue, ok := previous.ValueAt(p.Percentile)
		if !ok {
			prevValue = p.Value
		}
		blended = append(blended, domain.Percentile{
			Percentile: p.Percentile,
			Value:      NewWeight*p.Value + (1-NewWeight)*prevValue,
		})
	}

	normalized, err := domain.DistributionFromQuestion(blended, q)
	if err != nil {
		return aggregate
	}
	return normalized
}
