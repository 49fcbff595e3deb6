package research

import (
	"testing"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func binaryQuestion(history ...float64) domain.BinaryQuestion {
	q := domain.BinaryQuestion{Question: domain.Question{Text: "Will it happen?"}}
	for _, p := range history {
		q.PreviousForecasts = append(q.PreviousForecasts, domain.BinaryForecast{Prediction: p})
	}
	return q
}

func TestGuardBinaryBlendsLargeDrift(t *testing.T) {
	// drift 0.50 > 0.15 triggers blending: 0.6*0.80 + 0.4*0.30 = 0.60
	got := GuardBinary(0.80, binaryQuestion(0.30))
	assert.InDelta(t, 0.60, got, 1e-9)
}

func TestGuardBinaryPassesSmallDrift(t *testing.T) {
	// drift 0.10 <= 0.15 passes through unchanged
	got := GuardBinary(0.60, binaryQuestion(0.50))
	assert.Equal(t, 0.60, got)
}

func TestGuardBinaryUsesOnlyLastHistoryEntry(t *testing.T) {
	// 0.6*0.80 + 0.4*0.50 = 0.68
	got := GuardBinary(0.80, binaryQuestion(0.1, 0.5))
	assert.InDelta(t, 0.68, got, 1e-9)
}

func TestGuardBinaryNoHistory(t *testing.T) {
	got := GuardBinary(0.80, binaryQuestion())
	assert.Equal(t, 0.80, got)
}

func TestGuardBinaryClampsToValidRange(t *testing.T) {
	got := GuardBinary(0.0, binaryQuestion(0.9))
	assert.GreaterOrEqual(t, got, 0.001)
	got = GuardBinary(1.0, binaryQuestion(0.1))
	assert.LessOrEqual(t, got, 0.999)
}

func numericQuestionWithHistory(prev []domain.Percentile) domain.NumericQuestion {
	return domain.NumericQuestion{
		Question:   domain.Question{Text: "How many?"},
		LowerBound: 0,
		UpperBound: 100,
		PreviousForecasts: []domain.NumericDistribution{
			{DeclaredPercentiles: prev, LowerBound: 0, UpperBound: 100},
		},
	}
}

func TestGuardNumericBlendsLargeDrift(t *testing.T) {
	q := numericQuestionWithHistory([]domain.Percentile{
		{Percentile: 0.25, Value: 20},
		{Percentile: 0.5, Value: 30},
		{Percentile: 0.75, Value: 40},
	})
	aggregate := domain.NumericDistribution{
		DeclaredPercentiles: []domain.Percentile{
			{Percentile: 0.25, Value: 60},
			{Percentile: 0.5, Value: 70},
			{Percentile: 0.75, Value: 80},
		},
		LowerBound: 0, UpperBound: 100,
	}

	// relative drift |70-30|/100 = 0.40 > 0.15
	got := GuardNumeric(aggregate, q)
	mid, ok := got.ValueAt(0.5)
	assert.True(t, ok)
	assert.Greater(t, mid, 30.0)
	assert.Less(t, mid, 70.0)
	// 0.6*70 + 0.4*30 = 54
	assert.InDelta(t, 54.0, mid, 1e-9)
}

func TestGuardNumericPassesSmallDrift(t *testing.T) {
	q := numericQuestionWithHistory([]domain.Percentile{{Percentile: 0.5, Value: 65}})
	aggregate := domain.NumericDistribution{
		DeclaredPercentiles: []domain.Percentile{{Percentile: 0.5, Value: 70}},
		LowerBound:          0, UpperBound: 100,
	}

	// relative drift 0.05 <= 0.15
	got := GuardNumeric(aggregate, q)
	assert.Equal(t, aggregate, got)
}

func TestGuardNumericFallsBackWhenPercentileMissing(t *testing.T) {
	q := numericQuestionWithHistory([]domain.Percentile{
		{Percentile: 0.5, Value: 30},
	})
	aggregate := domain.NumericDistribution{
		DeclaredPercentiles: []domain.Percentile{
			{Percentile: 0.25, Value: 60},
			{Percentile: 0.5, Value: 70},
		},
		LowerBound: 0, UpperBound: 100,
	}

	got := GuardNumeric(aggregate, q)
	// 0.25 is absent from the previous forecast: blend falls back to the
	// new value, then the constructor forces monotonicity.
	v25, _ := got.ValueAt(0.25)
	v50, _ := got.ValueAt(0.5)
	assert.InDelta(t, 60.0, v25, 1e-9)
	assert.GreaterOrEqual(t, v50, v25)
}

func TestGuardNumericNoHistory(t *testing.T) {
	q := domain.NumericQuestion{LowerBound: 0, UpperBound: 100}
	aggregate := domain.NumericDistribution{
		DeclaredPercentiles: []domain.Percentile{{Percentile: 0.5, Value: 70}},
	}
	assert.Equal(t, aggregate, GuardNumeric(aggregate, q))
}

func TestGuardNumericZeroSpan(t *testing.T) {
	q := numericQuestionWithHistory([]domain.Percentile{{Percentile: 0.5, Value: 30}})
	q.UpperBound = 0
	aggregate := domain.NumericDistribution{
		DeclaredPercentiles: []domain.Percentile{{Percentile: 0.5, Value: 70}},
	}
	assert.Equal(t, aggregate, GuardNumeric(aggregate, q))
}

func TestGuardNumericNoCommonPercentiles(t *testing.T) {
	q := numericQuestionWithHistory([]domain.Percentile{{Percentile: 0.1, Value: 30}})
	aggregate := domain.NumericDistribution{
		DeclaredPercentiles: []domain.Percentile{{Percentile: 0.9, Value: 70}},
	}
	assert.Equal(t, aggregate, GuardNumeric(aggregate, q))
}
