package research

import (
	"fmt"
	"sort"

	"github.com/cassandra-labs/foresight/internal/domain"
	"go.uber.org/zap"
)

// Forecaster aggregates individual predictions and applies the drift guard
// against the question's recorded history.
type Forecaster struct {
	logger *zap.Logger
}

func NewForecaster(logger *zap.Logger) *Forecaster {
	return &Forecaster{logger: logger}
}

// AggregateBinary takes the median of the predictions, then dampens it
// against the question's forecast history.
func (f *Forecaster) AggregateBinary(predictions []float64, q domain.BinaryQuestion) (float64, error) {
	if len(predictions) == 0 {
		return 0, fmt.Errorf("no predictions to aggregate")
	}
	sorted := make([]float64, len(predictions))
	copy(sorted, predictions)
	sort.Float64s(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = sorted[mid]
	} else {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	guarded := GuardBinary(median, q)
	if guarded != median {
		f.logger.Info("drift guard dampened binary forecast",
			zap.Float64("aggregate", median), zap.Float64("guarded", guarded))
	}
	return guarded, nil
}

// AggregateNumeric averages the predictions percentile-by-percentile (using
// the first prediction's declared percentiles as the grid), normalizes the
// result for the question's bounds, then dampens it against history.
func (f *Forecaster) AggregateNumeric(predictions []domain.NumericDistribution, q domain.NumericQuestion) (domain.NumericDistribution, error) {
	if len(predictions) == 0 {
		return domain.NumericDistribution{}, fmt.Errorf("no predictions to aggregate")
	}

	grid := predictions[0].DeclaredPercentiles
	averaged := make([]domain.Percentile, 0, len(grid))
	for _, p := range grid {
		sum, n := 0.0, 0
		for _, dist := range predictions {
			if v, ok := dist.ValueAt(p.Percentile); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}
		averaged = append(averaged, domain.Percentile{Percentile: p.Percentile, Value: sum / float64(n)})
	}

	aggregate, err := domain.DistributionFromQuestion(averaged, q)
	if err != nil {
		return domain.NumericDistribution{}, fmt.Errorf("aggregate distribution: %w", err)
	}

	guarded := GuardNumeric(aggregate, q)
	return guarded, nil
}
