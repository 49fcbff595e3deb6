package domain

import (
	"context"

	"github.com/google/uuid"
)

// ForecastStore persists forecast history per question, ordered oldest to
// newest. History is the drift guard's reference point for bounding
// single-step movement.
type ForecastStore interface {
	RecordBinary(ctx context.Context, questionID uuid.UUID, f *BinaryForecast) error
	ListBinary(ctx context.Context, questionID uuid.UUID) ([]BinaryForecast, error)
	RecordNumeric(ctx context.Context, questionID uuid.UUID, d *NumericDistribution) error
	ListNumeric(ctx context.Context, questionID uuid.UUID) ([]NumericDistribution, error)
}
