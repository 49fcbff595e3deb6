package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ForecastStore struct {
	db *pgxpool.Pool
}

func NewForecastStore(db *pgxpool.Pool) *ForecastStore {
	return &ForecastStore{db: db}
}

func (s *ForecastStore) RecordBinary(ctx context.Context, questionID uuid.UUID, f *domain.BinaryForecast) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO binary_forecasts (question_id, prediction)
		 VALUES ($1, $2)
		 RETURNING recorded_at`,
		questionID, f.Prediction,
	).Scan(&f.RecordedAt)
}

func (s *ForecastStore) ListBinary(ctx context.Context, questionID uuid.UUID) ([]domain.BinaryForecast, error) {
	rows, err := s.db.Query(ctx,
		`SELECT prediction, recorded_at
		 FROM binary_forecasts WHERE question_id = $1
		 ORDER BY recorded_at ASC`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forecasts []domain.BinaryForecast
	for rows.Next() {
		var f domain.BinaryForecast
		if err := rows.Scan(&f.Prediction, &f.RecordedAt); err != nil {
			return nil, err
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}

func (s *ForecastStore) RecordNumeric(ctx context.Context, questionID uuid.UUID, d *domain.NumericDistribution) error {
	percentiles, err := json.Marshal(d.DeclaredPercentiles)
	if err != nil {
		return fmt.Errorf("marshal percentiles: %w", err)
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO numeric_forecasts
		   (question_id, percentiles, lower_bound, upper_bound, open_lower_bound, open_upper_bound)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING recorded_at`,
		questionID, percentiles, d.LowerBound, d.UpperBound, d.OpenLowerBound, d.OpenUpperBound,
	).Scan(&d.RecordedAt)
}

func (s *ForecastStore) ListNumeric(ctx context.Context, questionID uuid.UUID) ([]domain.NumericDistribution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT percentiles, lower_bound, upper_bound, open_lower_bound, open_upper_bound, recorded_at
		 FROM numeric_forecasts WHERE question_id = $1
		 ORDER BY recorded_at ASC`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var distributions []domain.NumericDistribution
	for rows.Next() {
		var d domain.NumericDistribution
		var percentiles []byte
		if err := rows.Scan(&percentiles, &d.LowerBound, &d.UpperBound, &d.OpenLowerBound, &d.OpenUpperBound, &d.RecordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(percentiles, &d.DeclaredPercentiles); err != nil {
			return nil, fmt.Errorf("unmarshal percentiles: %w", err)
		}
		distributions = append(distributions, d)
	}
	return distributions, rows.Err()
}
