package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/research"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ForecastHandler struct {
	store      domain.ForecastStore
	forecaster *research.Forecaster
}

func NewForecastHandler(store domain.ForecastStore, forecaster *research.Forecaster) *ForecastHandler {
	return &ForecastHandler{store: store, forecaster: forecaster}
}

type recordForecastRequest struct {
	Type string `json:"type"`

	// binary
	Prediction *float64 `json:"prediction,omitempty"`

	// numeric
	Percentiles    []domain.Percentile `json:"percentiles,omitempty"`
	LowerBound     float64             `json:"lower_bound,omitempty"`
	UpperBound     float64             `json:"upper_bound,omitempty"`
	OpenLowerBound bool                `json:"open_lower_bound,omitempty"`
	OpenUpperBound bool                `json:"open_upper_bound,omitempty"`
}

// Record persists one forecast for a question. Numeric forecasts pass
// through the bound-normalizing constructor before hitting the store.
func (h *ForecastHandler) Record(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req recordForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Type {
	case "binary":
		if req.Prediction == nil || *req.Prediction < 0 || *req.Prediction > 1 {
			writeError(w, http.StatusBadRequest, "prediction must be in [0,1]")
			return
		}
		f := domain.BinaryForecast{Prediction: *req.Prediction}
		if err := h.store.RecordBinary(r.Context(), questionID, &f); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record forecast")
			return
		}
		writeJSON(w, http.StatusCreated, f)

	case "numeric":
		q := domain.NumericQuestion{
			Question:       domain.Question{ID: questionID},
			LowerBound:     req.LowerBound,
			UpperBound:     req.UpperBound,
			OpenLowerBound: req.OpenLowerBound,
			OpenUpperBound: req.OpenUpperBound,
		}
		dist, err := domain.DistributionFromQuestion(req.Percentiles, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.store.RecordNumeric(r.Context(), questionID, &dist); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record forecast")
			return
		}
		writeJSON(w, http.StatusCreated, dist)

	default:
		writeError(w, http.StatusBadRequest, "type must be binary or numeric")
	}
}

type forecastHistoryResponse struct {
	Binary  []domain.BinaryForecast      `json:"binary"`
	Numeric []domain.NumericDistribution `json:"numeric"`
}

// List returns a question's full forecast history, oldest first.
func (h *ForecastHandler) List(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	binary, err := h.store.ListBinary(r.Context(), questionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load forecast history")
		return
	}
	numeric, err := h.store.ListNumeric(r.Context(), questionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load forecast history")
		return
	}

	writeJSON(w, http.StatusOK, forecastHistoryResponse{Binary: binary, Numeric: numeric})
}

type aggregateForecastRequest struct {
	Type string `json:"type"`

	// binary
	Predictions []float64 `json:"predictions,omitempty"`

	// numeric
	Distributions  [][]domain.Percentile `json:"distributions,omitempty"`
	LowerBound     float64               `json:"lower_bound,omitempty"`
	UpperBound     float64               `json:"upper_bound,omitempty"`
	OpenLowerBound bool                  `json:"open_lower_bound,omitempty"`
	OpenUpperBound bool                  `json:"open_upper_bound,omitempty"`
}

// Aggregate combines individual predictions, dampens the result against the
// question's stored history, records it, and returns it.
func (h *ForecastHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req aggregateForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Type {
	case "binary":
		if len(req.Predictions) == 0 {
			writeError(w, http.StatusBadRequest, "predictions are required")
			return
		}
		history, err := h.store.ListBinary(r.Context(), questionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load forecast history")
			return
		}
		q := domain.BinaryQuestion{
			Question:          domain.Question{ID: questionID},
			PreviousForecasts: history,
		}
		guarded, err := h.forecaster.AggregateBinary(req.Predictions, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f := domain.BinaryForecast{Prediction: guarded}
		if err := h.store.RecordBinary(r.Context(), questionID, &f); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record forecast")
			return
		}
		writeJSON(w, http.StatusCreated, f)

	case "numeric":
		if len(req.Distributions) == 0 {
			writeError(w, http.StatusBadRequest, "distributions are required")
			return
		}
		history, err := h.store.ListNumeric(r.Context(), questionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load forecast history")
			return
		}
		q := domain.NumericQuestion{
			Question:          domain.Question{ID: questionID},
			LowerBound:        req.LowerBound,
			UpperBound:        req.UpperBound,
			OpenLowerBound:    req.OpenLowerBound,
			OpenUpperBound:    req.OpenUpperBound,
			PreviousForecasts: history,
		}
		predictions := make([]domain.NumericDistribution, 0, len(req.Distributions))
		for _, pts := range req.Distributions {
			dist, err := domain.DistributionFromQuestion(pts, q)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			predictions = append(predictions, dist)
		}
		guarded, err := h.forecaster.AggregateNumeric(predictions, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.store.RecordNumeric(r.Context(), questionID, &guarded); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record forecast")
			return
		}
		writeJSON(w, http.StatusCreated, guarded)

	default:
		writeError(w, http.StatusBadRequest, "type must be binary or numeric")
	}
}
