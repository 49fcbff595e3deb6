package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Question carries the text a forecasting question exposes to research.
type Question struct {
	ID                 uuid.UUID `json:"id"`
	Text               string    `json:"text"`
	Background         string    `json:"background,omitempty"`
	ResolutionCriteria string    `json:"resolution_criteria,omitempty"`
	FinePrint          string    `json:"fine_print,omitempty"`
	PageURL            string    `json:"page_url,omitempty"`
}

// DetailsMarkdown renders the question for inclusion in a prompt.
func (q Question) DetailsMarkdown() string {
	var sb strings.Builder
	sb.WriteString("**Question:** " + q.Text + "\n")
	if q.Background != "" {
		sb.WriteString("**Background:** " + q.Background + "\n")
	}
	if q.ResolutionCriteria != "" {
		sb.WriteString("**Resolution criteria:** " + q.ResolutionCriteria + "\n")
	}
	if q.FinePrint != "" {
		sb.WriteString("**Fine print:** " + q.FinePrint + "\n")
	}
	return sb.String()
}

// BinaryForecast is one timestamped scalar prediction.
type BinaryForecast struct {
	Prediction float64   `json:"prediction"`
	RecordedAt time.Time `json:"recorded_at"`
}

// BinaryQuestion is a yes/no question with its forecast history,
// ordered oldest to newest.
type BinaryQuestion struct {
	Question
	PreviousForecasts []BinaryForecast `json:"previous_forecasts,omitempty"`
}

// Percentile is one declared point of a numeric distribution.
type Percentile struct {
	Percentile float64 `json:"percentile"`
	Value      float64 `json:"value"`
}

// NumericDistribution is a forecast over a numeric question, represented
// by its declared percentile points plus the question bounds.
type NumericDistribution struct {
	DeclaredPercentiles []Percentile `json:"declared_percentiles"`
	LowerBound          float64      `json:"lower_bound"`
	UpperBound          float64      `json:"upper_bound"`
	OpenLowerBound      bool         `json:"open_lower_bound"`
	OpenUpperBound      bool         `json:"open_upper_bound"`
	RecordedAt          time.Time    `json:"recorded_at,omitempty"`
}

// ValueAt returns the declared value at the given percentile, if present.
func (d NumericDistribution) ValueAt(pct float64) (float64, bool) {
	for _, p := range d.DeclaredPercentiles {
		if p.Percentile == pct {
			return p.Value, true
		}
	}
	return 0, false
}

// NumericQuestion is a numeric question with bounds, open/closed flags and
// its forecast history, ordered oldest to newest.
type NumericQuestion struct {
	Question
	LowerBound        float64               `json:"lower_bound"`
	UpperBound        float64               `json:"upper_bound"`
	OpenLowerBound    bool                  `json:"open_lower_bound"`
	OpenUpperBound    bool                  `json:"open_upper_bound"`
	PreviousForecasts []NumericDistribution `json:"previous_forecasts,omitempty"`
}

// DistributionFromQuestion builds a valid distribution for the question's
// bounds from raw percentile points. Points are sorted by percentile,
// values are forced monotonically non-decreasing and clamped into closed
// bounds. This constructor is authoritative: any distribution entering the
// system from raw percentiles goes through it.
func DistributionFromQuestion(percentiles []Percentile, q NumericQuestion) (NumericDistribution, error) {
	if len(percentiles) == 0 {
		return NumericDistribution{}, fmt.Errorf("no percentiles declared")
	}
	pts := make([]Percentile, len(percentiles))
	copy(pts, percentiles)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Percentile < pts[j].Percentile })

	for i := range pts {
		if pts[i].Percentile < 0 || pts[i].Percentile > 1 {
			return NumericDistribution{}, fmt.Errorf("percentile %v out of range [0,1]", pts[i].Percentile)
		}
		if !q.OpenLowerBound && pts[i].Value < q.LowerBound {
			pts[i].Value = q.LowerBound
		}
		if !q.OpenUpperBound && pts[i].Value > q.UpperBound {
			pts[i].Value = q.UpperBound
		}
		if i > 0 && pts[i].Value < pts[i-1].Value {
			pts[i].Value = pts[i-1].Value
		}
	}

	return NumericDistribution{
		DeclaredPercentiles: pts,
		LowerBound:          q.LowerBound,
		UpperBound:          q.UpperBound,
		OpenLowerBound:      q.OpenLowerBound,
		OpenUpperBound:      q.OpenUpperBound,
	}, nil
}
