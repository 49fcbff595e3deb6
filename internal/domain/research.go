package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BaseRateEstimate is one reference-class estimate from the base-rate
// researcher.
type BaseRateEstimate struct {
	ReferenceClass         string  `json:"reference_class"`
	NumeratorDescription   string  `json:"numerator_description"`
	DenominatorDescription string  `json:"denominator_description"`
	Numerator              int     `json:"numerator"`
	Denominator            int     `json:"denominator"`
	HistoricalRate         float64 `json:"historical_rate"`
	TimePeriod             string  `json:"time_period"`
	RelevanceReasoning     string  `json:"relevance_reasoning"`
}

func (b *BaseRateEstimate) UnmarshalJSON(data []byte) error {
	type alias BaseRateEstimate
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	// Models occasionally return percentages instead of decimals.
	if a.HistoricalRate > 1.0 {
		a.HistoricalRate = a.HistoricalRate / 100.0
	}
	if a.Denominator <= 0 {
		return fmt.Errorf("denominator must be positive, got %d", a.Denominator)
	}
	if a.HistoricalRate < 0 || a.HistoricalRate > 1 {
		return fmt.Errorf("historical rate %v out of range [0,1]", a.HistoricalRate)
	}
	*b = BaseRateEstimate(a)
	return nil
}

// BaseRatesToMarkdown renders base-rate estimates as a markdown bullet list.
func BaseRatesToMarkdown(estimates []BaseRateEstimate) string {
	if len(estimates) == 0 {
		return "No base rates identified."
	}
	lines := make([]string, 0, len(estimates))
	for _, e := range estimates {
		lines = append(lines, fmt.Sprintf("- **%s** (%s): %d/%d = %.0f%%. %s",
			e.ReferenceClass, e.TimePeriod, e.Numerator, e.Denominator,
			e.HistoricalRate*100, e.RelevanceReasoning))
	}
	return strings.Join(lines, "\n")
}

// ScoredKeyFactor is one ranked key factor from the key-factor researcher.
type ScoredKeyFactor struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Citation string  `json:"citation,omitempty"`
}

// KeyFactorsToMarkdown renders key factors as a markdown bullet list.
func KeyFactorsToMarkdown(factors []ScoredKeyFactor) string {
	if len(factors) == 0 {
		return "No key factors identified."
	}
	lines := make([]string, 0, len(factors))
	for _, f := range factors {
		line := "- " + f.Text
		if f.Citation != "" {
			line += " " + f.Citation
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
