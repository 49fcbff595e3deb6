package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseSteepCategory(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    SteepCategory
		wantErr bool
	}{
		{"exact", "social", CategorySocial, false},
		{"upper case", "POLITICAL", CategoryPolitical, false},
		{"mixed case with spaces", " Technological ", CategoryTechnological, false},
		{"prefix", "econ", CategoryEconomic, false},
		{"ambiguous empty", "", "", true},
		{"unknown", "astrological", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSteepCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSteepCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSteepCategory(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePreconditionStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    PreconditionStatus
		wantErr bool
	}{
		{"emerging", PreconditionEmerging, false},
		{"Stable", PreconditionStable, false},
		{"CONTRARY", PreconditionContrary, false},
		{"abs", PreconditionAbsent, false},
		{"nonsense", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePreconditionStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParsePreconditionStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePreconditionStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPreconditionStatusMet(t *testing.T) {
	if !PreconditionEmerging.Met() || !PreconditionStable.Met() {
		t.Error("emerging and stable should count as met")
	}
	if PreconditionAbsent.Met() || PreconditionContrary.Met() {
		t.Error("absent and contrary should not count as met")
	}
}

func TestCandidateDriverUnmarshal(t *testing.T) {
	raw := `{"name":"AI capability growth","category":"Technological","mechanism":"m","directionality":"Accelerating","relevance":0.9}`
	var c CandidateDriver
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Category != CategoryTechnological {
		t.Errorf("category = %v, want technological", c.Category)
	}
	if c.Directionality != DirectionAccelerating {
		t.Errorf("directionality = %v, want accelerating", c.Directionality)
	}
	if c.InitialRelevance != 0.9 {
		t.Errorf("relevance = %v, want 0.9", c.InitialRelevance)
	}
}

func TestCandidateDriverRelevanceBounds(t *testing.T) {
	raw := `{"name":"Bad","category":"social","mechanism":"m","directionality":"stable","relevance":1.5}`
	var c CandidateDriver
	if err := json.Unmarshal([]byte(raw), &c); err == nil {
		t.Fatal("expected error for relevance 1.5")
	}
}

func TestDriversToMarkdown(t *testing.T) {
	if got := DriversToMarkdown(nil); got != "No drivers identified." {
		t.Errorf("empty list = %q", got)
	}

	drivers := []ScoredDriver{
		{
			Name:                "Regulatory pressure",
			Category:            CategoryPolitical,
			Mechanism:           "New rules raise compliance costs",
			Directionality:      DirectionAccelerating,
			DirectionOfPressure: "pushes toward Yes",
			Strength:            StrengthStrong,
			Uncertainty:         "moderate",
		},
	}
	got := DriversToMarkdown(drivers)
	if !strings.HasPrefix(got, "- ") {
		t.Errorf("markdown should be a bullet list, got %q", got)
	}
	if !strings.Contains(got, "Regulatory pressure") || !strings.Contains(got, "Political") {
		t.Errorf("markdown missing driver fields: %q", got)
	}
}

func TestBaseRatesToMarkdown(t *testing.T) {
	if got := BaseRatesToMarkdown(nil); got != "No base rates identified." {
		t.Errorf("empty list = %q", got)
	}

	estimates := []BaseRateEstimate{
		{
			ReferenceClass:     "Incumbent losses",
			Numerator:          1,
			Denominator:        4,
			HistoricalRate:     0.25,
			TimePeriod:         "1990-2025",
			RelevanceReasoning: "Same electoral system.",
		},
	}
	got := BaseRatesToMarkdown(estimates)
	if !strings.Contains(got, "1/4 = 25%.") {
		t.Errorf("rate should render as 25%%, got %q", got)
	}
}

func TestBaseRateEstimateNormalizesPercent(t *testing.T) {
	raw := `{"reference_class":"r","numerator_description":"n","denominator_description":"d","numerator":2,"denominator":5,"historical_rate":40.0,"time_period":"t","relevance_reasoning":"x"}`
	var e BaseRateEstimate
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.HistoricalRate != 0.4 {
		t.Errorf("historical rate = %v, want 0.4", e.HistoricalRate)
	}
}

func TestBaseRateEstimateRejectsZeroDenominator(t *testing.T) {
	raw := `{"reference_class":"r","numerator":1,"denominator":0,"historical_rate":0.5}`
	var e BaseRateEstimate
	if err := json.Unmarshal([]byte(raw), &e); err == nil {
		t.Fatal("expected error for zero denominator")
	}
}

func TestKeyFactorsToMarkdown(t *testing.T) {
	if got := KeyFactorsToMarkdown(nil); got != "No key factors identified." {
		t.Errorf("empty list = %q", got)
	}
	got := KeyFactorsToMarkdown([]ScoredKeyFactor{{Text: "Turnout is trending up", Score: 0.8}})
	if !strings.Contains(got, "Turnout is trending up") {
		t.Errorf("markdown missing factor text: %q", got)
	}
}
