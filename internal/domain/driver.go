package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SteepCategory classifies a driver along the five STEEP axes.
type SteepCategory string

const (
	CategorySocial        SteepCategory = "social"
	CategoryTechnological SteepCategory = "technological"
	CategoryEconomic      SteepCategory = "economic"
	CategoryEnvironmental SteepCategory = "environmental"
	CategoryPolitical     SteepCategory = "political"
)

var steepCategories = []SteepCategory{
	CategorySocial,
	CategoryTechnological,
	CategoryEconomic,
	CategoryEnvironmental,
	CategoryPolitical,
}

// normalizeLabel prepares free-text model output for enum matching.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// matchLabel resolves a normalized string against a closed label set.
// Exact match wins; otherwise a unique prefix match is accepted.
func matchLabel(value string, labels []string) (string, bool) {
	norm := normalizeLabel(value)
	for _, l := range labels {
		if norm == l {
			return l, true
		}
	}
	var hit string
	count := 0
	for _, l := range labels {
		if strings.HasPrefix(l, norm) && norm != "" {
			hit = l
			count++
		}
	}
	if count == 1 {
		return hit, true
	}
	return "", false
}

func labelsOf[T ~string](members []T) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = string(m)
	}
	return out
}

func ParseSteepCategory(s string) (SteepCategory, error) {
	if l, ok := matchLabel(s, labelsOf(steepCategories)); ok {
		return SteepCategory(l), nil
	}
	return "", fmt.Errorf("unknown STEEP category: %q", s)
}

func (c *SteepCategory) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSteepCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Title returns the display form, e.g. "Technological".
func (c SteepCategory) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[0])) + string(c[1:])
}

// Directionality describes a driver's trend relative to the outcome.
type Directionality string

const (
	DirectionAccelerating Directionality = "accelerating"
	DirectionDecelerating Directionality = "decelerating"
	DirectionStable       Directionality = "stable"
	DirectionUnclear      Directionality = "unclear"
)

var directionalities = []Directionality{
	DirectionAccelerating,
	DirectionDecelerating,
	DirectionStable,
	DirectionUnclear,
}

func ParseDirectionality(s string) (Directionality, error) {
	if l, ok := matchLabel(s, labelsOf(directionalities)); ok {
		return Directionality(l), nil
	}
	return "", fmt.Errorf("unknown directionality: %q", s)
}

func (d *Directionality) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDirectionality(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DriverStrength grades a scored driver's pull on the outcome.
type DriverStrength string

const (
	StrengthWeak     DriverStrength = "weak"
	StrengthModerate DriverStrength = "moderate"
	StrengthStrong   DriverStrength = "strong"
)

var driverStrengths = []DriverStrength{StrengthWeak, StrengthModerate, StrengthStrong}

func ParseDriverStrength(s string) (DriverStrength, error) {
	if l, ok := matchLabel(s, labelsOf(driverStrengths)); ok {
		return DriverStrength(l), nil
	}
	return "", fmt.Errorf("unknown driver strength: %q", s)
}

func (d *DriverStrength) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDriverStrength(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CandidateDriver is a hypothesized causal force produced by the broad scan.
type CandidateDriver struct {
	Name             string         `json:"name"`
	Category         SteepCategory  `json:"category"`
	Mechanism        string         `json:"mechanism"`
	Directionality   Directionality `json:"directionality"`
	InitialRelevance float64        `json:"relevance"`
}

func (c *CandidateDriver) UnmarshalJSON(data []byte) error {
	type alias CandidateDriver
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.InitialRelevance < 0 || a.InitialRelevance > 1 {
		return fmt.Errorf("relevance %v out of range [0,1]", a.InitialRelevance)
	}
	*c = CandidateDriver(a)
	return nil
}

// SignalEvidence is one piece of supporting evidence for a driver.
type SignalEvidence struct {
	Summary  string `json:"summary"`
	Citation string `json:"citation"`
	Recency  string `json:"recency,omitempty"`
}

// ScoredDriver is a driver that survived precondition and evidence
// validation, carrying the final model assessment.
type ScoredDriver struct {
	Name                string           `json:"name"`
	Category            SteepCategory    `json:"category"`
	Mechanism           string           `json:"mechanism"`
	Directionality      Directionality   `json:"directionality"`
	Signals             []SignalEvidence `json:"signals,omitempty"`
	DirectionOfPressure string           `json:"direction_of_pressure"`
	Strength            DriverStrength   `json:"strength"`
	Uncertainty         string           `json:"uncertainty"`
}

// DisplayText renders a single driver as a markdown fragment.
func (d ScoredDriver) DisplayText() string {
	return fmt.Sprintf("**%s** [%s] (%s, %s): %s. %s.",
		d.Name, d.Category.Title(), d.Strength, d.Directionality,
		d.Mechanism, d.DirectionOfPressure)
}

// DriversToMarkdown renders a driver list as a markdown bullet list.
func DriversToMarkdown(drivers []ScoredDriver) string {
	if len(drivers) == 0 {
		return "No drivers identified."
	}
	lines := make([]string, 0, len(drivers))
	for _, d := range drivers {
		lines = append(lines, "- "+d.DisplayText())
	}
	return strings.Join(lines, "\n")
}

// DriverAssessment is the index-keyed scoring response for one driver.
// The index refers into the ordered driver list sent in the same call.
type DriverAssessment struct {
	Index               int            `json:"index"`
	DirectionOfPressure string         `json:"direction_of_pressure"`
	Strength            DriverStrength `json:"strength"`
	Uncertainty         string         `json:"uncertainty"`
}
