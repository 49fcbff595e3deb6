package domain

import "fmt"

// PreconditionStatus classifies whether an observable precondition
// currently holds. Set only after evidence search.
type PreconditionStatus string

const (
	PreconditionEmerging PreconditionStatus = "emerging"
	PreconditionStable   PreconditionStatus = "stable"
	PreconditionAbsent   PreconditionStatus = "absent"
	PreconditionContrary PreconditionStatus = "contrary"
)

var preconditionStatuses = []PreconditionStatus{
	PreconditionEmerging,
	PreconditionStable,
	PreconditionAbsent,
	PreconditionContrary,
}

func ParsePreconditionStatus(s string) (PreconditionStatus, error) {
	if l, ok := matchLabel(s, labelsOf(preconditionStatuses)); ok {
		return PreconditionStatus(l), nil
	}
	return "", fmt.Errorf("unknown precondition status: %q", s)
}

// Met reports whether the status counts toward precondition alignment.
func (s PreconditionStatus) Met() bool {
	return s == PreconditionEmerging || s == PreconditionStable
}

// Precondition is an observable condition required for a driver to become
// dominant. Status, EvidenceSummary and Citations are filled in during
// evidence validation; everything else is immutable after creation.
type Precondition struct {
	Description     string             `json:"description"`
	Rationale       string             `json:"rationale"`
	Status          PreconditionStatus `json:"status,omitempty"`
	EvidenceSummary string             `json:"evidence_summary,omitempty"`
	Citations       []string           `json:"citations,omitempty"`
}

// DominanceScenario narrates a driver becoming the primary force shaping
// the outcome. TimescalePlausibility is free text from the model; the
// pipeline maps it onto a numeric weight with a default for unknown labels.
type DominanceScenario struct {
	Description           string   `json:"scenario_description"`
	TimescalePlausibility string   `json:"timescale_plausibility"`
	SystemEffects         []string `json:"system_effects"`
}

// PreconditionAnalysis is the aggregated precondition read-out for one
// driver. AlignmentScore is derived by the pipeline, never model-set.
type PreconditionAnalysis struct {
	DriverName        string            `json:"driver_name"`
	DominanceScenario DominanceScenario `json:"dominance_scenario"`
	Preconditions     []Precondition    `json:"preconditions"`
	AlignmentScore    float64           `json:"precondition_alignment_score"`
	EmergenceLabel    string            `json:"overall_emergence_strength"`
}

// PreconditionAssessment is the index-keyed classification response for a
// single precondition. The index refers into the ordered precondition list
// of the candidate under assessment.
type PreconditionAssessment struct {
	Index           int      `json:"index"`
	Status          string   `json:"status"`
	EvidenceSummary string   `json:"evidence_summary"`
	Citations       []string `json:"citations"`
}
