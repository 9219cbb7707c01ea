package persona

import (
	"fmt"
	"strings"
)

// ScenarioType selects the practice scenario the simulated patient presents.
type ScenarioType string

const (
	ScenarioChronicIllness  ScenarioType = "chronic_illness"
	ScenarioAddiction       ScenarioType = "addiction"
	ScenarioLifestyleChange ScenarioType = "lifestyle_change"
	ScenarioMentalHealth    ScenarioType = "mental_health"
	ScenarioPreventiveCare  ScenarioType = "preventive_care"
)

// ChangeReadiness is the patient's stage in the transtheoretical model of
// behavior change.
type ChangeReadiness string

const (
	ReadinessPreContemplation ChangeReadiness = "pre-contemplation"
	ReadinessContemplation    ChangeReadiness = "contemplation"
	ReadinessPreparation      ChangeReadiness = "preparation"
	ReadinessAction           ChangeReadiness = "action"
	ReadinessMaintenance      ChangeReadiness = "maintenance"
)

var scenarioTypes = []ScenarioType{
	ScenarioChronicIllness,
	ScenarioAddiction,
	ScenarioLifestyleChange,
	ScenarioMentalHealth,
	ScenarioPreventiveCare,
}

var readinessStages = []ChangeReadiness{
	ReadinessPreContemplation,
	ReadinessContemplation,
	ReadinessPreparation,
	ReadinessAction,
	ReadinessMaintenance,
}

// InvalidArgumentError rejects input outside the allowed enumerations. It is
// raised locally, before any remote call is made.
type InvalidArgumentError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// EmotionalState captures the persona's current primary emotion and its
// intensity on a 1..10 scale.
type EmotionalState struct {
	PrimaryEmotion string `json:"primary_emotion"`
	Intensity      int    `json:"intensity"`
}

// Persona is the simulated patient's profile plus the psychological state
// that evolves across sessions.
type Persona struct {
	ID                string          `json:"id,omitempty"`
	Name              string          `json:"name"`
	Age               int             `json:"age"`
	Background        string          `json:"background"`
	HealthIssue       string          `json:"health_issue"`
	ChangeReadiness   ChangeReadiness `json:"change_readiness"`
	PersonalityTraits []string        `json:"personality_traits"`

	// Mutable subset, updated after each session from a summary.
	StageOfChange     ChangeReadiness `json:"stage_of_change,omitempty"`
	EmotionalState    *EmotionalState `json:"emotional_state,omitempty"`
	RapportLevel      int             `json:"rapport_level,omitempty"`
	SignificantEvents []string        `json:"significant_events,omitempty"`
}

// Update is the subset of persona state a session summary may change.
type Update struct {
	StageOfChange     ChangeReadiness `json:"stage_of_change"`
	EmotionalState    EmotionalState  `json:"emotional_state"`
	RapportLevel      int             `json:"rapport_level"`
	SignificantEvents []string        `json:"significant_events"`
}

func ParseScenarioType(s string) (ScenarioType, error) {
	for _, t := range scenarioTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &InvalidArgumentError{Field: "scenario_type", Value: s, Allowed: scenarioStrings()}
}

func ParseChangeReadiness(s string) (ChangeReadiness, error) {
	for _, r := range readinessStages {
		if string(r) == s {
			return r, nil
		}
	}
	return "", &InvalidArgumentError{Field: "change_readiness", Value: s, Allowed: readinessStrings()}
}

func scenarioStrings() []string {
	out := make([]string, len(scenarioTypes))
	for i, t := range scenarioTypes {
		out[i] = string(t)
	}
	return out
}

func readinessStrings() []string {
	out := make([]string, len(readinessStages))
	for i, r := range readinessStages {
		out[i] = string(r)
	}
	return out
}
