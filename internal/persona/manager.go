package persona

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/mipractice/mipractice/internal/analysis"
)

// Manager owns persona lifecycle concerns that sit above the orchestration
// flow: enum validation, locally-unique ids for the non-thread-bound persona
// representation, prompt construction, and the structured-output schemas for
// persona creation and updates.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// NewLocalID returns a locally-unique persona identifier.
func (m *Manager) NewLocalID() string {
	return "persona-" + uuid.New().String()
}

// Validate checks both enumerations, rejecting anything outside the allowed
// sets before a single remote call happens.
func (m *Manager) Validate(scenarioType, changeReadiness string) (ScenarioType, ChangeReadiness, error) {
	scenario, err := ParseScenarioType(scenarioType)
	if err != nil {
		return "", "", err
	}
	readiness, err := ParseChangeReadiness(changeReadiness)
	if err != nil {
		return "", "", err
	}
	return scenario, readiness, nil
}

// CreatePrompt is the message appended to a fresh thread to request a new
// persona.
func (m *Manager) CreatePrompt(scenario ScenarioType, readiness ChangeReadiness) string {
	return fmt.Sprintf("Create a persona for a %s scenario with %s change readiness.", scenario, readiness)
}

// UpdatePrompt asks the model to evolve the persona from a session summary.
func (m *Manager) UpdatePrompt(current *Persona, sessionData string) string {
	profile, _ := json.Marshal(current)
	return fmt.Sprintf("Based on this session summary, update the persona.\n\nCurrent persona: %s\n\nSession summary: %s", profile, sessionData)
}

// RoleplayInstructions renders the system message that puts the persona
// assistant in character.
func (m *Manager) RoleplayInstructions(p *Persona) string {
	return fmt.Sprintf(`You are role-playing as a person with the following characteristics:
Name: %s
Age: %d
Background: %s
Health Issue: %s
Change Readiness: %s
Personality Traits: %s

Respond to the user's messages in character, based on these traits and your current state of change readiness regarding your health issue.`,
		p.Name, p.Age, p.Background, p.HealthIssue, p.ChangeReadiness,
		strings.Join(p.PersonalityTraits, ", "))
}

// CreateResponseFormat constrains persona creation to the Persona shape.
func (m *Manager) CreateResponseFormat() any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "create_persona",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":               map[string]any{"type": "string"},
					"age":                map[string]any{"type": "integer"},
					"background":         map[string]any{"type": "string"},
					"health_issue":       map[string]any{"type": "string"},
					"change_readiness":   map[string]any{"type": "string", "enum": readinessStrings()},
					"personality_traits": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{
					"name", "age", "background", "health_issue",
					"change_readiness", "personality_traits",
				},
				"additionalProperties": false,
			},
		},
	}
}

// UpdateResponseFormat constrains persona updates to the mutable subset.
func (m *Manager) UpdateResponseFormat() any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "update_persona",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"stage_of_change": map[string]any{"type": "string", "enum": readinessStrings()},
					"emotional_state": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"primary_emotion": map[string]any{"type": "string"},
							"intensity":       map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
						},
						"required":             []string{"primary_emotion", "intensity"},
						"additionalProperties": false,
					},
					"rapport_level":      map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
					"significant_events": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{
					"stage_of_change", "emotional_state",
					"rapport_level", "significant_events",
				},
				"additionalProperties": false,
			},
		},
	}
}

// ParsePersona decodes a structured persona payload, repairing minor JSON
// defects first. Malformed payloads surface as the shared parse error type.
func (m *Manager) ParsePersona(raw string) (*Persona, error) {
	var p Persona
	if err := decodeStructured(raw, &p); err != nil {
		return nil, err
	}
	if p.Name == "" || p.Background == "" || p.HealthIssue == "" || p.ChangeReadiness == "" {
		return nil, &analysis.ParseError{Reason: "persona payload missing required fields"}
	}
	return &p, nil
}

// ParseUpdate decodes a structured persona-update payload.
func (m *Manager) ParseUpdate(raw string) (*Update, error) {
	var u Update
	if err := decodeStructured(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func decodeStructured(raw string, out any) error {
	if raw == "" {
		return &analysis.ParseError{Reason: "empty structured payload"}
	}
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return &analysis.ParseError{Reason: fmt.Sprintf("irreparable JSON: %v", err)}
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return &analysis.ParseError{Reason: fmt.Sprintf("repaired payload does not match schema: %v", err)}
	}
	return nil
}
