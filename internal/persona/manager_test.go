package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipractice/mipractice/internal/analysis"
)

func TestValidate_AllValidPairs(t *testing.T) {
	m := NewManager()
	scenarios := []string{"chronic_illness", "addiction", "lifestyle_change", "mental_health", "preventive_care"}
	stages := []string{"pre-contemplation", "contemplation", "preparation", "action", "maintenance"}

	for _, s := range scenarios {
		for _, r := range stages {
			scenario, readiness, err := m.Validate(s, r)
			require.NoError(t, err, "pair (%s, %s)", s, r)
			assert.Equal(t, s, string(scenario))
			assert.Equal(t, r, string(readiness))
		}
	}
}

func TestValidate_InvalidScenario(t *testing.T) {
	m := NewManager()
	_, _, err := m.Validate("gambling", "contemplation")

	var invalidErr *InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "scenario_type", invalidErr.Field)
	assert.Contains(t, invalidErr.Error(), "gambling")
}

func TestValidate_InvalidReadiness(t *testing.T) {
	m := NewManager()
	_, _, err := m.Validate("addiction", "denial")

	var invalidErr *InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "change_readiness", invalidErr.Field)
}

func TestNewLocalID_Unique(t *testing.T) {
	m := NewManager()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := m.NewLocalID()
		assert.True(t, strings.HasPrefix(id, "persona-"))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestParsePersona_Valid(t *testing.T) {
	m := NewManager()
	p, err := m.ParsePersona(`{
		"name": "Marcus Webb",
		"age": 42,
		"background": "Warehouse supervisor, two kids, drinks most evenings.",
		"health_issue": "Alcohol use affecting sleep and blood pressure",
		"change_readiness": "contemplation",
		"personality_traits": ["guarded", "dry humor"]
	}`)
	require.NoError(t, err)
	assert.Equal(t, "Marcus Webb", p.Name)
	assert.Equal(t, 42, p.Age)
	assert.Equal(t, ReadinessContemplation, p.ChangeReadiness)
	assert.Len(t, p.PersonalityTraits, 2)
}

func TestParsePersona_MissingFields(t *testing.T) {
	m := NewManager()
	_, err := m.ParsePersona(`{"name": "Marcus Webb", "age": 42}`)

	var parseErr *analysis.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseUpdate_Valid(t *testing.T) {
	m := NewManager()
	u, err := m.ParseUpdate(`{
		"stage_of_change": "preparation",
		"emotional_state": {"primary_emotion": "hopeful", "intensity": 6},
		"rapport_level": 7,
		"significant_events": ["agreed to track drinking for a week"]
	}`)
	require.NoError(t, err)
	assert.Equal(t, ReadinessPreparation, u.StageOfChange)
	assert.Equal(t, "hopeful", u.EmotionalState.PrimaryEmotion)
	assert.Equal(t, 6, u.EmotionalState.Intensity)
	assert.Equal(t, 7, u.RapportLevel)
	assert.Len(t, u.SignificantEvents, 1)
}

func TestRoleplayInstructions_ContainsProfile(t *testing.T) {
	m := NewManager()
	instr := m.RoleplayInstructions(&Persona{
		Name:              "Marcus Webb",
		Age:               42,
		Background:        "Warehouse supervisor",
		HealthIssue:       "Alcohol use",
		ChangeReadiness:   ReadinessContemplation,
		PersonalityTraits: []string{"guarded", "dry humor"},
	})
	assert.Contains(t, instr, "Marcus Webb")
	assert.Contains(t, instr, "42")
	assert.Contains(t, instr, "contemplation")
	assert.Contains(t, instr, "guarded, dry humor")
}
