package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
	"reflectionToQuestionRatio": 1.5,
	"percentComplexReflections": 40,
	"percentOpenQuestions": 60,
	"miAdherentResponses": 7,
	"spiritOfMIAdherence": 85,
	"changeTalkIdentification": {
		"preparatory": ["I want to feel better"],
		"mobilizing": []
	},
	"overallAdherenceScore": 78.5,
	"reasoning": "Reflections outnumber questions and open questions dominate."
}`

func TestParse_ValidPayload(t *testing.T) {
	metrics, err := Parse(validPayload)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, metrics.ReflectionToQuestionRatio, 1e-9)
	assert.Equal(t, 7, metrics.MIAdherentResponses)
	assert.InDelta(t, 78.5, metrics.OverallAdherenceScore, 1e-9)
	assert.Equal(t, []string{"I want to feel better"}, metrics.ChangeTalkIdentification.Preparatory)
	assert.Empty(t, metrics.ChangeTalkIdentification.Mobilizing)
	assert.NotEmpty(t, metrics.Reasoning)
}

func TestParse_RepairsTrailingComma(t *testing.T) {
	defective := `{
		"reflectionToQuestionRatio": 2,
		"percentComplexReflections": 50,
		"percentOpenQuestions": 70,
		"miAdherentResponses": 3,
		"spiritOfMIAdherence": 90,
		"changeTalkIdentification": {"preparatory": [], "mobilizing": ["I will cut back"],},
		"overallAdherenceScore": 80,
		"reasoning": "ok",
	}`
	metrics, err := Parse(defective)
	require.NoError(t, err)
	assert.Equal(t, []string{"I will cut back"}, metrics.ChangeTalkIdentification.Mobilizing)
}

func TestParse_EmptyPayload(t *testing.T) {
	_, err := Parse("")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_NonJSONPayload(t *testing.T) {
	_, err := Parse("The counselor did a great job reflecting the client's ambivalence.")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
