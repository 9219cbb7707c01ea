// Package analysis defines the Motivational Interviewing adherence metrics
// produced by the monitor assistant and the structured-output constraint
// used to obtain them.
package analysis

// ChangeTalk lists the client utterances the analysis classified as change
// talk, split by type.
type ChangeTalk struct {
	Preparatory []string `json:"preparatory"`
	Mobilizing  []string `json:"mobilizing"`
}

// MIMetrics is the immutable snapshot of one analyzed message or transcript.
// Percentages are conceptually in [0,100]; ratios are non-negative.
type MIMetrics struct {
	ReflectionToQuestionRatio float64    `json:"reflectionToQuestionRatio"`
	PercentComplexReflections float64    `json:"percentComplexReflections"`
	PercentOpenQuestions      float64    `json:"percentOpenQuestions"`
	MIAdherentResponses       int        `json:"miAdherentResponses"`
	SpiritOfMIAdherence       float64    `json:"spiritOfMIAdherence"`
	ChangeTalkIdentification  ChangeTalk `json:"changeTalkIdentification"`
	OverallAdherenceScore     float64    `json:"overallAdherenceScore"`
	Reasoning                 string     `json:"reasoning"`
}

// ResponseFormat returns the json_schema response constraint for an analysis
// run. The monitor assistant's reply must conform to the MIMetrics shape;
// free-form text replies are not a supported mode.
func ResponseFormat() any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "analyze_motivational_interviewing",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reflectionToQuestionRatio": map[string]any{"type": "number"},
					"percentComplexReflections": map[string]any{"type": "number"},
					"percentOpenQuestions":      map[string]any{"type": "number"},
					"miAdherentResponses":       map[string]any{"type": "integer"},
					"spiritOfMIAdherence":       map[string]any{"type": "number"},
					"changeTalkIdentification": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"preparatory": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"mobilizing":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						},
						"required":             []string{"preparatory", "mobilizing"},
						"additionalProperties": false,
					},
					"overallAdherenceScore": map[string]any{"type": "number"},
					"reasoning":             map[string]any{"type": "string"},
				},
				"required": []string{
					"reflectionToQuestionRatio",
					"percentComplexReflections",
					"percentOpenQuestions",
					"miAdherentResponses",
					"spiritOfMIAdherence",
					"changeTalkIdentification",
					"overallAdherenceScore",
					"reasoning",
				},
				"additionalProperties": false,
			},
		},
	}
}

// Instructions is the analysis prompt handed to the monitor assistant along
// with its knowledge-base files.
const Instructions = `Analyze the given message for Motivational Interviewing (MI) adherence.
Use the knowledge from the files in your knowledge base:
1. complete-miti-json.json
2. spirit_of_MI.txt
3. mi_knowledge_base.json

Respond with a structured analysis conforming to the declared schema.`
