package content

import "github.com/skillcompass/skillcompass/internal/llm"

// QuestionSetSchema is the structured-output schema for question generation.
func QuestionSetSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "question-set",
		Description: "A set of career-assessment questions with weighted choices",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"skill": map[string]any{"type": "string"},
							"text":  map[string]any{"type": "string", "minLength": 10},
							"choices": map[string]any{
								"type":     "array",
								"minItems": 4,
								"maxItems": 4,
								"items": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"text":   map[string]any{"type": "string"},
										"weight": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
									},
									"required": []any{"text", "weight"},
								},
							},
						},
						"required": []any{"text", "choices"},
					},
				},
			},
			"required": []any{"questions"},
		},
	}
}

// AnalysisSchema is the structured-output schema for the career analysis.
func AnalysisSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "career-analysis",
		Description: "A career analysis report with strengths, matches, gaps, and a learning path",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{"type": "string", "minLength": 20},
				"strengths": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"type": "string"},
				},
				"career_matches": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":     map[string]any{"type": "string"},
							"fit_score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
							"rationale": map[string]any{"type": "string"},
						},
						"required": []any{"title", "fit_score", "rationale"},
					},
				},
				"skill_gaps": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"skill":      map[string]any{"type": "string"},
							"priority":   map[string]any{"type": "string", "enum": []any{"critical", "high", "medium"}},
							"suggestion": map[string]any{"type": "string"},
						},
						"required": []any{"skill", "priority", "suggestion"},
					},
				},
				"learning_path": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
							"duration":    map[string]any{"type": "string"},
						},
						"required": []any{"title", "description", "duration"},
					},
				},
			},
			"required": []any{"summary", "strengths", "career_matches", "skill_gaps", "learning_path"},
		},
	}
}
