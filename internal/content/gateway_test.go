package content

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass/internal/llm"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/types"
)

func questionSetJSON(t *testing.T, drafts []QuestionDraft) json.RawMessage {
	t.Helper()
	payload := map[string]any{"questions": drafts}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func sampleDrafts() []QuestionDraft {
	return []QuestionDraft{
		{
			Skill: "debugging",
			Text:  "How do you react when a system fails in a way you have never seen?",
			Choices: types.ChoiceList{
				{Text: "I dig in immediately", Weight: 3},
				{Text: "I ask for help first", Weight: 2},
				{Text: "I wait for someone else", Weight: 1},
				{Text: "I avoid it", Weight: 0},
			},
		},
	}
}

func TestGenerateQuestions_ProviderSuccess(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: questionSetJSON(t, sampleDrafts()),
	})
	gw := NewGateway(provider, nil, nil, nil)

	drafts, source := gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:  types.PhaseInitial,
		Skills: []string{"debugging"},
	})

	assert.Equal(t, types.SourceAI, source)
	require.Len(t, drafts, 1)
	assert.Equal(t, "debugging", drafts[0].Skill)
	assert.Len(t, drafts[0].Choices, 4)
	assert.Equal(t, 1, provider.CallCount())
}

func TestGenerateQuestions_NilProviderFallsBack(t *testing.T) {
	gw := NewGateway(nil, nil, nil, nil)

	drafts, source := gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:    types.PhaseInitial,
		Skills:   []string{"debugging", "collaboration"},
		PerSkill: 2,
	})

	assert.Equal(t, types.SourceFallback, source)
	assert.Len(t, drafts, 4)
	for _, d := range drafts {
		assert.NotEmpty(t, d.Text)
		assert.Len(t, d.Choices, 4)
	}
}

func TestGenerateQuestions_ProviderErrorFallsBack(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrInvalidResponse{Err: assert.AnError},
	})
	gw := NewGateway(provider, nil, nil, nil)

	drafts, source := gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:    types.PhaseInitial,
		Skills:   []string{"programming"},
		PerSkill: 2,
	})

	assert.Equal(t, types.SourceFallback, source)
	assert.Len(t, drafts, 2)
	// Invalid output is not retried.
	assert.Equal(t, 1, provider.CallCount())
}

func TestGenerateQuestions_RetriesTransientErrors(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
		llm.MockResponse{Content: questionSetJSON(t, sampleDrafts())},
	)
	gw := NewGateway(provider, nil, nil, nil)

	drafts, source := gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:  types.PhaseInitial,
		Skills: []string{"debugging"},
	})

	assert.Equal(t, types.SourceAI, source)
	assert.Len(t, drafts, 1)
	assert.Equal(t, 2, provider.CallCount())
}

func TestGenerateQuestions_EmptySetFallsBack(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"questions": []}`),
	})
	gw := NewGateway(provider, nil, nil, nil)

	drafts, source := gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:    types.PhaseInitial,
		Skills:   []string{"debugging"},
		PerSkill: 2,
	})

	assert.Equal(t, types.SourceFallback, source)
	assert.NotEmpty(t, drafts)
}

func TestGenerateQuestions_RequestCarriesGenerationSettings(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: questionSetJSON(t, sampleDrafts()),
	})
	gw := NewGateway(provider, nil, nil, &config.AIConfig{
		MaxTokens:   1024,
		Temperature: 0.2,
		MaxAttempts: 1,
	})

	_, source := gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:  types.PhaseInitial,
		Skills: []string{"debugging"},
	})

	assert.Equal(t, types.SourceAI, source)
	require.Len(t, provider.Calls, 1)
	assert.Equal(t, 1024, provider.Calls[0].MaxTokens)
	assert.Equal(t, 0.2, provider.Calls[0].Temperature)
}

func TestGenerateQuestions_DefaultGenerationSettings(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: questionSetJSON(t, sampleDrafts()),
	})
	gw := NewGateway(provider, nil, nil, nil)

	_, _ = gw.GenerateQuestions(context.Background(), QuestionRequest{
		Phase:  types.PhaseInitial,
		Skills: []string{"debugging"},
	})

	require.Len(t, provider.Calls, 1)
	assert.Equal(t, 4096, provider.Calls[0].MaxTokens)
	assert.Equal(t, 0.7, provider.Calls[0].Temperature)
}

func TestGenerateAnalysis_ProviderSuccess(t *testing.T) {
	content := types.ReportContent{
		Summary:   "You show a strong bias toward systematic investigation.",
		Strengths: []string{"Methodical debugging under pressure"},
		CareerMatches: []types.CareerMatch{
			{Title: "Site Reliability Engineer", FitScore: 88, Rationale: "Root-cause work is the job."},
		},
		SkillGaps: []types.SkillGap{
			{Skill: "communication", Priority: types.GapPriorityMedium, Suggestion: "Write up one incident per week."},
		},
		LearningPath: []types.LearningStep{
			{Title: "Run an incident review", Description: "Lead a postmortem end to end.", Duration: "2 weeks"},
		},
	}
	data, err := json.Marshal(content)
	require.NoError(t, err)

	provider := llm.NewMockProvider(llm.MockResponse{Content: data})
	gw := NewGateway(provider, nil, nil, nil)

	got, source := gw.GenerateAnalysis(context.Background(), AnalysisRequest{
		Scores: []types.SkillScore{{Skill: "debugging", Score: 10, Rank: 1}},
	})

	assert.Equal(t, types.SourceAI, source)
	assert.Equal(t, content.Summary, got.Summary)
	require.Len(t, got.CareerMatches, 1)
}

func TestGenerateAnalysis_FallbackNeverFails(t *testing.T) {
	gw := NewGateway(nil, nil, nil, nil)

	scores := []types.SkillScore{
		{Skill: "debugging", Score: 11, Rank: 1},
		{Skill: "programming", Score: 9, Rank: 2},
		{Skill: "collaboration", Score: 4, Rank: 3},
	}

	got, source := gw.GenerateAnalysis(context.Background(), AnalysisRequest{Scores: scores})

	assert.Equal(t, types.SourceFallback, source)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.Summary)
	assert.NotEmpty(t, got.Strengths)
	assert.NotEmpty(t, got.CareerMatches)
	assert.NotEmpty(t, got.LearningPath)
}

func TestFallbackQuestions_ValidationPhase(t *testing.T) {
	drafts := FallbackQuestions(types.PhaseValidation, []string{"debugging"}, 2)

	assert.Len(t, drafts, 3)
	for _, d := range drafts {
		assert.Empty(t, d.Skill)
		assert.Len(t, d.Choices, 4)
	}
}

func TestFallbackQuestions_UnknownSkillGetsGenericText_TwoDrafts(t *testing.T) {
	drafts := FallbackQuestions(types.PhaseInitial, []string{"underwater-basket-weaving"}, 2)

	require.Len(t, drafts, 2)
	assert.Contains(t, drafts[0].Text, "underwater basket weaving")
}

func TestFallbackAnalysis_FieldContext(t *testing.T) {
	scores := []types.SkillScore{
		{Skill: "statistics", Score: 12, Rank: 1},
		{Skill: "programming", Score: 8, Rank: 2},
	}

	report := FallbackAnalysis("data-science", scores)

	assert.Contains(t, report.Summary, "Data Science")
	assert.NotEmpty(t, report.SkillGaps)
}
