package assessment

import (
	"sort"

	"github.com/google/uuid"

	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// ComputeScores derives per-skill scores from answered questions. The score
// for a skill is the sum of the chosen choice weights across its questions.
// Results are sorted by score descending; ties break by catalog order so
// ranking is deterministic.
func ComputeScores(questions []*types.Question, answers []*types.Answer) []types.SkillScore {
	byID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	totals := make(map[string]float64)
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || q.Skill == "" {
			continue
		}
		if a.ChoiceIndex < 0 || a.ChoiceIndex >= len(q.Choices) {
			continue
		}
		totals[q.Skill] += float64(q.Choices[a.ChoiceIndex].Weight)
	}

	scores := make([]types.SkillScore, 0, len(totals))
	for skill, total := range totals {
		scores = append(scores, types.SkillScore{Skill: skill, Score: total})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return content.SkillOrder(scores[i].Skill) < content.SkillOrder(scores[j].Skill)
	})

	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// TopSkills returns the n highest-ranked skill names.
func TopSkills(scores []types.SkillScore, n int) []string {
	if len(scores) < n {
		n = len(scores)
	}
	out := make([]string, 0, n)
	for _, s := range scores[:n] {
		out = append(out, s.Skill)
	}
	return out
}
