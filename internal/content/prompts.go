package content

import (
	"fmt"
	"strings"

	"github.com/skillcompass/skillcompass/pkg/types"
)

const questionSystemPrompt = `You are a career-assessment author. You write short,
concrete self-assessment questions that reveal how strongly a person uses a given
skill in practice. Every question has exactly four answer choices ordered from
strongest signal (weight 3) to weakest (weight 0). Questions must be answerable by
someone with no technical vocabulary. Respond with JSON only.`

const analysisSystemPrompt = `You are a career advisor. Given a person's ranked
skill scores from a multi-phase self assessment, you produce an honest, specific
career analysis: a short summary, their strengths, career matches with fit scores
and rationales, skill gaps with priorities, and a sequenced learning path.
Be concrete and avoid generic advice. Respond with JSON only.`

// AnswerSummary condenses one answered question for prompt context.
type AnswerSummary struct {
	Skill  string
	Text   string
	Choice string
	Weight int
}

// QuestionPrompt builds the user prompt for generating a phase question set.
func QuestionPrompt(phase, field string, skills []string, perSkill int, history []AnswerSummary) string {
	var b strings.Builder

	switch phase {
	case types.PhaseInitial:
		fmt.Fprintf(&b, "Write %d first-impression questions for each of these skills: %s.\n",
			perSkill, strings.Join(skills, ", "))
		b.WriteString("Each question should gauge natural affinity for the skill.\n")
	case types.PhaseDeepDive:
		fmt.Fprintf(&b, "Write %d deep-dive questions for each of these skills: %s.\n",
			perSkill, strings.Join(skills, ", "))
		b.WriteString("These skills ranked highest so far; probe depth of real-world practice, not affinity.\n")
	case types.PhaseValidation:
		b.WriteString("Write 3 short validation questions that check whether the profile below is consistent with how the person actually works.\n")
	}

	if field != "" {
		if f, ok := FieldByID(field); ok {
			fmt.Fprintf(&b, "The person is exploring a career in %s.\n", f.Name)
		}
	}

	if len(history) > 0 {
		b.WriteString("\nTheir answers so far:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "- [%s] %q -> %q (weight %d)\n", h.Skill, h.Text, h.Choice, h.Weight)
		}
	}

	b.WriteString("\nReturn a JSON object with a \"questions\" array. Each question has ")
	b.WriteString("\"skill\", \"text\", and a \"choices\" array of exactly four {\"text\", \"weight\"} objects with weights 3, 2, 1, 0.")

	return b.String()
}

// AnalysisPrompt builds the user prompt for generating the career analysis.
func AnalysisPrompt(field string, scores []types.SkillScore, history []AnswerSummary) string {
	var b strings.Builder

	b.WriteString("Produce a career analysis for a person with these ranked skill scores:\n")
	for _, s := range scores {
		fmt.Fprintf(&b, "- #%d %s: %.1f\n", s.Rank, s.Skill, s.Score)
	}

	if field != "" {
		if f, ok := FieldByID(field); ok {
			fmt.Fprintf(&b, "They are exploring a career in %s.\n", f.Name)
		}
	}

	if len(history) > 0 {
		b.WriteString("\nSelected answers for context:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "- [%s] %q -> %q (weight %d)\n", h.Skill, h.Text, h.Choice, h.Weight)
		}
	}

	b.WriteString("\nReturn a JSON object with \"summary\", \"strengths\" (array of strings), ")
	b.WriteString("\"career_matches\" (array of {\"title\", \"fit_score\" 0-100, \"rationale\"}), ")
	b.WriteString("\"skill_gaps\" (array of {\"skill\", \"priority\" one of critical/high/medium, \"suggestion\"}), ")
	b.WriteString("and \"learning_path\" (array of {\"title\", \"description\", \"duration\"}).")

	return b.String()
}
