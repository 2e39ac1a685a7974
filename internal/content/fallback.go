package content

import (
	"fmt"

	"github.com/skillcompass/skillcompass/pkg/types"
)

// The fallback bank below is hand-written content served whenever the
// generative provider is unavailable, rate limited, or returns output that
// fails validation. Question sets and analyses built from it are flagged
// with source "fallback".

func agreementChoices() types.ChoiceList {
	return types.ChoiceList{
		{Text: "That describes me very well", Weight: 3},
		{Text: "That is mostly true for me", Weight: 2},
		{Text: "That is occasionally true for me", Weight: 1},
		{Text: "That does not describe me", Weight: 0},
	}
}

func frequencyChoices() types.ChoiceList {
	return types.ChoiceList{
		{Text: "Almost every day", Weight: 3},
		{Text: "A few times a week", Weight: 2},
		{Text: "A few times a month", Weight: 1},
		{Text: "Rarely or never", Weight: 0},
	}
}

// initialBank holds phase-1 statements per skill. Two per skill keeps the
// fallback flow short without losing signal.
var initialBank = map[string][]string{
	"problem-solving": {
		"When I hit a hard problem, I break it into smaller pieces before acting.",
		"I enjoy puzzles and open-ended problems more than routine work.",
	},
	"programming": {
		"I find writing code or scripts satisfying rather than tedious.",
		"I often automate repetitive tasks instead of doing them by hand.",
	},
	"system-design": {
		"I naturally think about how parts of a system fit together.",
		"I enjoy sketching architectures before building anything.",
	},
	"debugging": {
		"Tracking down the root cause of a failure energizes me.",
		"I form hypotheses and test them one at a time when something breaks.",
	},
	"collaboration": {
		"I do my best work when bouncing ideas off other people.",
		"Teammates come to me to coordinate work across a group.",
	},
	"testing": {
		"I think about edge cases before I consider something finished.",
		"I would rather catch a defect myself than have a user find it.",
	},
	"statistics": {
		"I question whether a pattern in data is real or just noise.",
		"I am comfortable reasoning about uncertainty and probability.",
	},
	"data-visualization": {
		"I enjoy turning raw numbers into charts people understand at a glance.",
		"I notice when a chart is misleading or poorly chosen.",
	},
	"machine-learning": {
		"I am curious about how predictive models actually work.",
		"I enjoy experimenting with models and measuring their accuracy.",
	},
	"communication": {
		"I can explain complicated topics to people outside my specialty.",
		"People tell me my writing or presentations are clear.",
	},
	"user-research": {
		"I would rather watch someone use a product than guess what they need.",
		"I ask follow-up questions until I understand the real problem.",
	},
	"visual-design": {
		"I notice spacing, color, and typography details others miss.",
		"I enjoy iterating on how something looks until it feels right.",
	},
	"prototyping": {
		"I prefer building a quick rough version over debating on paper.",
		"I treat early versions as disposable experiments.",
	},
	"empathy": {
		"I can usually tell how a decision will land with the people affected.",
		"I adapt how I communicate based on who I am talking to.",
	},
	"prioritization": {
		"I am comfortable saying no to good ideas to protect the important ones.",
		"I regularly re-order my work as new information arrives.",
	},
	"data-analysis": {
		"I reach for data before opinions when making a decision.",
		"I enjoy digging through spreadsheets or queries to answer a question.",
	},
	"strategy": {
		"I think about second-order effects of decisions, not just the immediate ones.",
		"I enjoy connecting day-to-day work to a longer-term direction.",
	},
	"stakeholder-management": {
		"I keep the people affected by my work informed before they have to ask.",
		"I am good at finding common ground between conflicting interests.",
	},
	"copywriting": {
		"I rewrite sentences until they are short and punchy.",
		"I enjoy finding the exact words that make an idea land.",
	},
	"creativity": {
		"I generate lots of ideas quickly, even if most get discarded.",
		"I enjoy approaching a problem from an unexpected angle.",
	},
	"social-media": {
		"I have a feel for what content people will engage with and share.",
		"I follow how platforms and formats change over time.",
	},
	"automation": {
		"If I do a task twice, I start thinking about how to script it.",
		"I measure success by how little manual work a process needs.",
	},
	"monitoring": {
		"I want to know a system is unhealthy before users notice.",
		"I enjoy designing dashboards and alerts that catch real problems.",
	},
	"scripting": {
		"I am comfortable gluing tools together with small scripts.",
		"I keep a collection of snippets and one-liners I reuse.",
	},
}

// deepDiveBank holds phase-2 statements per skill, probing depth rather
// than affinity.
var deepDiveBank = map[string][]string{
	"problem-solving": {
		"How often do you solve a problem by reframing it instead of pushing harder?",
		"How often do others bring you problems they are stuck on?",
	},
	"programming": {
		"How often do you read code you did not write, just to learn from it?",
		"How often do you refactor working code to make it clearer?",
	},
	"system-design": {
		"How often do you weigh trade-offs like cost and complexity explicitly?",
		"How often do you document a design before building it?",
	},
	"debugging": {
		"How often do you reproduce a bug reliably before attempting a fix?",
		"How often do you dig below the surface symptom to the underlying cause?",
	},
	"collaboration": {
		"How often do you change your approach based on a teammate's feedback?",
		"How often do you help resolve disagreements within a group?",
	},
	"communication": {
		"How often do you tailor the same message differently for different audiences?",
		"How often do you summarize a discussion so everyone leaves aligned?",
	},
	"data-analysis": {
		"How often do you check how the data was collected before trusting it?",
		"How often does your analysis change a decision someone was about to make?",
	},
	"statistics": {
		"How often do you catch a conclusion that does not follow from the data?",
		"How often do you quantify your confidence rather than just stating a result?",
	},
	"machine-learning": {
		"How often do you compare a model against a simple baseline first?",
		"How often do you investigate why a model got a prediction wrong?",
	},
	"user-research": {
		"How often do your findings contradict what the team assumed?",
		"How often do you turn raw observations into concrete recommendations?",
	},
	"prioritization": {
		"How often do you cut scope to hit a date rather than slipping it?",
		"How often do you revisit priorities when new evidence appears?",
	},
	"automation": {
		"How often does something you automated keep working untouched for months?",
		"How often do you add safeguards so automation fails loudly, not silently?",
	},
}

// validationBank is the short phase-3 confirmation set. These are generic
// on purpose: the phase checks consistency, not new ground.
var validationStatements = []string{
	"Looking back at your answers, they reflect how you actually work day to day.",
	"You would enjoy spending most of your working time on your top-rated skills.",
	"You would accept a role that centers on these strengths even if it meant learning unfamiliar tools.",
}

// FallbackQuestions builds a static question set for the given phase and
// skills. Unknown skills get generic statements so the flow never stalls.
func FallbackQuestions(phase string, skills []string, perSkill int) []QuestionDraft {
	if perSkill <= 0 {
		perSkill = 2
	}

	var drafts []QuestionDraft
	switch phase {
	case types.PhaseInitial:
		for _, skill := range skills {
			statements := initialBank[skill]
			for i := 0; i < perSkill; i++ {
				text := genericInitial(skill, i)
				if i < len(statements) {
					text = statements[i]
				}
				drafts = append(drafts, QuestionDraft{
					Skill:   skill,
					Text:    text,
					Choices: agreementChoices(),
				})
			}
		}
	case types.PhaseDeepDive:
		for _, skill := range skills {
			statements := deepDiveBank[skill]
			for i := 0; i < perSkill; i++ {
				text := genericDeepDive(skill, i)
				if i < len(statements) {
					text = statements[i]
				}
				drafts = append(drafts, QuestionDraft{
					Skill:   skill,
					Text:    text,
					Choices: frequencyChoices(),
				})
			}
		}
	case types.PhaseValidation:
		for _, text := range validationStatements {
			drafts = append(drafts, QuestionDraft{
				Text:    text,
				Choices: agreementChoices(),
			})
		}
	}
	return drafts
}

func genericInitial(skill string, i int) string {
	if i == 0 {
		return fmt.Sprintf("Work that relies heavily on %s comes naturally to me.", skillLabel(skill))
	}
	return fmt.Sprintf("I seek out opportunities to practice %s.", skillLabel(skill))
}

func genericDeepDive(skill string, i int) string {
	if i == 0 {
		return fmt.Sprintf("How often do you apply %s in situations with real stakes?", skillLabel(skill))
	}
	return fmt.Sprintf("How often do others rely on your %s?", skillLabel(skill))
}

// careerBank maps a top-ranked skill to hand-written career matches.
var careerBank = map[string][]types.CareerMatch{
	"problem-solving": {
		{Title: "Software Engineer", FitScore: 88, Rationale: "Daily work is decomposing and solving novel problems."},
		{Title: "Solutions Architect", FitScore: 80, Rationale: "Matches customer problems to technical solutions."},
	},
	"programming": {
		{Title: "Backend Engineer", FitScore: 90, Rationale: "Deep, sustained programming work on core systems."},
		{Title: "Developer Tools Engineer", FitScore: 82, Rationale: "Builds the software other programmers rely on."},
	},
	"system-design": {
		{Title: "Software Architect", FitScore: 88, Rationale: "Owns structure and trade-offs of large systems."},
		{Title: "Site Reliability Engineer", FitScore: 79, Rationale: "Designs for failure, scale, and operability."},
	},
	"debugging": {
		{Title: "Site Reliability Engineer", FitScore: 86, Rationale: "Incident response rewards systematic root-cause work."},
		{Title: "Quality Engineer", FitScore: 78, Rationale: "Finds and characterizes defects before release."},
	},
	"statistics": {
		{Title: "Data Scientist", FitScore: 89, Rationale: "Statistical reasoning is the core of the role."},
		{Title: "Quantitative Analyst", FitScore: 81, Rationale: "Applies probability to high-stakes decisions."},
	},
	"machine-learning": {
		{Title: "Machine Learning Engineer", FitScore: 90, Rationale: "Builds and ships predictive models end to end."},
		{Title: "Research Engineer", FitScore: 80, Rationale: "Bridges research ideas and working systems."},
	},
	"communication": {
		{Title: "Product Manager", FitScore: 85, Rationale: "Aligning people through clear communication is the job."},
		{Title: "Developer Advocate", FitScore: 80, Rationale: "Explains technical ideas to broad audiences."},
	},
	"user-research": {
		{Title: "UX Researcher", FitScore: 90, Rationale: "Full-time study of what users actually need."},
		{Title: "Product Designer", FitScore: 81, Rationale: "Research-informed design decisions daily."},
	},
	"visual-design": {
		{Title: "Product Designer", FitScore: 89, Rationale: "Craft and visual judgment applied to real products."},
		{Title: "Brand Designer", FitScore: 80, Rationale: "Visual identity work rewards a strong eye."},
	},
	"data-analysis": {
		{Title: "Data Analyst", FitScore: 88, Rationale: "Turning raw data into decisions is the whole role."},
		{Title: "Growth Analyst", FitScore: 80, Rationale: "Experiment analysis drives product growth."},
	},
	"prioritization": {
		{Title: "Product Manager", FitScore: 87, Rationale: "Ruthless prioritization under constraints is central."},
		{Title: "Program Manager", FitScore: 80, Rationale: "Sequencing work across teams and deadlines."},
	},
	"automation": {
		{Title: "DevOps Engineer", FitScore: 89, Rationale: "Automating delivery and operations is the mandate."},
		{Title: "Platform Engineer", FitScore: 82, Rationale: "Builds self-service infrastructure for other teams."},
	},
	"copywriting": {
		{Title: "Content Marketer", FitScore: 87, Rationale: "Persuasive writing drives the channel."},
		{Title: "UX Writer", FitScore: 79, Rationale: "Precise microcopy shapes product experiences."},
	},
}

var genericMatches = []types.CareerMatch{
	{Title: "Generalist Product Roles", FitScore: 72, Rationale: "A balanced profile fits roles that span disciplines."},
	{Title: "Technical Project Coordinator", FitScore: 68, Rationale: "Broad strengths suit coordinating varied work."},
}

// FallbackAnalysis builds a static career analysis from ranked skill scores.
func FallbackAnalysis(field string, scores []types.SkillScore) *types.ReportContent {
	top := topSkills(scores, 3)
	weak := bottomSkills(scores, 2)

	strengths := make([]string, 0, len(top))
	for _, s := range top {
		strengths = append(strengths, fmt.Sprintf("Strong %s, ranked #%d across your answers", skillLabel(s.Skill), s.Rank))
	}

	var matches []types.CareerMatch
	seen := make(map[string]bool)
	for _, s := range top {
		for _, m := range careerBank[s.Skill] {
			if !seen[m.Title] {
				seen[m.Title] = true
				matches = append(matches, m)
			}
		}
	}
	if len(matches) == 0 {
		matches = append(matches, genericMatches...)
	}
	if len(matches) > 4 {
		matches = matches[:4]
	}

	gaps := make([]types.SkillGap, 0, len(weak))
	for i, s := range weak {
		priority := types.GapPriorityMedium
		if i == 0 {
			priority = types.GapPriorityHigh
		}
		gaps = append(gaps, types.SkillGap{
			Skill:      s.Skill,
			Priority:   priority,
			Suggestion: fmt.Sprintf("Practice %s deliberately: pick one small project a week that depends on it.", skillLabel(s.Skill)),
		})
	}

	path := []types.LearningStep{
		{
			Title:       "Consolidate your strengths",
			Description: fmt.Sprintf("Take on work that centers on %s so your strongest skill compounds.", labelList(top)),
			Duration:    "4 weeks",
		},
		{
			Title:       "Close the highest-priority gap",
			Description: "Pick the top skill gap above and practice it in a low-stakes setting with feedback.",
			Duration:    "6 weeks",
		},
		{
			Title:       "Test a target role",
			Description: "Shadow, interview, or take a small freelance project in your best-matched career.",
			Duration:    "4 weeks",
		},
	}

	summary := fmt.Sprintf(
		"Your answers point to %s as your standout strengths. The matches below favor roles where those skills are central.",
		labelList(top),
	)
	if field != "" {
		if f, ok := FieldByID(field); ok {
			summary = fmt.Sprintf(
				"Within %s, your answers point to %s as your standout strengths. The matches below favor roles where those skills are central.",
				f.Name, labelList(top),
			)
		}
	}

	return &types.ReportContent{
		Summary:       summary,
		Strengths:     strengths,
		CareerMatches: matches,
		SkillGaps:     gaps,
		LearningPath:  path,
	}
}

func topSkills(scores []types.SkillScore, n int) []types.SkillScore {
	if len(scores) < n {
		n = len(scores)
	}
	return scores[:n]
}

func bottomSkills(scores []types.SkillScore, n int) []types.SkillScore {
	if len(scores) < n {
		n = len(scores)
	}
	out := make([]types.SkillScore, 0, n)
	for i := len(scores) - n; i < len(scores); i++ {
		out = append(out, scores[i])
	}
	return out
}

func labelList(scores []types.SkillScore) string {
	switch len(scores) {
	case 0:
		return "a balanced skill set"
	case 1:
		return skillLabel(scores[0].Skill)
	case 2:
		return skillLabel(scores[0].Skill) + " and " + skillLabel(scores[1].Skill)
	default:
		return skillLabel(scores[0].Skill) + ", " + skillLabel(scores[1].Skill) + ", and " + skillLabel(scores[2].Skill)
	}
}

func skillLabel(skill string) string {
	out := make([]byte, len(skill))
	for i := 0; i < len(skill); i++ {
		if skill[i] == '-' {
			out[i] = ' '
		} else {
			out[i] = skill[i]
		}
	}
	return string(out)
}
