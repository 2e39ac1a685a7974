package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/logging"
	"github.com/skillcompass/skillcompass/pkg/metrics"
	"github.com/skillcompass/skillcompass/pkg/types"
)

const (
	// questionsPerSkill is how many questions each phase asks per skill.
	questionsPerSkill = 2
	// focusSkillCount is how many top-ranked skills the deep-dive targets.
	focusSkillCount = 3
)

// Service orchestrates the multi-phase assessment flow: creation, question
// issuance, answer collection, phase advancement, and skill ranking.
type Service struct {
	repos   *database.Repositories
	gateway *content.Gateway
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewService creates an assessment service.
func NewService(repos *database.Repositories, gateway *content.Gateway, m *metrics.Metrics) *Service {
	return &Service{
		repos:   repos,
		gateway: gateway,
		metrics: m,
		logger:  logging.GetLogger(),
	}
}

// CreateInput describes a new assessment: either a catalog field or an
// explicit skill list.
type CreateInput struct {
	FieldID string   `json:"field_id"`
	Skills  []string `json:"skills"`
}

// Create starts a new assessment for the user in the initial phase.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*types.Assessment, error) {
	skills := input.Skills

	if input.FieldID != "" {
		field, ok := content.FieldByID(input.FieldID)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown field %q", input.FieldID))
		}
		if len(skills) == 0 {
			skills = field.Skills
		}
	}

	if len(skills) == 0 {
		return nil, errors.NewValidationError("either a field or at least one skill is required")
	}
	for _, skill := range skills {
		if skill == "" {
			return nil, errors.NewValidationError("skill names must not be empty")
		}
	}

	assessment := &types.Assessment{
		UserID: userID,
		Field:  input.FieldID,
		Skills: skills,
		Phase:  types.PhaseInitial,
		Status: types.AssessmentStatusActive,
	}

	if err := s.repos.Assessments.Create(ctx, assessment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssessmentsTotal.WithLabelValues(types.AssessmentStatusActive, scopeLabel(input.FieldID)).Inc()
	}
	s.logger.LogAssessmentEvent(ctx, "assessment_created", assessment.ID.String(), assessment.Phase, logrus.Fields{
		"field":       input.FieldID,
		"skill_count": len(skills),
	})

	return assessment, nil
}

func scopeLabel(fieldID string) string {
	if fieldID != "" {
		return "field"
	}
	return "skills"
}

// List returns the user's assessments, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*types.Assessment, error) {
	return s.repos.Assessments.ListByUser(ctx, userID)
}

// Get returns one assessment, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*types.Assessment, error) {
	assessment, err := s.repos.Assessments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.UserID != userID {
		return nil, errors.NewAuthorizationError("assessment belongs to another user")
	}
	return assessment, nil
}

// Questions returns the question set for the assessment's active phase,
// generating and persisting it on first request. Once issued, a phase's set
// is immutable: repeat calls return the stored questions.
func (s *Service) Questions(ctx context.Context, userID, id uuid.UUID) ([]*types.Question, error) {
	assessment, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if assessment.Phase == types.PhaseCompleted {
		return nil, errors.NewPhaseError(assessment.Phase, "assessment is complete; no further questions")
	}

	existing, err := s.repos.Questions.ListByPhase(ctx, id, assessment.Phase)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	return s.issueQuestions(ctx, assessment)
}

// issueQuestions generates the active phase's question set and persists it.
func (s *Service) issueQuestions(ctx context.Context, assessment *types.Assessment) ([]*types.Question, error) {
	skills := s.phaseSkills(assessment)

	history, err := s.History(ctx, assessment)
	if err != nil {
		return nil, err
	}

	drafts, source := s.gateway.GenerateQuestions(ctx, content.QuestionRequest{
		Scope:    assessment.ID.String(),
		Phase:    assessment.Phase,
		Field:    assessment.Field,
		Skills:   skills,
		PerSkill: questionsPerSkill,
		History:  history,
	})

	questions := make([]*types.Question, 0, len(drafts))
	for i, d := range drafts {
		questions = append(questions, &types.Question{
			ID:           uuid.New(),
			AssessmentID: assessment.ID,
			Phase:        assessment.Phase,
			Skill:        d.Skill,
			Position:     i,
			Text:         d.Text,
			Choices:      d.Choices,
			Source:       source,
		})
	}

	if err := s.repos.Questions.CreateBatch(ctx, questions); err != nil {
		// A concurrent request may have issued the set first; the stored
		// set wins so the phase stays immutable.
		stored, listErr := s.repos.Questions.ListByPhase(ctx, assessment.ID, assessment.Phase)
		if listErr == nil && len(stored) > 0 {
			return stored, nil
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.QuestionsServedTotal.WithLabelValues(assessment.Phase, source).Add(float64(len(questions)))
	}
	s.logger.LogAssessmentEvent(ctx, "questions_issued", assessment.ID.String(), assessment.Phase, logrus.Fields{
		"count":  len(questions),
		"source": source,
	})

	return questions, nil
}

// phaseSkills picks which skills the active phase covers.
func (s *Service) phaseSkills(assessment *types.Assessment) []string {
	switch assessment.Phase {
	case types.PhaseDeepDive:
		if len(assessment.FocusSkills) > 0 {
			return assessment.FocusSkills
		}
		return assessment.Skills
	case types.PhaseValidation:
		return nil
	default:
		return assessment.Skills
	}
}

// History summarizes answered questions for generation context. Question
// issuance feeds it into later-phase prompts and report generation feeds
// it into the analysis prompt.
func (s *Service) History(ctx context.Context, assessment *types.Assessment) ([]content.AnswerSummary, error) {
	if assessment.Phase == types.PhaseInitial {
		return nil, nil
	}

	questions, err := s.allQuestions(ctx, assessment.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.repos.Answers.ListByAssessment(ctx, assessment.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	history := make([]content.AnswerSummary, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || a.ChoiceIndex < 0 || a.ChoiceIndex >= len(q.Choices) {
			continue
		}
		choice := q.Choices[a.ChoiceIndex]
		history = append(history, content.AnswerSummary{
			Skill:  q.Skill,
			Text:   q.Text,
			Choice: choice.Text,
			Weight: choice.Weight,
		})
	}
	return history, nil
}

func (s *Service) allQuestions(ctx context.Context, assessmentID uuid.UUID) ([]*types.Question, error) {
	var all []*types.Question
	for _, phase := range []string{types.PhaseInitial, types.PhaseDeepDive, types.PhaseValidation} {
		qs, err := s.repos.Questions.ListByPhase(ctx, assessmentID, phase)
		if err != nil {
			return nil, err
		}
		all = append(all, qs...)
	}
	return all, nil
}

// SubmitAnswer records an answer to a question in the active phase. When
// the phase's last question is answered the assessment advances.
func (s *Service) SubmitAnswer(ctx context.Context, userID, id, questionID uuid.UUID, choiceIndex int) (*types.Assessment, error) {
	assessment, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if assessment.Status != types.AssessmentStatusActive {
		return nil, errors.NewConflictError("assessment is no longer active")
	}

	question, err := s.repos.Questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.AssessmentID != assessment.ID {
		return nil, errors.NewValidationError("question does not belong to this assessment")
	}
	if question.Phase != assessment.Phase {
		return nil, errors.NewPhaseError(assessment.Phase, "question is not part of the active phase")
	}
	if choiceIndex < 0 || choiceIndex >= len(question.Choices) {
		return nil, errors.NewValidationError(fmt.Sprintf("choice index %d out of range", choiceIndex))
	}

	answer := &types.Answer{
		AssessmentID: assessment.ID,
		QuestionID:   questionID,
		ChoiceIndex:  choiceIndex,
	}
	if err := s.repos.Answers.Upsert(ctx, answer); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AnswersTotal.WithLabelValues(assessment.Phase).Inc()
	}

	return s.maybeAdvance(ctx, assessment)
}

// maybeAdvance moves the assessment to the next phase when every question
// of the active phase has been answered.
func (s *Service) maybeAdvance(ctx context.Context, assessment *types.Assessment) (*types.Assessment, error) {
	total, err := s.repos.Questions.CountByPhase(ctx, assessment.ID, assessment.Phase)
	if err != nil {
		return nil, err
	}
	answered, err := s.repos.Answers.CountByPhase(ctx, assessment.ID, assessment.Phase)
	if err != nil {
		return nil, err
	}
	if total == 0 || answered < total {
		return assessment, nil
	}

	from := assessment.Phase

	if assessment.Phase == types.PhaseInitial {
		scores, err := s.Scores(ctx, assessment)
		if err != nil {
			return nil, err
		}
		assessment.FocusSkills = TopSkills(scores, focusSkillCount)
	}

	assessment.Phase = types.NextPhase(assessment.Phase)
	if assessment.Phase == types.PhaseCompleted {
		now := time.Now()
		assessment.Status = types.AssessmentStatusCompleted
		assessment.CompletedAt = &now
	}

	if err := s.repos.Assessments.Update(ctx, assessment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PhaseTransitionsTotal.WithLabelValues(from, assessment.Phase).Inc()
		if assessment.Status == types.AssessmentStatusCompleted {
			s.metrics.AssessmentsTotal.WithLabelValues(types.AssessmentStatusCompleted, scopeLabel(assessment.Field)).Inc()
		}
	}
	s.logger.LogAssessmentEvent(ctx, "phase_advanced", assessment.ID.String(), assessment.Phase, logrus.Fields{
		"from":         from,
		"focus_skills": assessment.FocusSkills,
	})

	return assessment, nil
}

// Scores computes the current skill ranking from all answers so far.
func (s *Service) Scores(ctx context.Context, assessment *types.Assessment) ([]types.SkillScore, error) {
	questions, err := s.allQuestions(ctx, assessment.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.repos.Answers.ListByAssessment(ctx, assessment.ID)
	if err != nil {
		return nil, err
	}
	return ComputeScores(questions, answers), nil
}

// Progress reports how far through the assessment the user is.
type Progress struct {
	Phase    string  `json:"phase"`
	Status   string  `json:"status"`
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// Progress computes answered/total across all issued questions. Phases not
// yet issued contribute an estimate so the percentage does not jump
// backwards when a new phase starts.
func (s *Service) Progress(ctx context.Context, userID, id uuid.UUID) (*Progress, error) {
	assessment, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	answered := 0
	total := 0
	for _, phase := range []string{types.PhaseInitial, types.PhaseDeepDive, types.PhaseValidation} {
		count, err := s.repos.Questions.CountByPhase(ctx, id, phase)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			count = s.expectedPhaseCount(assessment, phase)
		}
		total += count

		got, err := s.repos.Answers.CountByPhase(ctx, id, phase)
		if err != nil {
			return nil, err
		}
		answered += got
	}

	percent := 0.0
	if total > 0 {
		percent = float64(answered) / float64(total) * 100
	}
	if assessment.Phase == types.PhaseCompleted {
		percent = 100
	}

	return &Progress{
		Phase:    assessment.Phase,
		Status:   assessment.Status,
		Answered: answered,
		Total:    total,
		Percent:  percent,
	}, nil
}

// expectedPhaseCount estimates a phase's size before its set is issued.
func (s *Service) expectedPhaseCount(assessment *types.Assessment, phase string) int {
	switch phase {
	case types.PhaseInitial:
		return len(assessment.Skills) * questionsPerSkill
	case types.PhaseDeepDive:
		n := focusSkillCount
		if len(assessment.Skills) < n {
			n = len(assessment.Skills)
		}
		return n * questionsPerSkill
	case types.PhaseValidation:
		return 3
	default:
		return 0
	}
}
