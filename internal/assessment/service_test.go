package assessment

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// In-memory repositories for exercising the orchestration flow without
// Postgres.

type memAssessments struct {
	items map[uuid.UUID]*types.Assessment
}

func (m *memAssessments) Create(_ context.Context, a *types.Assessment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAssessments) GetByID(_ context.Context, id uuid.UUID) (*types.Assessment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, errors.NewNotFoundError("assessment")
	}
	cp := *a
	return &cp, nil
}

func (m *memAssessments) ListByUser(_ context.Context, userID uuid.UUID) ([]*types.Assessment, error) {
	var out []*types.Assessment
	for _, a := range m.items {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAssessments) Update(_ context.Context, a *types.Assessment) error {
	if _, ok := m.items[a.ID]; !ok {
		return errors.NewNotFoundError("assessment")
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAssessments) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

type memQuestions struct {
	items map[uuid.UUID]*types.Question
}

func (m *memQuestions) CreateBatch(_ context.Context, questions []*types.Question) error {
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		cp := *q
		m.items[q.ID] = &cp
	}
	return nil
}

func (m *memQuestions) GetByID(_ context.Context, id uuid.UUID) (*types.Question, error) {
	q, ok := m.items[id]
	if !ok {
		return nil, errors.NewNotFoundError("question")
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestions) ListByPhase(_ context.Context, assessmentID uuid.UUID, phase string) ([]*types.Question, error) {
	var out []*types.Question
	for _, q := range m.items {
		if q.AssessmentID == assessmentID && q.Phase == phase {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memQuestions) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	qs, _ := m.ListByPhase(ctx, assessmentID, phase)
	return len(qs), nil
}

type memAnswers struct {
	questions *memQuestions
	items     map[uuid.UUID]*types.Answer
}

func (m *memAnswers) Upsert(_ context.Context, a *types.Answer) error {
	for _, existing := range m.items {
		if existing.AssessmentID == a.AssessmentID && existing.QuestionID == a.QuestionID {
			existing.ChoiceIndex = a.ChoiceIndex
			return nil
		}
	}
	a.ID = uuid.New()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAnswers) ListByAssessment(_ context.Context, assessmentID uuid.UUID) ([]*types.Answer, error) {
	var out []*types.Answer
	for _, a := range m.items {
		if a.AssessmentID == assessmentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAnswers) ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Answer, error) {
	all, _ := m.ListByAssessment(ctx, assessmentID)
	var out []*types.Answer
	for _, a := range all {
		if q, ok := m.questions.items[a.QuestionID]; ok && q.Phase == phase {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnswers) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	as, _ := m.ListByPhase(ctx, assessmentID, phase)
	return len(as), nil
}

func newTestService() (*Service, *database.Repositories) {
	questions := &memQuestions{items: make(map[uuid.UUID]*types.Question)}
	repos := &database.Repositories{
		Assessments: &memAssessments{items: make(map[uuid.UUID]*types.Assessment)},
		Questions:   questions,
		Answers:     &memAnswers{questions: questions, items: make(map[uuid.UUID]*types.Answer)},
	}
	gateway := content.NewGateway(nil, nil, nil, nil)
	return NewService(repos, gateway, nil), repos
}

func TestCreate_RequiresFieldOrSkills(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestCreate_FieldExpandsToSkills(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(context.Background(), uuid.New(), CreateInput{FieldID: "software-engineering"})
	require.NoError(t, err)

	assert.Equal(t, types.PhaseInitial, a.Phase)
	assert.Equal(t, types.AssessmentStatusActive, a.Status)
	assert.NotEmpty(t, a.Skills)
}

func TestCreate_UnknownField(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{FieldID: "astrology"})
	require.Error(t, err)
}

func TestGet_EnforcesOwnership(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	a, err := svc.Create(context.Background(), owner, CreateInput{Skills: []string{"debugging"}})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), a.ID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthorization))
}

func TestQuestions_IssuedOnceAndImmutable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Create(ctx, userID, CreateInput{Skills: []string{"debugging", "testing"}})
	require.NoError(t, err)

	first, err := svc.Questions(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Len(t, first, 4) // 2 skills x 2 questions

	second, err := svc.Questions(ctx, userID, a.ID)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func answerAll(t *testing.T, svc *Service, userID uuid.UUID, assessmentID uuid.UUID, choiceIndex int) *types.Assessment {
	t.Helper()
	ctx := context.Background()

	questions, err := svc.Questions(ctx, userID, assessmentID)
	require.NoError(t, err)

	var latest *types.Assessment
	for _, q := range questions {
		latest, err = svc.SubmitAnswer(ctx, userID, assessmentID, q.ID, choiceIndex)
		require.NoError(t, err)
	}
	return latest
}

func TestFlow_AdvancesThroughAllPhases(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Create(ctx, userID, CreateInput{FieldID: "software-engineering"})
	require.NoError(t, err)

	// Initial phase completes and picks focus skills.
	a = answerAll(t, svc, userID, a.ID, 0)
	assert.Equal(t, types.PhaseDeepDive, a.Phase)
	assert.Len(t, []string(a.FocusSkills), 3)

	// Deep-dive covers only the focus skills.
	deepDive, err := svc.Questions(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Len(t, deepDive, 6) // 3 focus skills x 2
	for _, q := range deepDive {
		assert.Contains(t, []string(a.FocusSkills), q.Skill)
	}

	a = answerAll(t, svc, userID, a.ID, 0)
	assert.Equal(t, types.PhaseValidation, a.Phase)

	a = answerAll(t, svc, userID, a.ID, 0)
	assert.Equal(t, types.PhaseCompleted, a.Phase)
	assert.Equal(t, types.AssessmentStatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)

	// No questions after completion.
	_, err = svc.Questions(ctx, userID, a.ID)
	require.Error(t, err)
}

func TestSubmitAnswer_Validations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Create(ctx, userID, CreateInput{Skills: []string{"debugging"}})
	require.NoError(t, err)

	questions, err := svc.Questions(ctx, userID, a.ID)
	require.NoError(t, err)
	q := questions[0]

	// Choice out of range.
	_, err = svc.SubmitAnswer(ctx, userID, a.ID, q.ID, len(q.Choices))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	// Question from another assessment.
	other, err := svc.Create(ctx, userID, CreateInput{Skills: []string{"testing"}})
	require.NoError(t, err)
	otherQs, err := svc.Questions(ctx, userID, other.ID)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, userID, a.ID, otherQs[0].ID, 0)
	require.Error(t, err)

	// Unknown question.
	_, err = svc.SubmitAnswer(ctx, userID, a.ID, uuid.New(), 0)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSubmitAnswer_ReAnswerDoesNotDoubleCount(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Create(ctx, userID, CreateInput{Skills: []string{"debugging"}})
	require.NoError(t, err)

	questions, err := svc.Questions(ctx, userID, a.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, userID, a.ID, questions[0].ID, 0)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, userID, a.ID, questions[0].ID, 1)
	require.NoError(t, err)

	count, err := repos.Answers.CountByPhase(ctx, a.ID, types.PhaseInitial)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProgress_TracksAcrossPhases(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Create(ctx, userID, CreateInput{Skills: []string{"debugging", "testing"}})
	require.NoError(t, err)

	p, err := svc.Progress(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Answered)
	assert.Equal(t, 0.0, p.Percent)

	questions, err := svc.Questions(ctx, userID, a.ID)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, userID, a.ID, questions[0].ID, 0)
	require.NoError(t, err)

	p, err = svc.Progress(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Answered)
	assert.Greater(t, p.Percent, 0.0)
	assert.Less(t, p.Percent, 100.0)

	answerAll(t, svc, userID, a.ID, 0)
	answerAll(t, svc, userID, a.ID, 0)
	answerAll(t, svc, userID, a.ID, 0)

	p, err = svc.Progress(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Percent)
}
