package report

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass/internal/assessment"
	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/internal/llm"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

type memStore struct {
	mu          sync.Mutex
	assessments map[uuid.UUID]*types.Assessment
	questions   map[uuid.UUID]*types.Question
	answers     map[uuid.UUID]*types.Answer
	reports     map[uuid.UUID]*types.Report
}

func newMemStore() *memStore {
	return &memStore{
		assessments: make(map[uuid.UUID]*types.Assessment),
		questions:   make(map[uuid.UUID]*types.Question),
		answers:     make(map[uuid.UUID]*types.Answer),
		reports:     make(map[uuid.UUID]*types.Report),
	}
}

func (m *memStore) Create(_ context.Context, a *types.Assessment) error {
	a.ID = uuid.New()
	cp := *a
	m.assessments[a.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*types.Assessment, error) {
	a, ok := m.assessments[id]
	if !ok {
		return nil, errors.NewNotFoundError("assessment")
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*types.Assessment, error) {
	return nil, nil
}

func (m *memStore) Update(_ context.Context, a *types.Assessment) error {
	cp := *a
	m.assessments[a.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.assessments, id)
	return nil
}

type memQuestionRepo struct{ store *memStore }

func (m *memQuestionRepo) CreateBatch(_ context.Context, questions []*types.Question) error {
	for _, q := range questions {
		cp := *q
		m.store.questions[q.ID] = &cp
	}
	return nil
}

func (m *memQuestionRepo) GetByID(_ context.Context, id uuid.UUID) (*types.Question, error) {
	q, ok := m.store.questions[id]
	if !ok {
		return nil, errors.NewNotFoundError("question")
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestionRepo) ListByPhase(_ context.Context, assessmentID uuid.UUID, phase string) ([]*types.Question, error) {
	var out []*types.Question
	for _, q := range m.store.questions {
		if q.AssessmentID == assessmentID && q.Phase == phase {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memQuestionRepo) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	qs, _ := m.ListByPhase(ctx, assessmentID, phase)
	return len(qs), nil
}

type memAnswerRepo struct{ store *memStore }

func (m *memAnswerRepo) Upsert(_ context.Context, a *types.Answer) error {
	for _, existing := range m.store.answers {
		if existing.AssessmentID == a.AssessmentID && existing.QuestionID == a.QuestionID {
			existing.ChoiceIndex = a.ChoiceIndex
			return nil
		}
	}
	a.ID = uuid.New()
	cp := *a
	m.store.answers[a.ID] = &cp
	return nil
}

func (m *memAnswerRepo) ListByAssessment(_ context.Context, assessmentID uuid.UUID) ([]*types.Answer, error) {
	var out []*types.Answer
	for _, a := range m.store.answers {
		if a.AssessmentID == assessmentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAnswerRepo) ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Answer, error) {
	all, _ := m.ListByAssessment(ctx, assessmentID)
	var out []*types.Answer
	for _, a := range all {
		if q, ok := m.store.questions[a.QuestionID]; ok && q.Phase == phase {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnswerRepo) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	as, _ := m.ListByPhase(ctx, assessmentID, phase)
	return len(as), nil
}

type memReportRepo struct{ store *memStore }

func (m *memReportRepo) Create(_ context.Context, r *types.Report) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, exists := m.store.reports[r.AssessmentID]; exists {
		return errors.NewConflictError("a report already exists for this assessment")
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	m.store.reports[r.AssessmentID] = &cp
	return nil
}

func (m *memReportRepo) GetByAssessment(_ context.Context, assessmentID uuid.UUID) (*types.Report, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.reports[assessmentID]
	if !ok {
		return nil, errors.NewNotFoundError("report")
	}
	cp := *r
	return &cp, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *recordingNotifier) ReportReady(_ context.Context, _ uuid.UUID, _ *types.Report) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func newTestServices(notifier Notifier) (*Service, *assessment.Service, *memStore) {
	store := newMemStore()
	repos := &database.Repositories{
		Assessments: store,
		Questions:   &memQuestionRepo{store: store},
		Answers:     &memAnswerRepo{store: store},
		Reports:     &memReportRepo{store: store},
	}
	gateway := content.NewGateway(nil, nil, nil, nil)
	assessments := assessment.NewService(repos, gateway, nil)
	reports := NewService(repos, assessments, gateway, nil, nil, notifier)
	return reports, assessments, store
}

func completeAssessment(t *testing.T, svc *assessment.Service, userID uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	a, err := svc.Create(ctx, userID, assessment.CreateInput{Skills: []string{"debugging", "testing"}})
	require.NoError(t, err)

	for {
		questions, err := svc.Questions(ctx, userID, a.ID)
		require.NoError(t, err)

		var latest *types.Assessment
		for _, q := range questions {
			latest, err = svc.SubmitAnswer(ctx, userID, a.ID, q.ID, 0)
			require.NoError(t, err)
		}
		require.NotNil(t, latest)
		if latest.Phase == types.PhaseCompleted {
			return a.ID
		}
	}
}

func TestGet_RequiresCompletedAssessment(t *testing.T) {
	reports, assessments, _ := newTestServices(nil)
	ctx := context.Background()
	userID := uuid.New()

	a, err := assessments.Create(ctx, userID, assessment.CreateInput{Skills: []string{"debugging"}})
	require.NoError(t, err)

	_, err = reports.Get(ctx, userID, a.ID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
}

func TestGet_GeneratesOnceThenReturnsStored(t *testing.T) {
	reports, assessments, store := newTestServices(nil)
	ctx := context.Background()
	userID := uuid.New()

	assessmentID := completeAssessment(t, assessments, userID)

	first, err := reports.Get(ctx, userID, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFallback, first.Source)
	assert.NotEmpty(t, first.Content.Summary)
	assert.NotEmpty(t, first.Content.CareerMatches)

	second, err := reports.Get(ctx, userID, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.reports, 1)
}

func TestGet_AnalysisRequestCarriesAnswerHistory(t *testing.T) {
	store := newMemStore()
	repos := &database.Repositories{
		Assessments: store,
		Questions:   &memQuestionRepo{store: store},
		Answers:     &memAnswerRepo{store: store},
		Reports:     &memReportRepo{store: store},
	}
	assessments := assessment.NewService(repos, content.NewGateway(nil, nil, nil, nil), nil)

	ctx := context.Background()
	userID := uuid.New()
	assessmentID := completeAssessment(t, assessments, userID)

	analysis := types.ReportContent{
		Summary:   "Strong investigative profile.",
		Strengths: []string{"Debugging"},
		CareerMatches: []types.CareerMatch{
			{Title: "Site Reliability Engineer", FitScore: 90, Rationale: "Root-cause work."},
		},
	}
	data, err := json.Marshal(analysis)
	require.NoError(t, err)

	provider := llm.NewMockProvider(llm.MockResponse{Content: data})
	gateway := content.NewGateway(provider, nil, nil, nil)
	reports := NewService(repos, assessments, gateway, nil, nil, nil)

	got, err := reports.Get(ctx, userID, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceAI, got.Source)

	// Every answered question appears in the analysis prompt.
	require.Len(t, provider.Calls, 1)
	prompt := provider.Calls[0].Prompt
	assert.Contains(t, prompt, "Selected answers for context:")
	require.NotEmpty(t, store.questions)
	for _, q := range store.questions {
		assert.Contains(t, prompt, q.Text)
	}
}

func TestGet_EnforcesOwnership(t *testing.T) {
	reports, assessments, _ := newTestServices(nil)
	userID := uuid.New()

	assessmentID := completeAssessment(t, assessments, userID)

	_, err := reports.Get(context.Background(), uuid.New(), assessmentID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthorization))
}

func TestGet_NotifiesOnFirstGenerationOnly(t *testing.T) {
	notifier := &recordingNotifier{}
	reports, assessments, _ := newTestServices(notifier)
	ctx := context.Background()
	userID := uuid.New()

	assessmentID := completeAssessment(t, assessments, userID)

	_, err := reports.Get(ctx, userID, assessmentID)
	require.NoError(t, err)
	_, err = reports.Get(ctx, userID, assessmentID)
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.calls)
}

func TestPDF_RendersReport(t *testing.T) {
	reports, assessments, _ := newTestServices(nil)
	userID := uuid.New()

	assessmentID := completeAssessment(t, assessments, userID)

	data, err := reports.PDF(context.Background(), userID, assessmentID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
