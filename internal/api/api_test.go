package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass/internal/assessment"
	"github.com/skillcompass/skillcompass/internal/auth"
	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/internal/report"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*types.User
	sessions    map[uuid.UUID]*types.UserSession
	assessments map[uuid.UUID]*types.Assessment
	questions   map[uuid.UUID]*types.Question
	answers     map[uuid.UUID]*types.Answer
	reports     map[uuid.UUID]*types.Report
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uuid.UUID]*types.User),
		sessions:    make(map[uuid.UUID]*types.UserSession),
		assessments: make(map[uuid.UUID]*types.Assessment),
		questions:   make(map[uuid.UUID]*types.Question),
		answers:     make(map[uuid.UUID]*types.Answer),
		reports:     make(map[uuid.UUID]*types.Report),
	}
}

type memUsers struct{ store *memStore }

func (m *memUsers) Create(_ context.Context, u *types.User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, existing := range m.store.users {
		if existing.Email == u.Email {
			return errors.NewConflictError("a user with this email already exists")
		}
	}
	u.ID = uuid.New()
	cp := *u
	m.store.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*types.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	u, ok := m.store.users[id]
	if !ok {
		return nil, errors.NewNotFoundError("user")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*types.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, u := range m.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("user")
}

func (m *memUsers) GetByGitHubID(_ context.Context, githubID int64) (*types.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, u := range m.store.users {
		if u.GitHubID != nil && *u.GitHubID == githubID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("user")
}

func (m *memUsers) Update(_ context.Context, u *types.User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *u
	m.store.users[u.ID] = &cp
	return nil
}

type memSessions struct{ store *memStore }

func (m *memSessions) Create(_ context.Context, s *types.UserSession) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s.ID = uuid.New()
	cp := *s
	m.store.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByRefreshToken(_ context.Context, token string) (*types.UserSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, s := range m.store.sessions {
		if s.RefreshToken == token && s.ExpiresAt.After(time.Now()) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("session")
}

func (m *memSessions) Rotate(_ context.Context, id uuid.UUID, newToken string, expiresAt time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s, ok := m.store.sessions[id]
	if !ok {
		return errors.NewNotFoundError("session")
	}
	s.RefreshToken = newToken
	s.ExpiresAt = expiresAt
	return nil
}

func (m *memSessions) Delete(_ context.Context, id uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.sessions, id)
	return nil
}

func (m *memSessions) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for id, s := range m.store.sessions {
		if s.UserID == userID {
			delete(m.store.sessions, id)
		}
	}
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type memAssessments struct{ store *memStore }

func (m *memAssessments) Create(_ context.Context, a *types.Assessment) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	a.ID = uuid.New()
	cp := *a
	m.store.assessments[a.ID] = &cp
	return nil
}

func (m *memAssessments) GetByID(_ context.Context, id uuid.UUID) (*types.Assessment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	a, ok := m.store.assessments[id]
	if !ok {
		return nil, errors.NewNotFoundError("assessment")
	}
	cp := *a
	return &cp, nil
}

func (m *memAssessments) ListByUser(_ context.Context, userID uuid.UUID) ([]*types.Assessment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*types.Assessment
	for _, a := range m.store.assessments {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAssessments) Update(_ context.Context, a *types.Assessment) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *a
	m.store.assessments[a.ID] = &cp
	return nil
}

func (m *memAssessments) Delete(_ context.Context, id uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.assessments, id)
	return nil
}

type memQuestions struct{ store *memStore }

func (m *memQuestions) CreateBatch(_ context.Context, questions []*types.Question) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, q := range questions {
		cp := *q
		m.store.questions[q.ID] = &cp
	}
	return nil
}

func (m *memQuestions) GetByID(_ context.Context, id uuid.UUID) (*types.Question, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	q, ok := m.store.questions[id]
	if !ok {
		return nil, errors.NewNotFoundError("question")
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestions) ListByPhase(_ context.Context, assessmentID uuid.UUID, phase string) ([]*types.Question, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
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

func (m *memQuestions) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	qs, _ := m.ListByPhase(ctx, assessmentID, phase)
	return len(qs), nil
}

type memAnswers struct{ store *memStore }

func (m *memAnswers) Upsert(_ context.Context, a *types.Answer) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
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

func (m *memAnswers) ListByAssessment(_ context.Context, assessmentID uuid.UUID) ([]*types.Answer, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*types.Answer
	for _, a := range m.store.answers {
		if a.AssessmentID == assessmentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAnswers) ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Answer, error) {
	all, err := m.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*types.Answer
	for _, a := range all {
		if q, ok := m.store.questions[a.QuestionID]; ok && q.Phase == phase {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnswers) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	as, err := m.ListByPhase(ctx, assessmentID, phase)
	return len(as), err
}

type memReports struct{ store *memStore }

func (m *memReports) Create(_ context.Context, r *types.Report) error {
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

func (m *memReports) GetByAssessment(_ context.Context, assessmentID uuid.UUID) (*types.Report, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.reports[assessmentID]
	if !ok {
		return nil, errors.NewNotFoundError("report")
	}
	cp := *r
	return &cp, nil
}

func newTestRouter() http.Handler {
	return newTestRouterWithCfg(nil)
}

func newTestRouterWithCfg(mutate func(*config.Config)) http.Handler {
	store := newMemStore()
	repos := &database.Repositories{
		Users:       &memUsers{store: store},
		Sessions:    &memSessions{store: store},
		Assessments: &memAssessments{store: store},
		Questions:   &memQuestions{store: store},
		Answers:     &memAnswers{store: store},
		Reports:     &memReports{store: store},
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-do-not-use",
			JWTExpiration:     time.Hour,
			RefreshExpiration: 24 * time.Hour,
		},
		Logging: config.LoggingConfig{Level: "info"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	gateway := content.NewGateway(nil, nil, nil, nil)
	authService := auth.NewService(cfg, repos, nil)
	assessments := assessment.NewService(repos, gateway, nil)
	reports := report.NewService(repos, assessments, gateway, nil, nil, nil)

	return NewRouter(cfg, nil, Services{
		Auth:        authService,
		Assessments: assessments,
		Reports:     reports,
	})
}

type apiEnvelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var envelope apiEnvelope
	if w.Header().Get("Content-Type") != "application/pdf" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "body: %s", w.Body.String())
	}
	return w, &envelope
}

func registerUser(t *testing.T, handler http.Handler, email string) (accessToken, refreshToken string) {
	t.Helper()

	w, envelope := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data.Tokens.AccessToken, data.Tokens.RefreshToken
}

func TestRegisterAndLogin(t *testing.T) {
	handler := newTestRouter()

	accessToken, _ := registerUser(t, handler, "dana@example.com")
	require.NotEmpty(t, accessToken)

	w, envelope := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dana@example.com",
		"password": "long-enough-password",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)

	w, envelope = doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, envelope.Success)
}

func TestRefreshAndLogout(t *testing.T) {
	handler := newTestRouter()

	_, refreshToken := registerUser(t, handler, "dana@example.com")

	w, envelope := doJSON(t, handler, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Tokens struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.NotEqual(t, refreshToken, data.Tokens.RefreshToken)

	// The old token was rotated away.
	w, _ = doJSON(t, handler, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, handler, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{
		"refresh_token": data.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	handler := newTestRouter()

	w, _ := doJSON(t, handler, http.MethodGet, "/api/v1/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, handler, http.MethodGet, "/api/v1/assessments", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	handler := newTestRouter()

	accessToken, _ := registerUser(t, handler, "dana@example.com")

	w, envelope := doJSON(t, handler, http.MethodGet, "/api/v1/user/me", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user types.User
	require.NoError(t, json.Unmarshal(envelope.Data, &user))
	assert.Equal(t, "dana@example.com", user.Email)
}

func TestCatalog(t *testing.T) {
	handler := newTestRouter()

	w, envelope := doJSON(t, handler, http.MethodGet, "/api/v1/catalog/fields", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Fields []content.Field `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.NotEmpty(t, data.Fields)

	w, _ = doJSON(t, handler, http.MethodGet, "/api/v1/catalog/skills?field=software-engineering", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, handler, http.MethodGet, "/api/v1/catalog/skills?field=basket-weaving", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssessmentFlow(t *testing.T) {
	handler := newTestRouter()

	accessToken, _ := registerUser(t, handler, "dana@example.com")

	w, envelope := doJSON(t, handler, http.MethodPost, "/api/v1/assessments", accessToken, map[string]interface{}{
		"field_id": "software-engineering",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created types.Assessment
	require.NoError(t, json.Unmarshal(envelope.Data, &created))
	assert.Equal(t, types.PhaseInitial, created.Phase)

	base := fmt.Sprintf("/api/v1/assessments/%s", created.ID)

	// Answer every question until the assessment completes.
	var current types.Assessment
	for i := 0; i < 10; i++ {
		w, envelope = doJSON(t, handler, http.MethodGet, base+"/questions", accessToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var qData struct {
			Questions []types.Question `json:"questions"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &qData))
		require.NotEmpty(t, qData.Questions)

		for _, q := range qData.Questions {
			w, envelope = doJSON(t, handler, http.MethodPost, base+"/answers", accessToken, map[string]interface{}{
				"question_id":  q.ID,
				"choice_index": 0,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			require.NoError(t, json.Unmarshal(envelope.Data, &current))
		}
		if current.Phase == types.PhaseCompleted {
			break
		}
	}
	require.Equal(t, types.PhaseCompleted, current.Phase)

	w, envelope = doJSON(t, handler, http.MethodGet, base+"/progress", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var progress assessment.Progress
	require.NoError(t, json.Unmarshal(envelope.Data, &progress))
	assert.Equal(t, float64(100), progress.Percent)

	w, envelope = doJSON(t, handler, http.MethodGet, base+"/report", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep types.Report
	require.NoError(t, json.Unmarshal(envelope.Data, &rep))
	assert.Equal(t, types.SourceFallback, rep.Source)
	assert.NotEmpty(t, rep.Content.Summary)

	w, _ = doJSON(t, handler, http.MethodGet, base+"/report/pdf", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestReportRequiresCompletion(t *testing.T) {
	handler := newTestRouter()

	accessToken, _ := registerUser(t, handler, "dana@example.com")

	w, envelope := doJSON(t, handler, http.MethodPost, "/api/v1/assessments", accessToken, map[string]interface{}{
		"skills": []string{"debugging", "testing"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created types.Assessment
	require.NoError(t, json.Unmarshal(envelope.Data, &created))

	w, _ = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/assessments/%s/report", created.ID), accessToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOwnershipIsEnforced(t *testing.T) {
	handler := newTestRouter()

	ownerToken, _ := registerUser(t, handler, "owner@example.com")
	otherToken, _ := registerUser(t, handler, "other@example.com")

	w, envelope := doJSON(t, handler, http.MethodPost, "/api/v1/assessments", ownerToken, map[string]interface{}{
		"field_id": "data-science",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created types.Assessment
	require.NoError(t, json.Unmarshal(envelope.Data, &created))

	w, _ = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/assessments/%s", created.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnknownEndpoint(t *testing.T) {
	handler := newTestRouter()

	w, envelope := doJSON(t, handler, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, envelope.Success)
}

func TestRequestIDPropagation(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/fields", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))

	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "fixed-id", envelope.RequestID)
}

func TestCORSRespectsConfiguredOrigins(t *testing.T) {
	handler := newTestRouterWithCfg(func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = []string{"https://app.skillcompass.dev"}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1", nil)
	req.Header.Set("Origin", "https://app.skillcompass.dev")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.skillcompass.dev", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
