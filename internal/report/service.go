package report

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skillcompass/skillcompass/internal/assessment"
	"github.com/skillcompass/skillcompass/internal/cache"
	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/logging"
	"github.com/skillcompass/skillcompass/pkg/metrics"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// Notifier is told when a report becomes available.
type Notifier interface {
	ReportReady(ctx context.Context, userID uuid.UUID, report *types.Report)
}

// Service produces and serves career analysis reports.
type Service struct {
	repos       *database.Repositories
	assessments *assessment.Service
	gateway     *content.Gateway
	cache       *cache.Service
	metrics     *metrics.Metrics
	notifier    Notifier
	logger      *logging.Logger
}

// NewService creates a report service. notifier may be nil.
func NewService(repos *database.Repositories, assessments *assessment.Service, gateway *content.Gateway, cacheService *cache.Service, m *metrics.Metrics, notifier Notifier) *Service {
	return &Service{
		repos:       repos,
		assessments: assessments,
		gateway:     gateway,
		cache:       cacheService,
		metrics:     m,
		notifier:    notifier,
		logger:      logging.GetLogger(),
	}
}

// Get returns the assessment's report, generating it on first request.
// Generation is idempotent: once stored, the same report is always returned.
func (s *Service) Get(ctx context.Context, userID, assessmentID uuid.UUID) (*types.Report, error) {
	a, err := s.assessments.Get(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}

	if cached := s.cachedReport(ctx, assessmentID); cached != nil {
		return cached, nil
	}

	existing, err := s.repos.Reports.GetByAssessment(ctx, assessmentID)
	if err == nil {
		s.storeCached(ctx, existing)
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	if a.Phase != types.PhaseCompleted {
		return nil, errors.NewPhaseError(a.Phase, "assessment must be completed before a report is available")
	}

	return s.generate(ctx, userID, a)
}

func (s *Service) generate(ctx context.Context, userID uuid.UUID, a *types.Assessment) (*types.Report, error) {
	scores, err := s.assessments.Scores(ctx, a)
	if err != nil {
		return nil, err
	}
	history, err := s.assessments.History(ctx, a)
	if err != nil {
		return nil, err
	}

	reportContent, source := s.gateway.GenerateAnalysis(ctx, content.AnalysisRequest{
		Field:   a.Field,
		Scores:  scores,
		History: history,
	})

	report := &types.Report{
		AssessmentID: a.ID,
		Source:       source,
		Content:      *reportContent,
	}

	if err := s.repos.Reports.Create(ctx, report); err != nil {
		// A concurrent request may have generated the report first. The
		// stored one wins so repeated requests stay idempotent.
		if errors.IsType(err, errors.ErrorTypeConflict) {
			return s.repos.Reports.GetByAssessment(ctx, a.ID)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReportsTotal.WithLabelValues(source).Inc()
	}
	s.logger.LogAssessmentEvent(ctx, "report_generated", a.ID.String(), a.Phase, logrus.Fields{
		"source":         source,
		"career_matches": len(report.Content.CareerMatches),
	})

	s.storeCached(ctx, report)

	if s.notifier != nil {
		s.notifier.ReportReady(ctx, userID, report)
	}

	return report, nil
}

func (s *Service) cachedReport(ctx context.Context, assessmentID uuid.UUID) *types.Report {
	if s.cache == nil {
		return nil
	}
	var report types.Report
	if err := s.cache.Get(ctx, cache.ReportKey(assessmentID.String()), &report); err != nil {
		return nil
	}
	return &report
}

func (s *Service) storeCached(ctx context.Context, report *types.Report) {
	if s.cache == nil {
		return
	}
	key := cache.ReportKey(report.AssessmentID.String())
	if err := s.cache.Set(ctx, key, report, s.cache.ReportTTL()); err != nil {
		s.logger.Warn("Failed to cache report", "assessment_id", report.AssessmentID.String(), "error", err.Error())
	}
}

// PDF renders the assessment's report as a PDF document.
func (s *Service) PDF(ctx context.Context, userID, assessmentID uuid.UUID) ([]byte, error) {
	report, err := s.Get(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	return RenderPDF(report)
}
