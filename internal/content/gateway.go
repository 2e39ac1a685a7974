package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skillcompass/skillcompass/internal/cache"
	"github.com/skillcompass/skillcompass/internal/llm"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/logging"
	"github.com/skillcompass/skillcompass/pkg/metrics"
	"github.com/skillcompass/skillcompass/pkg/resilience"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// QuestionDraft is a generated or fallback question before persistence.
type QuestionDraft struct {
	Skill   string           `json:"skill"`
	Text    string           `json:"text"`
	Choices types.ChoiceList `json:"choices"`
}

// QuestionRequest describes one question-set generation.
type QuestionRequest struct {
	// Scope keys the cache entry, typically "<assessment_id>:<phase>".
	Scope    string
	Phase    string
	Field    string
	Skills   []string
	PerSkill int
	History  []AnswerSummary
}

// AnalysisRequest describes one career-analysis generation.
type AnalysisRequest struct {
	Field   string
	Scores  []types.SkillScore
	History []AnswerSummary
}

// Gateway produces assessment content, preferring the generative provider
// and substituting the fallback bank whenever it cannot deliver. Callers
// always get content; the returned source says which path produced it.
type Gateway struct {
	provider llm.Provider
	cache    *cache.Service
	op       *resilience.RetryableOperation
	metrics  *metrics.Metrics
	logger   *logging.Logger
	cfg      *config.AIConfig
}

// NewGateway creates a content gateway. A nil provider disables generation
// entirely and every request is served from the fallback bank.
func NewGateway(provider llm.Provider, cacheService *cache.Service, m *metrics.Metrics, cfg *config.AIConfig) *Gateway {
	retryCfg := resilience.DefaultRetryConfig()
	if cfg != nil && cfg.MaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.MaxAttempts
	}
	retryCfg.RetryableErrors = retryableProviderError

	cbCfg := resilience.CircuitBreakerConfig{
		Name:        "content-provider",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
	}

	return &Gateway{
		provider: provider,
		cache:    cacheService,
		op:       resilience.NewRetryableOperation("content-provider", cbCfg, retryCfg),
		metrics:  m,
		logger:   logging.GetLogger(),
		cfg:      cfg,
	}
}

// retryableProviderError retries transient provider failures only. Invalid
// or truncated output will not improve on an identical retry within the
// same backoff window, so those fall through to the bank immediately.
func retryableProviderError(err error) bool {
	var rateLimit *llm.ErrRateLimit
	var unavailable *llm.ErrProviderUnavailable
	return errors.As(err, &rateLimit) || errors.As(err, &unavailable)
}

// GenerateQuestions returns a question set for the request, along with the
// source that produced it ("ai" or "fallback"). It never returns an error:
// fallback substitution is total.
func (g *Gateway) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]QuestionDraft, string) {
	if req.PerSkill <= 0 {
		req.PerSkill = 2
	}

	if cached := g.cachedQuestions(ctx, req); cached != nil {
		return cached, types.SourceAI
	}

	if g.provider == nil {
		g.recordFallback(ctx, "question_set", "disabled")
		return FallbackQuestions(req.Phase, req.Skills, req.PerSkill), types.SourceFallback
	}

	drafts, err := g.generateQuestions(ctx, req)
	if err != nil {
		g.recordFallback(ctx, "question_set", fallbackReason(err))
		return FallbackQuestions(req.Phase, req.Skills, req.PerSkill), types.SourceFallback
	}

	g.storeQuestions(ctx, req, drafts)
	return drafts, types.SourceAI
}

func (g *Gateway) generateQuestions(ctx context.Context, req QuestionRequest) ([]QuestionDraft, error) {
	start := time.Now()

	result, err := g.execute(ctx, llm.Request{
		System:      questionSystemPrompt,
		Prompt:      QuestionPrompt(req.Phase, req.Field, req.Skills, req.PerSkill, req.History),
		Schema:      QuestionSetSchema(),
		MaxTokens:   g.maxTokens(),
		Temperature: g.temperature(),
	})
	if err != nil {
		g.recordGeneration(ctx, "question_set", "error", start, nil)
		return nil, err
	}

	var payload struct {
		Questions []QuestionDraft `json:"questions"`
	}
	if err := json.Unmarshal(result.Content, &payload); err != nil {
		g.recordGeneration(ctx, "question_set", "error", start, result)
		return nil, &llm.ErrInvalidResponse{Content: result.Content, Err: err}
	}
	if len(payload.Questions) == 0 {
		g.recordGeneration(ctx, "question_set", "error", start, result)
		return nil, &llm.ErrInvalidResponse{Content: result.Content, Err: errEmptySet}
	}

	g.recordGeneration(ctx, "question_set", "success", start, result)
	return payload.Questions, nil
}

var errEmptySet = errors.New("provider returned an empty question set")

// GenerateAnalysis returns a career analysis and the source that produced
// it. Like question generation, it never fails: a provider error yields the
// fallback analysis built from the ranked scores.
func (g *Gateway) GenerateAnalysis(ctx context.Context, req AnalysisRequest) (*types.ReportContent, string) {
	if g.provider == nil {
		g.recordFallback(ctx, "analysis", "disabled")
		return FallbackAnalysis(req.Field, req.Scores), types.SourceFallback
	}

	start := time.Now()

	result, err := g.execute(ctx, llm.Request{
		System:      analysisSystemPrompt,
		Prompt:      AnalysisPrompt(req.Field, req.Scores, req.History),
		Schema:      AnalysisSchema(),
		MaxTokens:   g.maxTokens(),
		Temperature: g.temperature(),
	})
	if err != nil {
		g.recordGeneration(ctx, "analysis", "error", start, nil)
		g.recordFallback(ctx, "analysis", fallbackReason(err))
		return FallbackAnalysis(req.Field, req.Scores), types.SourceFallback
	}

	var content types.ReportContent
	if err := json.Unmarshal(result.Content, &content); err != nil {
		g.recordGeneration(ctx, "analysis", "error", start, result)
		g.recordFallback(ctx, "analysis", "invalid_response")
		return FallbackAnalysis(req.Field, req.Scores), types.SourceFallback
	}

	g.recordGeneration(ctx, "analysis", "success", start, result)
	return &content, types.SourceAI
}

// execute runs one provider call under the request timeout, the retrier,
// and the circuit breaker.
func (g *Gateway) execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if g.cfg != nil && g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("content").Start(ctx, "content.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.provider.ModelID()))
	if req.Schema != nil {
		span.SetAttributes(attribute.String("llm.schema", req.Schema.Name))
	}

	result, err := g.op.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return g.provider.Generate(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.(*llm.Response), nil
}

func (g *Gateway) maxTokens() int {
	if g.cfg == nil || g.cfg.MaxTokens <= 0 {
		return 4096
	}
	return g.cfg.MaxTokens
}

func (g *Gateway) temperature() float64 {
	if g.cfg == nil {
		return 0.7
	}
	return g.cfg.Temperature
}

// BreakerState exposes the provider circuit state for health reporting.
func (g *Gateway) BreakerState() resilience.CircuitState {
	return g.op.State()
}

// Enabled reports whether a generative provider is configured.
func (g *Gateway) Enabled() bool {
	return g.provider != nil
}

func (g *Gateway) cachedQuestions(ctx context.Context, req QuestionRequest) []QuestionDraft {
	if g.cache == nil || req.Scope == "" {
		return nil
	}
	var drafts []QuestionDraft
	if err := g.cache.Get(ctx, cache.QuestionSetKey(req.Scope, req.Phase), &drafts); err != nil {
		return nil
	}
	return drafts
}

func (g *Gateway) storeQuestions(ctx context.Context, req QuestionRequest, drafts []QuestionDraft) {
	if g.cache == nil || req.Scope == "" {
		return
	}
	if err := g.cache.Set(ctx, cache.QuestionSetKey(req.Scope, req.Phase), drafts, g.cache.QuestionSetTTL()); err != nil {
		g.logger.Warn("Failed to cache question set", "scope", req.Scope, "error", err.Error())
	}
}

func (g *Gateway) recordGeneration(ctx context.Context, kind, outcome string, start time.Time, resp *llm.Response) {
	inputTokens, outputTokens := 0, 0
	model := "none"
	if g.provider != nil {
		model = g.provider.ModelID()
	}
	if resp != nil {
		inputTokens = resp.Usage.InputTokens
		outputTokens = resp.Usage.OutputTokens
	}

	if g.metrics != nil {
		g.metrics.RecordGeneration(kind, outcome, time.Since(start), inputTokens, outputTokens)
	}

	g.logger.LogGenerationEvent(ctx, "generation_"+outcome, model, types.SourceAI, logrus.Fields{
		"kind":          kind,
		"duration_ms":   time.Since(start).Milliseconds(),
		"input_tokens":  inputTokens,
		"output_tokens": outputTokens,
	})
}

func (g *Gateway) recordFallback(ctx context.Context, kind, reason string) {
	if g.metrics != nil {
		g.metrics.RecordFallback(kind, reason)
	}

	model := "none"
	if g.provider != nil {
		model = g.provider.ModelID()
	}
	g.logger.LogGenerationEvent(ctx, "fallback_substituted", model, types.SourceFallback, logrus.Fields{
		"kind":   kind,
		"reason": reason,
	})
}

// fallbackReason classifies a provider error for metrics and logs.
func fallbackReason(err error) string {
	var rateLimit *llm.ErrRateLimit
	var invalid *llm.ErrInvalidResponse
	var truncated *llm.ErrMaxTokensExceeded
	var unavailable *llm.ErrProviderUnavailable

	switch {
	case resilience.IsCircuitBreakerError(err):
		return "breaker_open"
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &truncated):
		return "truncated"
	case errors.As(err, &invalid):
		return "invalid_response"
	case errors.As(err, &unavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
