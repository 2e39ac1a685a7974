package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Assessment metrics
	AssessmentsTotal      *prometheus.CounterVec
	AnswersTotal          *prometheus.CounterVec
	PhaseTransitionsTotal *prometheus.CounterVec
	QuestionsServedTotal  *prometheus.CounterVec
	ReportsTotal          *prometheus.CounterVec

	// Generation metrics
	GenerationRequestsTotal *prometheus.CounterVec
	GenerationDuration      *prometheus.HistogramVec
	GenerationTokens        *prometheus.CounterVec
	FallbacksTotal          *prometheus.CounterVec

	// System metrics
	CacheOperationsTotal   *prometheus.CounterVec
	AuthenticationAttempts *prometheus.CounterVec
	ErrorsTotal            *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "skillcompass",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &Metrics{}
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
			[]string{"method", "path"},
		),
		AssessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "assessments_total",
				Help:      "Total number of assessments by status",
			},
			[]string{"status", "scope"},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "answers_total",
				Help:      "Total number of answers recorded",
			},
			[]string{"phase"},
		),
		PhaseTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "phase_transitions_total",
				Help:      "Total number of assessment phase transitions",
			},
			[]string{"from", "to"},
		),
		QuestionsServedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "questions_served_total",
				Help:      "Total number of questions served by content source",
			},
			[]string{"phase", "source"},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "reports_total",
				Help:      "Total number of career analysis reports generated",
			},
			[]string{"source"},
		),
		GenerationRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "generation_requests_total",
				Help:      "Total number of generative model requests",
			},
			[]string{"kind", "outcome"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "generation_duration_seconds",
				Help:      "Generative model request duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"kind"},
		),
		GenerationTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "generation_tokens_total",
				Help:      "Total number of tokens consumed by generative model requests",
			},
			[]string{"kind", "direction"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of static content substitutions",
			},
			[]string{"kind", "reason"},
		),
		CacheOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "cache_operations_total",
				Help:      "Total number of cache operations",
			},
			[]string{"operation", "result"},
		),
		AuthenticationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "authentication_attempts_total",
				Help:      "Total number of authentication attempts",
			},
			[]string{"provider", "result"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "errors_total",
				Help:      "Total number of application errors",
			},
			[]string{"type", "component"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AssessmentsTotal,
		m.AnswersTotal,
		m.PhaseTransitionsTotal,
		m.QuestionsServedTotal,
		m.ReportsTotal,
		m.GenerationRequestsTotal,
		m.GenerationDuration,
		m.GenerationTokens,
		m.FallbacksTotal,
		m.CacheOperationsTotal,
		m.AuthenticationAttempts,
		m.ErrorsTotal,
	)

	return m
}

// GinMiddleware returns a gin middleware that records HTTP metrics
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.HTTPRequestsTotal == nil {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPRequestsInFlight.WithLabelValues(method, path).Inc()
		defer m.HTTPRequestsInFlight.WithLabelValues(method, path).Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}

// RecordGeneration records the outcome of a single generative model request
func (m *Metrics) RecordGeneration(kind, outcome string, duration time.Duration, inputTokens, outputTokens int) {
	if m.GenerationRequestsTotal == nil {
		return
	}
	m.GenerationRequestsTotal.WithLabelValues(kind, outcome).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.GenerationTokens.WithLabelValues(kind, "input").Add(float64(inputTokens))
	m.GenerationTokens.WithLabelValues(kind, "output").Add(float64(outputTokens))
}

// RecordFallback records a static content substitution
func (m *Metrics) RecordFallback(kind, reason string) {
	if m.FallbacksTotal == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(kind, reason).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
