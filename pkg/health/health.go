package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillcompass/skillcompass/internal/cache"
	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/resilience"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check is the result of a single component check
type Check struct {
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Response is the aggregate health response
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Duration  time.Duration     `json:"duration"`
	Checks    map[string]*Check `json:"checks"`
}

// Checker is a single component health check
type Checker interface {
	Check(ctx context.Context) *Check
}

// Service runs registered checkers and aggregates their results
type Service struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewService creates an empty health check service
func NewService() *Service {
	return &Service{checkers: make(map[string]Checker)}
}

// Register adds a checker under the given name.
func (s *Service) Register(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// CheckHealth runs all checkers concurrently and aggregates the results.
// A single unhealthy component makes the whole response unhealthy.
func (s *Service) CheckHealth(ctx context.Context) *Response {
	start := time.Now()

	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mu.RUnlock()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		checks = make(map[string]*Check, len(checkers))
		status = StatusHealthy
	)

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			check := checker.Check(ctx)

			mu.Lock()
			checks[name] = check
			switch check.Status {
			case StatusUnhealthy:
				status = StatusUnhealthy
			case StatusDegraded:
				if status == StatusHealthy {
					status = StatusDegraded
				}
			}
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	return &Response{
		Status:    status,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
	}
}

// Handler returns a gin handler serving the aggregate health response.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		health := s.CheckHealth(ctx)

		statusCode := http.StatusOK
		if health.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}

// LivenessHandler returns a trivial liveness probe handler.
func (s *Service) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// DatabaseChecker checks Postgres connectivity and pool pressure
type DatabaseChecker struct {
	db *database.DB
}

// NewDatabaseChecker creates a database health checker
func NewDatabaseChecker(db *database.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (dc *DatabaseChecker) Check(ctx context.Context) *Check {
	start := time.Now()
	check := &Check{Name: "database", Timestamp: start}

	if dc.db == nil {
		check.Status = StatusUnhealthy
		check.Error = "database connection is nil"
		check.Duration = time.Since(start)
		return check
	}

	if err := dc.db.Health(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Error = err.Error()
		check.Duration = time.Since(start)
		return check
	}

	stats := dc.db.Stats()
	check.Status = StatusHealthy
	check.Duration = time.Since(start)
	check.Metadata = map[string]string{
		"open_connections": fmt.Sprintf("%d", stats.OpenConnections),
		"idle_connections": fmt.Sprintf("%d", stats.Idle),
		"max_connections":  fmt.Sprintf("%d", stats.MaxOpenConnections),
	}

	if stats.MaxOpenConnections > 0 && stats.OpenConnections > int(float64(stats.MaxOpenConnections)*0.8) {
		check.Status = StatusDegraded
		check.Message = "connection pool is running low"
	}

	return check
}

// RedisChecker checks Redis connectivity
type RedisChecker struct {
	redis *cache.RedisClient
}

// NewRedisChecker creates a Redis health checker
func NewRedisChecker(redis *cache.RedisClient) *RedisChecker {
	return &RedisChecker{redis: redis}
}

func (rc *RedisChecker) Check(ctx context.Context) *Check {
	start := time.Now()
	check := &Check{Name: "redis", Timestamp: start}

	// Redis is optional: without it caching and rate limiting are
	// disabled, but the service still works.
	if rc.redis == nil {
		check.Status = StatusDegraded
		check.Message = "redis is not configured"
		check.Duration = time.Since(start)
		return check
	}

	if err := rc.redis.Health(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Error = err.Error()
		check.Duration = time.Since(start)
		return check
	}

	stats := rc.redis.Client().PoolStats()
	check.Status = StatusHealthy
	check.Duration = time.Since(start)
	check.Metadata = map[string]string{
		"total_connections": fmt.Sprintf("%d", stats.TotalConns),
		"idle_connections":  fmt.Sprintf("%d", stats.IdleConns),
	}

	return check
}

// ContentProviderChecker reports the state of the generative content
// gateway. A disabled provider or open breaker degrades the service
// rather than failing it, since fallback content keeps every flow
// working.
type ContentProviderChecker struct {
	gateway *content.Gateway
}

// NewContentProviderChecker creates a content gateway health checker
func NewContentProviderChecker(gateway *content.Gateway) *ContentProviderChecker {
	return &ContentProviderChecker{gateway: gateway}
}

func (cc *ContentProviderChecker) Check(ctx context.Context) *Check {
	start := time.Now()
	check := &Check{Name: "content_provider", Timestamp: start}
	check.Duration = time.Since(start)

	if cc.gateway == nil || !cc.gateway.Enabled() {
		check.Status = StatusDegraded
		check.Message = "generative provider is not configured, serving fallback content"
		return check
	}

	state := cc.gateway.BreakerState()
	check.Metadata = map[string]string{"breaker_state": state.String()}

	switch state {
	case resilience.StateOpen:
		check.Status = StatusDegraded
		check.Message = "provider circuit breaker is open, serving fallback content"
	default:
		check.Status = StatusHealthy
	}

	return check
}
