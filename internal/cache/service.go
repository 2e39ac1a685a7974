package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillcompass/skillcompass/pkg/errors"
)

// Service provides caching for frequently accessed assessment data
type Service struct {
	redis  *RedisClient
	config *Config
}

// Config holds cache configuration
type Config struct {
	DefaultTTL     time.Duration `json:"default_ttl"`
	QuestionSetTTL time.Duration `json:"question_set_ttl"`
	ReportTTL      time.Duration `json:"report_ttl"`
	CatalogTTL     time.Duration `json:"catalog_ttl"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultTTL:     1 * time.Hour,
		QuestionSetTTL: 12 * time.Hour,
		ReportTTL:      24 * time.Hour,
		CatalogTTL:     30 * time.Minute,
	}
}

// NewService creates a new cache service
func NewService(redis *RedisClient, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}

	return &Service{
		redis:  redis,
		config: config,
	}
}

// Key generates cache keys with consistent prefixes
type Key struct {
	Prefix string
	ID     string
}

// String returns the formatted cache key
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Prefix, k.ID)
}

// Cache key prefixes
const (
	PrefixQuestionSet = "question_set"
	PrefixReport      = "report"
	PrefixCatalog     = "catalog"
	PrefixRateLimit   = "rate_limit"
)

// Set stores a value in cache with the specified TTL
func (s *Service) Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError("failed to serialize cache value").WithCause(err)
	}

	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}

	if err := s.redis.Set(ctx, key.String(), data, ttl); err != nil {
		return errors.NewInternalError("failed to set cache value").WithCause(err)
	}

	return nil
}

// Get retrieves a value from cache into dest
func (s *Service) Get(ctx context.Context, key Key, dest interface{}) error {
	data, err := s.redis.Get(ctx, key.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewNotFoundError("cache key")
		}
		return errors.NewInternalError("failed to get cache value").WithCause(err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return errors.NewInternalError("failed to deserialize cache value").WithCause(err)
	}

	return nil
}

// Delete removes a value from cache
func (s *Service) Delete(ctx context.Context, key Key) error {
	if _, err := s.redis.Del(ctx, key.String()); err != nil {
		return errors.NewInternalError("failed to delete cache key").WithCause(err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (s *Service) Exists(ctx context.Context, key Key) (bool, error) {
	count, err := s.redis.Exists(ctx, key.String())
	if err != nil {
		return false, errors.NewInternalError("failed to check cache key existence").WithCause(err)
	}
	return count > 0, nil
}

// QuestionSetKey builds the cache key for a generated question set
func QuestionSetKey(assessmentID, phase string) Key {
	return Key{Prefix: PrefixQuestionSet, ID: fmt.Sprintf("%s:%s", assessmentID, phase)}
}

// ReportKey builds the cache key for a career analysis report
func ReportKey(assessmentID string) Key {
	return Key{Prefix: PrefixReport, ID: assessmentID}
}

// QuestionSetTTL returns the configured question set TTL
func (s *Service) QuestionSetTTL() time.Duration {
	return s.config.QuestionSetTTL
}

// ReportTTL returns the configured report TTL
func (s *Service) ReportTTL() time.Duration {
	return s.config.ReportTTL
}
