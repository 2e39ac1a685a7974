package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/logging"
	"github.com/skillcompass/skillcompass/pkg/metrics"
	"github.com/skillcompass/skillcompass/pkg/types"
)

const minPasswordLength = 8

// Service provides authentication: registration, login, token issuance,
// refresh rotation, and revocation.
type Service struct {
	config  *config.Config
	repos   *database.Repositories
	github  *GitHubProvider
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewService creates an authentication service.
func NewService(cfg *config.Config, repos *database.Repositories, m *metrics.Metrics) *Service {
	return &Service{
		config:  cfg,
		repos:   repos,
		github:  NewGitHubProvider(cfg),
		metrics: m,
		logger:  logging.GetLogger(),
	}
}

// JWTClaims represents the JWT access token claims
type JWTClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	jwt.RegisteredClaims
}

// TokenPair represents an access token and refresh token pair
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// RegisterInput holds the fields for email/password registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a user with a bcrypt-hashed password and signs them in.
func (s *Service) Register(ctx context.Context, input RegisterInput, ipAddress, userAgent string) (*types.User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, errors.NewValidationError("a valid email address is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, nil, errors.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, errors.NewInternalError("failed to hash password").WithCause(err)
	}

	user := &types.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.GenerateTokenPair(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	s.recordAttempt("password", "registered")
	s.logger.LogAuthEvent(ctx, "user_registered", user.ID.String(), "password", true, nil)

	return user, tokens, nil
}

// Login verifies an email/password pair and issues tokens.
func (s *Service) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*types.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		s.recordAttempt("password", "failure")
		if errors.IsNotFound(err) {
			return nil, nil, errors.NewAuthenticationError("invalid email or password")
		}
		return nil, nil, err
	}

	if user.PasswordHash == "" {
		s.recordAttempt("password", "failure")
		return nil, nil, errors.NewAuthenticationError("this account signs in with GitHub")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordAttempt("password", "failure")
		s.logger.LogAuthEvent(ctx, "login_failed", user.ID.String(), "password", false, nil)
		return nil, nil, errors.NewAuthenticationError("invalid email or password")
	}

	tokens, err := s.GenerateTokenPair(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	s.recordAttempt("password", "success")
	s.logger.LogAuthEvent(ctx, "login_succeeded", user.ID.String(), "password", true, nil)

	return user, tokens, nil
}

// GenerateTokenPair issues a JWT access token and a persisted refresh token.
func (s *Service) GenerateTokenPair(ctx context.Context, user *types.User, ipAddress, userAgent string) (*TokenPair, error) {
	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate access token").WithCause(err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, errors.NewInternalError("failed to generate refresh token").WithCause(err)
	}

	session := &types.UserSession{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.config.Auth.RefreshExpiration),
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	}
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// RefreshToken rotates a refresh token: the presented token is replaced in
// its session row, so it cannot be replayed, and a fresh access token is
// issued.
func (s *Service) RefreshToken(ctx context.Context, refreshToken, ipAddress, userAgent string) (*TokenPair, error) {
	session, err := s.repos.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthenticationError("invalid or expired refresh token")
		}
		return nil, err
	}

	user, err := s.repos.Users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, errors.NewAuthenticationError("invalid refresh token").WithCause(err)
	}

	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate access token").WithCause(err)
	}

	newRefresh, err := generateRefreshToken()
	if err != nil {
		return nil, errors.NewInternalError("failed to generate refresh token").WithCause(err)
	}

	if err := s.repos.Sessions.Rotate(ctx, session.ID, newRefresh, time.Now().Add(s.config.Auth.RefreshExpiration)); err != nil {
		return nil, err
	}

	s.logger.LogAuthEvent(ctx, "token_refreshed", user.ID.String(), "refresh", true, nil)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// ValidateAccessToken validates a JWT access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, errors.NewAuthenticationError("invalid token").WithCause(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.NewAuthenticationError("invalid token claims")
	}
	return claims, nil
}

// RevokeToken revokes the session behind a refresh token (logout).
func (s *Service) RevokeToken(ctx context.Context, refreshToken string) error {
	session, err := s.repos.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.IsNotFound(err) {
			// Already gone; logout is idempotent.
			return nil
		}
		return err
	}
	return s.repos.Sessions.Delete(ctx, session.ID)
}

// RevokeAllUserTokens revokes every session for a user.
func (s *Service) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	return s.repos.Sessions.DeleteByUser(ctx, userID)
}

// CleanupExpiredSessions removes expired session rows.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repos.Sessions.DeleteExpired(ctx)
}

// GetUser returns the user behind validated claims.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repos.Users.GetByID(ctx, userID)
}

func (s *Service) generateAccessToken(user *types.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.config.Auth.JWTExpiration)

	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "skillcompass",
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Auth.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// generateRefreshToken produces a cryptographically random opaque token.
func generateRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (s *Service) recordAttempt(provider, result string) {
	if s.metrics != nil {
		s.metrics.AuthenticationAttempts.WithLabelValues(provider, result).Inc()
	}
}
