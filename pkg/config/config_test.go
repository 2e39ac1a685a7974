package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.skillcompass.dev, https://staging.skillcompass.dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://app.skillcompass.dev",
		"https://staging.skillcompass.dev",
	}, cfg.Server.AllowedOrigins)
}

func TestLoad_AllowedOriginsDefaultsEmpty(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.AllowedOrigins)
}
