package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "memory", cfg.StateBackend)
	assert.Equal(t, "estoque/", cfg.BackupPrefix)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.AuthEnabled)
	assert.False(t, cfg.BucketConfigured())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("R2_BUCKET_NAME", "stock")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.StateBackend)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.BucketConfigured())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Config{StateBackend: "memory"}).Validate())
	assert.Error(t, (&Config{AuthEnabled: true, JWTSecret: "short"}).Validate())
	assert.NoError(t, (&Config{AuthEnabled: true, JWTSecret: "0123456789abcdef0123456789abcdef"}).Validate())
	assert.Error(t, (&Config{StateBackend: "redis"}).Validate())
	assert.Error(t, (&Config{StateBackend: "postgres"}).Validate())
}
