package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-system/internal/logging"
)

func TestAuthConfigValidate(t *testing.T) {
	assert.EqualError(t, AuthConfig{}.Validate(), "JWT_SECRET is required")
	assert.Error(t, AuthConfig{Secret: "change-me"}.Validate())
	assert.NoError(t, AuthConfig{Secret: "a-long-enough-signing-secret"}.Validate())
}

func TestLoadConfigHasNoDefaultSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/backoffice")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig(logging.Discard())
	require.NoError(t, err)
	assert.Empty(t, cfg.JWT.Secret)
	assert.Error(t, cfg.JWT.Validate())
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}
