package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-desk", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "support_session", cfg.Auth.SessionCookieName)
	assert.Equal(t, 10, cfg.Auth.LoginMaxAttempts)
	assert.False(t, cfg.GLPI.Enabled(), "mirror stays off without credentials")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_SESSION_COOKIE", "sid")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "sid", cfg.Auth.SessionCookieName)
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
}

func TestGLPIConfigEnabled(t *testing.T) {
	t.Setenv("GLPI_API_URL", "https://glpi.example.com/apirest.php/")
	t.Setenv("GLPI_APP_TOKEN", "app")
	t.Setenv("GLPI_AUTH_TOKEN", "user_token  abc123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GLPI.Enabled())
	assert.Equal(t, "https://glpi.example.com/apirest.php", cfg.GLPI.APIURL, "trailing slash trimmed")
	assert.Equal(t, "abc123", cfg.GLPI.UserToken, "pasted user_token prefix stripped")
}

func TestGLPIRequestTimeoutFallback(t *testing.T) {
	g := GLPIConfig{}
	assert.Equal(t, 30*time.Second, g.RequestTimeout())
	g.RequestTimeoutSeconds = 3
	assert.Equal(t, 3*time.Second, g.RequestTimeout())
}
