package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "portfolio", cfg.RedisKeyPrefix)
	assert.Equal(t, 60*time.Second, cfg.Cooldown)
	assert.Equal(t, 10*time.Minute, cfg.DuplicateWindow)
	assert.True(t, cfg.TurnstileEnabled)
	assert.False(t, cfg.TurnstileConfigured)
	assert.True(t, cfg.Testing())
	assert.True(t, cfg.Relaxed())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2 ,")
	t.Setenv("FRONTEND_URL", "https://example.com/")
	t.Setenv("COOLDOWN", "90s")
	t.Setenv("SUBMIT_LIMIT_PER_WINDOW", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	assert.Equal(t, "https://example.com", cfg.FrontendURL)
	assert.Equal(t, 90*time.Second, cfg.Cooldown)
	assert.Equal(t, 3, cfg.SubmitLimitPerWindow)
}

func TestLoad_TurnstileConfiguredFollowsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("TURNSTILE_SECRET_KEY", "0x-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.TurnstileConfigured)

	t.Setenv("TURNSTILE_CONFIGURED", "false")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.False(t, cfg.TurnstileConfigured, "explicit flag wins")
}

func TestServeReady_RequiresSessionSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEBUG", "false")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err, "other commands run without a session secret")
	assert.False(t, cfg.Relaxed())
	assert.ErrorIs(t, cfg.ServeReady(), ErrSessionSecretRequired)

	t.Setenv("SESSION_SECRET", "s3cret")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.ServeReady())
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\ndebug: true\nlog_format: text\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "text", cfg.LogFormat)

	t.Setenv("PORT", "7001")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Port)
}

func TestCaptcha(t *testing.T) {
	cfg := Config{TurnstileEnabled: true, TurnstileConfigured: true, TurnstileSecretKey: "k", Debug: true}
	captcha := cfg.Captcha()
	assert.True(t, captcha.Enabled)
	assert.True(t, captcha.Configured)
	assert.True(t, captcha.Debug)
	assert.Equal(t, "k", captcha.Secret)
}
