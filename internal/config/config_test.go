package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreBackendMemory, cfg.StoreBackend)
	assert.Equal(t, int64(1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 60*time.Second, cfg.HTTPWriteTimeout)
	assert.Equal(t, 1000, cfg.SessionCacheSize)
	assert.False(t, cfg.SessionCookieSecure)
}

func TestLoadRequiresProviderKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "gemini")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("SESSION_COOKIE_SECURE", "yes")
	t.Setenv("HTTP_WRITE_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, StoreBackendSQLite, cfg.StoreBackend)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.True(t, cfg.SessionCookieSecure)
	assert.Equal(t, 90*time.Second, cfg.HTTPWriteTimeout)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	base := Config{
		LLMProvider:      ProviderGemini,
		GeminiAPIKey:     "k",
		HTTPPort:         "8080",
		StoreBackend:     StoreBackendMemory,
		SessionCacheSize: 1,
		MaxUploadBytes:   1,
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.LLMProvider = "claude"
	assert.Error(t, bad.Validate())

	bad = base
	bad.StoreBackend = "redis"
	assert.Error(t, bad.Validate())

	bad = base
	bad.MaxUploadBytes = 0
	assert.Error(t, bad.Validate())
}
