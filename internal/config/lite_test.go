package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.LLMAPIKey)
}

func TestLoadLiteConfig_Env(t *testing.T) {
	t.Setenv("VISA_DATA_DIR", "/tmp/visadata")
	t.Setenv("VISA_CACHE_MAX_ITEMS", "42")
	t.Setenv("VISA_CACHE_TTL", "30m")
	t.Setenv("VISA_LLM_API_KEY", "sk-test")
	t.Setenv("VISA_LLM_MODEL", "my-model")
	t.Setenv("VISA_HTTP_PORT", "9090")
	t.Setenv("VISA_LOG_LEVEL", "debug")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/visadata", cfg.DataDir)
	assert.Equal(t, 42, cfg.CacheMaxItems)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, "my-model", cfg.LLMModel)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLiteConfig_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("VISA_CACHE_MAX_ITEMS", "not-a-number")
	t.Setenv("VISA_HTTP_PORT", "99999")
	t.Setenv("VISA_CACHE_TTL", "soon")

	cfg := LoadLiteConfig()

	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestLiteConfig_DatabasePath(t *testing.T) {
	cfg := DefaultLiteConfig()
	cfg.DataDir = "/srv/data"
	assert.Equal(t, filepath.Join("/srv/data", "documents.db"), cfg.DatabasePath())
}
