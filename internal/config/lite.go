// Package config provides configuration management for the checklist engine.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LiteConfig is a simplified configuration for standalone operation. It runs
// on SQLite and an in-process cache, with no PostgreSQL or Redis.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the SQLite database

	// Cache settings
	CacheMaxItems int           // Maximum checklists in the memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Language model settings
	LLMBaseURL string // OpenAI-compatible endpoint
	LLMAPIKey  string // Optional: empty disables AI generation
	LLMModel   string

	// HTTP settings
	HTTPPort int

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".checklist-engine")

	return &LiteConfig{
		DataDir:       dataDir,
		CacheMaxItems: 256,
		CacheTTL:      time.Hour,
		LLMBaseURL:    "https://api.openai.com/v1",
		LLMModel:      "gpt-4o-mini",
		HTTPPort:      8080,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("VISA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("VISA_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("VISA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("VISA_LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	cfg.LLMAPIKey = os.Getenv("VISA_LLM_API_KEY")
	if v := os.Getenv("VISA_LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}

	if v := os.Getenv("VISA_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.HTTPPort = n
		}
	}

	if v := os.Getenv("VISA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VISA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// DatabasePath returns the SQLite database file path.
func (c *LiteConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "documents.db")
}
