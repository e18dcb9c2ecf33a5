// Package main provides the lightweight entry point for the checklist
// engine. This version requires no external services: documents live in
// SQLite, checklists are cached in process, and rule resolution runs on the
// embedded rule tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/api"
	"github.com/visabuddy/checklist-engine/internal/cache"
	"github.com/visabuddy/checklist-engine/internal/config"
	"github.com/visabuddy/checklist-engine/internal/domain"
	"github.com/visabuddy/checklist-engine/internal/llm"
	"github.com/visabuddy/checklist-engine/internal/service"
	"github.com/visabuddy/checklist-engine/internal/store"
)

func main() {
	liteCfg := config.LoadLiteConfig()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(liteCfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if liteCfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.WithField("data_dir", liteCfg.DataDir).Info("Starting checklist engine (lite)")

	documents, err := store.NewSQLiteStore(liteCfg.DatabasePath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open document store")
	}
	defer documents.Close()

	checklistCache, err := cache.NewLocalCache(liteCfg.CacheMaxItems, liteCfg.CacheTTL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create cache")
	}

	llmCfg := domain.LLMConfig{
		BaseURL: liteCfg.LLMBaseURL,
		APIKey:  liteCfg.LLMAPIKey,
		Model:   liteCfg.LLMModel,
		Timeout: 30 * time.Second,
	}
	var model domain.LanguageModel
	if llmCfg.APIKey != "" {
		model = llm.NewClient(logger, llmCfg)
	} else {
		logger.Warn("No LLM API key configured, checklists will use rule-based generation only")
	}

	cfg := &domain.Config{
		Server: domain.ServerConfig{
			Host:         "0.0.0.0",
			Port:         liteCfg.HTTPPort,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Checklist: domain.ChecklistConfig{MinItems: 4, MaxItems: 25, MaxAttempts: 2, MinViableItems: 4},
		Logging:   domain.LoggingConfig{Level: liteCfg.LogLevel, Format: liteCfg.LogFormat},
	}

	// No rule set database in lite mode: the resolver starts at the
	// embedded country tables.
	resolver := service.NewResolverService(logger, nil, nil, nil, cfg.Checklist)
	generator := service.NewGeneratorService(logger, model, resolver, checklistCache, cfg.Checklist, llmCfg.Timeout)
	merge := service.NewMergeService(logger)
	validator := service.NewValidatorService(logger, documents)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(logger, cfg, generator, merge, validator, documents, nil)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Checklist engine (lite) stopped")
}
