package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/api"
	"github.com/visabuddy/checklist-engine/internal/cache"
	"github.com/visabuddy/checklist-engine/internal/config"
	"github.com/visabuddy/checklist-engine/internal/database"
	"github.com/visabuddy/checklist-engine/internal/domain"
	"github.com/visabuddy/checklist-engine/internal/llm"
	"github.com/visabuddy/checklist-engine/internal/repository"
	"github.com/visabuddy/checklist-engine/internal/service"
	"github.com/visabuddy/checklist-engine/internal/store"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting checklist engine")

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbConfig := database.ConfigFromDomain(cfg.Database)

	// Apply pending migrations before opening the pools
	runner, err := database.NewMigrationRunner(dbConfig.URL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := runner.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to apply migrations")
	}
	runner.Close()

	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	documents, err := store.NewPostgresStoreFromURL(dbConfig.URL())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open document store")
	}
	defer documents.Close()

	// Redis is optional: fall back to an in-process LRU when unreachable
	var checklistCache domain.ChecklistCache
	if redisCache, err := cache.NewRedisCache(logger, cfg.Cache); err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-process cache")
		localCache, err := cache.NewLocalCache(cfg.Cache.LocalSize, cfg.Cache.DefaultTTL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create local cache")
		}
		checklistCache = localCache
	} else {
		defer redisCache.Close()
		checklistCache = redisCache
	}

	var model domain.LanguageModel
	if cfg.LLM.APIKey != "" {
		model = llm.NewClient(logger, cfg.LLM)
	} else {
		logger.Warn("No LLM API key configured, checklists will use rule-based generation only")
	}

	ruleSets := repository.NewRuleSetRepository(db.Pool, logger)
	resolver := service.NewResolverService(logger, ruleSets, ruleSets, configManager, cfg.Checklist)
	generator := service.NewGeneratorService(logger, model, resolver, checklistCache, cfg.Checklist, cfg.LLM.Timeout)
	merge := service.NewMergeService(logger)
	validator := service.NewValidatorService(logger, documents)

	server := api.NewServer(logger, cfg, generator, merge, validator, documents, ruleSets)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
