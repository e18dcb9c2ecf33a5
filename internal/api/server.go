// Package api exposes the checklist engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/domain"
	"github.com/visabuddy/checklist-engine/internal/middleware"
	"github.com/visabuddy/checklist-engine/internal/service"
)

// Server represents the HTTP server.
type Server struct {
	logger    *logrus.Logger
	cfg       *domain.Config
	generator *service.GeneratorService
	merge     *service.MergeService
	validator *service.ValidatorService
	documents domain.DocumentStore
	ruleSets  domain.RuleSetAdmin
	router    *gin.Engine
	server    *http.Server
}

// NewServer creates a new HTTP server instance.
func NewServer(
	logger *logrus.Logger,
	cfg *domain.Config,
	generator *service.GeneratorService,
	merge *service.MergeService,
	validator *service.ValidatorService,
	documents domain.DocumentStore,
	ruleSets domain.RuleSetAdmin,
) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())

	server := &Server{
		logger:    logger,
		cfg:       cfg,
		generator: generator,
		merge:     merge,
		validator: validator,
		documents: documents,
		ruleSets:  ruleSets,
		router:    router,
	}
	server.setupRoutes()
	return server
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server started")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/checklist", s.handleGenerateChecklist)
		v1.GET("/applications/:id/progress", s.handleProgress)
		v1.POST("/applications/:id/validate", s.handleValidate)
		v1.POST("/rulesets", s.handleCreateRuleSet)
		v1.POST("/rulesets/:id/approve", s.handleApproveRuleSet)
	}
}

// ChecklistRequest is the payload for checklist generation.
type ChecklistRequest struct {
	ApplicationID string                  `json:"applicationId" binding:"required"`
	Applicant     domain.ApplicantContext `json:"applicant" binding:"required"`
}

// ChecklistResponse is the merged checklist with its progress.
type ChecklistResponse struct {
	ApplicationID string                     `json:"applicationId"`
	Checklist     *domain.GeneratedChecklist `json:"checklist"`
	Progress      int                        `json:"progress"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// handleGenerateChecklist generates a personalized checklist, merges it with
// the application's uploads and returns it with the current progress.
func (s *Server) handleGenerateChecklist(c *gin.Context) {
	var req ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body", err)
		return
	}
	if req.Applicant.TargetCountry == "" || req.Applicant.VisaType == "" {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput,
			"applicant.targetCountry and applicant.visaType are required", nil)
		return
	}

	checklist, err := s.generator.Generate(c.Request.Context(), &service.GenerateParams{
		ApplicationID: req.ApplicationID,
		Applicant:     &req.Applicant,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoDataSource) {
			s.respondError(c, http.StatusUnprocessableEntity, domain.CodeNoDataSource, "no checklist data source for this destination", err)
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.CodeGeneration, "checklist generation failed", err)
		return
	}

	uploads, err := s.listUploads(c.Request.Context(), req.ApplicationID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeDatabase, "failed to load uploaded documents", err)
		return
	}
	s.merge.MergeWithUploads(checklist, uploads)

	c.JSON(http.StatusOK, ChecklistResponse{
		ApplicationID: req.ApplicationID,
		Checklist:     checklist,
		Progress:      s.merge.Progress(checklist),
	})
}

// handleProgress recomputes completion for an application. Progress is never
// stored; it is derived from the checklist and uploads on every call.
func (s *Server) handleProgress(c *gin.Context) {
	applicationID := c.Param("id")
	country := c.Query("country")
	visaType := c.Query("visaType")
	if country == "" || visaType == "" {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput,
			"country and visaType query parameters are required", nil)
		return
	}

	checklist, err := s.generator.Generate(c.Request.Context(), &service.GenerateParams{
		ApplicationID: applicationID,
		Applicant: &domain.ApplicantContext{
			TargetCountry: country,
			VisaType:      visaType,
			AppLanguage:   c.Query("lang"),
		},
	})
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeGeneration, "failed to resolve checklist", err)
		return
	}

	uploads, err := s.listUploads(c.Request.Context(), applicationID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeDatabase, "failed to load uploaded documents", err)
		return
	}
	s.merge.MergeWithUploads(checklist, uploads)

	c.JSON(http.StatusOK, ChecklistResponse{
		ApplicationID: applicationID,
		Checklist:     checklist,
		Progress:      s.merge.Progress(checklist),
	})
}

// ValidateRequest is the payload for a consistency validation run.
type ValidateRequest struct {
	Applicant domain.ApplicantContext `json:"applicant" binding:"required"`
}

// handleValidate runs cross-document consistency checks over everything the
// application has uploaded.
func (s *Server) handleValidate(c *gin.Context) {
	applicationID := c.Param("id")

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body", err)
		return
	}

	checklist, err := s.generator.Generate(c.Request.Context(), &service.GenerateParams{
		ApplicationID: applicationID,
		Applicant:     &req.Applicant,
	})
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeGeneration, "failed to resolve checklist", err)
		return
	}

	uploads, err := s.listUploads(c.Request.Context(), applicationID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeDatabase, "failed to load uploaded documents", err)
		return
	}

	report, err := s.validator.Validate(c.Request.Context(), &service.ValidateParams{
		ApplicationID: applicationID,
		Applicant:     &req.Applicant,
		Checklist:     checklist,
		Uploads:       uploads,
	})
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeValidation, "consistency validation failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applicationId": applicationID,
		"report":        report,
	})
}

// RuleSetRequest is the payload for creating a new rule-set draft.
type RuleSetRequest struct {
	CountryCode string                        `json:"countryCode" binding:"required"`
	VisaType    string                        `json:"visaType" binding:"required"`
	Version     int                           `json:"version" binding:"required"`
	Documents   []domain.RequiredDocumentRule `json:"documents" binding:"required"`
}

// handleCreateRuleSet stores a new rule-set version as a draft. Drafts are
// invisible to the resolver until approved.
func (s *Server) handleCreateRuleSet(c *gin.Context) {
	if s.ruleSets == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.CodeInternalServer, "rule set administration is not available", nil)
		return
	}

	var req RuleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body", err)
		return
	}

	rs := &domain.RuleSet{
		ID:          uuid.NewString(),
		CountryCode: req.CountryCode,
		VisaType:    req.VisaType,
		Version:     req.Version,
		Documents:   req.Documents,
	}
	if err := rs.Validate(); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid rule set", err)
		return
	}
	if err := s.ruleSets.CreateRuleSet(c.Request.Context(), rs); err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.CodeDatabase, "failed to create rule set", err)
		return
	}
	c.JSON(http.StatusCreated, rs)
}

// handleApproveRuleSet promotes a draft to the active version for its pair.
func (s *Server) handleApproveRuleSet(c *gin.Context) {
	if s.ruleSets == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.CodeInternalServer, "rule set administration is not available", nil)
		return
	}

	id := c.Param("id")
	if err := s.ruleSets.ApproveRuleSet(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.CodeInvalidInput, "rule set not found", err)
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.CodeDatabase, "failed to approve rule set", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approved": true})
}

func (s *Server) listUploads(ctx context.Context, applicationID string) ([]domain.UploadedDocument, error) {
	if s.documents == nil || applicationID == "" {
		return nil, nil
	}
	return s.documents.ListByApplication(ctx, applicationID)
}

func (s *Server) respondError(c *gin.Context, status int, code, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"status": status,
			"code":   code,
		}).Error(message)
	}
	c.JSON(status, domain.NewEngineError(code, message, details, c.GetString("correlation_id")))
}

// corsMiddleware adds CORS headers to responses.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
