package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// GeneratorService produces personalized checklists through a language
// model, with structural validation, bounded retries and a deterministic
// resolver fallback. Generation never fails hard as long as the resolver has
// a data source: the worst case is a non-AI checklist.
type GeneratorService struct {
	logger   *logrus.Logger
	llm      domain.LanguageModel
	resolver *ResolverService
	cache    domain.ChecklistCache
	cfg      domain.ChecklistConfig
	timeout  time.Duration
}

// NewGeneratorService creates a new generator service. The cache is
// optional; a nil cache disables caching.
func NewGeneratorService(
	logger *logrus.Logger,
	llm domain.LanguageModel,
	resolver *ResolverService,
	cache domain.ChecklistCache,
	cfg domain.ChecklistConfig,
	timeout time.Duration,
) *GeneratorService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.MinItems <= 0 {
		cfg.MinItems = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeneratorService{
		logger:   logger,
		llm:      llm,
		resolver: resolver,
		cache:    cache,
		cfg:      cfg,
		timeout:  timeout,
	}
}

// GenerateParams are the inputs to one checklist generation.
type GenerateParams struct {
	ApplicationID string
	Applicant     *domain.ApplicantContext
}

// Generate runs the attempt loop: call the model, parse, validate, retry
// once with the validation problems attached, and fall back to the resolver
// when both attempts fail or the context is done. Attempts are sequential;
// there is no speculative parallel call because each model call is billed.
func (g *GeneratorService) Generate(ctx context.Context, params *GenerateParams) (*domain.GeneratedChecklist, error) {
	if params == nil || params.Applicant == nil {
		return nil, fmt.Errorf("generate checklist: applicant context is required")
	}
	applicant := params.Applicant

	cacheKey := g.cacheKey(params)
	if g.cache != nil && cacheKey != "" {
		if cached, ok := g.cache.Get(ctx, cacheKey); ok {
			g.logger.WithField("application_id", params.ApplicationID).Debug("Checklist served from cache")
			return cached, nil
		}
	}

	log := g.logger.WithFields(logrus.Fields{
		"application_id": params.ApplicationID,
		"country":        applicant.TargetCountry,
		"visa_type":      applicant.VisaType,
	})

	checklist, err := g.generateWithModel(ctx, applicant, log)
	if err != nil {
		log.WithError(err).Warn("AI generation failed, falling back to deterministic resolver")
		checklist, err = g.resolver.Resolve(ctx, applicant)
		if err != nil {
			return nil, fmt.Errorf("generate checklist: %w", err)
		}
		checklist.Notes = append(checklist.Notes,
			"This is a basic checklist. Please verify specific requirements with the embassy.")
	}

	if g.cache != nil && cacheKey != "" {
		g.cache.Set(ctx, cacheKey, checklist)
	}
	return checklist, nil
}

// generateWithModel drives the bounded attempt loop against the language
// model. It returns ErrChecklistRejected (wrapped) when every attempt
// produced a structurally invalid response.
func (g *GeneratorService) generateWithModel(ctx context.Context, applicant *domain.ApplicantContext, log *logrus.Entry) (*domain.GeneratedChecklist, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("no language model configured")
	}

	systemPrompt := buildSystemPrompt(applicant.AppLanguage)
	userPrompt := buildUserPrompt(applicant)

	var lastProblems []string
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation aborted: %w", err)
		}
		if attempt > 1 {
			userPrompt = buildRetryPrompt(applicant, lastProblems)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		raw, err := g.llm.Complete(attemptCtx, systemPrompt, userPrompt)
		cancel()
		if err != nil {
			// Transport failures are not worth a reworded retry; the
			// prompt was not the problem.
			return nil, fmt.Errorf("model call failed on attempt %d: %w", attempt, err)
		}

		items, notes, err := parseChecklistResponse(raw)
		if err != nil {
			lastProblems = []string{err.Error()}
			log.WithError(err).WithField("attempt", attempt).Warn("Model response unparseable")
			continue
		}

		issues := validateItems(items, applicant.TargetCountry, applicant.VisaType, g.cfg)
		if hasHardIssue(issues) {
			lastProblems = issueMessages(issues)
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"issues":  len(issues),
			}).Warn("Model response failed structural validation")
			continue
		}

		items = normalizeItems(items)
		for _, issue := range issues {
			log.WithField("field", issue.Field).Debug("Soft validation issue auto-corrected: " + issue.Message)
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"items":   len(items),
		}).Info("AI checklist generated")

		return &domain.GeneratedChecklist{
			Country:     applicant.TargetCountry,
			VisaType:    applicant.VisaType,
			Items:       items,
			Notes:       notes,
			AIGenerated: true,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	return nil, fmt.Errorf("%d attempts exhausted: %w", g.cfg.MaxAttempts, domain.ErrChecklistRejected)
}

func (g *GeneratorService) cacheKey(params *GenerateParams) string {
	if params.ApplicationID == "" {
		return ""
	}
	return fmt.Sprintf("checklist:%s:%s:%s:%s",
		params.ApplicationID,
		params.Applicant.TargetCountry,
		params.Applicant.VisaType,
		params.Applicant.AppLanguage,
	)
}
