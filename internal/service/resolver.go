package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/condition"
	"github.com/visabuddy/checklist-engine/internal/domain"
)

// errInsufficient signals that a source produced a result too small to
// trust, so resolution should fall through to the next source instead of
// returning a half-empty checklist.
var errInsufficient = errors.New("source produced an insufficient checklist")

// ResolverService produces a deterministic checklist for an applicant by
// walking an ordered list of rule sources until one yields a viable result:
// catalog references, embedded rule-set documents, curated static tables,
// then the generic default. The catalog source only participates when the
// feature switch is on.
type ResolverService struct {
	logger   *logrus.Logger
	store    domain.RuleSetStore
	catalog  domain.DocumentCatalog
	features domain.Features
	cfg      domain.ChecklistConfig
}

// NewResolverService creates a new resolver service.
func NewResolverService(
	logger *logrus.Logger,
	store domain.RuleSetStore,
	catalog domain.DocumentCatalog,
	features domain.Features,
	cfg domain.ChecklistConfig,
) *ResolverService {
	if cfg.MinViableItems <= 0 {
		cfg.MinViableItems = 4
	}
	return &ResolverService{
		logger:   logger,
		store:    store,
		catalog:  catalog,
		features: features,
		cfg:      cfg,
	}
}

// ruleSource is one layer of the resolution strategy.
type ruleSource struct {
	name    string
	resolve func(ctx context.Context, applicant *domain.ApplicantContext) ([]domain.ChecklistItem, error)
}

// Resolve walks the source list and returns the first viable checklist. The
// default source cannot be insufficient, so ErrNoDataSource only surfaces on
// a configuration bug where even the generic table is empty.
func (r *ResolverService) Resolve(ctx context.Context, applicant *domain.ApplicantContext) (*domain.GeneratedChecklist, error) {
	if applicant == nil {
		return nil, fmt.Errorf("resolve checklist: applicant context is required")
	}

	sources := r.sources()
	for _, src := range sources {
		items, err := src.resolve(ctx, applicant)
		if err != nil {
			level := logrus.WarnLevel
			if errors.Is(err, domain.ErrNoRuleSet) || errors.Is(err, errInsufficient) {
				level = logrus.DebugLevel
			}
			r.logger.WithFields(logrus.Fields{
				"source":    src.name,
				"country":   applicant.TargetCountry,
				"visa_type": applicant.VisaType,
			}).WithError(err).Log(level, "Rule source skipped")
			continue
		}
		if len(items) < r.cfg.MinViableItems {
			r.logger.WithFields(logrus.Fields{
				"source": src.name,
				"items":  len(items),
				"min":    r.cfg.MinViableItems,
			}).Debug("Rule source below viability threshold")
			continue
		}

		normalizeTerminology(items, applicant.TargetCountry)

		r.logger.WithFields(logrus.Fields{
			"source":    src.name,
			"country":   applicant.TargetCountry,
			"visa_type": applicant.VisaType,
			"items":     len(items),
		}).Info("Checklist resolved")

		return &domain.GeneratedChecklist{
			Country:     applicant.TargetCountry,
			VisaType:    applicant.VisaType,
			Items:       items,
			AIGenerated: false,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	return nil, fmt.Errorf("resolve checklist for %s/%s: %w",
		applicant.TargetCountry, applicant.VisaType, domain.ErrNoDataSource)
}

func (r *ResolverService) sources() []ruleSource {
	var sources []ruleSource
	if r.features != nil && r.features.CatalogEnabled() {
		sources = append(sources, ruleSource{name: "catalog", resolve: r.resolveCatalog})
	}
	sources = append(sources,
		ruleSource{name: "embedded", resolve: r.resolveEmbedded},
		ruleSource{name: "static", resolve: r.resolveStatic},
		ruleSource{name: "default", resolve: r.resolveDefault},
	)
	return sources
}

// resolveCatalog builds items from catalog references on the active rule
// set, applying per-reference overrides. A rule set without references is
// insufficient here even if it has embedded documents; those belong to the
// next source.
func (r *ResolverService) resolveCatalog(ctx context.Context, applicant *domain.ApplicantContext) ([]domain.ChecklistItem, error) {
	if r.store == nil || r.catalog == nil {
		return nil, errInsufficient
	}
	rs, err := r.store.ActiveRuleSet(ctx, applicant.TargetCountry, applicant.VisaType)
	if err != nil {
		return nil, err
	}
	refs, err := r.store.References(ctx, rs.ID)
	if err != nil {
		return nil, fmt.Errorf("load references for rule set %s: %w", rs.ID, err)
	}
	if len(refs) == 0 {
		return nil, errInsufficient
	}

	var items []domain.ChecklistItem
	for _, ref := range refs {
		doc, err := r.catalog.CatalogDocument(ctx, ref.CatalogID)
		if err != nil {
			// A dangling reference must not poison the whole source.
			if errors.Is(err, domain.ErrNotFound) {
				r.logger.WithFields(logrus.Fields{
					"rule_set_id": rs.ID,
					"catalog_id":  ref.CatalogID,
				}).Warn("Dangling catalog reference skipped")
				continue
			}
			return nil, fmt.Errorf("load catalog document %s: %w", ref.CatalogID, err)
		}

		category := doc.Category
		if ref.CategoryOverride != "" {
			category = ref.CategoryOverride
		}
		cond := doc.Condition
		if ref.ConditionOverride != "" {
			cond = ref.ConditionOverride
		}
		description := doc.Description
		if ref.DescriptionOverride != "" {
			description = ref.DescriptionOverride
		}

		if !r.applies(cond, applicant) {
			continue
		}
		item := domain.NewChecklistItem(doc.DocumentType, doc.Name, description, category)
		item.HowToObtain = doc.HowToObtain
		items = append(items, item)
	}
	return items, nil
}

// resolveEmbedded builds items from the documents embedded directly in the
// active rule set.
func (r *ResolverService) resolveEmbedded(ctx context.Context, applicant *domain.ApplicantContext) ([]domain.ChecklistItem, error) {
	if r.store == nil {
		return nil, errInsufficient
	}
	rs, err := r.store.ActiveRuleSet(ctx, applicant.TargetCountry, applicant.VisaType)
	if err != nil {
		return nil, err
	}
	if len(rs.Documents) == 0 {
		return nil, errInsufficient
	}
	return r.itemsFromRules(rs.Documents, applicant), nil
}

func (r *ResolverService) resolveStatic(_ context.Context, applicant *domain.ApplicantContext) ([]domain.ChecklistItem, error) {
	rules := staticChecklistRules(applicant.TargetCountry, applicant.VisaType)
	if rules == nil {
		return nil, errInsufficient
	}
	return r.itemsFromRules(rules, applicant), nil
}

func (r *ResolverService) resolveDefault(_ context.Context, applicant *domain.ApplicantContext) ([]domain.ChecklistItem, error) {
	return r.itemsFromRules(defaultChecklistRules(applicant.VisaType), applicant), nil
}

func (r *ResolverService) itemsFromRules(rules []domain.RequiredDocumentRule, applicant *domain.ApplicantContext) []domain.ChecklistItem {
	var items []domain.ChecklistItem
	for _, rule := range rules {
		if !r.applies(rule.Condition, applicant) {
			continue
		}
		item := domain.NewChecklistItem(rule.DocumentType, rule.Name, rule.Description, rule.Category)
		item.HowToObtain = rule.HowToObtain
		items = append(items, item)
	}
	return items
}

// applies evaluates a gating condition against the applicant. Unknown is
// treated as applicable: when the profile cannot answer, the applicant is
// asked for the document rather than silently excused from it.
func (r *ResolverService) applies(expr string, applicant *domain.ApplicantContext) bool {
	result := condition.Evaluate(expr, applicant)
	if result == condition.Unknown && expr != "" {
		r.logger.WithField("condition", expr).Debug("Condition unresolved, including document")
	}
	return result != condition.False
}
