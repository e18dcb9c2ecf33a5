package domain

import (
	"context"
)

// RuleSetStore reads approved rule-set data for the resolver.
type RuleSetStore interface {
	// ActiveRuleSet returns the approved rule set for the pair, or
	// ErrNoRuleSet when none exists.
	ActiveRuleSet(ctx context.Context, countryCode, visaType string) (*RuleSet, error)
	// References returns catalog references for a rule set, ordered by
	// sort order.
	References(ctx context.Context, ruleSetID string) ([]DocumentReference, error)
}

// RuleSetAdmin manages rule-set versions for the authoring flow. New
// versions start as drafts; approval makes a version active.
type RuleSetAdmin interface {
	CreateRuleSet(ctx context.Context, rs *RuleSet) error
	ApproveRuleSet(ctx context.Context, id string) error
}

// DocumentCatalog resolves catalog references to canonical definitions.
type DocumentCatalog interface {
	CatalogDocument(ctx context.Context, id string) (*CatalogDocument, error)
}

// DocumentStore reads and writes uploaded-document records.
type DocumentStore interface {
	ListByApplication(ctx context.Context, applicationID string) ([]UploadedDocument, error)
	// SaveVerification writes back verification status and notes after a
	// validation run. The core computes the values; persistence is the
	// collaborator's job.
	SaveVerification(ctx context.Context, documentID string, status DocumentStatus, confidence float64, notes string) error
}

// LanguageModel is the unreliable black box that produces checklist JSON
// from a prompt. Implementations must honor ctx cancellation and deadlines.
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Features exposes runtime feature switches. CatalogEnabled is read once per
// resolution call.
type Features interface {
	CatalogEnabled() bool
}

// ChecklistCache caches generated checklists keyed by application.
type ChecklistCache interface {
	Get(ctx context.Context, key string) (*GeneratedChecklist, bool)
	Set(ctx context.Context, key string, checklist *GeneratedChecklist)
}
