// Package repository contains PostgreSQL persistence for rule sets and the
// shared document catalog.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// catalogCacheSize bounds the in-process catalog cache. The catalog is small
// and effectively immutable between deployments, so a modest cache absorbs
// nearly all lookups.
const catalogCacheSize = 512

// RuleSetRepository handles rule-set and catalog persistence. It implements
// domain.RuleSetStore and domain.DocumentCatalog.
type RuleSetRepository struct {
	db      *pgxpool.Pool
	log     *logrus.Logger
	catalog *lru.Cache[string, domain.CatalogDocument]
}

// NewRuleSetRepository creates a new rule-set repository.
func NewRuleSetRepository(db *pgxpool.Pool, logger *logrus.Logger) *RuleSetRepository {
	catalog, _ := lru.New[string, domain.CatalogDocument](catalogCacheSize)
	return &RuleSetRepository{
		db:      db,
		log:     logger,
		catalog: catalog,
	}
}

// ActiveRuleSet returns the approved rule set for a (country, visa type)
// pair. With several approved versions the highest wins; drafts are never
// visible here.
func (r *RuleSetRepository) ActiveRuleSet(ctx context.Context, countryCode, visaType string) (*domain.RuleSet, error) {
	query := `
		SELECT id, country_code, visa_type, version, approved, documents, created_at, updated_at
		FROM rule_sets
		WHERE country_code = $1 AND visa_type = $2 AND approved = true
		ORDER BY version DESC
		LIMIT 1`

	var rs domain.RuleSet
	var documents []byte

	err := r.db.QueryRow(ctx, query, countryCode, visaType).Scan(
		&rs.ID,
		&rs.CountryCode,
		&rs.VisaType,
		&rs.Version,
		&rs.Approved,
		&documents,
		&rs.CreatedAt,
		&rs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("rule set for %s/%s: %w", countryCode, visaType, domain.ErrNoRuleSet)
		}
		r.log.WithFields(logrus.Fields{
			"country":   countryCode,
			"visa_type": visaType,
			"error":     err,
		}).Error("Failed to load active rule set")
		return nil, fmt.Errorf("loading rule set: %w", err)
	}

	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &rs.Documents); err != nil {
			return nil, fmt.Errorf("decoding rule set documents: %w", err)
		}
	}
	return &rs, nil
}

// References returns catalog references for a rule set ordered by sort
// order.
func (r *RuleSetRepository) References(ctx context.Context, ruleSetID string) ([]domain.DocumentReference, error) {
	query := `
		SELECT id, rule_set_id, catalog_id, sort_order,
			   COALESCE(category_override, ''), COALESCE(condition_override, ''),
			   COALESCE(description_override, '')
		FROM document_references
		WHERE rule_set_id = $1
		ORDER BY sort_order ASC`

	rows, err := r.db.Query(ctx, query, ruleSetID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"rule_set_id": ruleSetID,
			"error":       err,
		}).Error("Failed to load document references")
		return nil, fmt.Errorf("loading references: %w", err)
	}
	defer rows.Close()

	var refs []domain.DocumentReference
	for rows.Next() {
		var ref domain.DocumentReference
		var categoryOverride string
		if err := rows.Scan(
			&ref.ID,
			&ref.RuleSetID,
			&ref.CatalogID,
			&ref.SortOrder,
			&categoryOverride,
			&ref.ConditionOverride,
			&ref.DescriptionOverride,
		); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		ref.CategoryOverride = domain.DocumentCategory(categoryOverride)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating references: %w", err)
	}
	return refs, nil
}

// CatalogDocument returns one canonical document definition by id. Hits are
// served from an in-process LRU; only misses reach the database.
func (r *RuleSetRepository) CatalogDocument(ctx context.Context, id string) (*domain.CatalogDocument, error) {
	if cached, ok := r.catalog.Get(id); ok {
		doc := cached
		return &doc, nil
	}

	query := `
		SELECT id, document_type, name, description,
			   COALESCE(how_to_obtain, ''), category, COALESCE(condition, '')
		FROM catalog_documents
		WHERE id = $1`

	var doc domain.CatalogDocument
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.DocumentType,
		&doc.Name,
		&doc.Description,
		&doc.HowToObtain,
		&doc.Category,
		&doc.Condition,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("loading catalog document: %w", err)
	}
	r.catalog.Add(id, doc)
	return &doc, nil
}

// CreateRuleSet inserts a new rule-set version as an unapproved draft.
func (r *RuleSetRepository) CreateRuleSet(ctx context.Context, rs *domain.RuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	documents, err := json.Marshal(rs.Documents)
	if err != nil {
		return fmt.Errorf("encoding rule set documents: %w", err)
	}

	query := `
		INSERT INTO rule_sets (id, country_code, visa_type, version, approved, documents)
		VALUES ($1, $2, $3, $4, false, $5)`

	_, err = r.db.Exec(ctx, query, rs.ID, rs.CountryCode, rs.VisaType, rs.Version, documents)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"rule_set_id": rs.ID,
			"country":     rs.CountryCode,
			"visa_type":   rs.VisaType,
			"error":       err,
		}).Error("Failed to create rule set")
		return fmt.Errorf("creating rule set: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"rule_set_id": rs.ID,
		"country":     rs.CountryCode,
		"visa_type":   rs.VisaType,
		"version":     rs.Version,
	}).Info("Rule set created")
	return nil
}

// ApproveRuleSet marks one rule-set version approved, making it the active
// definition for its pair.
func (r *RuleSetRepository) ApproveRuleSet(ctx context.Context, id string) error {
	query := `UPDATE rule_sets SET approved = true, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("approving rule set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule set %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
