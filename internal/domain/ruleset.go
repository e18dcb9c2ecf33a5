package domain

import (
	"errors"
	"fmt"
	"time"
)

// RequiredDocumentRule is one document requirement embedded in a rule set.
// Condition, when non-empty, is a boolean expression over the applicant
// context deciding whether the document applies.
type RequiredDocumentRule struct {
	DocumentType     string           `json:"documentType"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	HowToObtain      string           `json:"howToObtain,omitempty"`
	Category         DocumentCategory `json:"category"`
	MinBalance       float64          `json:"minBalance,omitempty"`
	MinHistoryMonths int              `json:"minHistoryMonths,omitempty"`
	Condition        string           `json:"condition,omitempty"`
}

// Validate ensures the rule carries the fields the resolver depends on.
func (r *RequiredDocumentRule) Validate() error {
	if r.DocumentType == "" {
		return fmt.Errorf("document rule validation: %w", errors.New("documentType is required"))
	}
	if r.Name == "" {
		return fmt.Errorf("document rule validation: %w", errors.New("name is required"))
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("document rule validation: %w", ErrInvalidCategory)
	}
	return nil
}

// DocumentReference points from a rule set into the shared document catalog.
// Overrides, when set, replace the catalog template's wording.
type DocumentReference struct {
	ID                  string           `json:"id"`
	RuleSetID           string           `json:"ruleSetId"`
	CatalogID           string           `json:"catalogId"`
	SortOrder           int              `json:"sortOrder"`
	CategoryOverride    DocumentCategory `json:"categoryOverride,omitempty"`
	ConditionOverride   string           `json:"conditionOverride,omitempty"`
	DescriptionOverride string           `json:"descriptionOverride,omitempty"`
}

// CatalogDocument is a canonical document definition shared across rule sets.
type CatalogDocument struct {
	ID           string           `json:"id"`
	DocumentType string           `json:"documentType"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	HowToObtain  string           `json:"howToObtain,omitempty"`
	Category     DocumentCategory `json:"category"`
	Condition    string           `json:"condition,omitempty"`
}

// RuleSet is a versioned document-requirement definition for one
// (country, visa type) pair. At most one rule set is approved (active) per
// pair at a time; unapproved drafts are invisible to the resolver.
type RuleSet struct {
	ID          string                 `json:"id"`
	CountryCode string                 `json:"countryCode"`
	VisaType    string                 `json:"visaType"`
	Version     int                    `json:"version"`
	Approved    bool                   `json:"approved"`
	Documents   []RequiredDocumentRule `json:"documents"`
	References  []DocumentReference    `json:"references,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Validate ensures the rule set identifies its pair and that every embedded
// rule is itself valid.
func (rs *RuleSet) Validate() error {
	if rs.CountryCode == "" {
		return fmt.Errorf("rule set validation: %w", errors.New("countryCode is required"))
	}
	if rs.VisaType == "" {
		return fmt.Errorf("rule set validation: %w", errors.New("visaType is required"))
	}
	for i := range rs.Documents {
		if err := rs.Documents[i].Validate(); err != nil {
			return fmt.Errorf("rule set validation: document %d: %w", i, err)
		}
	}
	return nil
}
