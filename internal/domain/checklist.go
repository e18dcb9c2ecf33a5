package domain

import (
	"errors"
	"fmt"
	"time"
)

// ChecklistItem is one document entry in a generated checklist. DocumentType
// is the stable join key to uploaded documents; display names are model
// generated and not stable across calls, so they must never be used for
// matching.
type ChecklistItem struct {
	DocumentType string           `json:"documentType"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	HowToObtain  string           `json:"howToObtain,omitempty"`
	Category     DocumentCategory `json:"category"`
	Required     bool             `json:"required"`
	Priority     Priority         `json:"priority"`

	// Populated by the merge step from the uploaded-document store.
	Status             DocumentStatus `json:"status"`
	UploadedDocumentID string         `json:"uploadedDocumentId,omitempty"`
	FileURL            string         `json:"fileUrl,omitempty"`
	FileName           string         `json:"fileName,omitempty"`
	FileSize           int64          `json:"fileSize,omitempty"`
	VerifiedConfidence float64        `json:"verifiedConfidence,omitempty"`
	VerificationNotes  string         `json:"verificationNotes,omitempty"`
}

// Validate enforces the category/required invariant and the presence of the
// join key.
func (c *ChecklistItem) Validate() error {
	if c.DocumentType == "" {
		return fmt.Errorf("checklist item validation: %w", errors.New("documentType is required"))
	}
	if c.Name == "" {
		return fmt.Errorf("checklist item validation: %w", errors.New("name is required"))
	}
	if !c.Category.IsValid() {
		return fmt.Errorf("checklist item validation: %w", ErrInvalidCategory)
	}
	if c.Required != c.Category.Required() {
		return fmt.Errorf("checklist item validation: required flag disagrees with category %s", c.Category)
	}
	if c.Priority != "" && !c.Priority.IsValid() {
		return fmt.Errorf("checklist item validation: %w", ErrInvalidPriority)
	}
	if c.Status != "" && !c.Status.IsValid() {
		return fmt.Errorf("checklist item validation: %w", ErrInvalidStatus)
	}
	return nil
}

// NewChecklistItem builds an item with required and priority derived from
// the category, keeping the category/required/priority triangle consistent
// by construction.
func NewChecklistItem(documentType, name, description string, category DocumentCategory) ChecklistItem {
	return ChecklistItem{
		DocumentType: documentType,
		Name:         name,
		Description:  description,
		Category:     category,
		Required:     category.Required(),
		Priority:     category.DefaultPriority(),
		Status:       StatusMissing,
	}
}

// GeneratedChecklist is the outcome of one checklist computation.
// AIGenerated is false whenever the deterministic resolver produced the
// items, including after AI generation failed validation.
type GeneratedChecklist struct {
	Country     string          `json:"country"`
	VisaType    string          `json:"visaType"`
	Items       []ChecklistItem `json:"checklist"`
	Notes       []string        `json:"notes,omitempty"`
	AIGenerated bool            `json:"aiGenerated"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// RequiredCount returns the number of required items.
func (g *GeneratedChecklist) RequiredCount() int {
	n := 0
	for i := range g.Items {
		if g.Items[i].Required {
			n++
		}
	}
	return n
}
