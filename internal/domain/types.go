// Package domain contains core business entities and types for visa document
// checklist generation and cross-document consistency validation.
//
// A checklist is computed per (country, visa type, applicant) from a layered
// set of rule sources and reconciled against the documents an applicant has
// actually uploaded.
package domain

import "errors"

// DocumentCategory classifies how strongly a document is requested.
type DocumentCategory string

const (
	CategoryRequired          DocumentCategory = "required"
	CategoryHighlyRecommended DocumentCategory = "highly_recommended"
	CategoryOptional          DocumentCategory = "optional"
)

// Priority represents the display priority of a checklist item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DocumentStatus represents the upload/verification state of a checklist item.
type DocumentStatus string

const (
	StatusMissing  DocumentStatus = "missing"
	StatusPending  DocumentStatus = "pending"
	StatusVerified DocumentStatus = "verified"
	StatusRejected DocumentStatus = "rejected"
)

// IssueSeverity represents the severity of a consistency issue.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReviewStatus is the overall outcome of a consistency validation run.
type ReviewStatus string

const (
	ReviewVerified    ReviewStatus = "verified"
	ReviewNeedsReview ReviewStatus = "needs_review"
	ReviewRejected    ReviewStatus = "rejected"
)

// CrossRefStatus represents the outcome of a single cross-document check.
type CrossRefStatus string

const (
	CrossRefConsistent   CrossRefStatus = "consistent"
	CrossRefInconsistent CrossRefStatus = "inconsistent"
	CrossRefUnknown      CrossRefStatus = "unknown"
)

// RiskLevel is the derived applicant risk band; conditions may gate on it.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Validation errors for checklist data integrity.
var (
	ErrInvalidCategory = errors.New("invalid document category")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid document status")
	ErrInvalidSeverity = errors.New("invalid issue severity")
)

// IsValid reports whether the category is one of the three supported values.
func (c DocumentCategory) IsValid() bool {
	switch c {
	case CategoryRequired, CategoryHighlyRecommended, CategoryOptional:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c DocumentCategory) String() string {
	return string(c)
}

// Required derives the required flag from the category. A checklist item's
// required flag must always agree with its category; callers derive it from
// here instead of setting it independently.
func (c DocumentCategory) Required() bool {
	return c == CategoryRequired
}

// DefaultPriority derives the priority implied by the category. Required
// documents are always high priority; highly recommended default to medium
// and optional to low.
func (c DocumentCategory) DefaultPriority() Priority {
	switch c {
	case CategoryRequired:
		return PriorityHigh
	case CategoryHighlyRecommended:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsValid reports whether the priority is a supported value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// IsValid reports whether the status is a supported value.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusMissing, StatusPending, StatusVerified, StatusRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid reports whether the severity is a supported value.
func (s IssueSeverity) IsValid() bool {
	return s == SeverityError || s == SeverityWarning
}

// String returns the string representation of the severity.
func (s IssueSeverity) String() string {
	return string(s)
}

// String returns the string representation of the review status.
func (r ReviewStatus) String() string {
	return string(r)
}

// String returns the string representation of the cross-reference status.
func (c CrossRefStatus) String() string {
	return string(c)
}

// IsValid reports whether the risk level is a supported value.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}
