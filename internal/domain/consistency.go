package domain

import "time"

// Issue types raised by the consistency validator.
const (
	IssueAmountMismatch    = "amount_mismatch"
	IssueMissingRelatedDoc = "missing_related_doc"
	IssueSponsorMismatch   = "sponsor_mismatch"
	IssueDateInconsistency = "date_inconsistency"
	IssueMissingDocument   = "missing_document"
)

// Cross-reference check types.
const (
	CheckFinancial = "financial"
	CheckSponsor   = "sponsor"
	CheckDates     = "dates"
)

// ConsistencyIssue is a structured finding about the uploaded document set.
// Issues are data, not errors: the caller decides what to do with them.
type ConsistencyIssue struct {
	Type              string        `json:"type"`
	Severity          IssueSeverity `json:"severity"`
	Message           string        `json:"message"`
	AffectedDocuments []string      `json:"affectedDocuments"`
}

// CrossReference records one pairwise check between two documents.
type CrossReference struct {
	SourceDocument string         `json:"sourceDocument"`
	TargetDocument string         `json:"targetDocument"`
	CheckType      string         `json:"checkType"`
	Status         CrossRefStatus `json:"status"`
	Details        string         `json:"details,omitempty"`
}

// ConsistencyReport is the full outcome of one validation run, produced
// fresh on every call.
type ConsistencyReport struct {
	OverallStatus   ReviewStatus       `json:"overallStatus"`
	Issues          []ConsistencyIssue `json:"issues"`
	CrossReferences []CrossReference   `json:"crossReferences"`
	ValidatedAt     time.Time          `json:"validatedAt"`
}

// HasErrors reports whether any error-severity issue is present.
func (r *ConsistencyReport) HasErrors() bool {
	for i := range r.Issues {
		if r.Issues[i].Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-severity issue is present.
func (r *ConsistencyReport) HasWarnings() bool {
	for i := range r.Issues {
		if r.Issues[i].Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// Resolve recomputes the overall status from the collected issues: any
// error rejects, any warning needs review, otherwise verified.
func (r *ConsistencyReport) Resolve() {
	switch {
	case r.HasErrors():
		r.OverallStatus = ReviewRejected
	case r.HasWarnings():
		r.OverallStatus = ReviewNeedsReview
	default:
		r.OverallStatus = ReviewVerified
	}
}
