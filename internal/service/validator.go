package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// Document types the validator keys on.
const (
	docPassport      = "passport"
	docFinancial     = "financial_proof"
	docSponsorLetter = "sponsor_letter"
	docEmployment    = "employment_certificate"
)

const (
	// Consulates commonly require passport validity of 6 months beyond
	// the trip.
	minPassportValidity = 6 * 30 * 24 * time.Hour
	// Bank statements older than 3 months are considered stale.
	maxStatementAge = 3 * 30 * 24 * time.Hour
	// The statement balance should cover roughly 3 months of the salary
	// the employment certificate documents.
	incomeCoverageFactor = 3
)

// ValidatorService runs cross-document consistency checks over an
// application's uploaded documents and writes the verdicts back to the
// document store. The report is recomputed from scratch on every run.
type ValidatorService struct {
	logger *logrus.Logger
	store  domain.DocumentStore
}

// NewValidatorService creates a new validator service. A nil store disables
// verification write-back.
func NewValidatorService(logger *logrus.Logger, store domain.DocumentStore) *ValidatorService {
	return &ValidatorService{logger: logger, store: store}
}

// ValidateParams are the inputs to one consistency run.
type ValidateParams struct {
	ApplicationID string
	Applicant     *domain.ApplicantContext
	Checklist     *domain.GeneratedChecklist
	Uploads       []domain.UploadedDocument
}

// Validate runs every check, resolves the overall status and persists
// per-document verdicts. Checks never abort each other; a failure in one is
// an issue in the report, not an error from this method.
func (v *ValidatorService) Validate(ctx context.Context, params *ValidateParams) (*domain.ConsistencyReport, error) {
	if params == nil || params.Applicant == nil {
		return nil, fmt.Errorf("validate documents: applicant context is required")
	}

	report := &domain.ConsistencyReport{
		Issues:          []domain.ConsistencyIssue{},
		CrossReferences: []domain.CrossReference{},
		ValidatedAt:     time.Now().UTC(),
	}

	docs := latestByType(params.Uploads)

	v.checkCompleteness(params.Checklist, docs, report)
	v.checkPassport(docs, report)
	v.checkStatementAge(docs, report)
	v.checkFinancial(docs, report)
	v.checkSponsor(params.Applicant, docs, report)

	report.Resolve()

	v.logger.WithFields(logrus.Fields{
		"application_id": params.ApplicationID,
		"status":         report.OverallStatus,
		"issues":         len(report.Issues),
		"cross_refs":     len(report.CrossReferences),
	}).Info("Consistency validation completed")

	if v.store != nil {
		v.persistVerdicts(ctx, docs, report)
	}
	return report, nil
}

// latestByType picks the most recent upload per documentType, matching the
// merge step's resolution.
func latestByType(uploads []domain.UploadedDocument) map[string]*domain.UploadedDocument {
	latest := map[string]*domain.UploadedDocument{}
	for i := range uploads {
		u := &uploads[i]
		if u.DocumentType == "" {
			continue
		}
		if prev, ok := latest[u.DocumentType]; !ok || u.UploadedAt.After(prev.UploadedAt) {
			latest[u.DocumentType] = u
		}
	}
	return latest
}

// checkCompleteness flags required checklist items with no upload or a
// rejected upload. Both block the application.
func (v *ValidatorService) checkCompleteness(checklist *domain.GeneratedChecklist, docs map[string]*domain.UploadedDocument, report *domain.ConsistencyReport) {
	if checklist == nil {
		return
	}
	for i := range checklist.Items {
		item := &checklist.Items[i]
		if !item.Required {
			continue
		}
		doc, ok := docs[item.DocumentType]
		if ok && doc.Status != domain.StatusRejected {
			continue
		}
		msg := fmt.Sprintf("required document %q has not been uploaded", item.Name)
		if ok {
			msg = fmt.Sprintf("required document %q was rejected and must be re-uploaded", item.Name)
		}
		report.Issues = append(report.Issues, domain.ConsistencyIssue{
			Type:              domain.IssueMissingDocument,
			Severity:          domain.SeverityError,
			Message:           msg,
			AffectedDocuments: []string{item.DocumentType},
		})
	}
}

// checkPassport rejects passports that expire within the minimum validity
// window. An expiry date we do not know is not an issue; the upload pipeline
// may not have extracted it.
func (v *ValidatorService) checkPassport(docs map[string]*domain.UploadedDocument, report *domain.ConsistencyReport) {
	passport, ok := docs[docPassport]
	if !ok || passport.ExpiryDate == nil {
		return
	}
	remaining := time.Until(*passport.ExpiryDate)
	if remaining >= minPassportValidity {
		return
	}
	msg := fmt.Sprintf("passport expires on %s, less than 6 months of validity remain",
		passport.ExpiryDate.Format("2006-01-02"))
	if remaining <= 0 {
		msg = fmt.Sprintf("passport expired on %s", passport.ExpiryDate.Format("2006-01-02"))
	}
	report.Issues = append(report.Issues, domain.ConsistencyIssue{
		Type:              domain.IssueDateInconsistency,
		Severity:          domain.SeverityError,
		Message:           msg,
		AffectedDocuments: []string{docPassport},
	})
}

// checkStatementAge warns when the bank statement is older than consulates
// accept.
func (v *ValidatorService) checkStatementAge(docs map[string]*domain.UploadedDocument, report *domain.ConsistencyReport) {
	statement, ok := docs[docFinancial]
	if !ok || statement.UploadedAt.IsZero() {
		return
	}
	age := time.Since(statement.UploadedAt)
	if age <= maxStatementAge {
		return
	}
	report.Issues = append(report.Issues, domain.ConsistencyIssue{
		Type:              domain.IssueDateInconsistency,
		Severity:          domain.SeverityWarning,
		Message:           fmt.Sprintf("bank statement is %d days old, statements should be no older than 3 months", int(age.Hours()/24)),
		AffectedDocuments: []string{docFinancial},
	})
}

// checkFinancial compares the balance shown on the bank statement against
// the salary the employment certificate states. The check only runs when
// both documents are present; extraction from free text is approximate, so
// shortfalls are warnings, never automatic rejections.
func (v *ValidatorService) checkFinancial(docs map[string]*domain.UploadedDocument, report *domain.ConsistencyReport) {
	statement, ok := docs[docFinancial]
	if !ok {
		return
	}
	employmentType, employment := employmentDoc(docs)
	if employment == nil {
		return
	}

	crossRef := domain.CrossReference{
		SourceDocument: docFinancial,
		TargetDocument: employmentType,
		CheckType:      domain.CheckFinancial,
	}
	balances := extractAmounts(statement.ExtractedText)
	incomes := extractAmounts(employment.ExtractedText)
	if len(balances) == 0 || len(incomes) == 0 {
		crossRef.Status = domain.CrossRefUnknown
		crossRef.Details = "amounts could not be extracted from both documents"
		report.CrossReferences = append(report.CrossReferences, crossRef)
		return
	}

	balance := maxAmount(balances)
	income := maxAmount(incomes)
	needed := income * incomeCoverageFactor
	if balance >= needed {
		crossRef.Status = domain.CrossRefConsistent
		crossRef.Details = fmt.Sprintf("statement balance %.0f covers %.0f (3x documented income %.0f)", balance, needed, income)
		report.CrossReferences = append(report.CrossReferences, crossRef)
		return
	}

	crossRef.Status = domain.CrossRefInconsistent
	crossRef.Details = fmt.Sprintf("statement balance %.0f is below %.0f (3x documented income %.0f)", balance, needed, income)
	report.CrossReferences = append(report.CrossReferences, crossRef)
	report.Issues = append(report.Issues, domain.ConsistencyIssue{
		Type:              domain.IssueAmountMismatch,
		Severity:          domain.SeverityWarning,
		Message:           fmt.Sprintf("bank statement shows %.0f but roughly %.0f (3x the documented income) is expected", balance, needed),
		AffectedDocuments: []string{docFinancial, employmentType},
	})
}

// employmentDoc finds the upload documenting the applicant's income,
// preferring the canonical employment certificate type.
func employmentDoc(docs map[string]*domain.UploadedDocument) (string, *domain.UploadedDocument) {
	if doc, ok := docs[docEmployment]; ok {
		return docEmployment, doc
	}
	for docType, doc := range docs {
		if strings.Contains(docType, "employment") {
			return docType, doc
		}
	}
	return "", nil
}

func maxAmount(amounts []float64) float64 {
	best := amounts[0]
	for _, a := range amounts[1:] {
		if a > best {
			best = a
		}
	}
	return best
}

// sponsorKeywords maps a declared sponsor type to the words a genuine
// sponsorship letter for that sponsor would contain.
var sponsorKeywords = map[string][]string{
	"parent":   {"parent", "father", "mother", "son", "daughter"},
	"spouse":   {"spouse", "husband", "wife", "marriage"},
	"employer": {"employer", "company", "employment", "employee"},
}

// checkSponsor verifies that a non-self sponsor is backed by a sponsorship
// document and that its wording matches the declared relationship, and that
// a self-sponsored applicant has not uploaded sponsor paperwork.
func (v *ValidatorService) checkSponsor(applicant *domain.ApplicantContext, docs map[string]*domain.UploadedDocument, report *domain.ConsistencyReport) {
	sponsorType := strings.ToLower(strings.TrimSpace(applicant.SponsorType))

	var letter *domain.UploadedDocument
	var sponsorDocs []string
	for docType, doc := range docs {
		if strings.HasPrefix(docType, "sponsor_") {
			sponsorDocs = append(sponsorDocs, docType)
			if docType == docSponsorLetter || letter == nil {
				letter = doc
			}
		}
	}

	if sponsorType == "" || sponsorType == "self" {
		if sponsorType == "self" && len(sponsorDocs) > 0 {
			report.Issues = append(report.Issues, domain.ConsistencyIssue{
				Type:              domain.IssueSponsorMismatch,
				Severity:          domain.SeverityWarning,
				Message:           "applicant is self-sponsored but sponsorship documents were uploaded",
				AffectedDocuments: sponsorDocs,
			})
		}
		return
	}

	if letter == nil {
		report.Issues = append(report.Issues, domain.ConsistencyIssue{
			Type:              domain.IssueMissingRelatedDoc,
			Severity:          domain.SeverityError,
			Message:           fmt.Sprintf("sponsor type is %q but no sponsorship document has been uploaded", sponsorType),
			AffectedDocuments: []string{docSponsorLetter},
		})
		return
	}

	keywords, known := sponsorKeywords[sponsorType]
	crossRef := domain.CrossReference{
		SourceDocument: docSponsorLetter,
		TargetDocument: docFinancial,
		CheckType:      domain.CheckSponsor,
	}
	if !known || letter.ExtractedText == "" {
		crossRef.Status = domain.CrossRefUnknown
		crossRef.Details = "letter text unavailable for relationship check"
		report.CrossReferences = append(report.CrossReferences, crossRef)
		return
	}

	text := strings.ToLower(letter.ExtractedText)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			crossRef.Status = domain.CrossRefConsistent
			crossRef.Details = fmt.Sprintf("letter mentions %q matching sponsor type %q", kw, sponsorType)
			report.CrossReferences = append(report.CrossReferences, crossRef)
			return
		}
	}

	crossRef.Status = domain.CrossRefInconsistent
	crossRef.Details = fmt.Sprintf("letter does not mention the declared %q relationship", sponsorType)
	report.CrossReferences = append(report.CrossReferences, crossRef)
	report.Issues = append(report.Issues, domain.ConsistencyIssue{
		Type:              domain.IssueSponsorMismatch,
		Severity:          domain.SeverityWarning,
		Message:           fmt.Sprintf("sponsorship letter does not appear to be from a %s", sponsorType),
		AffectedDocuments: []string{docSponsorLetter},
	})
}

// persistVerdicts writes a per-document status back to the store. Documents
// named by an error are rejected, by a warning set to pending review, and
// clean documents are verified.
func (v *ValidatorService) persistVerdicts(ctx context.Context, docs map[string]*domain.UploadedDocument, report *domain.ConsistencyReport) {
	worst := map[string]domain.IssueSeverity{}
	notes := map[string][]string{}
	for _, issue := range report.Issues {
		for _, docType := range issue.AffectedDocuments {
			if issue.Severity == domain.SeverityError || worst[docType] == "" {
				worst[docType] = issue.Severity
			}
			notes[docType] = append(notes[docType], issue.Message)
		}
	}

	for docType, doc := range docs {
		status := domain.StatusVerified
		confidence := 0.9
		switch worst[docType] {
		case domain.SeverityError:
			status = domain.StatusRejected
			confidence = 0.2
		case domain.SeverityWarning:
			status = domain.StatusPending
			confidence = 0.5
		}
		err := v.store.SaveVerification(ctx, doc.ID, status, confidence, strings.Join(notes[docType], "; "))
		if err != nil {
			v.logger.WithError(err).WithFields(logrus.Fields{
				"document_id":   doc.ID,
				"document_type": docType,
			}).Error("Failed to persist verification verdict")
		}
	}
}

// amountPattern matches money-like figures in extracted statement text,
// e.g. "$12,500.00", "12 500", "8500 USD".
var amountPattern = regexp.MustCompile(`\d+(?:[.,\s]\d{3})*(?:\.\d{1,2})?`)

// extractAmounts pulls numeric amounts out of free text, normalizing
// thousands separators.
func extractAmounts(text string) []float64 {
	if text == "" {
		return nil
	}
	matches := amountPattern.FindAllString(text, -1)
	var out []float64
	for _, m := range matches {
		normalized := strings.NewReplacer(",", "", " ", "").Replace(m)
		val, err := strconv.ParseFloat(normalized, 64)
		if err != nil || val <= 0 {
			continue
		}
		out = append(out, val)
	}
	return out
}
