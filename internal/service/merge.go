package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// MergeService reconciles a generated checklist against the documents an
// applicant has actually uploaded. Matching uses documentType only; display
// names are model generated and unstable, so they never participate in the
// join.
type MergeService struct {
	logger *logrus.Logger
}

// NewMergeService creates a new merge service.
func NewMergeService(logger *logrus.Logger) *MergeService {
	return &MergeService{logger: logger}
}

// MergeWithUploads annotates checklist items in place with upload state.
// When several uploads share a documentType, the most recently uploaded one
// wins. Uploads with no matching checklist item are ignored; the checklist
// defines what the application needs.
func (m *MergeService) MergeWithUploads(checklist *domain.GeneratedChecklist, uploads []domain.UploadedDocument) {
	if checklist == nil {
		return
	}

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

	matched := 0
	for i := range checklist.Items {
		item := &checklist.Items[i]
		u, ok := latest[item.DocumentType]
		if !ok {
			item.Status = domain.StatusMissing
			continue
		}
		matched++
		item.Status = u.Status
		if !u.Status.IsValid() || u.Status == domain.StatusMissing {
			// An upload exists, so the item is at least pending review.
			item.Status = domain.StatusPending
		}
		item.UploadedDocumentID = u.ID
		item.FileURL = u.FileURL
		item.FileName = u.FileName
		item.FileSize = u.FileSize
		item.VerifiedConfidence = u.VerifiedConfidence
		item.VerificationNotes = u.VerificationNotes
	}

	m.logger.WithFields(logrus.Fields{
		"items":   len(checklist.Items),
		"uploads": len(uploads),
		"matched": matched,
	}).Debug("Checklist merged with uploads")
}

// Progress returns the completion percentage over required items only:
// round(100 * verified required / total required). Optional and highly
// recommended documents never move the number. No required items means 0,
// not 100; an empty checklist is an unstarted one.
func (m *MergeService) Progress(checklist *domain.GeneratedChecklist) int {
	if checklist == nil {
		return 0
	}
	totalRequired := 0
	verifiedRequired := 0
	for i := range checklist.Items {
		if !checklist.Items[i].Required {
			continue
		}
		totalRequired++
		if checklist.Items[i].Status == domain.StatusVerified {
			verifiedRequired++
		}
	}
	if totalRequired == 0 {
		return 0
	}
	return int(math.Round(100 * float64(verifiedRequired) / float64(totalRequired)))
}
