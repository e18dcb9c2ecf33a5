package domain

import "time"

// UploadedDocument is an existing uploaded/classified document record, keyed
// by DocumentType within an application. Created by the upload pipeline;
// read-only to this core except for verification write-back performed by the
// store collaborator.
type UploadedDocument struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"applicationId"`
	DocumentType  string         `json:"documentType"`
	Status        DocumentStatus `json:"status"`
	FileURL       string         `json:"fileUrl,omitempty"`
	FileName      string         `json:"fileName,omitempty"`
	FileSize      int64          `json:"fileSize,omitempty"`
	UploadedAt    time.Time      `json:"uploadedAt"`
	ExpiryDate    *time.Time     `json:"expiryDate,omitempty"`
	ExtractedText string         `json:"extractedText,omitempty"`

	// AI verification metadata written back after validation.
	VerifiedConfidence float64 `json:"verifiedConfidence,omitempty"`
	VerificationNotes  string  `json:"verificationNotes,omitempty"`
}
