// Package store persists uploaded-document records and the verification
// verdicts written back by the consistency validator. Two backends exist:
// PostgreSQL for the full server and SQLite for the lite one.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// PostgresStore implements domain.DocumentStore on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL document store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL document store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

const listByApplicationQuery = `
	SELECT id, application_id, document_type, status,
		   COALESCE(file_url, ''), COALESCE(file_name, ''), COALESCE(file_size, 0),
		   uploaded_at, expiry_date, COALESCE(extracted_text, ''),
		   COALESCE(verified_confidence, 0), COALESCE(verification_notes, '')
	FROM uploaded_documents
	WHERE application_id = $1
	ORDER BY uploaded_at DESC`

// ListByApplication returns all uploaded documents for an application,
// newest first.
func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID string) ([]domain.UploadedDocument, error) {
	rows, err := s.db.QueryContext(ctx, listByApplicationQuery, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.UploadedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// SaveVerification persists the validator's verdict for one document.
func (s *PostgresStore) SaveVerification(ctx context.Context, documentID string, status domain.DocumentStatus, confidence float64, notes string) error {
	if !status.IsValid() {
		return domain.ErrInvalidStatus
	}
	query := `
		UPDATE uploaded_documents
		SET status = $2, verified_confidence = $3, verification_notes = $4
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, documentID, string(status), confidence, notes)
	if err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check verification update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return nil
}

// Insert stores a new uploaded-document record.
func (s *PostgresStore) Insert(ctx context.Context, doc *domain.UploadedDocument) error {
	query := `
		INSERT INTO uploaded_documents (
			id, application_id, document_type, status, file_url, file_name,
			file_size, uploaded_at, expiry_date, extracted_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.ApplicationID,
		doc.DocumentType,
		string(doc.Status),
		doc.FileURL,
		doc.FileName,
		doc.FileSize,
		doc.UploadedAt,
		doc.ExpiryDate,
		doc.ExtractedText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*domain.UploadedDocument, error) {
	var doc domain.UploadedDocument
	var status string
	var expiry sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.ApplicationID,
		&doc.DocumentType,
		&status,
		&doc.FileURL,
		&doc.FileName,
		&doc.FileSize,
		&doc.UploadedAt,
		&expiry,
		&doc.ExtractedText,
		&doc.VerifiedConfidence,
		&doc.VerificationNotes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	if expiry.Valid {
		doc.ExpiryDate = &expiry.Time
	}
	return &doc, nil
}
