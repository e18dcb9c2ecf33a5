package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// SQLiteStore implements domain.DocumentStore on SQLite. Used by the lite
// server, which runs without PostgreSQL.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite document store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS uploaded_documents (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		document_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		file_url TEXT,
		file_name TEXT,
		file_size INTEGER DEFAULT 0,
		uploaded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expiry_date TIMESTAMP,
		extracted_text TEXT,
		verified_confidence REAL DEFAULT 0,
		verification_notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_uploaded_documents_application
		ON uploaded_documents(application_id);
	`
	_, err := db.Exec(schema)
	return err
}

// ListByApplication returns all uploaded documents for an application,
// newest first.
func (s *SQLiteStore) ListByApplication(ctx context.Context, applicationID string) ([]domain.UploadedDocument, error) {
	query := `
		SELECT id, application_id, document_type, status,
			   COALESCE(file_url, ''), COALESCE(file_name, ''), COALESCE(file_size, 0),
			   uploaded_at, expiry_date, COALESCE(extracted_text, ''),
			   COALESCE(verified_confidence, 0), COALESCE(verification_notes, '')
		FROM uploaded_documents
		WHERE application_id = ?
		ORDER BY uploaded_at DESC`

	rows, err := s.db.QueryContext(ctx, query, applicationID)
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
func (s *SQLiteStore) SaveVerification(ctx context.Context, documentID string, status domain.DocumentStatus, confidence float64, notes string) error {
	if !status.IsValid() {
		return domain.ErrInvalidStatus
	}
	query := `
		UPDATE uploaded_documents
		SET status = ?, verified_confidence = ?, verification_notes = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, string(status), confidence, notes, documentID)
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
func (s *SQLiteStore) Insert(ctx context.Context, doc *domain.UploadedDocument) error {
	query := `
		INSERT INTO uploaded_documents (
			id, application_id, document_type, status, file_url, file_name,
			file_size, uploaded_at, expiry_date, extracted_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

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

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
