package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors used across the engine.
var (
	// ErrNoRuleSet means no approved rule set exists for a pair; the
	// resolver treats it as a signal to fall through, not a failure.
	ErrNoRuleSet = errors.New("no active rule set")

	// ErrNoDataSource means every resolution source was exhausted,
	// including the generic default table. This indicates a configuration
	// bug and is the only hard failure the resolver surfaces.
	ErrNoDataSource = errors.New("no usable checklist data source")

	// ErrChecklistRejected means a model response failed structural
	// validation on every attempt.
	ErrChecklistRejected = errors.New("generated checklist rejected by validation")

	ErrNotFound = errors.New("not found")
)

// Error codes for API responses.
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeGeneration     = "GENERATION_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeDatabase       = "DATABASE_ERROR"
	CodeExternalAPI    = "EXTERNAL_API_ERROR"
	CodeNoDataSource   = "NO_DATA_SOURCE"
	CodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// EngineError is a standardized error response.
type EngineError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError with timestamp.
func NewEngineError(code, message, details, requestID string) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationIssue describes one defect found while validating a model
// response. Hard issues reject the response; soft issues are warnings that
// auto-correction can repair.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Hard    bool   `json:"hard"`
}

// Error implements the error interface.
func (v *ValidationIssue) Error() string {
	return fmt.Sprintf("validation issue for %q: %s", v.Field, v.Message)
}
