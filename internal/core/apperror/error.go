// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Ledger rule violations (422)
	CodeNotBalanced            = "NOT_BALANCED"
	CodeAlreadyPosted          = "ALREADY_POSTED"
	CodePeriodLocked           = "PERIOD_LOCKED"
	CodePeriodHasDrafts        = "PERIOD_HAS_DRAFTS"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeSnapshotImmutable      = "SNAPSHOT_IMMUTABLE"
	CodeAccountReferenced      = "ACCOUNT_REFERENCED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, offending ids, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewNotBalanced is returned when posting an entry whose debit and credit
// totals differ. Both totals are included so the caller can show the gap.
func NewNotBalanced(entryID any, totalDebit, totalCredit string) *AppError {
	return &AppError{
		Code:       CodeNotBalanced,
		Message:    "Journal entry is not balanced",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"entry_id":     entryID,
			"total_debit":  totalDebit,
			"total_credit": totalCredit,
		},
	}
}

// NewAlreadyPosted is returned when a non-DRAFT entry is posted or modified.
func NewAlreadyPosted(entryID any, status string) *AppError {
	return &AppError{
		Code:       CodeAlreadyPosted,
		Message:    "Journal entry is not in draft status",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entry_id": entryID, "status": status},
	}
}

// NewPeriodLocked is returned when a mutation targets a finalized or locked period.
func NewPeriodLocked(periodID any, status string) *AppError {
	return &AppError{
		Code:       CodePeriodLocked,
		Message:    "Accounting period no longer accepts postings",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period_id": periodID, "status": status},
	}
}

// NewPeriodHasDrafts is returned when finalizing a period that still contains
// draft entries. The offending entry ids are listed, never silently skipped.
func NewPeriodHasDrafts(periodID any, entryIDs []string) *AppError {
	return &AppError{
		Code:       CodePeriodHasDrafts,
		Message:    "Accounting period contains draft entries",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period_id": periodID, "draft_entry_ids": entryIDs},
	}
}

// NewInvalidTransition names both the current and the requested period state.
func NewInvalidTransition(periodID any, current, requested string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Cannot transition period from %s to %s", current, requested),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"period_id": periodID,
			"current":   current,
			"requested": requested,
		},
	}
}

// NewSnapshotImmutable is returned on any attempt to replace an existing
// period snapshot. Snapshots are write-once legal records.
func NewSnapshotImmutable(periodID any) *AppError {
	return &AppError{
		Code:       CodeSnapshotImmutable,
		Message:    "Period snapshot already exists and is immutable",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"period_id": periodID},
	}
}

// NewAccountReferenced is returned when mutating an account beyond renaming
// after it has been referenced by a posted line.
func NewAccountReferenced(accountID any) *AppError {
	return &AppError{
		Code:       CodeAccountReferenced,
		Message:    "Account is referenced by posted lines; only renaming is allowed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"account_id": accountID},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// HasCode checks if error carries a specific code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
