// Package errors categorizes the failures the tracker distinguishes at its
// operation boundaries: storage, network, validation and not-found.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Category represents the category of an error
type Category string

const (
	// CategoryStorage covers an unavailable store, schema mismatch or key constraint
	CategoryStorage Category = "storage"
	// CategoryNetwork covers price or FX fetch failures and timeouts
	CategoryNetwork Category = "network"
	// CategoryValidation covers rejected user input
	CategoryValidation Category = "validation"
	// CategoryNotFound covers lookups of records that do not exist
	CategoryNotFound Category = "not_found"
)

// CategorizedError is an error with a category and an HTTP status code.
type CategorizedError struct {
	Category   Category
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a storage error for the named operation.
func NewStorageError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStorage,
		StatusCode: http.StatusInternalServerError,
		Code:       "STORAGE_ERROR",
		Message:    fmt.Sprintf("storage error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewNetworkError creates an error for a failed call to an external source.
func NewNetworkError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNetwork,
		StatusCode: http.StatusBadGateway,
		Code:       "NETWORK_ERROR",
		Message:    fmt.Sprintf("request to %s failed", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewValidationError creates a validation error. The message is meant to be
// shown to the user as is.
func NewValidationError(field, message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// Categorize extracts the CategorizedError from err's chain, or nil.
func Categorize(err error) *CategorizedError {
	var ce *CategorizedError
	if stderrors.As(err, &ce) {
		return ce
	}
	return nil
}

func is(err error, c Category) bool {
	ce := Categorize(err)
	return ce != nil && ce.Category == c
}

// IsStorage reports whether err is a storage error.
func IsStorage(err error) bool { return is(err, CategoryStorage) }

// IsNetwork reports whether err is a network error.
func IsNetwork(err error) bool { return is(err, CategoryNetwork) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return is(err, CategoryValidation) }

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool { return is(err, CategoryNotFound) }

// HTTPStatus returns the status code to answer with for err.
func HTTPStatus(err error) int {
	if ce := Categorize(err); ce != nil {
		return ce.StatusCode
	}
	return http.StatusInternalServerError
}
