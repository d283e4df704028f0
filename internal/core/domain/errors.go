// Package domain defines the core domain models for chainstate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form CS-<AREA>-<NNNN>; the numeric suffix mirrors the
// HTTP status family the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "CS-FETCH-5020")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their
// codes match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Rebuild Errors
// ============================================================================

var (
	// ErrFetch indicates the metadata source rejected a fetch.
	ErrFetch = NewDomainError("CS-FETCH-5020", "metadata fetch failed")

	// ErrBuild indicates the connectivity handle rejected the merged mapping.
	ErrBuild = NewDomainError("CS-BUILD-4220", "connectivity build failed")

	// ErrEditSuperseded indicates a newer override edit was requested while
	// this one was still building. Only returned when the edit guard is on.
	ErrEditSuperseded = NewDomainError("CS-STATE-4091", "override edit superseded by a newer edit")

	// ErrHandleNotReady indicates the connectivity handle has no chains yet.
	ErrHandleNotReady = NewDomainError("CS-STATE-5030", "connectivity handle not ready")
)

// ============================================================================
// Persistence Errors
// ============================================================================

var (
	// ErrDeserialization indicates a persisted record could not be decoded.
	ErrDeserialization = NewDomainError("CS-PERS-4000", "persisted state unreadable")

	// ErrVersionMismatch indicates a persisted record has a stale schema version.
	ErrVersionMismatch = NewDomainError("CS-PERS-4090", "persisted state version mismatch")

	// ErrStorage indicates a storage layer error.
	ErrStorage = NewDomainError("CS-PERS-5000", "storage error")
)

// ============================================================================
// Chain Errors
// ============================================================================

var (
	// ErrChainNotFound indicates the chain is unknown to the handle.
	ErrChainNotFound = NewDomainError("CS-CHAIN-4040", "chain not found")

	// ErrInvalidChainMetadata indicates chain metadata validation failed.
	ErrInvalidChainMetadata = NewDomainError("CS-CHAIN-4001", "invalid chain metadata")
)

// ============================================================================
// System Errors
// ============================================================================

var (
	// ErrInternal indicates an internal error.
	ErrInternal = NewDomainError("CS-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("CS-SYS-4290", "too many requests")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("CS-ARG-1001", "invalid argument")
)
