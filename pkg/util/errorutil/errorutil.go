package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Denial codes carried on PolicyDenied errors.
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeBanned            = "BANNED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeDuplicateOpen     = "DUPLICATE_OPEN_TICKET"
	CodeClaimConflict     = "CLAIM_CONFLICT"
	CodeAccessDenied      = "ACCESS_DENIED"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError rejects malformed or out-of-enum input before any
// mutation happens.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewNotFound reports an absent dashboard, button, or ticket.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewPolicyDenied reports a policy gate rejection with a user-facing
// reason. The code distinguishes ban, rate-limit, claim-conflict, and
// plain access denials.
func NewPolicyDenied(code, message string, details map[string]any) error {
	status := http.StatusForbidden
	switch code {
	case CodeDuplicateOpen, CodeClaimConflict:
		status = http.StatusConflict
	case CodeRateLimited:
		status = http.StatusTooManyRequests
	}
	return NewDomainError(code, message, status, details)
}

// NewPersistenceFailure wraps a durable-write error. The commit it aborted
// left the previous state authoritative.
func NewPersistenceFailure(err error) error {
	return &DomainError{
		Code:       CodePersistenceFailed,
		Message:    "failed to persist state snapshot",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInternalError wraps unexpected failures.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
