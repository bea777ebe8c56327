package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Domain errors for the coupon system
var (
	ErrNotFound           = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists      = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation         = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation   = new(ErrCodeInvalidOperation, "invalid operation")
	ErrUnauthorized       = new(ErrCodeUnauthorized, "unauthorized")
	ErrPermissionDenied   = new(ErrCodePermissionDenied, "permission denied")
	ErrCooldownActive     = new(ErrCodeCooldownActive, "claim cooldown active")
	ErrNoCouponsAvailable = new(ErrCodeNoCouponsAvailable, "no coupons available")
	ErrRateLimited        = new(ErrCodeRateLimited, "too many requests")
	ErrDatabase           = new(ErrCodeDatabase, "database error")
	ErrSystem             = new(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrCooldownActive, http.StatusTooManyRequests},
		{ErrNoCouponsAvailable, http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeNotFound           = "not_found"
	ErrCodeAlreadyExists      = "already_exists"
	ErrCodeValidation         = "validation_error"
	ErrCodeInvalidOperation   = "invalid_operation"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodePermissionDenied   = "permission_denied"
	ErrCodeCooldownActive     = "cooldown_active"
	ErrCodeNoCouponsAvailable = "no_coupons_available"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeDatabase           = "database_error"
	ErrCodeSystemError        = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so marked and wrapped errors still compare equal
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsCooldownActive checks if a claim was rejected because the browser is cooling down
func IsCooldownActive(err error) bool {
	return errors.Is(err, ErrCooldownActive)
}

// IsNoCouponsAvailable checks if the inventory had no claimable coupon
func IsNoCouponsAvailable(err error) bool {
	return errors.Is(err, ErrNoCouponsAvailable)
}

// HTTPStatusFromErr returns the status of the first sentinel the error is marked with
func HTTPStatusFromErr(err error) int {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
