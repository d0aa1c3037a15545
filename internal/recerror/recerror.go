package recerror

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrValidation          ErrorCode = "VALIDATION_ERROR"
	ErrOrphanReference     ErrorCode = "ORPHAN_REFERENCE"
	ErrCircuitBreaker      ErrorCode = "CIRCUIT_BREAKER_TRIPPED"
	ErrConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrInternal            ErrorCode = "INTERNAL_ERROR"
)

// RecError is the engine's error type. Per-record errors (validation,
// orphans, constraint violations) are accumulated into run summaries rather
// than raised individually; run-level errors (circuit breaker) abort the
// whole run.
type RecError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e RecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code ErrorCode, message string, details interface{}) RecError {
	logrus.Error(details)
	return RecError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CodeOf extracts the error code from err, or ErrInternal when err is not a
// RecError.
func CodeOf(err error) ErrorCode {
	var recErr RecError
	if errors.As(err, &recErr) {
		return recErr.Code
	}
	return ErrInternal
}

// HasCode reports whether err is a RecError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var recErr RecError
	return errors.As(err, &recErr) && recErr.Code == code
}
