package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrNotAvailable = errors.New("not available")
	ErrGateway      = errors.New("payment gateway error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
)

var (
	ErrAlreadyEnrolled    = fmt.Errorf("%w: already enrolled", ErrConflict)
	ErrDuplicateReference = fmt.Errorf("%w: duplicate reference", ErrConflict)
	ErrCourseNotFound     = fmt.Errorf("%w: course", ErrNotFound)
	ErrTxNotFound         = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrCourseUnpublished  = fmt.Errorf("%w: course is not published", ErrNotAvailable)
)

// GatewayError carries the provider's message for a failed initialize/verify call.
type GatewayError struct {
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Message)
}

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

func (e *GatewayError) Unwrap() error { return e.Err }

// Validation wraps a message as ErrValidation.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
