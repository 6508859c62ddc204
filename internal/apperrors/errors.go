package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the requesting user is not allowed to perform the action.
var ErrForbidden = errors.New("operation not permitted")

// ErrAlreadyDistributed indicates commissions for a triggering event were already settled.
// Callers treat this as an idempotent no-op, never as a reason to pay again.
var ErrAlreadyDistributed = errors.New("commissions already distributed for this event")

// ErrConflict indicates transient lock/serialization contention; the whole
// operation may be retried from scratch.
var ErrConflict = errors.New("concurrent update conflict")

// ErrGraphAnomaly indicates a cyclic or self-referential upline chain.
// This is a data-corruption condition requiring manual correction.
var ErrGraphAnomaly = errors.New("referral graph anomaly detected")

// ErrInsufficientBalance indicates a debit would take a balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

// AppError carries an HTTP-ish status code alongside a message and wrapped cause.
// Repositories use it to report infrastructure failures without leaking SQL details.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
