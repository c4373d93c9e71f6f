package errors

import (
	"errors"
	"fmt"
)

// Engine errors
var (
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	ErrInvariantViolation       = errors.New("schedule invariant violated")
	ErrUpstreamData             = errors.New("invalid upstream data")
	ErrCurrencyMismatch         = errors.New("currency mismatch")
)

// Service errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanAlreadyExists    = errors.New("loan already exists")
	ErrLoanAlreadyClosed    = errors.New("loan is already closed")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrValidation           = errors.New("validation failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeUnsupportedConfiguration = "UNSUPPORTED_CONFIGURATION"
	ErrCodeInvariantViolation       = "INVARIANT_VIOLATION"
	ErrCodeUpstreamData             = "UPSTREAM_DATA_ERROR"
	ErrCodeCurrencyMismatch         = "CURRENCY_MISMATCH"
	ErrCodeLoanNotFound             = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists        = "LOAN_ALREADY_EXISTS"
	ErrCodeLoanAlreadyClosed        = "LOAN_ALREADY_CLOSED"
	ErrCodeInvalidPaymentAmount     = "INVALID_PAYMENT_AMOUNT"
	ErrCodeValidation               = "VALIDATION_ERROR"
	ErrCodeDatabaseError            = "DATABASE_ERROR"
	ErrCodeCacheError               = "CACHE_ERROR"
)

// Unsupported reports an enum value or combination of terms the engine cannot compute.
func Unsupported(format string, args ...any) *BusinessError {
	return NewBusinessError(
		ErrCodeUnsupportedConfiguration,
		fmt.Sprintf(format, args...),
		ErrUnsupportedConfiguration,
	)
}

// Invariant reports a schedule that does not reconcile to the loan totals.
func Invariant(format string, args ...any) *BusinessError {
	return NewBusinessError(
		ErrCodeInvariantViolation,
		fmt.Sprintf(format, args...),
		ErrInvariantViolation,
	)
}

// Upstream reports missing or malformed collaborator data (calendars, holidays, tranches).
func Upstream(format string, args ...any) *BusinessError {
	return NewBusinessError(
		ErrCodeUpstreamData,
		fmt.Sprintf(format, args...),
		ErrUpstreamData,
	)
}

func WrapCurrencyMismatch(left, right string) *BusinessError {
	return NewBusinessError(
		ErrCodeCurrencyMismatch,
		fmt.Sprintf("cannot combine %s with %s", left, right),
		ErrCurrencyMismatch,
	)
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapLoanAlreadyClosed(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyClosed,
		fmt.Sprintf("Loan with ID %s is already closed", loanID),
		ErrLoanAlreadyClosed,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapValidation(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		"request validation failed",
		fmt.Errorf("%w: %v", ErrValidation, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// CodeOf returns the business code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
