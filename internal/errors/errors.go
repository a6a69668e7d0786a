package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeInternal               = "INTERNAL_ERROR"
	ErrCodeBadRequest             = "BAD_REQUEST"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeAlreadyCompleted       = "ALREADY_COMPLETED"
	ErrCodeInsufficientHearts     = "INSUFFICIENT_HEARTS"
	ErrCodeInsufficientXP         = "INSUFFICIENT_XP"
	ErrCodeNoStreakFreeze         = "NO_STREAK_FREEZE"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// Sentinels for errors.Is. They match any AppError carrying the same code.
var (
	ErrNotFound               = &AppError{Code: ErrCodeNotFound}
	ErrValidation             = &AppError{Code: ErrCodeValidation}
	ErrInternal               = &AppError{Code: ErrCodeInternal}
	ErrAlreadyCompleted       = &AppError{Code: ErrCodeAlreadyCompleted}
	ErrInsufficientHearts     = &AppError{Code: ErrCodeInsufficientHearts}
	ErrInsufficientXP         = &AppError{Code: ErrCodeInsufficientXP}
	ErrNoStreakFreeze         = &AppError{Code: ErrCodeNoStreakFreeze}
	ErrConcurrentModification = &AppError{Code: ErrCodeConcurrentModification}
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may try the same operation again.
func (e *AppError) Retryable() bool {
	return e.Code == ErrCodeConcurrentModification
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewUnauthorizedError creates a new UNAUTHORIZED error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  401,
	}
}

// NewAlreadyCompletedError is returned when an exercise was already scored for the user.
func NewAlreadyCompletedError(exerciseID interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyCompleted,
		Message: fmt.Sprintf("exercise already completed: %v", exerciseID),
		Status:  409,
	}
}

// NewInsufficientHeartsError reports how many hearts were needed and available.
func NewInsufficientHeartsError(have, need int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientHearts,
		Message: fmt.Sprintf("not enough hearts: have %d, need %d", have, need),
		Status:  409,
	}
}

// NewInsufficientXPError reports a failed streak freeze purchase.
func NewInsufficientXPError(have, need int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientXP,
		Message: fmt.Sprintf("not enough XP: have %d, need %d", have, need),
		Status:  409,
	}
}

// NewNoStreakFreezeError creates a new NO_STREAK_FREEZE error
func NewNoStreakFreezeError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeNoStreakFreeze,
		Message: reason,
		Status:  409,
	}
}

// NewConcurrentModificationError is surfaced after optimistic-lock retries run out.
func NewConcurrentModificationError(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConcurrentModification,
		Message: fmt.Sprintf("%s was modified concurrently, try again", resource),
		Status:  503,
		Err:     err,
	}
}
