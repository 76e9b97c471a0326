package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can compare
// against the sentinel values below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// CodeOf returns the code of the first AppError in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf returns the user-facing message of the first AppError in err's chain.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	ErrCodeInvalidCode       = "INVALID_CODE"
	ErrCodeAlreadyMember     = "ALREADY_MEMBER"
	ErrCodePrivateGroup      = "PRIVATE_GROUP"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNoActiveGroup     = "NO_ACTIVE_GROUP"
	ErrCodeRideFull          = "RIDE_FULL"
	ErrCodeNotEligible       = "NOT_ELIGIBLE"
	ErrCodeAlreadyRequested  = "ALREADY_REQUESTED"
	ErrCodeAIUnavailable     = "AI_UNAVAILABLE"
	ErrCodeNotGroupMember    = "NOT_GROUP_MEMBER"
)

// Sentinels for errors.Is comparisons. Only the code takes part in matching.
var (
	ErrNotFound             = New(ErrCodeNotFound, "not found")
	ErrForbidden            = New(ErrCodeForbidden, "forbidden")
	ErrValidation           = New(ErrCodeValidation, "invalid input")
	ErrInvalidCode          = New(ErrCodeInvalidCode, "Invalid Group Code")
	ErrAlreadyMember        = New(ErrCodeAlreadyMember, "You are already a member.")
	ErrPrivateGroup         = New(ErrCodePrivateGroup, "This group is private. Ask an admin for the join code.")
	ErrInvalidTransition    = New(ErrCodeInvalidTransition, "That action is not available for this ride.")
	ErrNoActiveGroupContext = New(ErrCodeNoActiveGroup, "Open a group before creating a ride.")
	ErrRideFull             = New(ErrCodeRideFull, "Ride Full")
	ErrNotEligible          = New(ErrCodeNotEligible, "Not enough XP to join this ride.")
	ErrAlreadyRequested     = New(ErrCodeAlreadyRequested, "You already requested to join this ride.")
	ErrAIUnavailable        = New(ErrCodeAIUnavailable, "AI provider unavailable")
	ErrNotGroupMember       = New(ErrCodeNotGroupMember, "Join this group to ride with it.")
)
