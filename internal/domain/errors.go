package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrAccountLocked(msg string) *AppError {
	return &AppError{Code: "ACCOUNT_LOCKED", Message: msg, Status: 429}
}

// ErrReplayRejected is returned for any invalid anti-replay token. The message
// is deliberately generic: missing, expired and already-consumed tokens must
// be indistinguishable to the caller.
func ErrReplayRejected() *AppError {
	return &AppError{Code: "INVALID_TOKEN", Message: "request could not be verified", Status: 400}
}

// ErrPinInvalid covers a single wrong PIN attempt. Remaining attempts are
// reported so the client can warn before lockout.
func ErrPinInvalid(remaining int) *AppError {
	return &AppError{Code: "PIN_INVALID", Message: fmt.Sprintf("incorrect pin, %d attempts remaining", remaining), Status: 401}
}

// ErrPinLocked is returned once the attempt limit is reached without wipe.
func ErrPinLocked() *AppError {
	return &AppError{Code: "PIN_LOCKED", Message: "too many failed attempts, pin entry locked", Status: 429}
}

// ErrPinWiped is returned when the attempt limit triggered a destructive
// local wipe. Distinct from PIN_LOCKED: the wipe is irreversible.
func ErrPinWiped() *AppError {
	return &AppError{Code: "PIN_WIPED", Message: "too many failed attempts, local data wiped", Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
