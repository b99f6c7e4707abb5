package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Every AppError wraps exactly one of these so callers can
// branch with errors.Is without caring about the message.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrAlreadyExists         = errors.New("resource already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInternal              = errors.New("internal error")
	ErrConflict              = errors.New("conflict")
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired code")
	ErrAccountDisabled       = errors.New("account disabled")
	ErrNotFoundOrForbidden   = errors.New("not found or forbidden")
	ErrEncryptionFailure     = errors.New("encryption failure")
)

// AppError is a structured error carrying the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// Conflict creates a 409 error with a free-form message.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error. The cause is kept for logging only.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// AuthenticationFailed is returned for any bad credential pair. The message is
// the same whether the username is unknown or the password is wrong.
func AuthenticationFailed() *AppError {
	return &AppError{
		Code:    "AUTHENTICATION_FAILED",
		Message: "invalid username or password",
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthenticationFailed,
	}
}

// InvalidOrExpiredToken is returned when a refresh token cannot be redeemed.
func InvalidOrExpiredToken() *AppError {
	return &AppError{
		Code:    "INVALID_TOKEN",
		Message: "invalid or expired token",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidOrExpiredToken,
	}
}

// InvalidOrExpiredCode is returned when a verification code does not match a
// live record.
func InvalidOrExpiredCode() *AppError {
	return &AppError{
		Code:    "INVALID_CODE",
		Message: "invalid or expired verification code",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidOrExpiredCode,
	}
}

// AccountDisabled is returned when valid credentials belong to an account that
// cannot sign in.
func AccountDisabled() *AppError {
	return &AppError{
		Code:    "ACCOUNT_DISABLED",
		Message: "account is disabled",
		Status:  http.StatusForbidden,
		Err:     ErrAccountDisabled,
	}
}

// NotFoundOrForbidden hides whether a resource is missing or owned by someone
// else. It carries no detail that would tell the two apart.
func NotFoundOrForbidden(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND_OR_FORBIDDEN",
		Message: resource + " not found or access denied",
		Status:  http.StatusForbidden,
		Err:     ErrNotFoundOrForbidden,
	}
}

// EncryptionFailure wraps cipher errors. The response message stays generic.
func EncryptionFailure(err error) *AppError {
	return &AppError{
		Code:    "ENCRYPTION_FAILURE",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %v", ErrEncryptionFailure, err),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidOrExpiredCode):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrInvalidOrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAccountDisabled), errors.Is(err, ErrNotFoundOrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
