package errors

import (
	"errors"
	"net/http"
)

// Sentinel domain errors, wrapped by AppError.Err where a caller needs
// errors.Is against a stable value.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConfig           = errors.New("configuration error")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrUnsupportedToken = errors.New("unsupported token")
)

// Category codes returned to API callers, stable across releases.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeConflict      = "CONFLICT"
	CodeConfig        = "CONFIG_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError represents an application error carrying both an HTTP status
// and a stable string code, so clients can branch on Code without coupling
// to Status or to Message text.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError from an explicit status/code pair.
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func AlreadyExists(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyExists, message, ErrAlreadyExists)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

// Config reports a fatal configuration defect (unknown mainnet token,
// output-token mismatch, invalid gas padding/multiplier). These are not
// recoverable at runtime and are returned up to the caller that owns
// process lifecycle, never swallowed.
func Config(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeConfig, message, ErrConfig)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

func InternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, nil)
}

// NewError wraps err with a custom message as a bad-request AppError; kept
// for call sites that just need "something about this input is wrong".
func NewError(message string, err error) error {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}
