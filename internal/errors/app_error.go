package errors

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeStorageError      = "STORAGE_ERROR"
	ErrCodeRemoteFetch       = "REMOTE_FETCH_ERROR"
	ErrCodeRemoteWrite       = "REMOTE_WRITE_ERROR"
	ErrCodeInvalidMergeState = "INVALID_MERGE_STATE"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// StorageError covers local snapshot read/write failures. Unlike remote sync
// failures these are surfaced to the caller: the local store is the source
// of truth for the cart.
func StorageError(message string) *AppError {
	return NewAppError(ErrCodeStorageError, message, http.StatusInternalServerError)
}

// RemoteFetchError marks a failed remote-cart read. Recoverable: the caller
// falls back to the local snapshot.
func RemoteFetchError(message string) *AppError {
	return NewAppError(ErrCodeRemoteFetch, message, http.StatusBadGateway)
}

// RemoteWriteError marks a failed remote-cart push. Never surfaced to the
// user; logged only, local state stays authoritative.
func RemoteWriteError(message string) *AppError {
	return NewAppError(ErrCodeRemoteWrite, message, http.StatusBadGateway)
}

func InvalidMergeStateError(message string) *AppError {
	return NewAppError(ErrCodeInvalidMergeState, message, http.StatusUnprocessableEntity)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}
