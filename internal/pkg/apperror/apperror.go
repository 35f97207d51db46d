package apperror

import (
	"errors"
	"net/http"
)

// AppError is an error that carries the HTTP status and the message shown to the caller.
// The wrapped Err is for logs only and never rendered.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports two AppErrors equal when code and message match, so a wrapped
// sentinel still satisfies errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches an underlying error to a sentinel while keeping its code and message.
func Wrap(err error, sentinel *AppError) *AppError {
	return &AppError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     err,
	}
}

// IsClientError reports whether err is an AppError with a 4xx status.
func IsClientError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code >= http.StatusBadRequest && appErr.Code < http.StatusInternalServerError
	}
	return false
}
