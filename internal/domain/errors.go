package domain

import (
	"errors"
	"fmt"

	"git.appkode.ru/pub/go/failure"

	"arbscan/pkg/errcodes"
)

// AppError is the domain error carried across the pipeline: a stable code,
// a human message and the wrapped cause.
type AppError struct {
	Code    failure.ErrorCode
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func NewError(code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func WrapError(err error, code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

func GetCode(err error) (failure.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

func HasCode(err error, code failure.ErrorCode) bool {
	got, ok := GetCode(err)
	return ok && got == code
}

// IsRetryable reports whether the worker pool should retry the job that
// produced err. Anything without a known code counts as transient.
func IsRetryable(err error) bool {
	code, ok := GetCode(err)
	if !ok {
		return true
	}

	switch code {
	case errcodes.RateLimited, errcodes.TransientFailure, errcodes.StoreUnavailable, errcodes.TimeoutExceeded:
		return true
	default:
		return false
	}
}
