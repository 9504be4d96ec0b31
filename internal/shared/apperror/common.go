package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)
)

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is required", field), http.StatusBadRequest).
		WithDetails(map[string]string{"field": field, "rule": "required"})
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is invalid", field), http.StatusBadRequest).
		WithDetails(map[string]string{"field": field, "rule": "invalid"})
}

// Persistence wraps a store failure so it surfaces with a stable kind.
func Persistence(err error) *AppError {
	return Wrap(err, CodePersistence, "storage is unavailable", http.StatusServiceUnavailable)
}

// Precondition is a 409 whose Code names the violated rule. Details carry
// PRECONDITION_FAILED as the kind so clients can branch on either.
func Precondition(code, message string) *AppError {
	return New(code, message, http.StatusConflict).
		WithDetails(map[string]string{"kind": CodePreconditionFailed})
}

// IsPrecondition reports whether err was built by Precondition.
func IsPrecondition(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	d, ok := appErr.Details.(map[string]string)
	return ok && d["kind"] == CodePreconditionFailed
}
