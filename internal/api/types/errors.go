package types

import (
	"errors"
	"net/http"

	apperrors "github.com/opsledger/catalog/pkg/errors"
)

// FromAppError converts an error into the wire error shape, carrying the
// first-violation detail for invalid patches and snapshots.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return &APIError{Code: string(ae.Code), Message: ae.Message, Details: ae.Detail()}
	}
	return &APIError{Code: string(apperrors.CodeUnknown), Message: err.Error()}
}

// StatusForCode maps error codes to HTTP statuses.
func StatusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalid:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConflict:
		return http.StatusConflict
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor maps any error to the HTTP status of its code.
func StatusFor(err error) int {
	return StatusForCode(apperrors.CodeOf(err))
}
