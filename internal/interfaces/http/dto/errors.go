package dto

import (
	"errors"
	"net/http"

	"github.com/retail/backoffice/internal/domain/shared"
)

// Boundary error codes. Domain errors keep their own code.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
)

// KindHTTPStatus maps error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:          http.StatusBadRequest,
	shared.KindNotFound:            http.StatusNotFound,
	shared.KindInsufficientStock:   http.StatusUnprocessableEntity,
	shared.KindInsufficientFunds:   http.StatusUnprocessableEntity,
	shared.KindCreditLimitExceeded: http.StatusUnprocessableEntity,
	shared.KindConflict:            http.StatusConflict,
	shared.KindAuthorization:       http.StatusForbidden,
	shared.KindInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error kind.
// Unknown kinds are 500 Internal Server Error.
func GetHTTPStatus(kind shared.ErrorKind) int {
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts an application error to its HTTP status and error body.
// Internal errors never leak their message.
func FromError(err error, requestID string) (int, *ErrorInfo) {
	kind := shared.KindOf(err)
	info := &ErrorInfo{Kind: string(kind), RequestID: requestID}

	var stockErr *shared.InsufficientStockError
	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &stockErr):
		info.Code = shared.ErrInsufficientStock.Code
		info.Message = stockErr.Error()
		info.Details = stockErr.Shortages
	case errors.As(err, &domainErr) && kind != shared.KindInternal:
		info.Code = domainErr.Code
		info.Message = domainErr.Message
	default:
		info.Code = ErrCodeInternal
		info.Message = "An unexpected error occurred"
	}
	return GetHTTPStatus(kind), info
}
