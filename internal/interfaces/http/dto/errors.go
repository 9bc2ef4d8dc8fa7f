package dto

import (
	"net/http"
	"strings"

	"github.com/tenancy/backend/internal/domain/shared"
)

// Transport-level error codes. Domain error codes pass through unchanged so
// clients see the same taxonomy the engine raises.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
)

// errorCodeHTTPStatus maps engine error codes to HTTP status codes. State
// machine violations are 422, concurrency and duplicates are 409, lookups
// are 404, malformed input is 400.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,

	"ALREADY_EXISTS": http.StatusConflict,
	"INVALID_STATE":  http.StatusUnprocessableEntity,

	shared.CodeDuplicateInvoice:       http.StatusConflict,
	shared.CodeNoApplicableTerm:       http.StatusUnprocessableEntity,
	shared.CodeConcurrencyConflict:    http.StatusConflict,
	shared.CodeInvalidInvoiceState:    http.StatusUnprocessableEntity,
	shared.CodeInvalidPaymentState:    http.StatusUnprocessableEntity,
	shared.CodeInvoiceNotFound:        http.StatusNotFound,
	shared.CodeMissingReason:          http.StatusBadRequest,
	shared.CodeLineNotOnInvoice:       http.StatusUnprocessableEntity,
	shared.CodeCreditExceedsRemaining: http.StatusUnprocessableEntity,
	shared.CodeInvalidShareSet:        http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code. Codes not in
// the explicit map fall back to naming-convention rules: lookups are 404,
// duplicates and overlaps are 409, validation is 400, everything else that
// the engine raised as a domain error is a business rule violation (422).
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "DUPLICATE_"), strings.HasSuffix(code, "_OVERLAP"):
		return http.StatusConflict
	case strings.HasPrefix(code, "INVALID_"), strings.HasPrefix(code, "MISSING_"), strings.HasPrefix(code, "EMPTY_"):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
