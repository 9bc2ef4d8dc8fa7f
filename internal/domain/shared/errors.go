package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Error codes used across the billing engine. Handlers use these to map
// domain failures to transport status codes; the engine only ever returns
// the codes, never transport concerns.
const (
	CodeDuplicateInvoice       = "DUPLICATE_INVOICE"
	CodeNoApplicableTerm       = "NO_APPLICABLE_TERM"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeInvalidInvoiceState    = "INVALID_INVOICE_STATE"
	CodeInvalidPaymentState    = "INVALID_PAYMENT_STATE"
	CodeInvoiceNotFound        = "INVOICE_NOT_FOUND"
	CodeMissingReason          = "MISSING_REASON"
	CodeLineNotOnInvoice       = "LINE_NOT_ON_INVOICE"
	CodeCreditExceedsRemaining = "CREDIT_EXCEEDS_REMAINING"
	CodeInvalidShareSet        = "INVALID_SHARE_SET"
)

// IsCode reports whether err is a DomainError carrying the given code.
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
