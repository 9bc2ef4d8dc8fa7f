package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
)

// InvoiceDraftedEvent is raised when a new draft invoice is generated
type InvoiceDraftedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	LeaseID       uuid.UUID `json:"lease_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}

// EventType returns the event type name
func (e *InvoiceDraftedEvent) EventType() string {
	return "InvoiceDrafted"
}

// NewInvoiceDraftedEvent creates a new InvoiceDraftedEvent
func NewInvoiceDraftedEvent(inv *Invoice) *InvoiceDraftedEvent {
	return &InvoiceDraftedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceDrafted", "Invoice", inv.ID, inv.OrganizationID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		LeaseID:         inv.LeaseID,
		PeriodStart:     inv.PeriodStart,
		PeriodEnd:       inv.PeriodEnd,
	}
}

// InvoiceIssuedEvent is raised when a draft invoice is issued
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	LeaseID       uuid.UUID       `json:"lease_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *InvoiceIssuedEvent) EventType() string {
	return "InvoiceIssued"
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceIssued", "Invoice", inv.ID, inv.OrganizationID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		LeaseID:         inv.LeaseID,
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate,
	}
}

// InvoiceVoidedEvent is raised when an issued invoice is voided
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Reason        string    `json:"reason"`
}

// EventType returns the event type name
func (e *InvoiceVoidedEvent) EventType() string {
	return "InvoiceVoided"
}

// NewInvoiceVoidedEvent creates a new InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice, reason string) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceVoided", "Invoice", inv.ID, inv.OrganizationID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
	}
}

// InvoiceWrittenOffEvent is raised when the remaining balance is written off
type InvoiceWrittenOffEvent struct {
	shared.BaseDomainEvent
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	WrittenOffAmount decimal.Decimal `json:"written_off_amount"`
	Reason           string          `json:"reason"`
}

// EventType returns the event type name
func (e *InvoiceWrittenOffEvent) EventType() string {
	return "InvoiceWrittenOff"
}

// NewInvoiceWrittenOffEvent creates a new InvoiceWrittenOffEvent
func NewInvoiceWrittenOffEvent(inv *Invoice, reason string) *InvoiceWrittenOffEvent {
	return &InvoiceWrittenOffEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("InvoiceWrittenOff", "Invoice", inv.ID, inv.OrganizationID),
		InvoiceID:        inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		WrittenOffAmount: inv.WrittenOffAmount,
		Reason:           reason,
	}
}

// InvoiceStatusChangedEvent is raised whenever a recompute changes the
// derived status of an invoice
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	FromStatus     InvoiceStatus   `json:"from_status"`
	ToStatus       InvoiceStatus   `json:"to_status"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	CreditedAmount decimal.Decimal `json:"credited_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
}

// EventType returns the event type name
func (e *InvoiceStatusChangedEvent) EventType() string {
	return "InvoiceStatusChanged"
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, from InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceStatusChanged", "Invoice", inv.ID, inv.OrganizationID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		FromStatus:      from,
		ToStatus:        inv.Status,
		PaidAmount:      inv.PaidAmount,
		CreditedAmount:  inv.CreditedAmount,
		BalanceAmount:   inv.BalanceAmount,
	}
}
