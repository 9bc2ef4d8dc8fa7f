package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
)

// CreditNoteAppliedEvent is raised when a credit note is applied to its invoice
type CreditNoteAppliedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID     uuid.UUID        `json:"credit_note_id"`
	CreditNoteNumber string           `json:"credit_note_number"`
	InvoiceID        uuid.UUID        `json:"invoice_id"`
	Reason           CreditNoteReason `json:"reason"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	AppliedBy        uuid.UUID        `json:"applied_by"`
}

// EventType returns the event type name
func (e *CreditNoteAppliedEvent) EventType() string {
	return "CreditNoteApplied"
}

// NewCreditNoteAppliedEvent creates a new CreditNoteAppliedEvent
func NewCreditNoteAppliedEvent(cn *CreditNote, appliedBy uuid.UUID) *CreditNoteAppliedEvent {
	return &CreditNoteAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CreditNoteApplied", "CreditNote", cn.ID, cn.OrganizationID),
		CreditNoteID:     cn.ID,
		CreditNoteNumber: cn.CreditNoteNumber,
		InvoiceID:        cn.InvoiceID,
		Reason:           cn.Reason,
		TotalAmount:      cn.TotalAmount,
		AppliedBy:        appliedBy,
	}
}
