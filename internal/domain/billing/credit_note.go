package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// CreditNoteReason classifies why credit is being issued
type CreditNoteReason string

const (
	CreditReasonInvoiceError CreditNoteReason = "INVOICE_ERROR"
	CreditReasonDiscount     CreditNoteReason = "DISCOUNT"
	CreditReasonRefund       CreditNoteReason = "REFUND"
	CreditReasonGoodwill     CreditNoteReason = "GOODWILL"
	CreditReasonAdjustment   CreditNoteReason = "ADJUSTMENT"
	CreditReasonOther        CreditNoteReason = "OTHER"
)

// IsValid checks if the reason is a valid CreditNoteReason
func (r CreditNoteReason) IsValid() bool {
	switch r {
	case CreditReasonInvoiceError, CreditReasonDiscount, CreditReasonRefund,
		CreditReasonGoodwill, CreditReasonAdjustment, CreditReasonOther:
		return true
	}
	return false
}

// String returns the string representation of CreditNoteReason
func (r CreditNoteReason) String() string {
	return string(r)
}

// CreditNoteLine credits part of one specific invoice line
type CreditNoteLine struct {
	ID            uuid.UUID       `json:"id"`
	CreditNoteID  uuid.UUID       `json:"credit_note_id"`
	InvoiceLineID uuid.UUID       `json:"invoice_line_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreditNote is the aggregate root for a credit issued against an invoice.
// A note starts unapplied; Apply stamps AppliedAtUtc, after which the note is
// immutable and its amount counts toward the invoice's credited sum. An
// applied note can never be voided; correcting it takes a counter-adjustment.
type CreditNote struct {
	shared.OrgAggregateRoot
	CreditNoteNumber string           `json:"credit_note_number"`
	InvoiceID        uuid.UUID        `json:"invoice_id"`
	Reason           CreditNoteReason `json:"reason"`
	ReasonDetail     string           `json:"reason_detail"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	Lines            []CreditNoteLine `json:"lines"`
	IssueDate        time.Time        `json:"issue_date"`
	AppliedAtUtc     *time.Time       `json:"applied_at_utc"`
	AppliedBy        *uuid.UUID       `json:"applied_by"`
	VoidedAtUtc      *time.Time       `json:"voided_at_utc"`
	VoidReason       string           `json:"void_reason"`
}

// NewCreditNote creates an unapplied credit note against an invoice
func NewCreditNote(
	organizationID uuid.UUID,
	creditNoteNumber string,
	invoiceID uuid.UUID,
	reason CreditNoteReason,
	reasonDetail string,
	issueDate time.Time,
) (*CreditNote, error) {
	if creditNoteNumber == "" {
		return nil, shared.NewDomainError("INVALID_CREDIT_NOTE_NUMBER", "Credit note number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_CREDIT_REASON", fmt.Sprintf("Invalid credit note reason: %s", reason))
	}
	if reason == CreditReasonOther && reasonDetail == "" {
		return nil, shared.NewDomainError(shared.CodeMissingReason, "Reason detail is required when the reason is OTHER")
	}

	cn := &CreditNote{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		CreditNoteNumber: creditNoteNumber,
		InvoiceID:        invoiceID,
		Reason:           reason,
		ReasonDetail:     reasonDetail,
		TotalAmount:      decimal.Zero,
		Lines:            make([]CreditNoteLine, 0),
		IssueDate:        issueDate,
	}

	return cn, nil
}

// AddLine credits an amount against one invoice line. Callers validate the
// amount against the line's remaining creditable value before adding.
func (cn *CreditNote) AddLine(invoiceLineID uuid.UUID, description string, amount decimal.Decimal) (*CreditNoteLine, error) {
	if cn.IsApplied() || cn.IsVoided() {
		return nil, shared.NewDomainError("CREDIT_NOTE_IMMUTABLE", "Cannot modify an applied or voided credit note")
	}
	if invoiceLineID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeLineNotOnInvoice, "Invoice line ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit line amount must be positive")
	}
	for i := range cn.Lines {
		if cn.Lines[i].InvoiceLineID == invoiceLineID {
			return nil, shared.NewDomainError("DUPLICATE_CREDIT_LINE",
				fmt.Sprintf("Invoice line %s already credited on this note", invoiceLineID))
		}
	}

	line := CreditNoteLine{
		ID:            uuid.New(),
		CreditNoteID:  cn.ID,
		InvoiceLineID: invoiceLineID,
		Description:   description,
		Amount:        amount,
		CreatedAt:     time.Now(),
	}
	cn.Lines = append(cn.Lines, line)
	cn.TotalAmount = cn.TotalAmount.Add(amount)
	cn.Touch()
	cn.IncrementVersion()

	return &line, nil
}

// Apply stamps the note as applied. From this moment its amount reduces the
// invoice balance and the note is immutable.
func (cn *CreditNote) Apply(appliedBy uuid.UUID) error {
	if cn.IsVoided() {
		return shared.NewDomainError("CREDIT_NOTE_VOIDED", "Cannot apply a voided credit note")
	}
	if cn.IsApplied() {
		return shared.NewDomainError("CREDIT_NOTE_ALREADY_APPLIED", "Credit note has already been applied")
	}
	if len(cn.Lines) == 0 {
		return shared.NewDomainError("EMPTY_CREDIT_NOTE", "Cannot apply a credit note without lines")
	}

	now := time.Now().UTC()
	cn.AppliedAtUtc = &now
	cn.AppliedBy = &appliedBy
	cn.UpdatedAt = now
	cn.IncrementVersion()

	cn.AddDomainEvent(NewCreditNoteAppliedEvent(cn, appliedBy))

	return nil
}

// Void cancels an unapplied credit note. Applied notes cannot be voided.
func (cn *CreditNote) Void(reason string) error {
	if reason == "" {
		return shared.NewDomainError(shared.CodeMissingReason, "Void reason is required")
	}
	if cn.IsApplied() {
		return shared.NewDomainError("CREDIT_NOTE_ALREADY_APPLIED", "Cannot void an applied credit note; issue a counter-adjustment instead")
	}
	if cn.IsVoided() {
		return shared.NewDomainError("CREDIT_NOTE_VOIDED", "Credit note is already voided")
	}

	now := time.Now().UTC()
	cn.VoidedAtUtc = &now
	cn.VoidReason = reason
	cn.UpdatedAt = now
	cn.IncrementVersion()

	return nil
}

// IsApplied returns true once the note has been applied to its invoice
func (cn *CreditNote) IsApplied() bool {
	return cn.AppliedAtUtc != nil
}

// IsVoided returns true if the note was voided before application
func (cn *CreditNote) IsVoided() bool {
	return cn.VoidedAtUtc != nil
}

// GetTotalAmountMoney returns the note total as Money
func (cn *CreditNote) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(cn.TotalAmount)
}

// LineCount returns the number of credit note lines
func (cn *CreditNote) LineCount() int {
	return len(cn.Lines)
}
