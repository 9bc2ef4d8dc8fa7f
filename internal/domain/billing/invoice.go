package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"          // Mutable, not yet issued
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"         // Frozen, awaiting payment
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID" // Confirmed payments cover part of the total
	InvoiceStatusPaid          InvoiceStatus = "PAID"           // Balance fully settled
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"        // Past due date with balance outstanding
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"      // Draft discarded before issuance
	InvoiceStatusWrittenOff    InvoiceStatus = "WRITTEN_OFF"    // Remaining balance written off
	InvoiceStatusVoided        InvoiceStatus = "VOIDED"         // Issued invoice voided before any payment
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled,
		InvoiceStatusWrittenOff, InvoiceStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled || s == InvoiceStatusWrittenOff || s == InvoiceStatusVoided
}

// IsSettleable returns true if payments and credit notes may be taken
// against an invoice in this status
func (s InvoiceStatus) IsSettleable() bool {
	switch s {
	case InvoiceStatusIssued, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// InvoiceLine is one billable item on an invoice
type InvoiceLine struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	SortOrder   int             `json:"sort_order"`
	LeaseTermID *uuid.UUID      `json:"lease_term_id,omitempty"` // Term the charge was derived from
	CreatedAt   time.Time       `json:"created_at"`
}

// GetAmountMoney returns the line amount as Money
func (l *InvoiceLine) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.Amount)
}

// Invoice is the aggregate root for one billing period of a lease.
// At all times PaidAmount + CreditedAmount + WrittenOffAmount + BalanceAmount
// equals TotalAmount, and Status is derived from those facts, never set
// independently.
type Invoice struct {
	shared.OrgAggregateRoot
	InvoiceNumber    string          `json:"invoice_number"`
	LeaseID          uuid.UUID       `json:"lease_id"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	DueDate          *time.Time      `json:"due_date"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	CreditedAmount   decimal.Decimal `json:"credited_amount"`
	WrittenOffAmount decimal.Decimal `json:"written_off_amount"`
	BalanceAmount    decimal.Decimal `json:"balance_amount"`
	Status           InvoiceStatus   `json:"status"`
	Lines            []InvoiceLine   `json:"lines"`
	IssuedAtUtc      *time.Time      `json:"issued_at_utc"`
	VoidedAtUtc      *time.Time      `json:"voided_at_utc"`
	VoidReason       string          `json:"void_reason"`
	CancelledAtUtc   *time.Time      `json:"cancelled_at_utc"`
	CancelReason     string          `json:"cancel_reason"`
	WrittenOffAtUtc  *time.Time      `json:"written_off_at_utc"`
	WriteOffReason   string          `json:"write_off_reason"`
	Remark           string          `json:"remark"`
}

// NewDraftInvoice creates a new draft invoice for a lease billing period
func NewDraftInvoice(
	organizationID uuid.UUID,
	invoiceNumber string,
	leaseID uuid.UUID,
	period valueobject.Period,
	dueDate *time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if leaseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEASE", "Lease ID cannot be empty")
	}

	inv := &Invoice{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		InvoiceNumber:    invoiceNumber,
		LeaseID:          leaseID,
		PeriodStart:      period.Start(),
		PeriodEnd:        period.End(),
		DueDate:          dueDate,
		TotalAmount:      decimal.Zero,
		PaidAmount:       decimal.Zero,
		CreditedAmount:   decimal.Zero,
		WrittenOffAmount: decimal.Zero,
		BalanceAmount:    decimal.Zero,
		Status:           InvoiceStatusDraft,
		Lines:            make([]InvoiceLine, 0),
	}

	inv.AddDomainEvent(NewInvoiceDraftedEvent(inv))

	return inv, nil
}

// AddLine appends a line to a draft invoice
func (inv *Invoice) AddLine(description string, amount, taxAmount decimal.Decimal, leaseTermID *uuid.UUID) (*InvoiceLine, error) {
	if inv.Status != InvoiceStatusDraft {
		return nil, shared.NewDomainError(shared.CodeInvalidInvoiceState, "Lines can only be added to a draft invoice")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_LINE", "Line description cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_LINE", "Line amount must be positive")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_LINE", "Line tax cannot be negative")
	}

	line := InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   inv.ID,
		Description: description,
		Amount:      amount,
		TaxAmount:   taxAmount,
		SortOrder:   len(inv.Lines),
		LeaseTermID: leaseTermID,
		CreatedAt:   time.Now(),
	}
	inv.Lines = append(inv.Lines, line)
	inv.TotalAmount = inv.TotalAmount.Add(amount).Add(taxAmount)
	inv.BalanceAmount = inv.TotalAmount
	inv.Touch()
	inv.IncrementVersion()

	return &line, nil
}

// ReplaceLines discards all lines of a draft invoice and recomputes the total.
// Used when a draft is regenerated from fresh lease-term data.
func (inv *Invoice) ReplaceLines() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, "Only draft invoices can be regenerated")
	}
	inv.Lines = inv.Lines[:0]
	inv.TotalAmount = decimal.Zero
	inv.BalanceAmount = decimal.Zero
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// Issue freezes the invoice. Requires at least one line and a positive total;
// from this point the lines are immutable and only payments, credit notes and
// write-offs can change the invoice's amounts.
func (inv *Invoice) Issue() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, fmt.Sprintf("Cannot issue invoice in %s status", inv.Status))
	}
	if len(inv.Lines) == 0 {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, "Cannot issue an invoice without lines")
	}
	if inv.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, "Cannot issue an invoice with a non-positive total")
	}

	now := time.Now().UTC()
	inv.Status = InvoiceStatusIssued
	inv.IssuedAtUtc = &now
	inv.BalanceAmount = inv.TotalAmount
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return nil
}

// Void voids an issued invoice. Not permitted once any payment has been
// confirmed against it; voiding is terminal.
func (inv *Invoice) Void(reason string) error {
	if reason == "" {
		return shared.NewDomainError(shared.CodeMissingReason, "Void reason is required")
	}
	if !inv.Status.IsSettleable() {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, fmt.Sprintf("Cannot void invoice in %s status", inv.Status))
	}
	if inv.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, "Cannot void an invoice with confirmed payments")
	}

	now := time.Now().UTC()
	inv.Status = InvoiceStatusVoided
	inv.VoidedAtUtc = &now
	inv.VoidReason = reason
	inv.BalanceAmount = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv, reason))

	return nil
}

// Cancel discards a draft invoice. Issued invoices are never deleted or
// cancelled; they must be voided.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeMissingReason, "Cancel reason is required")
	}

	now := time.Now().UTC()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAtUtc = &now
	inv.CancelReason = reason
	inv.BalanceAmount = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}

// WriteOff writes off the remaining balance; terminal.
func (inv *Invoice) WriteOff(reason string) error {
	if reason == "" {
		return shared.NewDomainError(shared.CodeMissingReason, "Write-off reason is required")
	}
	if !inv.Status.IsSettleable() {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, fmt.Sprintf("Cannot write off invoice in %s status", inv.Status))
	}
	if inv.BalanceAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, "Nothing outstanding to write off")
	}

	now := time.Now().UTC()
	inv.WrittenOffAmount = inv.WrittenOffAmount.Add(inv.BalanceAmount)
	inv.BalanceAmount = decimal.Zero
	inv.Status = InvoiceStatusWrittenOff
	inv.WrittenOffAtUtc = &now
	inv.WriteOffReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceWrittenOffEvent(inv, reason))

	return nil
}

// RecomputeTotals re-derives PaidAmount, CreditedAmount, BalanceAmount and
// Status from sums read fresh from storage. paidSum is the sum of completed
// payments, creditedSum the sum of applied credit notes. asOf is used for the
// overdue derivation.
//
// The status rule is the single source of truth: balance zero means Paid;
// confirmed money against an outstanding balance means PartiallyPaid; a
// balance reduced only by credit notes leaves the invoice Issued.
func (inv *Invoice) RecomputeTotals(paidSum, creditedSum decimal.Decimal, asOf time.Time) error {
	if !inv.Status.IsSettleable() {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, fmt.Sprintf("Cannot recompute invoice in %s status", inv.Status))
	}
	if paidSum.IsNegative() || creditedSum.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Settlement sums cannot be negative")
	}
	settled := paidSum.Add(creditedSum).Add(inv.WrittenOffAmount)
	if settled.GreaterThan(inv.TotalAmount) {
		return shared.NewDomainError("SETTLEMENT_EXCEEDS_TOTAL",
			fmt.Sprintf("Settled amount %s exceeds invoice total %s", settled.StringFixed(2), inv.TotalAmount.StringFixed(2)))
	}

	previousStatus := inv.Status
	inv.PaidAmount = paidSum
	inv.CreditedAmount = creditedSum
	inv.BalanceAmount = inv.TotalAmount.Sub(settled)
	inv.Status = inv.deriveStatus(asOf)
	inv.Touch()
	inv.IncrementVersion()

	if inv.Status != previousStatus {
		inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, previousStatus))
	}

	return nil
}

// deriveStatus computes Status purely from the invoice's balance facts
func (inv *Invoice) deriveStatus(asOf time.Time) InvoiceStatus {
	if inv.BalanceAmount.IsZero() {
		return InvoiceStatusPaid
	}
	if inv.isPastDue(asOf) {
		return InvoiceStatusOverdue
	}
	if inv.PaidAmount.GreaterThan(decimal.Zero) {
		return InvoiceStatusPartiallyPaid
	}
	return InvoiceStatusIssued
}

func (inv *Invoice) isPastDue(asOf time.Time) bool {
	return inv.DueDate != nil && asOf.After(*inv.DueDate)
}

// MarkSettlementReserved advances the concurrency token without changing any
// amounts. Writers whose headroom checks depend on the invoice's settlement
// sums save through this, so two of them racing on the same invoice conflict
// instead of both committing.
func (inv *Invoice) MarkSettlementReserved() error {
	if !inv.Status.IsSettleable() {
		return shared.NewDomainError(shared.CodeInvalidInvoiceState, fmt.Sprintf("Cannot reserve settlement on invoice in %s status", inv.Status))
	}
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// LineByID returns the invoice line with the given ID, or nil
func (inv *Invoice) LineByID(lineID uuid.UUID) *InvoiceLine {
	for i := range inv.Lines {
		if inv.Lines[i].ID == lineID {
			return &inv.Lines[i]
		}
	}
	return nil
}

// GetPeriod returns the billing period of the invoice
func (inv *Invoice) GetPeriod() valueobject.Period {
	p, _ := valueobject.NewPeriod(inv.PeriodStart, inv.PeriodEnd)
	return p
}

// GetTotalAmountMoney returns the total as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.TotalAmount)
}

// GetBalanceAmountMoney returns the balance as Money
func (inv *Invoice) GetBalanceAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.BalanceAmount)
}

// IsDraft returns true if the invoice is a draft
func (inv *Invoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// IsIssued returns true if the invoice has been issued and is unsettled
func (inv *Invoice) IsIssued() bool {
	return inv.Status == InvoiceStatusIssued
}

// IsPaid returns true if the invoice is fully settled
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsVoided returns true if the invoice was voided
func (inv *Invoice) IsVoided() bool {
	return inv.Status == InvoiceStatusVoided
}

// LineCount returns the number of invoice lines
func (inv *Invoice) LineCount() int {
	return len(inv.Lines)
}
