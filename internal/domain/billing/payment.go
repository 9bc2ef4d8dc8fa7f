package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// PaymentStatus represents the status of a recorded payment
type PaymentStatus string

const (
	PaymentStatusPending             PaymentStatus = "PENDING"              // Recorded, not yet submitted for confirmation
	PaymentStatusPendingConfirmation PaymentStatus = "PENDING_CONFIRMATION" // Awaiting an operator decision
	PaymentStatusCompleted           PaymentStatus = "COMPLETED"            // Confirmed; counts toward the invoice balance
	PaymentStatusRejected            PaymentStatus = "REJECTED"             // Declined; never counts toward the balance
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPendingConfirmation,
		PaymentStatusCompleted, PaymentStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true once a decision has been recorded
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusRejected
}

// CanDecide returns true if the payment is still awaiting a confirm or
// reject decision
func (s PaymentStatus) CanDecide() bool {
	return s == PaymentStatusPending || s == PaymentStatusPendingConfirmation
}

// PaymentMode is how the money arrived
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeCard         PaymentMode = "CARD"
	PaymentModeCheque       PaymentMode = "CHEQUE"
	PaymentModeOnline       PaymentMode = "ONLINE"
	PaymentModeOther        PaymentMode = "OTHER"
)

// IsValid checks if the mode is a valid PaymentMode
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeBankTransfer, PaymentModeCard,
		PaymentModeCheque, PaymentModeOnline, PaymentModeOther:
		return true
	}
	return false
}

// PaymentStatusChange is one append-only history record of a status
// transition. History is written before the status field itself changes, so
// an audit of the transitions is always at least as current as the payment
// row.
type PaymentStatusChange struct {
	ID         uuid.UUID     `json:"id"`
	PaymentID  uuid.UUID     `json:"payment_id"`
	FromStatus PaymentStatus `json:"from_status"`
	ToStatus   PaymentStatus `json:"to_status"`
	ChangedBy  uuid.UUID     `json:"changed_by"`
	Reason     string        `json:"reason"`
	ChangedAt  time.Time     `json:"changed_at"`
}

// Payment is the aggregate root for one payment recorded against an invoice
type Payment struct {
	shared.OrgAggregateRoot
	PaymentNumber  string                `json:"payment_number"`
	InvoiceID      uuid.UUID             `json:"invoice_id"`
	LeaseID        uuid.UUID             `json:"lease_id"`
	Amount         decimal.Decimal       `json:"amount"`
	Mode           PaymentMode           `json:"mode"`
	Status         PaymentStatus         `json:"status"`
	PaymentDate    time.Time             `json:"payment_date"`
	TransactionRef string                `json:"transaction_ref"`
	Notes          string                `json:"notes"`
	CompletedAtUtc *time.Time            `json:"completed_at_utc"`
	RejectedAtUtc  *time.Time            `json:"rejected_at_utc"`
	RejectReason   string                `json:"reject_reason"`
	StatusHistory  []PaymentStatusChange `json:"status_history"`
}

// NewPayment records a new pending payment against an invoice
func NewPayment(
	organizationID uuid.UUID,
	paymentNumber string,
	invoiceID uuid.UUID,
	leaseID uuid.UUID,
	amount valueobject.Money,
	mode PaymentMode,
	paymentDate time.Time,
	transactionRef string,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_MODE", fmt.Sprintf("Invalid payment mode: %s", mode))
	}

	p := &Payment{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		PaymentNumber:    paymentNumber,
		InvoiceID:        invoiceID,
		LeaseID:          leaseID,
		Amount:           amount.Amount(),
		Mode:             mode,
		Status:           PaymentStatusPending,
		PaymentDate:      paymentDate,
		TransactionRef:   transactionRef,
		StatusHistory:    make([]PaymentStatusChange, 0),
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// SubmitForConfirmation moves a pending payment into the confirmation queue
func (p *Payment) SubmitForConfirmation(changedBy uuid.UUID) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError(shared.CodeInvalidPaymentState,
			fmt.Sprintf("Cannot submit payment in %s status for confirmation", p.Status))
	}
	p.recordTransition(PaymentStatusPendingConfirmation, changedBy, "")
	now := time.Now()
	p.Status = PaymentStatusPendingConfirmation
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// Confirm marks the payment as completed. Idempotence is the caller's
// concern; confirming twice is an invalid transition here.
func (p *Payment) Confirm(changedBy uuid.UUID, notes string) error {
	if !p.Status.CanDecide() {
		return shared.NewDomainError(shared.CodeInvalidPaymentState,
			fmt.Sprintf("Cannot confirm payment in %s status", p.Status))
	}

	p.recordTransition(PaymentStatusCompleted, changedBy, notes)
	now := time.Now().UTC()
	p.Status = PaymentStatusCompleted
	p.CompletedAtUtc = &now
	if notes != "" {
		p.Notes = notes
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentCompletedEvent(p, changedBy))

	return nil
}

// Reject declines the payment with a mandatory reason
func (p *Payment) Reject(changedBy uuid.UUID, reason string) error {
	if reason == "" {
		return shared.NewDomainError(shared.CodeMissingReason, "Rejection reason is required")
	}
	if !p.Status.CanDecide() {
		return shared.NewDomainError(shared.CodeInvalidPaymentState,
			fmt.Sprintf("Cannot reject payment in %s status", p.Status))
	}

	p.recordTransition(PaymentStatusRejected, changedBy, reason)
	now := time.Now().UTC()
	p.Status = PaymentStatusRejected
	p.RejectedAtUtc = &now
	p.RejectReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentRejectedEvent(p, changedBy, reason))

	return nil
}

// recordTransition appends the history entry for a transition about to happen
func (p *Payment) recordTransition(to PaymentStatus, changedBy uuid.UUID, reason string) {
	p.StatusHistory = append(p.StatusHistory, PaymentStatusChange{
		ID:         uuid.New(),
		PaymentID:  p.ID,
		FromStatus: p.Status,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  time.Now().UTC(),
	})
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

// IsCompleted returns true if the payment was confirmed
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// IsRejected returns true if the payment was rejected
func (p *Payment) IsRejected() bool {
	return p.Status == PaymentStatusRejected
}
