package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/billing"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// PaymentService provides application-level payment operations.
// A confirm or reject decision and the resulting invoice recompute happen in
// one transaction, so the invoice balance can never drift from the payments
// that produced it.
type PaymentService struct {
	paymentRepo    billing.PaymentRepository
	invoiceRepo    billing.InvoiceRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithPaymentEventPublisher sets the publisher for payment domain events
func WithPaymentEventPublisher(publisher shared.EventPublisher) PaymentServiceOption {
	return func(s *PaymentService) {
		s.eventPublisher = publisher
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	txScope TransactionScope,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and Responses =====================

// RecordPaymentRequest carries the input for recording a payment
type RecordPaymentRequest struct {
	InvoiceID      uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Mode           string          `json:"mode" binding:"required"`
	PaymentDate    time.Time       `json:"payment_date" binding:"required"`
	TransactionRef string          `json:"transaction_ref"`
}

// PaymentStatusChangeResponse represents one history entry in API responses
type PaymentStatusChangeResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	Reason     string    `json:"reason,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID             uuid.UUID                     `json:"id"`
	OrganizationID uuid.UUID                     `json:"organization_id"`
	PaymentNumber  string                        `json:"payment_number"`
	InvoiceID      uuid.UUID                     `json:"invoice_id"`
	LeaseID        uuid.UUID                     `json:"lease_id"`
	Amount         decimal.Decimal               `json:"amount"`
	Mode           string                        `json:"mode"`
	Status         string                        `json:"status"`
	PaymentDate    time.Time                     `json:"payment_date"`
	TransactionRef string                        `json:"transaction_ref,omitempty"`
	CompletedAtUtc *time.Time                    `json:"completed_at_utc,omitempty"`
	RejectedAtUtc  *time.Time                    `json:"rejected_at_utc,omitempty"`
	RejectReason   string                        `json:"reject_reason,omitempty"`
	StatusHistory  []PaymentStatusChangeResponse `json:"status_history,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
	Version        int                           `json:"version"`
}

func toPaymentResponse(p *billing.Payment) *PaymentResponse {
	history := make([]PaymentStatusChangeResponse, 0, len(p.StatusHistory))
	for _, h := range p.StatusHistory {
		history = append(history, PaymentStatusChangeResponse{
			FromStatus: h.FromStatus.String(),
			ToStatus:   h.ToStatus.String(),
			ChangedBy:  h.ChangedBy,
			Reason:     h.Reason,
			ChangedAt:  h.ChangedAt,
		})
	}
	return &PaymentResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		PaymentNumber:  p.PaymentNumber,
		InvoiceID:      p.InvoiceID,
		LeaseID:        p.LeaseID,
		Amount:         p.Amount,
		Mode:           string(p.Mode),
		Status:         p.Status.String(),
		PaymentDate:    p.PaymentDate,
		TransactionRef: p.TransactionRef,
		CompletedAtUtc: p.CompletedAtUtc,
		RejectedAtUtc:  p.RejectedAtUtc,
		RejectReason:   p.RejectReason,
		StatusHistory:  history,
		CreatedAt:      p.CreatedAt,
		Version:        p.Version,
	}
}

// ===================== Operations =====================

// RecordPayment records a pending payment against an issued invoice
func (s *PaymentService) RecordPayment(ctx context.Context, organizationID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, organizationID, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError(shared.CodeInvoiceNotFound, "Invoice not found")
	}
	if !invoice.Status.IsSettleable() {
		return nil, shared.NewDomainError(shared.CodeInvalidInvoiceState,
			"Payments can only be recorded against issued invoices")
	}

	number, err := s.paymentRepo.GeneratePaymentNumber(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	payment, err := billing.NewPayment(
		organizationID,
		number,
		invoice.ID,
		invoice.LeaseID,
		valueobject.NewMoneyUSD(req.Amount),
		billing.PaymentMode(req.Mode),
		req.PaymentDate,
		req.TransactionRef,
	)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &payment.OrgAggregateRoot)
	return toPaymentResponse(payment), nil
}

// ConfirmPayment confirms a pending payment and recomputes the invoice in the
// same transaction. The history record travels with the status change; both
// saves carry a version check, so two operators deciding the same payment
// concurrently surface as a conflict rather than a double application.
func (s *PaymentService) ConfirmPayment(ctx context.Context, organizationID, paymentID, operatorID uuid.UUID, notes string) (*PaymentResponse, error) {
	var payment *billing.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = s.findPayment(ctx, repos, organizationID, paymentID)
		if err != nil {
			return err
		}

		if err := payment.Confirm(operatorID, notes); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}

		return s.recomputeInvoice(ctx, repos, organizationID, payment.InvoiceID)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &payment.OrgAggregateRoot)
	return toPaymentResponse(payment), nil
}

// RejectPayment rejects a pending payment with a mandatory reason. The
// invoice is recomputed in the same transaction; a rejected payment never
// contributes to the paid sum, so the balance is unchanged by the rejection
// itself.
func (s *PaymentService) RejectPayment(ctx context.Context, organizationID, paymentID, operatorID uuid.UUID, reason string) (*PaymentResponse, error) {
	var payment *billing.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = s.findPayment(ctx, repos, organizationID, paymentID)
		if err != nil {
			return err
		}

		if err := payment.Reject(operatorID, reason); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}

		return s.recomputeInvoice(ctx, repos, organizationID, payment.InvoiceID)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &payment.OrgAggregateRoot)
	return toPaymentResponse(payment), nil
}

// GetPayment returns one payment with its status history
func (s *PaymentService) GetPayment(ctx context.Context, organizationID, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForOrg(ctx, organizationID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return toPaymentResponse(payment), nil
}

// ListPaymentsByInvoice returns all payments recorded against an invoice
func (s *PaymentService) ListPaymentsByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) ([]*PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByInvoice(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, err
	}
	responses := make([]*PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, toPaymentResponse(&payments[i]))
	}
	return responses, nil
}

func (s *PaymentService) findPayment(ctx context.Context, repos TransactionalRepositories, organizationID, paymentID uuid.UUID) (*billing.Payment, error) {
	payment, err := repos.PaymentRepo().FindByIDForOrg(ctx, organizationID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return payment, nil
}

// recomputeInvoice re-reads the settlement sums inside the current
// transaction and saves the re-derived invoice with a version check. The
// invoice ID comes from the stored payment row, so a miss here is a
// data-integrity failure, not a caller lookup error.
func (s *PaymentService) recomputeInvoice(ctx context.Context, repos TransactionalRepositories, organizationID, invoiceID uuid.UUID) error {
	invoice, err := repos.InvoiceRepo().FindByIDForOrg(ctx, organizationID, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return fmt.Errorf("payment settlement references missing invoice %s", invoiceID)
	}

	paidSum, err := repos.PaymentRepo().SumCompletedByInvoice(ctx, organizationID, invoice.ID)
	if err != nil {
		return err
	}
	creditedSum, err := repos.CreditNoteRepo().SumAppliedByInvoice(ctx, organizationID, invoice.ID)
	if err != nil {
		return err
	}

	if err := invoice.RecomputeTotals(paidSum, creditedSum, time.Now().UTC()); err != nil {
		return err
	}
	return repos.InvoiceRepo().SaveWithLock(ctx, invoice)
}

func (s *PaymentService) publishEvents(ctx context.Context, root *shared.OrgAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := root.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	root.ClearDomainEvents()
}
