package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/billing"
	"github.com/tenancy/backend/internal/domain/shared"
)

// CreditNoteService provides application-level credit note operations
type CreditNoteService struct {
	creditNoteRepo billing.CreditNoteRepository
	invoiceRepo    billing.InvoiceRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// CreditNoteServiceOption is a functional option for configuring CreditNoteService
type CreditNoteServiceOption func(*CreditNoteService)

// WithCreditNoteEventPublisher sets the publisher for credit note domain events
func WithCreditNoteEventPublisher(publisher shared.EventPublisher) CreditNoteServiceOption {
	return func(s *CreditNoteService) {
		s.eventPublisher = publisher
	}
}

// NewCreditNoteService creates a new CreditNoteService
func NewCreditNoteService(
	creditNoteRepo billing.CreditNoteRepository,
	invoiceRepo billing.InvoiceRepository,
	txScope TransactionScope,
	opts ...CreditNoteServiceOption,
) *CreditNoteService {
	s := &CreditNoteService{
		creditNoteRepo: creditNoteRepo,
		invoiceRepo:    invoiceRepo,
		txScope:        txScope,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and Responses =====================

// CreditNoteLineRequest is one line of a credit note creation request
type CreditNoteLineRequest struct {
	InvoiceLineID uuid.UUID       `json:"invoice_line_id" binding:"required"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// CreateCreditNoteRequest carries the input for creating a credit note.
// IssueDate is optional; an absent date stamps the note with the current time.
type CreateCreditNoteRequest struct {
	InvoiceID    uuid.UUID               `json:"invoice_id" binding:"required"`
	Reason       string                  `json:"reason" binding:"required"`
	ReasonDetail string                  `json:"reason_detail"`
	IssueDate    *time.Time              `json:"issue_date"`
	Lines        []CreditNoteLineRequest `json:"lines" binding:"required,min=1"`
}

// CreditNoteLineResponse represents a credit note line in API responses
type CreditNoteLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceLineID uuid.UUID       `json:"invoice_line_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
}

// CreditNoteResponse represents a credit note in API responses
type CreditNoteResponse struct {
	ID               uuid.UUID                `json:"id"`
	OrganizationID   uuid.UUID                `json:"organization_id"`
	CreditNoteNumber string                   `json:"credit_note_number"`
	InvoiceID        uuid.UUID                `json:"invoice_id"`
	Reason           string                   `json:"reason"`
	ReasonDetail     string                   `json:"reason_detail,omitempty"`
	TotalAmount      decimal.Decimal          `json:"total_amount"`
	Lines            []CreditNoteLineResponse `json:"lines"`
	IssueDate        time.Time                `json:"issue_date"`
	AppliedAtUtc     *time.Time               `json:"applied_at_utc,omitempty"`
	VoidedAtUtc      *time.Time               `json:"voided_at_utc,omitempty"`
	VoidReason       string                   `json:"void_reason,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	Version          int                      `json:"version"`
}

func toCreditNoteResponse(cn *billing.CreditNote) *CreditNoteResponse {
	lines := make([]CreditNoteLineResponse, 0, len(cn.Lines))
	for _, l := range cn.Lines {
		lines = append(lines, CreditNoteLineResponse{
			ID:            l.ID,
			InvoiceLineID: l.InvoiceLineID,
			Description:   l.Description,
			Amount:        l.Amount,
		})
	}
	return &CreditNoteResponse{
		ID:               cn.ID,
		OrganizationID:   cn.OrganizationID,
		CreditNoteNumber: cn.CreditNoteNumber,
		InvoiceID:        cn.InvoiceID,
		Reason:           cn.Reason.String(),
		ReasonDetail:     cn.ReasonDetail,
		TotalAmount:      cn.TotalAmount,
		Lines:            lines,
		IssueDate:        cn.IssueDate,
		AppliedAtUtc:     cn.AppliedAtUtc,
		VoidedAtUtc:      cn.VoidedAtUtc,
		VoidReason:       cn.VoidReason,
		CreatedAt:        cn.CreatedAt,
		Version:          cn.Version,
	}
}

// ===================== Operations =====================

// CreateCreditNote creates an unapplied credit note against an issued
// invoice. Every line must reference a line of that invoice, and the credit
// per line is capped at the line's value minus credit already issued against
// it, counting unapplied notes so two drafts cannot reserve the same value.
// Creation also writes the invoice row under its version check, which is what
// keeps two concurrent creators from both passing the cap.
func (s *CreditNoteService) CreateCreditNote(ctx context.Context, organizationID uuid.UUID, req CreateCreditNoteRequest) (*CreditNoteResponse, error) {
	var creditNote *billing.CreditNote
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForOrg(ctx, organizationID, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError(shared.CodeInvoiceNotFound, "Invoice not found")
		}
		if !invoice.Status.IsSettleable() {
			return shared.NewDomainError(shared.CodeInvalidInvoiceState,
				"Credit notes can only be issued against issued invoices")
		}

		number, err := repos.CreditNoteRepo().GenerateCreditNoteNumber(ctx, organizationID)
		if err != nil {
			return err
		}

		issueDate := time.Now().UTC()
		if req.IssueDate != nil {
			issueDate = req.IssueDate.UTC()
		}

		creditNote, err = billing.NewCreditNote(
			organizationID,
			number,
			invoice.ID,
			billing.CreditNoteReason(req.Reason),
			req.ReasonDetail,
			issueDate,
		)
		if err != nil {
			return err
		}

		for _, lineReq := range req.Lines {
			invoiceLine := invoice.LineByID(lineReq.InvoiceLineID)
			if invoiceLine == nil {
				return shared.NewDomainError(shared.CodeLineNotOnInvoice,
					fmt.Sprintf("Line %s is not on invoice %s", lineReq.InvoiceLineID, invoice.InvoiceNumber))
			}

			alreadyCredited, err := repos.CreditNoteRepo().SumAppliedByInvoiceLine(ctx, organizationID, invoiceLine.ID)
			if err != nil {
				return err
			}
			remaining := invoiceLine.Amount.Add(invoiceLine.TaxAmount).Sub(alreadyCredited)
			if lineReq.Amount.GreaterThan(remaining) {
				return shared.NewDomainError(shared.CodeCreditExceedsRemaining,
					fmt.Sprintf("Credit %s exceeds remaining creditable %s on line %s",
						lineReq.Amount.StringFixed(2), remaining.StringFixed(2), invoiceLine.Description))
			}

			description := lineReq.Description
			if description == "" {
				description = invoiceLine.Description
			}
			if _, err := creditNote.AddLine(invoiceLine.ID, description, lineReq.Amount); err != nil {
				return err
			}
		}

		// The note itself is an insert, so the headroom checks above are only
		// safe if creators serialize on the invoice row. A concurrent create
		// fails the version check here and rolls back.
		if err := invoice.MarkSettlementReserved(); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		return repos.CreditNoteRepo().Save(ctx, creditNote)
	})
	if err != nil {
		return nil, err
	}

	return toCreditNoteResponse(creditNote), nil
}

// ApplyCreditNote applies a credit note and recomputes the invoice in the
// same transaction
func (s *CreditNoteService) ApplyCreditNote(ctx context.Context, organizationID, creditNoteID, operatorID uuid.UUID) (*CreditNoteResponse, error) {
	var creditNote *billing.CreditNote
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		creditNote, err = s.findCreditNote(ctx, repos, organizationID, creditNoteID)
		if err != nil {
			return err
		}

		if err := creditNote.Apply(operatorID); err != nil {
			return err
		}
		if err := repos.CreditNoteRepo().SaveWithLock(ctx, creditNote); err != nil {
			return err
		}

		return s.recomputeInvoice(ctx, repos, organizationID, creditNote.InvoiceID)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &creditNote.OrgAggregateRoot)
	return toCreditNoteResponse(creditNote), nil
}

// VoidCreditNote voids an unapplied credit note
func (s *CreditNoteService) VoidCreditNote(ctx context.Context, organizationID, creditNoteID uuid.UUID, reason string) (*CreditNoteResponse, error) {
	creditNote, err := s.creditNoteRepo.FindByIDForOrg(ctx, organizationID, creditNoteID)
	if err != nil {
		return nil, err
	}
	if creditNote == nil {
		return nil, shared.NewDomainError("CREDIT_NOTE_NOT_FOUND", "Credit note not found")
	}

	if err := creditNote.Void(reason); err != nil {
		return nil, err
	}
	if err := s.creditNoteRepo.SaveWithLock(ctx, creditNote); err != nil {
		return nil, err
	}

	return toCreditNoteResponse(creditNote), nil
}

// GetCreditNote returns one credit note
func (s *CreditNoteService) GetCreditNote(ctx context.Context, organizationID, creditNoteID uuid.UUID) (*CreditNoteResponse, error) {
	creditNote, err := s.creditNoteRepo.FindByIDForOrg(ctx, organizationID, creditNoteID)
	if err != nil {
		return nil, err
	}
	if creditNote == nil {
		return nil, shared.NewDomainError("CREDIT_NOTE_NOT_FOUND", "Credit note not found")
	}
	return toCreditNoteResponse(creditNote), nil
}

// ListCreditNotesByInvoice returns all credit notes issued against an invoice
func (s *CreditNoteService) ListCreditNotesByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) ([]*CreditNoteResponse, error) {
	notes, err := s.creditNoteRepo.FindByInvoice(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, err
	}
	responses := make([]*CreditNoteResponse, 0, len(notes))
	for i := range notes {
		responses = append(responses, toCreditNoteResponse(&notes[i]))
	}
	return responses, nil
}

func (s *CreditNoteService) findCreditNote(ctx context.Context, repos TransactionalRepositories, organizationID, creditNoteID uuid.UUID) (*billing.CreditNote, error) {
	creditNote, err := repos.CreditNoteRepo().FindByIDForOrg(ctx, organizationID, creditNoteID)
	if err != nil {
		return nil, err
	}
	if creditNote == nil {
		return nil, shared.NewDomainError("CREDIT_NOTE_NOT_FOUND", "Credit note not found")
	}
	return creditNote, nil
}

// recomputeInvoice re-reads the settlement sums inside the current
// transaction and saves the re-derived invoice with a version check. The
// invoice ID comes from the stored credit note row, so a miss here is a
// data-integrity failure, not a caller lookup error.
func (s *CreditNoteService) recomputeInvoice(ctx context.Context, repos TransactionalRepositories, organizationID, invoiceID uuid.UUID) error {
	invoice, err := repos.InvoiceRepo().FindByIDForOrg(ctx, organizationID, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return fmt.Errorf("credit note settlement references missing invoice %s", invoiceID)
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

func (s *CreditNoteService) publishEvents(ctx context.Context, root *shared.OrgAggregateRoot) {
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
