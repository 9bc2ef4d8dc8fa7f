package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/billing"
	"github.com/tenancy/backend/internal/domain/leasing"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	leaseRepo      leasing.LeaseRepository
	accumulator    *leasing.ChargeAccumulator
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	defaultDueDays int
}

// InvoiceServiceOption is a functional option for configuring InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithProrationPolicy sets the proration policy used when generating invoices
func WithProrationPolicy(policy leasing.ProrationPolicy) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.accumulator = leasing.NewChargeAccumulator(policy)
	}
}

// WithInvoiceEventPublisher sets the publisher for invoice domain events
func WithInvoiceEventPublisher(publisher shared.EventPublisher) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.eventPublisher = publisher
	}
}

// WithDefaultDueDays sets the fallback payment window. When a generate
// request carries no due date, the invoice falls due this many days after
// the period end.
func WithDefaultDueDays(days int) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.defaultDueDays = days
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	leaseRepo leasing.LeaseRepository,
	txScope TransactionScope,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	s := &InvoiceService{
		invoiceRepo: invoiceRepo,
		leaseRepo:   leaseRepo,
		accumulator: leasing.NewChargeAccumulator(nil),
		txScope:     txScope,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and Responses =====================

// GenerateInvoiceRequest carries the input for generating a draft invoice
type GenerateInvoiceRequest struct {
	LeaseID     uuid.UUID  `json:"lease_id" binding:"required"`
	PeriodStart time.Time  `json:"period_start" binding:"required"`
	PeriodEnd   time.Time  `json:"period_end" binding:"required"`
	DueDate     *time.Time `json:"due_date"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	SortOrder   int             `json:"sort_order"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	OrganizationID   uuid.UUID             `json:"organization_id"`
	InvoiceNumber    string                `json:"invoice_number"`
	LeaseID          uuid.UUID             `json:"lease_id"`
	PeriodStart      time.Time             `json:"period_start"`
	PeriodEnd        time.Time             `json:"period_end"`
	DueDate          *time.Time            `json:"due_date,omitempty"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	PaidAmount       decimal.Decimal       `json:"paid_amount"`
	CreditedAmount   decimal.Decimal       `json:"credited_amount"`
	WrittenOffAmount decimal.Decimal       `json:"written_off_amount"`
	BalanceAmount    decimal.Decimal       `json:"balance_amount"`
	Status           string                `json:"status"`
	Lines            []InvoiceLineResponse `json:"lines"`
	IssuedAtUtc      *time.Time            `json:"issued_at_utc,omitempty"`
	VoidedAtUtc      *time.Time            `json:"voided_at_utc,omitempty"`
	VoidReason       string                `json:"void_reason,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	LeaseID  *uuid.UUID `form:"lease_id"`
	Status   string     `form:"status"`
	Overdue  *bool      `form:"overdue"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, InvoiceLineResponse{
			ID:          l.ID,
			Description: l.Description,
			Amount:      l.Amount,
			TaxAmount:   l.TaxAmount,
			SortOrder:   l.SortOrder,
		})
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		OrganizationID:   inv.OrganizationID,
		InvoiceNumber:    inv.InvoiceNumber,
		LeaseID:          inv.LeaseID,
		PeriodStart:      inv.PeriodStart,
		PeriodEnd:        inv.PeriodEnd,
		DueDate:          inv.DueDate,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		CreditedAmount:   inv.CreditedAmount,
		WrittenOffAmount: inv.WrittenOffAmount,
		BalanceAmount:    inv.BalanceAmount,
		Status:           inv.Status.String(),
		Lines:            lines,
		IssuedAtUtc:      inv.IssuedAtUtc,
		VoidedAtUtc:      inv.VoidedAtUtc,
		VoidReason:       inv.VoidReason,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.Version,
	}
}

// ===================== Operations =====================

// GenerateInvoice builds the draft invoice for a lease billing period from
// the lease's term data. Generating the same period twice is rejected once a
// non-draft invoice exists; an existing draft is regenerated in place from
// fresh term data instead.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, organizationID uuid.UUID, req GenerateInvoiceRequest) (*InvoiceResponse, error) {
	period, err := valueobject.NewPeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}

	lease, err := s.leaseRepo.FindByIDForOrg(ctx, organizationID, req.LeaseID)
	if err != nil {
		return nil, err
	}
	if lease == nil {
		return nil, shared.NewDomainError("LEASE_NOT_FOUND", "Lease not found")
	}

	chargeLines, err := s.accumulator.BuildLineItems(lease, period)
	if err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.FindByLeaseAndPeriod(ctx, organizationID, lease.ID, period.Start(), period.End())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if !existing.IsDraft() {
			return nil, shared.NewDomainError(shared.CodeDuplicateInvoice,
				"An invoice already exists for this lease and period")
		}
		if err := existing.ReplaceLines(); err != nil {
			return nil, err
		}
		if err := appendChargeLines(existing, chargeLines); err != nil {
			return nil, err
		}
		if req.DueDate != nil {
			existing.DueDate = req.DueDate
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, existing); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, &existing.OrgAggregateRoot)
		return toInvoiceResponse(existing), nil
	}

	number, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	dueDate := req.DueDate
	if dueDate == nil && s.defaultDueDays > 0 {
		d := period.End().AddDate(0, 0, s.defaultDueDays)
		dueDate = &d
	}

	invoice, err := billing.NewDraftInvoice(organizationID, number, lease.ID, period, dueDate)
	if err != nil {
		return nil, err
	}
	if err := appendChargeLines(invoice, chargeLines); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &invoice.OrgAggregateRoot)
	return toInvoiceResponse(invoice), nil
}

func appendChargeLines(invoice *billing.Invoice, chargeLines []leasing.ChargeLine) error {
	for _, cl := range chargeLines {
		termID := cl.TermID
		if _, err := invoice.AddLine(cl.Description, cl.Amount, decimal.Zero, &termID); err != nil {
			return err
		}
	}
	return nil
}

// IssueInvoice freezes a draft invoice. expectedVersion is the concurrency
// token the caller read; if the invoice has moved on since then, the call
// fails with a conflict and the caller must re-read and retry.
func (s *InvoiceService) IssueInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID, expectedVersion int) (*InvoiceResponse, error) {
	invoice, err := s.findInvoiceAtVersion(ctx, organizationID, invoiceID, expectedVersion)
	if err != nil {
		return nil, err
	}

	if err := invoice.Issue(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &invoice.OrgAggregateRoot)
	return toInvoiceResponse(invoice), nil
}

// VoidInvoice voids an issued invoice that has no confirmed payments. The
// caller's expectedVersion token is checked against the current invoice
// before the transition runs.
func (s *InvoiceService) VoidInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID, reason string, expectedVersion int) (*InvoiceResponse, error) {
	invoice, err := s.findInvoiceAtVersion(ctx, organizationID, invoiceID, expectedVersion)
	if err != nil {
		return nil, err
	}

	if err := invoice.Void(reason); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &invoice.OrgAggregateRoot)
	return toInvoiceResponse(invoice), nil
}

// WriteOffInvoice writes off the remaining balance of an invoice. Like the
// other invoice mutations it takes the caller's expectedVersion token.
func (s *InvoiceService) WriteOffInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID, reason string, expectedVersion int) (*InvoiceResponse, error) {
	invoice, err := s.findInvoiceAtVersion(ctx, organizationID, invoiceID, expectedVersion)
	if err != nil {
		return nil, err
	}

	if err := invoice.WriteOff(reason); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &invoice.OrgAggregateRoot)
	return toInvoiceResponse(invoice), nil
}

// RecomputeInvoice re-derives the invoice's balance fields and status from
// the completed-payment and applied-credit sums read fresh inside one
// transaction, then saves with a version check. Running it again with no
// settlement changes is a no-op apart from the version bump.
func (s *InvoiceService) RecomputeInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForOrg(ctx, organizationID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError(shared.CodeInvoiceNotFound, "Invoice not found")
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
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &invoice.OrgAggregateRoot)
	return toInvoiceResponse(invoice), nil
}

// GetInvoice returns one invoice
func (s *InvoiceService) GetInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.findInvoice(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices returns invoices for an organization with filtering and paging
func (s *InvoiceService) ListInvoices(ctx context.Context, organizationID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[*InvoiceResponse], error) {
	repoFilter := billing.InvoiceFilter{
		Filter:  shared.DefaultFilter(),
		LeaseID: filter.LeaseID,
		Overdue: filter.Overdue,
	}
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status filter")
		}
		repoFilter.Status = &status
	}
	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}

	invoices, err := s.invoiceRepo.FindAllForOrg(ctx, organizationID, repoFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.CountForOrg(ctx, organizationID, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]*InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, toInvoiceResponse(&invoices[i]))
	}
	page := shared.NewPaginated(responses, total, repoFilter.Page, repoFilter.PageSize)
	return &page, nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError(shared.CodeInvoiceNotFound, "Invoice not found")
	}
	return invoice, nil
}

// findInvoiceAtVersion loads the invoice and rejects the call when the
// caller's token no longer matches the stored version. The check runs before
// any transition, so a stale caller never acts on amounts it has not seen.
func (s *InvoiceService) findInvoiceAtVersion(ctx context.Context, organizationID, invoiceID uuid.UUID, expectedVersion int) (*billing.Invoice, error) {
	invoice, err := s.findInvoice(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Version != expectedVersion {
		return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("Invoice is at version %d, caller expected %d; re-read and retry", invoice.Version, expectedVersion))
	}
	return invoice, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, root *shared.OrgAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := root.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Event delivery is best-effort; the state change has already committed.
	_ = s.eventPublisher.Publish(ctx, events...)
	root.ClearDomainEvents()
}
