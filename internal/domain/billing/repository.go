package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	LeaseID    *uuid.UUID       // Filter by lease
	Status     *InvoiceStatus   // Filter by status
	PeriodFrom *time.Time       // Filter by period start range
	PeriodTo   *time.Time       // Filter by period end range
	DueFrom    *time.Time       // Filter by due date range start
	DueTo      *time.Time       // Filter by due date range end
	Overdue    *bool            // Filter only overdue invoices
	MinBalance *decimal.Decimal // Filter by minimum outstanding balance
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID, lines included
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForOrg finds an invoice by ID for a specific organization
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Invoice, error)

	// FindByInvoiceNumber finds by invoice number for an organization
	FindByInvoiceNumber(ctx context.Context, organizationID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindByLeaseAndPeriod finds the non-cancelled, non-voided invoice for a
	// lease billing period, if one exists
	FindByLeaseAndPeriod(ctx context.Context, organizationID, leaseID uuid.UUID, periodStart, periodEnd time.Time) (*Invoice, error)

	// FindAllForOrg finds all invoices for an organization with filtering
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindOverdue finds issued or partially paid invoices past their due date
	FindOverdue(ctx context.Context, organizationID uuid.UUID, asOf time.Time, filter InvoiceFilter) ([]Invoice, error)

	// Save creates or updates an invoice together with its lines
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CountForOrg counts invoices for an organization with optional filters
	CountForOrg(ctx context.Context, organizationID uuid.UUID, filter InvoiceFilter) (int64, error)

	// SumOutstandingForLease calculates the total outstanding balance for a lease
	SumOutstandingForLease(ctx context.Context, organizationID, leaseID uuid.UUID) (decimal.Decimal, error)

	// GenerateInvoiceNumber generates a unique invoice number for an organization
	GenerateInvoiceNumber(ctx context.Context, organizationID uuid.UUID) (string, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID     // Filter by invoice
	LeaseID   *uuid.UUID     // Filter by lease
	Status    *PaymentStatus // Filter by status
	Mode      *PaymentMode   // Filter by payment mode
	FromDate  *time.Time     // Filter by payment date range start
	ToDate    *time.Time     // Filter by payment date range end
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID, status history included
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForOrg finds a payment by ID for a specific organization
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Payment, error)

	// FindByInvoice finds all payments recorded against an invoice
	FindByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) ([]Payment, error)

	// FindAllForOrg finds all payments for an organization with filtering
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// Save creates or updates a payment together with its status history
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *Payment) error

	// SumCompletedByInvoice calculates the sum of completed payments against an invoice
	SumCompletedByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) (decimal.Decimal, error)

	// CountForOrg counts payments for an organization with optional filters
	CountForOrg(ctx context.Context, organizationID uuid.UUID, filter PaymentFilter) (int64, error)

	// GeneratePaymentNumber generates a unique payment number for an organization
	GeneratePaymentNumber(ctx context.Context, organizationID uuid.UUID) (string, error)
}

// CreditNoteFilter defines filtering options for credit note queries
type CreditNoteFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID        // Filter by invoice
	Reason    *CreditNoteReason // Filter by reason
	Applied   *bool             // Filter by applied / unapplied
	FromDate  *time.Time        // Filter by issue date range start
	ToDate    *time.Time        // Filter by issue date range end
}

// CreditNoteRepository defines the interface for credit note persistence
type CreditNoteRepository interface {
	// FindByID finds a credit note by ID, lines included
	FindByID(ctx context.Context, id uuid.UUID) (*CreditNote, error)

	// FindByIDForOrg finds a credit note by ID for a specific organization
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*CreditNote, error)

	// FindByInvoice finds all credit notes issued against an invoice
	FindByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) ([]CreditNote, error)

	// FindAllForOrg finds all credit notes for an organization with filtering
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter CreditNoteFilter) ([]CreditNote, error)

	// Save creates or updates a credit note together with its lines
	Save(ctx context.Context, creditNote *CreditNote) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, creditNote *CreditNote) error

	// SumAppliedByInvoice calculates the sum of applied credit notes against an invoice
	SumAppliedByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) (decimal.Decimal, error)

	// SumAppliedByInvoiceLine calculates the credit already applied or pending
	// against one invoice line, voided notes excluded
	SumAppliedByInvoiceLine(ctx context.Context, organizationID, invoiceLineID uuid.UUID) (decimal.Decimal, error)

	// GenerateCreditNoteNumber generates a unique credit note number for an organization
	GenerateCreditNoteNumber(ctx context.Context, organizationID uuid.UUID) (string, error)
}
