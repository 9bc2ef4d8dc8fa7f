package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/billing"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	OrgAggregateModel
	InvoiceNumber    string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_org_number,priority:2"`
	LeaseID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	PeriodStart      time.Time             `gorm:"not null;index"`
	PeriodEnd        time.Time             `gorm:"not null"`
	DueDate          *time.Time            `gorm:"index"`
	TotalAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	CreditedAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	WrittenOffAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status           billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Lines            []InvoiceLineModel    `gorm:"foreignKey:InvoiceID;references:ID"`
	IssuedAtUtc      *time.Time
	VoidedAtUtc      *time.Time
	VoidReason       string `gorm:"type:varchar(500)"`
	CancelledAtUtc   *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
	WrittenOffAtUtc  *time.Time
	WriteOffReason   string `gorm:"type:varchar(500)"`
	Remark           string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber:    m.InvoiceNumber,
		LeaseID:          m.LeaseID,
		PeriodStart:      m.PeriodStart,
		PeriodEnd:        m.PeriodEnd,
		DueDate:          m.DueDate,
		TotalAmount:      m.TotalAmount,
		PaidAmount:       m.PaidAmount,
		CreditedAmount:   m.CreditedAmount,
		WrittenOffAmount: m.WrittenOffAmount,
		BalanceAmount:    m.BalanceAmount,
		Status:           m.Status,
		IssuedAtUtc:      m.IssuedAtUtc,
		VoidedAtUtc:      m.VoidedAtUtc,
		VoidReason:       m.VoidReason,
		CancelledAtUtc:   m.CancelledAtUtc,
		CancelReason:     m.CancelReason,
		WrittenOffAtUtc:  m.WrittenOffAtUtc,
		WriteOffReason:   m.WriteOffReason,
		Remark:           m.Remark,
	}
	m.PopulateOrgAggregateRoot(&inv.OrgAggregateRoot)

	inv.Lines = make([]billing.InvoiceLine, len(m.Lines))
	for i, line := range m.Lines {
		inv.Lines[i] = *line.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainOrgAggregateRoot(inv.OrgAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.LeaseID = inv.LeaseID
	m.PeriodStart = inv.PeriodStart
	m.PeriodEnd = inv.PeriodEnd
	m.DueDate = inv.DueDate
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.CreditedAmount = inv.CreditedAmount
	m.WrittenOffAmount = inv.WrittenOffAmount
	m.BalanceAmount = inv.BalanceAmount
	m.Status = inv.Status
	m.IssuedAtUtc = inv.IssuedAtUtc
	m.VoidedAtUtc = inv.VoidedAtUtc
	m.VoidReason = inv.VoidReason
	m.CancelledAtUtc = inv.CancelledAtUtc
	m.CancelReason = inv.CancelReason
	m.WrittenOffAtUtc = inv.WrittenOffAtUtc
	m.WriteOffReason = inv.WriteOffReason
	m.Remark = inv.Remark
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, line := range inv.Lines {
		m.Lines[i] = *InvoiceLineModelFromDomain(&line)
	}
}

// InvoiceLineModelFromDomain creates a persistence model from a domain InvoiceLine.
func InvoiceLineModelFromDomain(l *billing.InvoiceLine) *InvoiceLineModel {
	return &InvoiceLineModel{
		ID:          l.ID,
		InvoiceID:   l.InvoiceID,
		Description: l.Description,
		Amount:      l.Amount,
		TaxAmount:   l.TaxAmount,
		SortOrder:   l.SortOrder,
		LeaseTermID: l.LeaseTermID,
		CreatedAt:   l.CreatedAt,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice aggregate.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for one invoice line.
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SortOrder   int             `gorm:"not null;default:0"`
	LeaseTermID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() *billing.InvoiceLine {
	return &billing.InvoiceLine{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Amount:      m.Amount,
		TaxAmount:   m.TaxAmount,
		SortOrder:   m.SortOrder,
		LeaseTermID: m.LeaseTermID,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentModel is the persistence model for the Payment aggregate.
type PaymentModel struct {
	OrgAggregateModel
	PaymentNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_org_number,priority:2"`
	InvoiceID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	LeaseID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Mode           billing.PaymentMode   `gorm:"type:varchar(20);not null"`
	Status         billing.PaymentStatus `gorm:"type:varchar(30);not null;default:'PENDING';index"`
	PaymentDate    time.Time             `gorm:"not null;index"`
	TransactionRef string                `gorm:"type:varchar(100)"`
	Notes          string                `gorm:"type:varchar(500)"`
	CompletedAtUtc *time.Time
	RejectedAtUtc  *time.Time
	RejectReason   string                     `gorm:"type:varchar(500)"`
	StatusHistory  []PaymentStatusChangeModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment aggregate.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber:  m.PaymentNumber,
		InvoiceID:      m.InvoiceID,
		LeaseID:        m.LeaseID,
		Amount:         m.Amount,
		Mode:           m.Mode,
		Status:         m.Status,
		PaymentDate:    m.PaymentDate,
		TransactionRef: m.TransactionRef,
		Notes:          m.Notes,
		CompletedAtUtc: m.CompletedAtUtc,
		RejectedAtUtc:  m.RejectedAtUtc,
		RejectReason:   m.RejectReason,
	}
	m.PopulateOrgAggregateRoot(&p.OrgAggregateRoot)

	p.StatusHistory = make([]billing.PaymentStatusChange, len(m.StatusHistory))
	for i, change := range m.StatusHistory {
		p.StatusHistory[i] = *change.ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment aggregate.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainOrgAggregateRoot(p.OrgAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.InvoiceID = p.InvoiceID
	m.LeaseID = p.LeaseID
	m.Amount = p.Amount
	m.Mode = p.Mode
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.TransactionRef = p.TransactionRef
	m.Notes = p.Notes
	m.CompletedAtUtc = p.CompletedAtUtc
	m.RejectedAtUtc = p.RejectedAtUtc
	m.RejectReason = p.RejectReason
	m.StatusHistory = make([]PaymentStatusChangeModel, len(p.StatusHistory))
	for i, change := range p.StatusHistory {
		m.StatusHistory[i] = *PaymentStatusChangeModelFromDomain(&change)
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment aggregate.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentStatusChangeModel is the persistence model for one entry in a
// payment's append-only status history.
type PaymentStatusChangeModel struct {
	ID         uuid.UUID             `gorm:"type:uuid;primary_key"`
	PaymentID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	FromStatus billing.PaymentStatus `gorm:"type:varchar(30);not null"`
	ToStatus   billing.PaymentStatus `gorm:"type:varchar(30);not null"`
	ChangedBy  uuid.UUID             `gorm:"type:uuid;not null"`
	Reason     string                `gorm:"type:varchar(500)"`
	ChangedAt  time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentStatusChangeModel) TableName() string {
	return "payment_status_changes"
}

// ToDomain converts the persistence model to a domain PaymentStatusChange.
func (m *PaymentStatusChangeModel) ToDomain() *billing.PaymentStatusChange {
	return &billing.PaymentStatusChange{
		ID:         m.ID,
		PaymentID:  m.PaymentID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ChangedBy:  m.ChangedBy,
		Reason:     m.Reason,
		ChangedAt:  m.ChangedAt,
	}
}

// PaymentStatusChangeModelFromDomain creates a persistence model from a domain PaymentStatusChange.
func PaymentStatusChangeModelFromDomain(c *billing.PaymentStatusChange) *PaymentStatusChangeModel {
	return &PaymentStatusChangeModel{
		ID:         c.ID,
		PaymentID:  c.PaymentID,
		FromStatus: c.FromStatus,
		ToStatus:   c.ToStatus,
		ChangedBy:  c.ChangedBy,
		Reason:     c.Reason,
		ChangedAt:  c.ChangedAt,
	}
}

// CreditNoteModel is the persistence model for the CreditNote aggregate.
type CreditNoteModel struct {
	OrgAggregateModel
	CreditNoteNumber string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_credit_note_org_number,priority:2"`
	InvoiceID        uuid.UUID                `gorm:"type:uuid;not null;index"`
	Reason           billing.CreditNoteReason `gorm:"type:varchar(30);not null"`
	ReasonDetail     string                   `gorm:"type:varchar(500)"`
	TotalAmount      decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Lines            []CreditNoteLineModel    `gorm:"foreignKey:CreditNoteID;references:ID"`
	IssueDate        time.Time                `gorm:"not null"`
	AppliedAtUtc     *time.Time               `gorm:"index"`
	AppliedBy        *uuid.UUID               `gorm:"type:uuid"`
	VoidedAtUtc      *time.Time
	VoidReason       string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CreditNoteModel) TableName() string {
	return "credit_notes"
}

// ToDomain converts the persistence model to a domain CreditNote aggregate.
func (m *CreditNoteModel) ToDomain() *billing.CreditNote {
	cn := &billing.CreditNote{
		CreditNoteNumber: m.CreditNoteNumber,
		InvoiceID:        m.InvoiceID,
		Reason:           m.Reason,
		ReasonDetail:     m.ReasonDetail,
		TotalAmount:      m.TotalAmount,
		IssueDate:        m.IssueDate,
		AppliedAtUtc:     m.AppliedAtUtc,
		AppliedBy:        m.AppliedBy,
		VoidedAtUtc:      m.VoidedAtUtc,
		VoidReason:       m.VoidReason,
	}
	m.PopulateOrgAggregateRoot(&cn.OrgAggregateRoot)

	cn.Lines = make([]billing.CreditNoteLine, len(m.Lines))
	for i, line := range m.Lines {
		cn.Lines[i] = *line.ToDomain()
	}
	return cn
}

// FromDomain populates the persistence model from a domain CreditNote aggregate.
func (m *CreditNoteModel) FromDomain(cn *billing.CreditNote) {
	m.FromDomainOrgAggregateRoot(cn.OrgAggregateRoot)
	m.CreditNoteNumber = cn.CreditNoteNumber
	m.InvoiceID = cn.InvoiceID
	m.Reason = cn.Reason
	m.ReasonDetail = cn.ReasonDetail
	m.TotalAmount = cn.TotalAmount
	m.IssueDate = cn.IssueDate
	m.AppliedAtUtc = cn.AppliedAtUtc
	m.AppliedBy = cn.AppliedBy
	m.VoidedAtUtc = cn.VoidedAtUtc
	m.VoidReason = cn.VoidReason
	m.Lines = make([]CreditNoteLineModel, len(cn.Lines))
	for i, line := range cn.Lines {
		m.Lines[i] = *CreditNoteLineModelFromDomain(&line)
	}
}

// CreditNoteModelFromDomain creates a persistence model from a domain CreditNote aggregate.
func CreditNoteModelFromDomain(cn *billing.CreditNote) *CreditNoteModel {
	m := &CreditNoteModel{}
	m.FromDomain(cn)
	return m
}

// CreditNoteLineModel is the persistence model for one credit note line.
type CreditNoteLineModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	CreditNoteID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description   string          `gorm:"type:varchar(500);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditNoteLineModel) TableName() string {
	return "credit_note_lines"
}

// ToDomain converts the persistence model to a domain CreditNoteLine.
func (m *CreditNoteLineModel) ToDomain() *billing.CreditNoteLine {
	return &billing.CreditNoteLine{
		ID:            m.ID,
		CreditNoteID:  m.CreditNoteID,
		InvoiceLineID: m.InvoiceLineID,
		Description:   m.Description,
		Amount:        m.Amount,
		CreatedAt:     m.CreatedAt,
	}
}

// CreditNoteLineModelFromDomain creates a persistence model from a domain CreditNoteLine.
func CreditNoteLineModelFromDomain(l *billing.CreditNoteLine) *CreditNoteLineModel {
	return &CreditNoteLineModel{
		ID:            l.ID,
		CreditNoteID:  l.CreditNoteID,
		InvoiceLineID: l.InvoiceLineID,
		Description:   l.Description,
		Amount:        l.Amount,
		CreatedAt:     l.CreatedAt,
	}
}
