package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/billing"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCreditNoteRepository implements billing.CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// FindByID finds a credit note by its ID, lines included
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds a credit note by ID within an organization
func (r *GormCreditNoteRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*billing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice finds all credit notes issued against an invoice
func (r *GormCreditNoteRepository) FindByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) ([]billing.CreditNote, error) {
	var noteModels []models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("organization_id = ? AND invoice_id = ?", organizationID, invoiceID).
		Order("issue_date ASC, created_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]billing.CreditNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// FindAllForOrg finds all credit notes for an organization with filtering
func (r *GormCreditNoteRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter billing.CreditNoteFilter) ([]billing.CreditNote, error) {
	var noteModels []models.CreditNoteModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.CreditNoteModel{}).
			Preload("Lines").
			Where("organization_id = ?", organizationID),
		filter,
	)

	if err := query.Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]billing.CreditNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// Save creates or updates a credit note together with its lines
func (r *GormCreditNoteRepository) Save(ctx context.Context, creditNote *billing.CreditNote) error {
	model := models.CreditNoteModelFromDomain(creditNote)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := model.Lines
		model.Lines = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		return r.replaceLines(tx, model.ID, lines)
	})
}

// SaveWithLock saves with optimistic locking. The aggregate carries the
// already-incremented version; the row must still hold the previous one.
// Lines are frozen at creation and are not touched here.
func (r *GormCreditNoteRepository) SaveWithLock(ctx context.Context, creditNote *billing.CreditNote) error {
	model := models.CreditNoteModelFromDomain(creditNote)
	result := r.db.WithContext(ctx).Model(&models.CreditNoteModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"applied_at_utc": model.AppliedAtUtc,
			"applied_by":     model.AppliedBy,
			"voided_at_utc":  model.VoidedAtUtc,
			"void_reason":    model.VoidReason,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"The credit note was modified by another transaction")
	}
	return nil
}

// replaceLines reconciles the stored line set with the aggregate's lines
func (r *GormCreditNoteRepository) replaceLines(tx *gorm.DB, creditNoteID uuid.UUID, lines []models.CreditNoteLineModel) error {
	currentIDs := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		currentIDs[i] = line.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("credit_note_id = ? AND id NOT IN ?", creditNoteID, currentIDs).
			Delete(&models.CreditNoteLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("credit_note_id = ?", creditNoteID).
			Delete(&models.CreditNoteLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range lines {
		lines[i].CreditNoteID = creditNoteID
		if err := tx.Save(&lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SumAppliedByInvoice calculates the sum of applied credit notes against an invoice
func (r *GormCreditNoteRepository) SumAppliedByInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.CreditNoteModel{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("organization_id = ? AND invoice_id = ?", organizationID, invoiceID).
		Where("applied_at_utc IS NOT NULL AND voided_at_utc IS NULL").
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumAppliedByInvoiceLine calculates the credit already taken against one
// invoice line. Unapplied notes count too so concurrent note creation cannot
// overshoot the line amount; only voided notes are excluded.
func (r *GormCreditNoteRepository) SumAppliedByInvoiceLine(ctx context.Context, organizationID, invoiceLineID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.CreditNoteLineModel{}).
		Select("COALESCE(SUM(credit_note_lines.amount), 0) AS total").
		Joins("JOIN credit_notes ON credit_notes.id = credit_note_lines.credit_note_id").
		Where("credit_notes.organization_id = ? AND credit_note_lines.invoice_line_id = ?", organizationID, invoiceLineID).
		Where("credit_notes.voided_at_utc IS NULL").
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// GenerateCreditNoteNumber generates a unique credit note number for an organization
func (r *GormCreditNoteRepository) GenerateCreditNoteNumber(ctx context.Context, organizationID uuid.UUID) (string, error) {
	return generateDocumentNumber(ctx, r.db, &models.CreditNoteModel{}, "credit_note_number", "CN", organizationID)
}

// applyFilter applies filter options to the query
func (r *GormCreditNoteRepository) applyFilter(query *gorm.DB, filter billing.CreditNoteFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPaging(query, filter.Filter, CreditNoteSortFields, "issue_date DESC, created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCreditNoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.CreditNoteFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("credit_note_number ILIKE ?", searchPattern)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Reason != nil {
		query = query.Where("reason = ?", *filter.Reason)
	}
	if filter.Applied != nil {
		if *filter.Applied {
			query = query.Where("applied_at_utc IS NOT NULL")
		} else {
			query = query.Where("applied_at_utc IS NULL")
		}
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	return query
}

var _ billing.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
