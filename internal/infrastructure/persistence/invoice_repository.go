package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/billing"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID, lines included
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderBySortOrder).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds an invoice by ID within an organization
func (r *GormInvoiceRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderBySortOrder).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceNumber finds an invoice by number for an organization
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, organizationID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderBySortOrder).
		Where("organization_id = ? AND invoice_number = ?", organizationID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLeaseAndPeriod finds the live invoice covering a lease billing period.
// Cancelled and voided invoices do not block regeneration and are excluded.
func (r *GormInvoiceRepository) FindByLeaseAndPeriod(ctx context.Context, organizationID, leaseID uuid.UUID, periodStart, periodEnd time.Time) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderBySortOrder).
		Where("organization_id = ? AND lease_id = ? AND period_start = ? AND period_end = ?",
			organizationID, leaseID, periodStart, periodEnd).
		Where("status NOT IN ?", []billing.InvoiceStatus{billing.InvoiceStatusCancelled, billing.InvoiceStatusVoided}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOrg finds all invoices for an organization with filtering
func (r *GormInvoiceRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
			Preload("Lines", orderBySortOrder).
			Where("organization_id = ?", organizationID),
		filter,
	)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindOverdue finds issued or partially paid invoices past their due date
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, organizationID uuid.UUID, asOf time.Time, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
			Preload("Lines", orderBySortOrder).
			Where("organization_id = ?", organizationID).
			Where("due_date IS NOT NULL AND due_date < ?", asOf).
			Where("balance_amount > 0").
			Where("status IN ?", []billing.InvoiceStatus{
				billing.InvoiceStatusIssued,
				billing.InvoiceStatusPartiallyPaid,
				billing.InvoiceStatusOverdue,
			}),
		filter,
	)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice together with its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
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
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version-1).
			Updates(map[string]interface{}{
				"due_date":           model.DueDate,
				"total_amount":       model.TotalAmount,
				"paid_amount":        model.PaidAmount,
				"credited_amount":    model.CreditedAmount,
				"written_off_amount": model.WrittenOffAmount,
				"balance_amount":     model.BalanceAmount,
				"status":             model.Status,
				"issued_at_utc":      model.IssuedAtUtc,
				"voided_at_utc":      model.VoidedAtUtc,
				"void_reason":        model.VoidReason,
				"cancelled_at_utc":   model.CancelledAtUtc,
				"cancel_reason":      model.CancelReason,
				"written_off_at_utc": model.WrittenOffAtUtc,
				"write_off_reason":   model.WriteOffReason,
				"remark":             model.Remark,
				"version":            model.Version,
				"updated_at":         model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict,
				"The invoice was modified by another transaction")
		}
		return r.replaceLines(tx, model.ID, model.Lines)
	})
}

// replaceLines reconciles the stored line set with the aggregate's lines
func (r *GormInvoiceRepository) replaceLines(tx *gorm.DB, invoiceID uuid.UUID, lines []models.InvoiceLineModel) error {
	currentIDs := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		currentIDs[i] = line.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("invoice_id = ? AND id NOT IN ?", invoiceID, currentIDs).
			Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("invoice_id = ?", invoiceID).
			Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range lines {
		lines[i].InvoiceID = invoiceID
		if err := tx.Save(&lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// CountForOrg counts invoices for an organization with optional filters
func (r *GormInvoiceRepository) CountForOrg(ctx context.Context, organizationID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
			Where("organization_id = ?", organizationID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOutstandingForLease calculates the total outstanding balance for a lease
func (r *GormInvoiceRepository) SumOutstandingForLease(ctx context.Context, organizationID, leaseID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(balance_amount), 0) AS total").
		Where("organization_id = ? AND lease_id = ?", organizationID, leaseID).
		Where("status IN ?", []billing.InvoiceStatus{
			billing.InvoiceStatusIssued,
			billing.InvoiceStatusPartiallyPaid,
			billing.InvoiceStatusOverdue,
		}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// GenerateInvoiceNumber generates a unique invoice number for an organization
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, organizationID uuid.UUID) (string, error) {
	return generateDocumentNumber(ctx, r.db, &models.InvoiceModel{}, "invoice_number", "INV", organizationID)
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPaging(query, filter.Filter, InvoiceSortFields, "period_start DESC, created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ?", searchPattern)
	}
	if filter.LeaseID != nil {
		query = query.Where("lease_id = ?", *filter.LeaseID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PeriodFrom != nil {
		query = query.Where("period_start >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query = query.Where("period_end <= ?", *filter.PeriodTo)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date IS NOT NULL AND due_date < ? AND balance_amount > 0", time.Now())
	}
	if filter.MinBalance != nil {
		query = query.Where("balance_amount >= ?", *filter.MinBalance)
	}
	return query
}

// orderBySortOrder orders preloaded invoice lines deterministically
func orderBySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// applyPaging applies pagination and ordering shared by the billing
// repositories. The sort field is checked against the whitelist before it
// reaches the ORDER BY clause.
func applyPaging(query *gorm.DB, filter shared.Filter, allowedFields map[string]bool, defaultOrder string) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if field := ValidateSortField(filter.OrderBy, allowedFields, ""); field != "" {
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order(defaultOrder)
	}
	return query
}

// generateDocumentNumber builds the next sequential document number for an
// organization in the form PREFIX-YYYYMM-XXXXX. The read of the current
// maximum and the later insert are not atomic; the unique index on
// (organization_id, number) rejects the loser of a race.
func generateDocumentNumber(ctx context.Context, db *gorm.DB, model interface{}, column, prefix string, organizationID uuid.UUID) (string, error) {
	period := time.Now().UTC().Format("200601")
	numberPrefix := fmt.Sprintf("%s-%s-", prefix, period)

	var maxNumber string
	if err := db.WithContext(ctx).
		Model(model).
		Select(column).
		Where("organization_id = ? AND "+column+" LIKE ?", organizationID, numberPrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", numberPrefix, nextNum), nil
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
