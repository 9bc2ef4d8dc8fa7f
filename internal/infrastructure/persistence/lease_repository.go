package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tenancy/backend/internal/domain/leasing"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLeaseRepository implements leasing.LeaseRepository using GORM
type GormLeaseRepository struct {
	db *gorm.DB
}

// NewGormLeaseRepository creates a new GormLeaseRepository
func NewGormLeaseRepository(db *gorm.DB) *GormLeaseRepository {
	return &GormLeaseRepository{db: db}
}

// FindByID finds a lease (with its terms) by ID
func (r *GormLeaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Lease, error) {
	var model models.LeaseModel
	if err := r.db.WithContext(ctx).
		Preload("Terms", orderByEffectiveFrom).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds a lease by ID scoped to an organization
func (r *GormLeaseRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*leasing.Lease, error) {
	var model models.LeaseModel
	if err := r.db.WithContext(ctx).
		Preload("Terms", orderByEffectiveFrom).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLeaseNumber finds a lease by number for an organization
func (r *GormLeaseRepository) FindByLeaseNumber(ctx context.Context, orgID uuid.UUID, leaseNumber string) (*leasing.Lease, error) {
	var model models.LeaseModel
	if err := r.db.WithContext(ctx).
		Preload("Terms", orderByEffectiveFrom).
		Where("organization_id = ? AND lease_number = ?", orgID, leaseNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOrg finds all leases for an organization with filtering
func (r *GormLeaseRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter leasing.LeaseFilter) ([]leasing.Lease, error) {
	var leaseModels []models.LeaseModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.LeaseModel{}).
			Preload("Terms", orderByEffectiveFrom).
			Where("organization_id = ?", orgID),
		filter,
	)

	if err := query.Find(&leaseModels).Error; err != nil {
		return nil, err
	}

	leases := make([]leasing.Lease, len(leaseModels))
	for i, model := range leaseModels {
		leases[i] = *model.ToDomain()
	}
	return leases, nil
}

// Save creates or updates a lease and its terms
func (r *GormLeaseRepository) Save(ctx context.Context, lease *leasing.Lease) error {
	model := models.LeaseModelFromDomain(lease)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		terms := model.Terms
		model.Terms = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		return r.replaceTerms(tx, model.ID, terms)
	})
}

// SaveWithLock saves with optimistic locking. The aggregate carries the
// already-incremented version; the row must still hold the previous one.
func (r *GormLeaseRepository) SaveWithLock(ctx context.Context, lease *leasing.Lease) error {
	model := models.LeaseModelFromDomain(lease)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.LeaseModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version-1).
			Updates(map[string]interface{}{
				"status":     model.Status,
				"start_date": model.StartDate,
				"end_date":   model.EndDate,
				"version":    model.Version,
				"updated_at": model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict,
				"The lease was modified by another transaction")
		}
		return r.replaceTerms(tx, model.ID, model.Terms)
	})
}

// replaceTerms reconciles the stored term set with the aggregate's terms
func (r *GormLeaseRepository) replaceTerms(tx *gorm.DB, leaseID uuid.UUID, terms []models.LeaseTermModel) error {
	currentIDs := make([]uuid.UUID, len(terms))
	for i, term := range terms {
		currentIDs[i] = term.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("lease_id = ? AND id NOT IN ?", leaseID, currentIDs).
			Delete(&models.LeaseTermModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("lease_id = ?", leaseID).
			Delete(&models.LeaseTermModel{}).Error; err != nil {
			return err
		}
	}

	for i := range terms {
		terms[i].LeaseID = leaseID
		if err := tx.Save(&terms[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// CountForOrg counts leases for an organization
func (r *GormLeaseRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter leasing.LeaseFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.LeaseModel{}).
			Where("organization_id = ?", orgID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormLeaseRepository) applyFilter(query *gorm.DB, filter leasing.LeaseFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPaging(query, filter.Filter, LeaseSortFields, "start_date DESC, created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormLeaseRepository) applyFilterWithoutPagination(query *gorm.DB, filter leasing.LeaseFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("lease_number ILIKE ?", searchPattern)
	}
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// orderByEffectiveFrom orders preloaded lease terms chronologically
func orderByEffectiveFrom(db *gorm.DB) *gorm.DB {
	return db.Order("effective_from ASC")
}

var _ leasing.LeaseRepository = (*GormLeaseRepository)(nil)
