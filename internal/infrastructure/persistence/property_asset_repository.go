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

// GormPropertyAssetRepository implements leasing.PropertyAssetRepository using GORM
type GormPropertyAssetRepository struct {
	db *gorm.DB
}

// NewGormPropertyAssetRepository creates a new GormPropertyAssetRepository
func NewGormPropertyAssetRepository(db *gorm.DB) *GormPropertyAssetRepository {
	return &GormPropertyAssetRepository{db: db}
}

// FindByID finds an asset (with its shares) by ID
func (r *GormPropertyAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.PropertyAsset, error) {
	var model models.PropertyAssetModel
	if err := r.db.WithContext(ctx).
		Preload("Shares", orderShareHistory).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds an asset by ID scoped to an organization
func (r *GormPropertyAssetRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*leasing.PropertyAsset, error) {
	var model models.PropertyAssetModel
	if err := r.db.WithContext(ctx).
		Preload("Shares", orderShareHistory).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an asset and its shares
func (r *GormPropertyAssetRepository) Save(ctx context.Context, asset *leasing.PropertyAsset) error {
	model := models.PropertyAssetModelFromDomain(asset)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shares := model.Shares
		model.Shares = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		return r.saveShares(tx, model.ID, shares)
	})
}

// SaveWithLock saves with optimistic locking. Share-set replacement goes
// through here so concurrent replacements conflict on the version check.
func (r *GormPropertyAssetRepository) SaveWithLock(ctx context.Context, asset *leasing.PropertyAsset) error {
	model := models.PropertyAssetModelFromDomain(asset)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PropertyAssetModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version-1).
			Updates(map[string]interface{}{
				"asset_type": model.AssetType,
				"name":       model.Name,
				"version":    model.Version,
				"updated_at": model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict,
				"The asset was modified by another transaction")
		}
		return r.saveShares(tx, model.ID, model.Shares)
	})
}

// saveShares upserts the aggregate's share rows. Share history is
// append-only; rows absent from the aggregate are never deleted, and
// closed rows get their effective_to stamped by the upsert.
func (r *GormPropertyAssetRepository) saveShares(tx *gorm.DB, assetID uuid.UUID, shares []models.OwnershipShareModel) error {
	for i := range shares {
		shares[i].AssetID = assetID
		if err := tx.Save(&shares[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// orderShareHistory orders preloaded shares for deterministic resolution
func orderShareHistory(db *gorm.DB) *gorm.DB {
	return db.Order("effective_from ASC, created_at ASC")
}

var _ leasing.PropertyAssetRepository = (*GormPropertyAssetRepository)(nil)
