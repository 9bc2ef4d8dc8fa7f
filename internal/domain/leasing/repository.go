package leasing

import (
	"context"

	"github.com/google/uuid"
	"github.com/tenancy/backend/internal/domain/shared"
)

// LeaseFilter defines filtering options for lease queries
type LeaseFilter struct {
	shared.Filter
	UnitID   *uuid.UUID
	TenantID *uuid.UUID
	Status   *LeaseStatus
}

// LeaseRepository defines the interface for lease persistence
type LeaseRepository interface {
	// FindByID finds a lease (with its terms) by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lease, error)

	// FindByIDForOrg finds a lease by ID scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Lease, error)

	// FindByLeaseNumber finds a lease by number for an organization
	FindByLeaseNumber(ctx context.Context, orgID uuid.UUID, leaseNumber string) (*Lease, error)

	// FindAllForOrg finds all leases for an organization with filtering
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter LeaseFilter) ([]Lease, error)

	// Save creates or updates a lease and its terms
	Save(ctx context.Context, lease *Lease) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, lease *Lease) error

	// CountForOrg counts leases for an organization
	CountForOrg(ctx context.Context, orgID uuid.UUID, filter LeaseFilter) (int64, error)
}

// PropertyAssetRepository defines the interface for asset/ownership persistence
type PropertyAssetRepository interface {
	// FindByID finds an asset (with its shares) by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PropertyAsset, error)

	// FindByIDForOrg finds an asset by ID scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*PropertyAsset, error)

	// Save creates or updates an asset and its shares
	Save(ctx context.Context, asset *PropertyAsset) error

	// SaveWithLock saves with optimistic locking (version check); share-set
	// replacement must go through this so concurrent replacements conflict
	SaveWithLock(ctx context.Context, asset *PropertyAsset) error
}
