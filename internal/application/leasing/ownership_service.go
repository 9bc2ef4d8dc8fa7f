package leasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/leasing"
	"github.com/tenancy/backend/internal/domain/shared"
)

// OwnershipService resolves and replaces the ownership shares of property
// assets. Replacement always re-reads the asset and saves with a version
// check, so two concurrent replacements cannot interleave; the loser gets a
// conflict and retries with fresh state.
type OwnershipService struct {
	assetRepo      leasing.PropertyAssetRepository
	eventPublisher shared.EventPublisher
}

// OwnershipServiceOption is a functional option for configuring OwnershipService
type OwnershipServiceOption func(*OwnershipService)

// WithOwnershipEventPublisher sets the publisher for ownership domain events
func WithOwnershipEventPublisher(publisher shared.EventPublisher) OwnershipServiceOption {
	return func(s *OwnershipService) {
		s.eventPublisher = publisher
	}
}

// NewOwnershipService creates a new OwnershipService
func NewOwnershipService(assetRepo leasing.PropertyAssetRepository, opts ...OwnershipServiceOption) *OwnershipService {
	s := &OwnershipService{assetRepo: assetRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and Responses =====================

// ShareRequest is one owner/percent pair in a share replacement request
type ShareRequest struct {
	OwnerID uuid.UUID       `json:"owner_id" binding:"required"`
	Percent decimal.Decimal `json:"percent" binding:"required"`
}

// SetSharesRequest carries the input for replacing an asset's share set
type SetSharesRequest struct {
	Shares        []ShareRequest `json:"shares" binding:"required,min=1"`
	EffectiveFrom time.Time      `json:"effective_from" binding:"required"`
}

// ResolvedShareResponse represents one owner's resolved fraction
type ResolvedShareResponse struct {
	OwnerID uuid.UUID       `json:"owner_id"`
	Percent decimal.Decimal `json:"percent"`
}

// AssetSharesResponse represents an asset's resolved ownership
type AssetSharesResponse struct {
	AssetID uuid.UUID               `json:"asset_id"`
	AsOf    time.Time               `json:"as_of"`
	Shares  []ResolvedShareResponse `json:"shares"`
	Version int                     `json:"version"`
}

// RegisterAssetRequest carries the input for registering a property asset
type RegisterAssetRequest struct {
	AssetType string `json:"asset_type" binding:"required,oneof=BUILDING UNIT"`
	Name      string `json:"name" binding:"required,max=200"`
}

// AssetResponse represents a property asset in API responses
type AssetResponse struct {
	ID        uuid.UUID `json:"id"`
	AssetType string    `json:"asset_type"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// ===================== Operations =====================

// RegisterAsset registers a property asset so ownership shares can be
// attached to it. The asset starts with an empty share history.
func (s *OwnershipService) RegisterAsset(ctx context.Context, organizationID uuid.UUID, req RegisterAssetRequest) (*AssetResponse, error) {
	asset, err := leasing.NewPropertyAsset(organizationID, leasing.AssetType(req.AssetType), req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.assetRepo.Save(ctx, asset); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, asset)
	return &AssetResponse{
		ID:        asset.ID,
		AssetType: string(asset.AssetType),
		Name:      asset.Name,
		CreatedAt: asset.CreatedAt,
		Version:   asset.Version,
	}, nil
}

// SetOwnershipShares atomically replaces the asset's current share set with
// the proposed one, effective from the given instant. Validation failures
// leave the stored set untouched.
func (s *OwnershipService) SetOwnershipShares(ctx context.Context, organizationID, assetID uuid.UUID, req SetSharesRequest) (*AssetSharesResponse, error) {
	asset, err := s.findAsset(ctx, organizationID, assetID)
	if err != nil {
		return nil, err
	}

	inputs := make([]leasing.ShareInput, 0, len(req.Shares))
	for _, sh := range req.Shares {
		inputs = append(inputs, leasing.ShareInput{OwnerID: sh.OwnerID, Percent: sh.Percent})
	}

	if err := asset.ReplaceShares(inputs, req.EffectiveFrom); err != nil {
		return nil, err
	}
	if err := s.assetRepo.SaveWithLock(ctx, asset); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, asset)
	return s.toSharesResponse(asset, req.EffectiveFrom), nil
}

// ResolveShares returns the owners of the asset as of the given instant
func (s *OwnershipService) ResolveShares(ctx context.Context, organizationID, assetID uuid.UUID, asOf time.Time) (*AssetSharesResponse, error) {
	asset, err := s.findAsset(ctx, organizationID, assetID)
	if err != nil {
		return nil, err
	}
	return s.toSharesResponse(asset, asOf), nil
}

func (s *OwnershipService) toSharesResponse(asset *leasing.PropertyAsset, asOf time.Time) *AssetSharesResponse {
	resolved := asset.ResolveShares(asOf)
	shares := make([]ResolvedShareResponse, 0, len(resolved))
	for _, r := range resolved {
		shares = append(shares, ResolvedShareResponse{OwnerID: r.OwnerID, Percent: r.Percent})
	}
	return &AssetSharesResponse{
		AssetID: asset.ID,
		AsOf:    asOf,
		Shares:  shares,
		Version: asset.Version,
	}
}

func (s *OwnershipService) findAsset(ctx context.Context, organizationID, assetID uuid.UUID) (*leasing.PropertyAsset, error) {
	asset, err := s.assetRepo.FindByIDForOrg(ctx, organizationID, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, shared.NewDomainError("ASSET_NOT_FOUND", "Property asset not found")
	}
	return asset, nil
}

func (s *OwnershipService) publishEvents(ctx context.Context, asset *leasing.PropertyAsset) {
	if s.eventPublisher == nil {
		return
	}
	events := asset.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	asset.ClearDomainEvents()
}
