package leasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
)

// AssetType identifies the kind of property asset shares attach to
type AssetType string

const (
	AssetTypeBuilding AssetType = "BUILDING"
	AssetTypeUnit     AssetType = "UNIT"
)

// IsValid checks if the asset type is valid
func (t AssetType) IsValid() bool {
	return t == AssetTypeBuilding || t == AssetTypeUnit
}

// ShareTolerance is the permitted deviation of a share set's sum from 100.
var ShareTolerance = decimal.NewFromFloat(0.01)

// OwnershipShare attributes a percentage of a property asset to one owner
// for a date range. EffectiveTo nil means the share is currently open.
type OwnershipShare struct {
	ID            uuid.UUID       `json:"id"`
	AssetID       uuid.UUID       `json:"asset_id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Percent       decimal.Decimal `json:"percent"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OpenAt reports whether the share is effective at the given instant
func (s *OwnershipShare) OpenAt(asOf time.Time) bool {
	if asOf.Before(s.EffectiveFrom) {
		return false
	}
	if s.EffectiveTo != nil && asOf.After(*s.EffectiveTo) {
		return false
	}
	return true
}

// ShareInput is one owner/percent pair in a proposed share set
type ShareInput struct {
	OwnerID uuid.UUID       `json:"owner_id"`
	Percent decimal.Decimal `json:"percent"`
}

// ValidateShareSet checks a proposed share set: non-empty, unique owners,
// positive percents, and a sum of 100 within ShareTolerance. The error
// carries the computed sum so callers can correct their input.
func ValidateShareSet(shares []ShareInput) error {
	if len(shares) == 0 {
		return shared.NewDomainError(shared.CodeInvalidShareSet, "Share set cannot be empty")
	}

	seen := make(map[uuid.UUID]struct{}, len(shares))
	sum := decimal.Zero
	for _, s := range shares {
		if s.OwnerID == uuid.Nil {
			return shared.NewDomainError(shared.CodeInvalidShareSet, "Share owner ID cannot be empty")
		}
		if _, dup := seen[s.OwnerID]; dup {
			return shared.NewDomainError(shared.CodeInvalidShareSet, fmt.Sprintf("Duplicate owner %s in share set", s.OwnerID))
		}
		seen[s.OwnerID] = struct{}{}
		if s.Percent.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError(shared.CodeInvalidShareSet, fmt.Sprintf("Share percent must be positive, got %s", s.Percent))
		}
		sum = sum.Add(s.Percent)
	}

	hundred := decimal.NewFromInt(100)
	if sum.Sub(hundred).Abs().GreaterThan(ShareTolerance) {
		return shared.NewDomainError(shared.CodeInvalidShareSet,
			fmt.Sprintf("Share percents sum to %s, expected 100 within %s", sum, ShareTolerance))
	}

	return nil
}

// PropertyAsset is the aggregate that owns an asset's ownership shares.
// Share-set replacement is serialized through the asset's version so
// concurrent writers cannot interleave a read-then-replace.
type PropertyAsset struct {
	shared.OrgAggregateRoot
	AssetType AssetType        `json:"asset_type"`
	Name      string           `json:"name"`
	Shares    []OwnershipShare `json:"shares"`
}

// NewPropertyAsset creates a new property asset
func NewPropertyAsset(organizationID uuid.UUID, assetType AssetType, name string) (*PropertyAsset, error) {
	if !assetType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ASSET_TYPE", "Asset type is not valid")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Asset name cannot be empty")
	}

	return &PropertyAsset{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		AssetType:        assetType,
		Name:             name,
		Shares:           make([]OwnershipShare, 0),
	}, nil
}

// ReplaceShares validates the proposed set, closes every currently-open share
// one tick before effectiveFrom, and inserts the new set open-ended. The
// whole replacement is one aggregate mutation; persistence applies it with a
// version check so a concurrent replacement surfaces as a conflict.
func (a *PropertyAsset) ReplaceShares(shares []ShareInput, effectiveFrom time.Time) error {
	if err := ValidateShareSet(shares); err != nil {
		return err
	}
	if effectiveFrom.IsZero() {
		return shared.NewDomainError("INVALID_EFFECTIVE_FROM", "Effective-from is required")
	}

	closeAt := effectiveFrom.Add(-time.Nanosecond)
	for i := range a.Shares {
		if a.Shares[i].EffectiveTo == nil {
			if !a.Shares[i].EffectiveFrom.Before(effectiveFrom) {
				return shared.NewDomainError(shared.CodeInvalidShareSet,
					"New share set must take effect after the current set's effective-from")
			}
			a.Shares[i].EffectiveTo = &closeAt
		}
	}

	now := time.Now()
	for _, s := range shares {
		a.Shares = append(a.Shares, OwnershipShare{
			ID:            uuid.New(),
			AssetID:       a.ID,
			OwnerID:       s.OwnerID,
			Percent:       s.Percent,
			EffectiveFrom: effectiveFrom,
			CreatedAt:     now,
		})
	}
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewOwnershipSharesReplacedEvent(a, shares, effectiveFrom))

	return nil
}

// ResolvedShare is one owner's resolved fraction of an asset
type ResolvedShare struct {
	OwnerID uuid.UUID       `json:"owner_id"`
	Percent decimal.Decimal `json:"percent"`
}

// ResolveShares returns the owners of the asset as of the given instant.
// The result is deterministic: ordered by effective-from then insertion.
func (a *PropertyAsset) ResolveShares(asOf time.Time) []ResolvedShare {
	resolved := make([]ResolvedShare, 0, len(a.Shares))
	for i := range a.Shares {
		if a.Shares[i].OpenAt(asOf) {
			resolved = append(resolved, ResolvedShare{
				OwnerID: a.Shares[i].OwnerID,
				Percent: a.Shares[i].Percent,
			})
		}
	}
	return resolved
}
