package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/tenancy/backend/internal/domain/shared"
)

// LeaseCreatedEvent is raised when a new lease is created
type LeaseCreatedEvent struct {
	shared.BaseDomainEvent
	LeaseID     uuid.UUID `json:"lease_id"`
	LeaseNumber string    `json:"lease_number"`
	UnitID      uuid.UUID `json:"unit_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	StartDate   time.Time `json:"start_date"`
}

// EventType returns the event type name
func (e *LeaseCreatedEvent) EventType() string {
	return "LeaseCreated"
}

// NewLeaseCreatedEvent creates a new LeaseCreatedEvent
func NewLeaseCreatedEvent(l *Lease) *LeaseCreatedEvent {
	return &LeaseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LeaseCreated", "Lease", l.ID, l.OrganizationID),
		LeaseID:         l.ID,
		LeaseNumber:     l.LeaseNumber,
		UnitID:          l.UnitID,
		TenantID:        l.TenantID,
		StartDate:       l.StartDate,
	}
}

// LeaseTermAddedEvent is raised when a term is appended to a lease
type LeaseTermAddedEvent struct {
	shared.BaseDomainEvent
	LeaseID       uuid.UUID  `json:"lease_id"`
	LeaseNumber   string     `json:"lease_number"`
	TermID        uuid.UUID  `json:"term_id"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	MonthlyRent   string     `json:"monthly_rent"`
}

// EventType returns the event type name
func (e *LeaseTermAddedEvent) EventType() string {
	return "LeaseTermAdded"
}

// NewLeaseTermAddedEvent creates a new LeaseTermAddedEvent
func NewLeaseTermAddedEvent(l *Lease, term *LeaseTerm) *LeaseTermAddedEvent {
	return &LeaseTermAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LeaseTermAdded", "Lease", l.ID, l.OrganizationID),
		LeaseID:         l.ID,
		LeaseNumber:     l.LeaseNumber,
		TermID:          term.ID,
		EffectiveFrom:   term.EffectiveFrom,
		EffectiveTo:     term.EffectiveTo,
		MonthlyRent:     term.MonthlyRent.StringFixed(2),
	}
}

// LeaseTerminatedEvent is raised when a lease is terminated
type LeaseTerminatedEvent struct {
	shared.BaseDomainEvent
	LeaseID     uuid.UUID  `json:"lease_id"`
	LeaseNumber string     `json:"lease_number"`
	EndDate     *time.Time `json:"end_date"`
	Reason      string     `json:"reason"`
}

// EventType returns the event type name
func (e *LeaseTerminatedEvent) EventType() string {
	return "LeaseTerminated"
}

// NewLeaseTerminatedEvent creates a new LeaseTerminatedEvent
func NewLeaseTerminatedEvent(l *Lease, reason string) *LeaseTerminatedEvent {
	return &LeaseTerminatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LeaseTerminated", "Lease", l.ID, l.OrganizationID),
		LeaseID:         l.ID,
		LeaseNumber:     l.LeaseNumber,
		EndDate:         l.EndDate,
		Reason:          reason,
	}
}

// OwnershipSharesReplacedEvent is raised when an asset's share set changes
type OwnershipSharesReplacedEvent struct {
	shared.BaseDomainEvent
	AssetID       uuid.UUID    `json:"asset_id"`
	AssetType     AssetType    `json:"asset_type"`
	EffectiveFrom time.Time    `json:"effective_from"`
	NewShares     []ShareInput `json:"new_shares"`
}

// EventType returns the event type name
func (e *OwnershipSharesReplacedEvent) EventType() string {
	return "OwnershipSharesReplaced"
}

// NewOwnershipSharesReplacedEvent creates a new OwnershipSharesReplacedEvent
func NewOwnershipSharesReplacedEvent(a *PropertyAsset, shares []ShareInput, effectiveFrom time.Time) *OwnershipSharesReplacedEvent {
	return &OwnershipSharesReplacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("OwnershipSharesReplaced", "PropertyAsset", a.ID, a.OrganizationID),
		AssetID:         a.ID,
		AssetType:       a.AssetType,
		EffectiveFrom:   effectiveFrom,
		NewShares:       shares,
	}
}
