package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/leasing"
)

// LeaseModel is the persistence model for the Lease aggregate.
type LeaseModel struct {
	OrgAggregateModel
	LeaseNumber string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_lease_org_number,priority:2"`
	UnitID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status      leasing.LeaseStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	StartDate   time.Time           `gorm:"not null"`
	EndDate     *time.Time
	Terms       []LeaseTermModel `gorm:"foreignKey:LeaseID;references:ID"`
}

// TableName returns the table name for GORM
func (LeaseModel) TableName() string {
	return "leases"
}

// ToDomain converts the persistence model to a domain Lease aggregate.
func (m *LeaseModel) ToDomain() *leasing.Lease {
	lease := &leasing.Lease{
		LeaseNumber: m.LeaseNumber,
		UnitID:      m.UnitID,
		TenantID:    m.TenantID,
		Status:      m.Status,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
	}
	m.PopulateOrgAggregateRoot(&lease.OrgAggregateRoot)

	lease.Terms = make([]leasing.LeaseTerm, len(m.Terms))
	for i, term := range m.Terms {
		lease.Terms[i] = *term.ToDomain()
	}
	return lease
}

// FromDomain populates the persistence model from a domain Lease aggregate.
func (m *LeaseModel) FromDomain(l *leasing.Lease) {
	m.FromDomainOrgAggregateRoot(l.OrgAggregateRoot)
	m.LeaseNumber = l.LeaseNumber
	m.UnitID = l.UnitID
	m.TenantID = l.TenantID
	m.Status = l.Status
	m.StartDate = l.StartDate
	m.EndDate = l.EndDate
	m.Terms = make([]LeaseTermModel, len(l.Terms))
	for i, term := range l.Terms {
		m.Terms[i] = *LeaseTermModelFromDomain(&term)
	}
}

// LeaseModelFromDomain creates a persistence model from a domain Lease aggregate.
func LeaseModelFromDomain(l *leasing.Lease) *LeaseModel {
	m := &LeaseModel{}
	m.FromDomain(l)
	return m
}

// LeaseTermModel is the persistence model for one lease term.
// Terms are ordered, non-overlapping date ranges; at most one has a nil
// EffectiveTo (the open-ended tail).
type LeaseTermModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key"`
	LeaseID               uuid.UUID `gorm:"type:uuid;not null;index"`
	EffectiveFrom         time.Time `gorm:"not null;index"`
	EffectiveTo           *time.Time
	MonthlyRent           decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	DepositAmount         decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	MaintenanceCharge     decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	OtherFixedCharges     decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	EscalationType        leasing.EscalationType `gorm:"type:varchar(20);not null;default:'NONE'"`
	EscalationValue       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	EscalationEveryMonths int                    `gorm:"not null;default:12"`
	CreatedAt             time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LeaseTermModel) TableName() string {
	return "lease_terms"
}

// ToDomain converts the persistence model to a domain LeaseTerm.
func (m *LeaseTermModel) ToDomain() *leasing.LeaseTerm {
	return &leasing.LeaseTerm{
		ID:                    m.ID,
		LeaseID:               m.LeaseID,
		EffectiveFrom:         m.EffectiveFrom,
		EffectiveTo:           m.EffectiveTo,
		MonthlyRent:           m.MonthlyRent,
		DepositAmount:         m.DepositAmount,
		MaintenanceCharge:     m.MaintenanceCharge,
		OtherFixedCharges:     m.OtherFixedCharges,
		EscalationType:        m.EscalationType,
		EscalationValue:       m.EscalationValue,
		EscalationEveryMonths: m.EscalationEveryMonths,
		CreatedAt:             m.CreatedAt,
	}
}

// LeaseTermModelFromDomain creates a persistence model from a domain LeaseTerm.
func LeaseTermModelFromDomain(t *leasing.LeaseTerm) *LeaseTermModel {
	return &LeaseTermModel{
		ID:                    t.ID,
		LeaseID:               t.LeaseID,
		EffectiveFrom:         t.EffectiveFrom,
		EffectiveTo:           t.EffectiveTo,
		MonthlyRent:           t.MonthlyRent,
		DepositAmount:         t.DepositAmount,
		MaintenanceCharge:     t.MaintenanceCharge,
		OtherFixedCharges:     t.OtherFixedCharges,
		EscalationType:        t.EscalationType,
		EscalationValue:       t.EscalationValue,
		EscalationEveryMonths: t.EscalationEveryMonths,
		CreatedAt:             t.CreatedAt,
	}
}

// PropertyAssetModel is the persistence model for the PropertyAsset aggregate.
type PropertyAssetModel struct {
	OrgAggregateModel
	AssetType leasing.AssetType     `gorm:"type:varchar(20);not null"`
	Name      string                `gorm:"type:varchar(200);not null"`
	Shares    []OwnershipShareModel `gorm:"foreignKey:AssetID;references:ID"`
}

// TableName returns the table name for GORM
func (PropertyAssetModel) TableName() string {
	return "property_assets"
}

// ToDomain converts the persistence model to a domain PropertyAsset aggregate.
func (m *PropertyAssetModel) ToDomain() *leasing.PropertyAsset {
	asset := &leasing.PropertyAsset{
		AssetType: m.AssetType,
		Name:      m.Name,
	}
	m.PopulateOrgAggregateRoot(&asset.OrgAggregateRoot)

	asset.Shares = make([]leasing.OwnershipShare, len(m.Shares))
	for i, share := range m.Shares {
		asset.Shares[i] = *share.ToDomain()
	}
	return asset
}

// FromDomain populates the persistence model from a domain PropertyAsset aggregate.
func (m *PropertyAssetModel) FromDomain(a *leasing.PropertyAsset) {
	m.FromDomainOrgAggregateRoot(a.OrgAggregateRoot)
	m.AssetType = a.AssetType
	m.Name = a.Name
	m.Shares = make([]OwnershipShareModel, len(a.Shares))
	for i, share := range a.Shares {
		m.Shares[i] = *OwnershipShareModelFromDomain(&share)
	}
}

// PropertyAssetModelFromDomain creates a persistence model from a domain PropertyAsset aggregate.
func PropertyAssetModelFromDomain(a *leasing.PropertyAsset) *PropertyAssetModel {
	m := &PropertyAssetModel{}
	m.FromDomain(a)
	return m
}

// OwnershipShareModel is the persistence model for one ownership share row.
// Share history is kept append-only; replacement closes the open rows by
// stamping EffectiveTo and inserts the new set.
type OwnershipShareModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	AssetID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Percent       decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	EffectiveFrom time.Time       `gorm:"not null"`
	EffectiveTo   *time.Time
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OwnershipShareModel) TableName() string {
	return "ownership_shares"
}

// ToDomain converts the persistence model to a domain OwnershipShare.
func (m *OwnershipShareModel) ToDomain() *leasing.OwnershipShare {
	return &leasing.OwnershipShare{
		ID:            m.ID,
		AssetID:       m.AssetID,
		OwnerID:       m.OwnerID,
		Percent:       m.Percent,
		EffectiveFrom: m.EffectiveFrom,
		EffectiveTo:   m.EffectiveTo,
		CreatedAt:     m.CreatedAt,
	}
}

// OwnershipShareModelFromDomain creates a persistence model from a domain OwnershipShare.
func OwnershipShareModelFromDomain(s *leasing.OwnershipShare) *OwnershipShareModel {
	return &OwnershipShareModel{
		ID:            s.ID,
		AssetID:       s.AssetID,
		OwnerID:       s.OwnerID,
		Percent:       s.Percent,
		EffectiveFrom: s.EffectiveFrom,
		EffectiveTo:   s.EffectiveTo,
		CreatedAt:     s.CreatedAt,
	}
}
