package leasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/leasing"
	"github.com/tenancy/backend/internal/domain/shared"
)

// LeaseService provides application-level lease operations
type LeaseService struct {
	leaseRepo      leasing.LeaseRepository
	eventPublisher shared.EventPublisher
}

// LeaseServiceOption is a functional option for configuring LeaseService
type LeaseServiceOption func(*LeaseService)

// WithLeaseEventPublisher sets the publisher for lease domain events
func WithLeaseEventPublisher(publisher shared.EventPublisher) LeaseServiceOption {
	return func(s *LeaseService) {
		s.eventPublisher = publisher
	}
}

// NewLeaseService creates a new LeaseService
func NewLeaseService(leaseRepo leasing.LeaseRepository, opts ...LeaseServiceOption) *LeaseService {
	s := &LeaseService{leaseRepo: leaseRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and Responses =====================

// CreateLeaseRequest carries the input for creating a lease
type CreateLeaseRequest struct {
	LeaseNumber string    `json:"lease_number" binding:"required,max=50"`
	UnitID      uuid.UUID `json:"unit_id" binding:"required"`
	TenantID    uuid.UUID `json:"tenant_id" binding:"required"`
	StartDate   time.Time `json:"start_date" binding:"required"`
}

// AddTermRequest carries the input for adding a lease term
type AddTermRequest struct {
	EffectiveFrom         time.Time       `json:"effective_from" binding:"required"`
	EffectiveTo           *time.Time      `json:"effective_to"`
	MonthlyRent           decimal.Decimal `json:"monthly_rent" binding:"required"`
	DepositAmount         decimal.Decimal `json:"deposit_amount"`
	MaintenanceCharge     decimal.Decimal `json:"maintenance_charge"`
	OtherFixedCharges     decimal.Decimal `json:"other_fixed_charges"`
	EscalationType        string          `json:"escalation_type"`
	EscalationValue       decimal.Decimal `json:"escalation_value"`
	EscalationEveryMonths int             `json:"escalation_every_months"`
}

// LeaseTermResponse represents a lease term in API responses
type LeaseTermResponse struct {
	ID                    uuid.UUID       `json:"id"`
	EffectiveFrom         time.Time       `json:"effective_from"`
	EffectiveTo           *time.Time      `json:"effective_to,omitempty"`
	MonthlyRent           decimal.Decimal `json:"monthly_rent"`
	DepositAmount         decimal.Decimal `json:"deposit_amount"`
	MaintenanceCharge     decimal.Decimal `json:"maintenance_charge"`
	OtherFixedCharges     decimal.Decimal `json:"other_fixed_charges"`
	EscalationType        string          `json:"escalation_type"`
	EscalationValue       decimal.Decimal `json:"escalation_value"`
	EscalationEveryMonths int             `json:"escalation_every_months"`
}

// LeaseResponse represents a lease in API responses
type LeaseResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	LeaseNumber    string              `json:"lease_number"`
	UnitID         uuid.UUID           `json:"unit_id"`
	TenantID       uuid.UUID           `json:"tenant_id"`
	Status         string              `json:"status"`
	StartDate      time.Time           `json:"start_date"`
	EndDate        *time.Time          `json:"end_date,omitempty"`
	Terms          []LeaseTermResponse `json:"terms"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Version        int                 `json:"version"`
}

func toLeaseResponse(l *leasing.Lease) *LeaseResponse {
	terms := make([]LeaseTermResponse, 0, len(l.Terms))
	for _, t := range l.Terms {
		terms = append(terms, LeaseTermResponse{
			ID:                    t.ID,
			EffectiveFrom:         t.EffectiveFrom,
			EffectiveTo:           t.EffectiveTo,
			MonthlyRent:           t.MonthlyRent,
			DepositAmount:         t.DepositAmount,
			MaintenanceCharge:     t.MaintenanceCharge,
			OtherFixedCharges:     t.OtherFixedCharges,
			EscalationType:        string(t.EscalationType),
			EscalationValue:       t.EscalationValue,
			EscalationEveryMonths: t.EscalationEveryMonths,
		})
	}
	return &LeaseResponse{
		ID:             l.ID,
		OrganizationID: l.OrganizationID,
		LeaseNumber:    l.LeaseNumber,
		UnitID:         l.UnitID,
		TenantID:       l.TenantID,
		Status:         l.Status.String(),
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		Terms:          terms,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
		Version:        l.Version,
	}
}

// ===================== Operations =====================

// CreateLease creates a new lease
func (s *LeaseService) CreateLease(ctx context.Context, organizationID uuid.UUID, req CreateLeaseRequest) (*LeaseResponse, error) {
	existing, err := s.leaseRepo.FindByLeaseNumber(ctx, organizationID, req.LeaseNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_LEASE_NUMBER", "A lease with this number already exists")
	}

	lease, err := leasing.NewLease(organizationID, req.LeaseNumber, req.UnitID, req.TenantID, req.StartDate)
	if err != nil {
		return nil, err
	}
	if err := s.leaseRepo.Save(ctx, lease); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &lease.OrgAggregateRoot)
	return toLeaseResponse(lease), nil
}

// AddTerm appends a new lease term, closing the currently open one
func (s *LeaseService) AddTerm(ctx context.Context, organizationID, leaseID uuid.UUID, req AddTermRequest) (*LeaseResponse, error) {
	lease, err := s.findLease(ctx, organizationID, leaseID)
	if err != nil {
		return nil, err
	}

	escalationType := leasing.EscalationTypeNone
	if req.EscalationType != "" {
		escalationType = leasing.EscalationType(req.EscalationType)
	}

	_, err = lease.AddTerm(
		req.EffectiveFrom,
		req.EffectiveTo,
		req.MonthlyRent,
		req.DepositAmount,
		req.MaintenanceCharge,
		req.OtherFixedCharges,
		escalationType,
		req.EscalationValue,
		req.EscalationEveryMonths,
	)
	if err != nil {
		return nil, err
	}

	if err := s.leaseRepo.SaveWithLock(ctx, lease); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &lease.OrgAggregateRoot)
	return toLeaseResponse(lease), nil
}

// TerminateLease ends a lease on the given date
func (s *LeaseService) TerminateLease(ctx context.Context, organizationID, leaseID uuid.UUID, endDate time.Time, reason string) (*LeaseResponse, error) {
	lease, err := s.findLease(ctx, organizationID, leaseID)
	if err != nil {
		return nil, err
	}

	if err := lease.Terminate(endDate, reason); err != nil {
		return nil, err
	}
	if err := s.leaseRepo.SaveWithLock(ctx, lease); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &lease.OrgAggregateRoot)
	return toLeaseResponse(lease), nil
}

// GetLease returns one lease with its terms
func (s *LeaseService) GetLease(ctx context.Context, organizationID, leaseID uuid.UUID) (*LeaseResponse, error) {
	lease, err := s.findLease(ctx, organizationID, leaseID)
	if err != nil {
		return nil, err
	}
	return toLeaseResponse(lease), nil
}

// ListLeases returns leases for an organization
func (s *LeaseService) ListLeases(ctx context.Context, organizationID uuid.UUID, filter leasing.LeaseFilter) (*shared.Paginated[*LeaseResponse], error) {
	leases, err := s.leaseRepo.FindAllForOrg(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.leaseRepo.CountForOrg(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*LeaseResponse, 0, len(leases))
	for i := range leases {
		responses = append(responses, toLeaseResponse(&leases[i]))
	}
	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *LeaseService) findLease(ctx context.Context, organizationID, leaseID uuid.UUID) (*leasing.Lease, error) {
	lease, err := s.leaseRepo.FindByIDForOrg(ctx, organizationID, leaseID)
	if err != nil {
		return nil, err
	}
	if lease == nil {
		return nil, shared.NewDomainError("LEASE_NOT_FOUND", "Lease not found")
	}
	return lease, nil
}

func (s *LeaseService) publishEvents(ctx context.Context, root *shared.OrgAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := root.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	root.ClearDomainEvents()
}
