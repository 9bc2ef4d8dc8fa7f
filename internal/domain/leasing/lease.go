package leasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// LeaseStatus represents the status of a lease
type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "ACTIVE"
	LeaseStatusTerminated LeaseStatus = "TERMINATED"
	LeaseStatusExpired    LeaseStatus = "EXPIRED"
)

// IsValid checks if the status is a valid LeaseStatus
func (s LeaseStatus) IsValid() bool {
	switch s {
	case LeaseStatusActive, LeaseStatusTerminated, LeaseStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of LeaseStatus
func (s LeaseStatus) String() string {
	return string(s)
}

// EscalationType represents how rent escalates over the life of a term
type EscalationType string

const (
	EscalationTypeNone        EscalationType = "NONE"
	EscalationTypePercentage  EscalationType = "PERCENTAGE"
	EscalationTypeFixedAmount EscalationType = "FIXED_AMOUNT"
)

// IsValid checks if the escalation type is valid
func (t EscalationType) IsValid() bool {
	switch t {
	case EscalationTypeNone, EscalationTypePercentage, EscalationTypeFixedAmount:
		return true
	}
	return false
}

// LeaseTerm is a time-bounded set of financial conditions on a lease.
// EffectiveTo nil means the term is open-ended. Terms never overlap.
type LeaseTerm struct {
	ID                    uuid.UUID       `json:"id"`
	LeaseID               uuid.UUID       `json:"lease_id"`
	EffectiveFrom         time.Time       `json:"effective_from"`
	EffectiveTo           *time.Time      `json:"effective_to"`
	MonthlyRent           decimal.Decimal `json:"monthly_rent"`
	DepositAmount         decimal.Decimal `json:"deposit_amount"`
	MaintenanceCharge     decimal.Decimal `json:"maintenance_charge"`
	OtherFixedCharges     decimal.Decimal `json:"other_fixed_charges"`
	EscalationType        EscalationType  `json:"escalation_type"`
	EscalationValue       decimal.Decimal `json:"escalation_value"`
	EscalationEveryMonths int             `json:"escalation_every_months"`
	CreatedAt             time.Time       `json:"created_at"`
}

// Covers reports whether the given date falls within the term's effective range
func (t *LeaseTerm) Covers(date time.Time) bool {
	if date.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && date.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// EscalatedRent returns the rent in effect on asOf, with escalation applied.
// The result depends only on the term data and asOf, so regenerating a
// billing period always reproduces the same amount.
func (t *LeaseTerm) EscalatedRent(asOf time.Time) decimal.Decimal {
	if t.EscalationType == EscalationTypeNone || t.EscalationEveryMonths <= 0 {
		return t.MonthlyRent
	}

	steps := wholeMonthsBetween(t.EffectiveFrom, asOf) / t.EscalationEveryMonths
	if steps <= 0 {
		return t.MonthlyRent
	}

	rent := t.MonthlyRent
	switch t.EscalationType {
	case EscalationTypePercentage:
		factor := decimal.NewFromInt(1).Add(t.EscalationValue.Div(decimal.NewFromInt(100)))
		for i := 0; i < steps; i++ {
			rent = rent.Mul(factor)
		}
	case EscalationTypeFixedAmount:
		rent = rent.Add(t.EscalationValue.Mul(decimal.NewFromInt(int64(steps))))
	}
	return rent.Round(2)
}

// wholeMonthsBetween returns the number of whole calendar months elapsed
// from "from" to "to" (0 when to is before the first month anniversary).
func wholeMonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Lease represents a tenancy on a unit, owned by the organization that owns
// the unit. Its financial conditions live in a chronological sequence of
// lease terms; exactly one term is active for any covered date.
type Lease struct {
	shared.OrgAggregateRoot
	LeaseNumber string      `json:"lease_number"`
	UnitID      uuid.UUID   `json:"unit_id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Status      LeaseStatus `json:"status"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Terms       []LeaseTerm `json:"terms"`
}

// NewLease creates a new lease
func NewLease(
	organizationID uuid.UUID,
	leaseNumber string,
	unitID uuid.UUID,
	tenantID uuid.UUID,
	startDate time.Time,
) (*Lease, error) {
	if leaseNumber == "" {
		return nil, shared.NewDomainError("INVALID_LEASE_NUMBER", "Lease number cannot be empty")
	}
	if len(leaseNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_LEASE_NUMBER", "Lease number cannot exceed 50 characters")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit ID cannot be empty")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}

	l := &Lease{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		LeaseNumber:      leaseNumber,
		UnitID:           unitID,
		TenantID:         tenantID,
		Status:           LeaseStatusActive,
		StartDate:        startDate,
		Terms:            make([]LeaseTerm, 0),
	}

	l.AddDomainEvent(NewLeaseCreatedEvent(l))

	return l, nil
}

// AddTerm appends a new lease term. The previous open term, if any, is closed
// the day before the new term becomes effective. Overlapping bounded terms
// are rejected.
func (l *Lease) AddTerm(
	effectiveFrom time.Time,
	effectiveTo *time.Time,
	monthlyRent decimal.Decimal,
	depositAmount decimal.Decimal,
	maintenanceCharge decimal.Decimal,
	otherFixedCharges decimal.Decimal,
	escalationType EscalationType,
	escalationValue decimal.Decimal,
	escalationEveryMonths int,
) (*LeaseTerm, error) {
	if l.Status != LeaseStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add term to lease in %s status", l.Status))
	}
	if effectiveFrom.IsZero() {
		return nil, shared.NewDomainError("INVALID_EFFECTIVE_FROM", "Term effective-from date is required")
	}
	if effectiveTo != nil && effectiveTo.Before(effectiveFrom) {
		return nil, shared.NewDomainError("INVALID_TERM_RANGE", "Term effective-to cannot precede effective-from")
	}
	if monthlyRent.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RENT", "Monthly rent must be positive")
	}
	if depositAmount.IsNegative() || maintenanceCharge.IsNegative() || otherFixedCharges.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CHARGE", "Charges cannot be negative")
	}
	if !escalationType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ESCALATION", "Escalation type is not valid")
	}
	if escalationType != EscalationTypeNone {
		if escalationValue.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_ESCALATION", "Escalation value must be positive")
		}
		if escalationEveryMonths <= 0 {
			return nil, shared.NewDomainError("INVALID_ESCALATION", "Escalation interval must be positive")
		}
	}

	// Close the currently open term, if any, at the day before the new one.
	for i := range l.Terms {
		if l.Terms[i].EffectiveTo == nil {
			if !l.Terms[i].EffectiveFrom.Before(effectiveFrom) {
				return nil, shared.NewDomainError("TERM_OVERLAP", "New term must start after the open term's effective-from")
			}
			closeAt := effectiveFrom.AddDate(0, 0, -1)
			l.Terms[i].EffectiveTo = &closeAt
		} else if l.Terms[i].EffectiveTo.After(effectiveFrom) || l.Terms[i].EffectiveTo.Equal(effectiveFrom) {
			return nil, shared.NewDomainError("TERM_OVERLAP", fmt.Sprintf("New term overlaps existing term effective %s", l.Terms[i].EffectiveFrom.Format("2006-01-02")))
		}
	}

	term := LeaseTerm{
		ID:                    uuid.New(),
		LeaseID:               l.ID,
		EffectiveFrom:         effectiveFrom,
		EffectiveTo:           effectiveTo,
		MonthlyRent:           monthlyRent,
		DepositAmount:         depositAmount,
		MaintenanceCharge:     maintenanceCharge,
		OtherFixedCharges:     otherFixedCharges,
		EscalationType:        escalationType,
		EscalationValue:       escalationValue,
		EscalationEveryMonths: escalationEveryMonths,
		CreatedAt:             time.Now(),
	}
	l.Terms = append(l.Terms, term)
	l.Touch()
	l.IncrementVersion()

	l.AddDomainEvent(NewLeaseTermAddedEvent(l, &term))

	return &term, nil
}

// TermActiveOn returns the term covering the given date, or nil
func (l *Lease) TermActiveOn(date time.Time) *LeaseTerm {
	for i := range l.Terms {
		if l.Terms[i].Covers(date) {
			return &l.Terms[i]
		}
	}
	return nil
}

// Terminate ends the lease on the given date
func (l *Lease) Terminate(endDate time.Time, reason string) error {
	if l.Status != LeaseStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot terminate lease in %s status", l.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeMissingReason, "Termination reason is required")
	}
	if endDate.Before(l.StartDate) {
		return shared.NewDomainError("INVALID_END_DATE", "End date cannot precede start date")
	}

	l.Status = LeaseStatusTerminated
	l.EndDate = &endDate
	l.Touch()
	l.IncrementVersion()

	l.AddDomainEvent(NewLeaseTerminatedEvent(l, reason))

	return nil
}

// GetMonthlyRentMoney returns the active term's escalated rent on date as Money
func (l *Lease) GetMonthlyRentMoney(date time.Time) (valueobject.Money, error) {
	term := l.TermActiveOn(date)
	if term == nil {
		return valueobject.Money{}, shared.NewDomainError(shared.CodeNoApplicableTerm, fmt.Sprintf("No lease term covers %s", date.Format("2006-01-02")))
	}
	return valueobject.NewMoneyUSD(term.EscalatedRent(date)), nil
}

// IsActive returns true if the lease is active
func (l *Lease) IsActive() bool {
	return l.Status == LeaseStatusActive
}

// TermCount returns the number of lease terms
func (l *Lease) TermCount() int {
	return len(l.Terms)
}
