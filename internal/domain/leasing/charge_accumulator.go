package leasing

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// ChargeKind classifies a billable line item
type ChargeKind string

const (
	ChargeKindRent        ChargeKind = "RENT"
	ChargeKindMaintenance ChargeKind = "MAINTENANCE"
	ChargeKindOther       ChargeKind = "OTHER"
)

// ChargeLine is one billable item produced for a billing period. Amounts are
// frozen at generation time; regenerating the same period from the same term
// data reproduces identical lines.
type ChargeLine struct {
	Kind        ChargeKind         `json:"kind"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	TermID      uuid.UUID          `json:"term_id"`
	Period      valueobject.Period `json:"period"`
}

// ProrationPolicy decides how a monthly charge is reduced for a partial month.
// The organization chooses the policy; it is injected, never hardcoded.
type ProrationPolicy interface {
	// Prorate returns the charge for occupiedDays out of daysInMonth,
	// given the full monthly amount.
	Prorate(monthly decimal.Decimal, occupiedDays, daysInMonth int) decimal.Decimal
}

// WholeDayProration prorates by whole days: monthly * occupied/daysInMonth,
// rounded to 2 decimal places.
type WholeDayProration struct{}

// Prorate implements ProrationPolicy
func (WholeDayProration) Prorate(monthly decimal.Decimal, occupiedDays, daysInMonth int) decimal.Decimal {
	if daysInMonth <= 0 || occupiedDays >= daysInMonth {
		return monthly
	}
	return monthly.
		Mul(decimal.NewFromInt(int64(occupiedDays))).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Round(2)
}

// ThirtyDayProration prorates on a banker's 30-day month regardless of the
// calendar month length.
type ThirtyDayProration struct{}

// Prorate implements ProrationPolicy
func (ThirtyDayProration) Prorate(monthly decimal.Decimal, occupiedDays, daysInMonth int) decimal.Decimal {
	if occupiedDays >= daysInMonth {
		return monthly
	}
	if occupiedDays > 30 {
		occupiedDays = 30
	}
	return monthly.
		Mul(decimal.NewFromInt(int64(occupiedDays))).
		Div(decimal.NewFromInt(30)).
		Round(2)
}

// ChargeAccumulator turns a lease's term history into the ordered charge
// lines for a billing period. It is a stateless domain service.
type ChargeAccumulator struct {
	proration ProrationPolicy
}

// NewChargeAccumulator creates a ChargeAccumulator with the given proration policy
func NewChargeAccumulator(proration ProrationPolicy) *ChargeAccumulator {
	if proration == nil {
		proration = WholeDayProration{}
	}
	return &ChargeAccumulator{proration: proration}
}

// BuildLineItems produces the ordered list of charge lines for the period.
// The period is split at term boundaries so each line belongs to exactly one
// term; a gap in term coverage anywhere in the period fails with
// NO_APPLICABLE_TERM since it signals a data gap, never a silent skip.
func (a *ChargeAccumulator) BuildLineItems(lease *Lease, period valueobject.Period) ([]ChargeLine, error) {
	if lease == nil {
		return nil, shared.ErrInvalidInput
	}

	subPeriods, err := a.splitByTerm(lease, period)
	if err != nil {
		return nil, err
	}

	lines := make([]ChargeLine, 0, len(subPeriods)*2)
	for _, sp := range subPeriods {
		rent := sp.term.EscalatedRent(sp.period.Start())
		rentAmount := a.sumMonthly(rent, sp.period)
		lines = append(lines, ChargeLine{
			Kind:        ChargeKindRent,
			Description: fmt.Sprintf("Rent %s", sp.period),
			Amount:      rentAmount,
			TermID:      sp.term.ID,
			Period:      sp.period,
		})

		if sp.term.MaintenanceCharge.IsPositive() {
			lines = append(lines, ChargeLine{
				Kind:        ChargeKindMaintenance,
				Description: fmt.Sprintf("Maintenance %s", sp.period),
				Amount:      a.sumMonthly(sp.term.MaintenanceCharge, sp.period),
				TermID:      sp.term.ID,
				Period:      sp.period,
			})
		}
		if sp.term.OtherFixedCharges.IsPositive() {
			lines = append(lines, ChargeLine{
				Kind:        ChargeKindOther,
				Description: fmt.Sprintf("Fixed charges %s", sp.period),
				Amount:      a.sumMonthly(sp.term.OtherFixedCharges, sp.period),
				TermID:      sp.term.ID,
				Period:      sp.period,
			})
		}
	}

	return lines, nil
}

type termPeriod struct {
	term   *LeaseTerm
	period valueobject.Period
}

// splitByTerm walks the period day-range and assigns every day to the term
// covering it, producing one contiguous sub-period per term.
func (a *ChargeAccumulator) splitByTerm(lease *Lease, period valueobject.Period) ([]termPeriod, error) {
	terms := make([]*LeaseTerm, 0, len(lease.Terms))
	for i := range lease.Terms {
		terms = append(terms, &lease.Terms[i])
	}
	sort.Slice(terms, func(i, j int) bool {
		return terms[i].EffectiveFrom.Before(terms[j].EffectiveFrom)
	})

	var result []termPeriod
	cursor := period.Start()
	for !cursor.After(period.End()) {
		var active *LeaseTerm
		for _, t := range terms {
			if t.Covers(cursor) {
				active = t
				break
			}
		}
		if active == nil {
			return nil, shared.NewDomainError(shared.CodeNoApplicableTerm,
				fmt.Sprintf("No lease term covers %s in period %s", cursor.Format("2006-01-02"), period))
		}

		// Sub-period ends at the term's end or the period's end, whichever first.
		subEnd := period.End()
		if active.EffectiveTo != nil && active.EffectiveTo.Before(subEnd) {
			subEnd = *active.EffectiveTo
		}
		sub, err := valueobject.NewPeriod(cursor, subEnd)
		if err != nil {
			return nil, err
		}
		result = append(result, termPeriod{term: active, period: sub})
		cursor = subEnd.AddDate(0, 0, 1)
	}

	return result, nil
}

// sumMonthly accumulates a monthly charge over the sub-period month by month,
// prorating partial months through the injected policy.
func (a *ChargeAccumulator) sumMonthly(monthly decimal.Decimal, period valueobject.Period) decimal.Decimal {
	total := decimal.Zero
	cursor := period.Start()
	for !cursor.After(period.End()) {
		month := valueobject.MonthOf(cursor)
		fragEnd := month.End()
		if period.End().Before(fragEnd) {
			fragEnd = period.End()
		}
		fragDays := int(fragEnd.Sub(cursor).Hours()/24) + 1
		total = total.Add(a.proration.Prorate(monthly, fragDays, month.Days()))
		cursor = fragEnd.AddDate(0, 0, 1)
	}
	return total
}
