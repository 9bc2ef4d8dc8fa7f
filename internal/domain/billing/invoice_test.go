package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

// Test helpers
func testPeriod(t *testing.T) valueobject.Period {
	p, err := valueobject.NewPeriod(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return p
}

func createTestDraftInvoice(t *testing.T) *Invoice {
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	inv, err := NewDraftInvoice(uuid.New(), "INV-202603-00001", uuid.New(), testPeriod(t), &due)
	require.NoError(t, err)
	return inv
}

func createIssuedInvoice(t *testing.T, amounts ...float64) *Invoice {
	inv := createTestDraftInvoice(t)
	if len(amounts) == 0 {
		amounts = []float64{50000}
	}
	for i, a := range amounts {
		_, err := inv.AddLine("Rent", decimal.NewFromFloat(a), decimal.Zero, nil)
		require.NoError(t, err, "line %d", i)
	}
	require.NoError(t, inv.Issue())
	return inv
}

// assertAccountingIdentity checks that paid + credited + written off + balance
// always equals the total
func assertAccountingIdentity(t *testing.T, inv *Invoice) {
	t.Helper()
	sum := inv.PaidAmount.Add(inv.CreditedAmount).Add(inv.WrittenOffAmount).Add(inv.BalanceAmount)
	assert.True(t, sum.Equal(inv.TotalAmount),
		"paid %s + credited %s + written off %s + balance %s != total %s",
		inv.PaidAmount, inv.CreditedAmount, inv.WrittenOffAmount, inv.BalanceAmount, inv.TotalAmount)
}

// ============================================
// InvoiceStatus Tests
// ============================================

func TestInvoiceStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  InvoiceStatus
		isValid bool
	}{
		{InvoiceStatusDraft, true},
		{InvoiceStatusIssued, true},
		{InvoiceStatusPartiallyPaid, true},
		{InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, true},
		{InvoiceStatusCancelled, true},
		{InvoiceStatusWrittenOff, true},
		{InvoiceStatusVoided, true},
		{InvoiceStatus("INVALID"), false},
		{InvoiceStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestInvoiceStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status     InvoiceStatus
		isTerminal bool
	}{
		{InvoiceStatusDraft, false},
		{InvoiceStatusIssued, false},
		{InvoiceStatusPartiallyPaid, false},
		{InvoiceStatusPaid, false},
		{InvoiceStatusOverdue, false},
		{InvoiceStatusCancelled, true},
		{InvoiceStatusWrittenOff, true},
		{InvoiceStatusVoided, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

// ============================================
// Draft and Issue Tests
// ============================================

func TestNewDraftInvoice(t *testing.T) {
	inv := createTestDraftInvoice(t)

	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.True(t, inv.TotalAmount.IsZero())
	assert.True(t, inv.BalanceAmount.IsZero())
	assert.Empty(t, inv.Lines)
	assert.Equal(t, 1, inv.Version)
	assert.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, "InvoiceDrafted", inv.GetDomainEvents()[0].EventType())
}

func TestNewDraftInvoice_Validation(t *testing.T) {
	period := testPeriod(t)

	_, err := NewDraftInvoice(uuid.New(), "", uuid.New(), period, nil)
	assert.Error(t, err)

	_, err = NewDraftInvoice(uuid.New(), "INV-202603-00001", uuid.Nil, period, nil)
	assert.Error(t, err)
}

func TestInvoice_AddLine(t *testing.T) {
	inv := createTestDraftInvoice(t)

	line, err := inv.AddLine("Rent March", decimal.NewFromInt(50000), decimal.NewFromInt(2500), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, line.SortOrder)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(52500)))
	assert.True(t, inv.BalanceAmount.Equal(inv.TotalAmount))

	_, err = inv.AddLine("Maintenance", decimal.NewFromInt(3000), decimal.Zero, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.LineCount())
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(55500)))
}

func TestInvoice_AddLine_Validation(t *testing.T) {
	inv := createTestDraftInvoice(t)

	_, err := inv.AddLine("", decimal.NewFromInt(100), decimal.Zero, nil)
	assert.Error(t, err)

	_, err = inv.AddLine("Rent", decimal.Zero, decimal.Zero, nil)
	assert.Error(t, err)

	_, err = inv.AddLine("Rent", decimal.NewFromInt(100), decimal.NewFromInt(-1), nil)
	assert.Error(t, err)
}

func TestInvoice_AddLine_AfterIssueFails(t *testing.T) {
	inv := createIssuedInvoice(t)

	_, err := inv.AddLine("Extra", decimal.NewFromInt(100), decimal.Zero, nil)
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInvoiceState))
}

func TestInvoice_Issue(t *testing.T) {
	inv := createTestDraftInvoice(t)
	_, err := inv.AddLine("Rent", decimal.NewFromInt(50000), decimal.Zero, nil)
	require.NoError(t, err)

	err = inv.Issue()
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusIssued, inv.Status)
	assert.NotNil(t, inv.IssuedAtUtc)
	assert.True(t, inv.BalanceAmount.Equal(inv.TotalAmount))
	assertAccountingIdentity(t, inv)
}

func TestInvoice_Issue_EmptyDraftFails(t *testing.T) {
	inv := createTestDraftInvoice(t)

	err := inv.Issue()
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInvoiceState))
}

func TestInvoice_Issue_Twice(t *testing.T) {
	inv := createIssuedInvoice(t)

	err := inv.Issue()
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInvoiceState))
}

func TestInvoice_ReplaceLines(t *testing.T) {
	inv := createTestDraftInvoice(t)
	_, err := inv.AddLine("Rent", decimal.NewFromInt(50000), decimal.Zero, nil)
	require.NoError(t, err)

	require.NoError(t, inv.ReplaceLines())
	assert.Empty(t, inv.Lines)
	assert.True(t, inv.TotalAmount.IsZero())

	_, err = inv.AddLine("Rent revised", decimal.NewFromInt(52000), decimal.Zero, nil)
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(52000)))
}

// ============================================
// Void / Cancel / WriteOff Tests
// ============================================

func TestInvoice_Void(t *testing.T) {
	inv := createIssuedInvoice(t)

	err := inv.Void("duplicate billing run")
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusVoided, inv.Status)
	assert.NotNil(t, inv.VoidedAtUtc)
	assert.Equal(t, "duplicate billing run", inv.VoidReason)
	assert.True(t, inv.BalanceAmount.IsZero())
}

func TestInvoice_Void_RequiresReason(t *testing.T) {
	inv := createIssuedInvoice(t)

	err := inv.Void("")
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeMissingReason))
	assert.Equal(t, InvoiceStatusIssued, inv.Status)
}

func TestInvoice_Void_WithPaymentsFails(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)
	require.NoError(t, inv.RecomputeTotals(decimal.NewFromInt(20000), decimal.Zero, time.Now()))
	require.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)

	err := inv.Void("change of mind")
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInvoiceState))
}

func TestInvoice_Void_DraftFails(t *testing.T) {
	inv := createTestDraftInvoice(t)

	err := inv.Void("any reason")
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInvoiceState))
}

func TestInvoice_Cancel(t *testing.T) {
	inv := createTestDraftInvoice(t)

	require.NoError(t, inv.Cancel("lease terminated before issue"))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)
	assert.NotNil(t, inv.CancelledAtUtc)
}

func TestInvoice_Cancel_IssuedFails(t *testing.T) {
	inv := createIssuedInvoice(t)

	err := inv.Cancel("too late")
	assert.Error(t, err)
}

func TestInvoice_WriteOff(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)
	require.NoError(t, inv.RecomputeTotals(decimal.NewFromInt(30000), decimal.Zero, time.Now()))

	err := inv.WriteOff("tenant insolvent")
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusWrittenOff, inv.Status)
	assert.True(t, inv.WrittenOffAmount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, inv.BalanceAmount.IsZero())
	assertAccountingIdentity(t, inv)
}

func TestInvoice_WriteOff_NothingOutstandingFails(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)
	require.NoError(t, inv.RecomputeTotals(decimal.NewFromInt(50000), decimal.Zero, time.Now()))
	require.Equal(t, InvoiceStatusPaid, inv.Status)

	err := inv.WriteOff("nothing left")
	assert.Error(t, err)
}

// ============================================
// RecomputeTotals Tests
// ============================================

func TestInvoice_Recompute_PartialPayment(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)

	err := inv.RecomputeTotals(decimal.NewFromInt(20000), decimal.Zero, time.Now())
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(30000)))
	assertAccountingIdentity(t, inv)
}

func TestInvoice_Recompute_FullSettlement(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)

	err := inv.RecomputeTotals(decimal.NewFromInt(35000), decimal.NewFromInt(15000), time.Now())
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.BalanceAmount.IsZero())
	assertAccountingIdentity(t, inv)
}

// A balance reduced only by credit, with no confirmed money, leaves the
// invoice Issued rather than PartiallyPaid.
func TestInvoice_Recompute_CreditOnlyStaysIssued(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)

	err := inv.RecomputeTotals(decimal.Zero, decimal.NewFromInt(15000), time.Now())
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusIssued, inv.Status)
	assert.True(t, inv.CreditedAmount.Equal(decimal.NewFromInt(15000)))
	assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(35000)))
	assertAccountingIdentity(t, inv)
}

func TestInvoice_Recompute_CreditToZeroIsPaid(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)

	err := inv.RecomputeTotals(decimal.Zero, decimal.NewFromInt(50000), time.Now())
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assertAccountingIdentity(t, inv)
}

func TestInvoice_Recompute_Overdue(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)
	pastDue := inv.DueDate.AddDate(0, 0, 5)

	err := inv.RecomputeTotals(decimal.NewFromInt(10000), decimal.Zero, pastDue)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	// Settling the balance recovers from overdue
	err = inv.RecomputeTotals(decimal.NewFromInt(50000), decimal.Zero, pastDue)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestInvoice_Recompute_SettlementExceedsTotal(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)

	err := inv.RecomputeTotals(decimal.NewFromInt(40000), decimal.NewFromInt(20000), time.Now())
	assert.Error(t, err)
}

func TestInvoice_Recompute_Idempotent(t *testing.T) {
	inv := createIssuedInvoice(t, 50000)
	paid := decimal.NewFromInt(20000)
	asOf := time.Now()

	require.NoError(t, inv.RecomputeTotals(paid, decimal.Zero, asOf))
	statusAfterFirst := inv.Status
	balanceAfterFirst := inv.BalanceAmount

	require.NoError(t, inv.RecomputeTotals(paid, decimal.Zero, asOf))
	assert.Equal(t, statusAfterFirst, inv.Status)
	assert.True(t, balanceAfterFirst.Equal(inv.BalanceAmount))
	assertAccountingIdentity(t, inv)
}

func TestInvoice_Recompute_TerminalStateFails(t *testing.T) {
	inv := createIssuedInvoice(t)
	require.NoError(t, inv.Void("bad data"))

	err := inv.RecomputeTotals(decimal.NewFromInt(100), decimal.Zero, time.Now())
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInvoiceState))
}

// ============================================
// Misc Tests
// ============================================

func TestInvoice_LineByID(t *testing.T) {
	inv := createTestDraftInvoice(t)
	line, err := inv.AddLine("Rent", decimal.NewFromInt(50000), decimal.Zero, nil)
	require.NoError(t, err)

	found := inv.LineByID(line.ID)
	require.NotNil(t, found)
	assert.Equal(t, "Rent", found.Description)

	assert.Nil(t, inv.LineByID(uuid.New()))
}

func TestInvoice_VersionIncrementsOnMutation(t *testing.T) {
	inv := createTestDraftInvoice(t)
	v := inv.Version

	_, err := inv.AddLine("Rent", decimal.NewFromInt(50000), decimal.Zero, nil)
	require.NoError(t, err)
	assert.Equal(t, v+1, inv.Version)

	require.NoError(t, inv.Issue())
	assert.Equal(t, v+2, inv.Version)
}
