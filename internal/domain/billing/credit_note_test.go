package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenancy/backend/internal/domain/shared"
)

func createTestCreditNote(t *testing.T) *CreditNote {
	cn, err := NewCreditNote(
		uuid.New(),
		"CN-202603-00001",
		uuid.New(),
		CreditReasonInvoiceError,
		"",
		time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return cn
}

func TestCreditNoteReason_IsValid(t *testing.T) {
	tests := []struct {
		reason  CreditNoteReason
		isValid bool
	}{
		{CreditReasonInvoiceError, true},
		{CreditReasonDiscount, true},
		{CreditReasonRefund, true},
		{CreditReasonGoodwill, true},
		{CreditReasonAdjustment, true},
		{CreditReasonOther, true},
		{CreditNoteReason("WHIM"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.reason.IsValid())
		})
	}
}

func TestNewCreditNote_Validation(t *testing.T) {
	orgID := uuid.New()
	now := time.Now()

	_, err := NewCreditNote(orgID, "", uuid.New(), CreditReasonDiscount, "", now)
	assert.Error(t, err)

	_, err = NewCreditNote(orgID, "CN-1", uuid.Nil, CreditReasonDiscount, "", now)
	assert.Error(t, err)

	_, err = NewCreditNote(orgID, "CN-1", uuid.New(), CreditNoteReason("BAD"), "", now)
	assert.Error(t, err)

	// OTHER needs a free-text detail
	_, err = NewCreditNote(orgID, "CN-1", uuid.New(), CreditReasonOther, "", now)
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeMissingReason))

	_, err = NewCreditNote(orgID, "CN-1", uuid.New(), CreditReasonOther, "billing system migration", now)
	assert.NoError(t, err)
}

func TestCreditNote_AddLine(t *testing.T) {
	cn := createTestCreditNote(t)
	lineID := uuid.New()

	_, err := cn.AddLine(lineID, "Rent overcharge", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.True(t, cn.TotalAmount.Equal(decimal.NewFromInt(5000)))

	_, err = cn.AddLine(uuid.New(), "Maintenance overcharge", decimal.NewFromInt(1500))
	require.NoError(t, err)
	assert.True(t, cn.TotalAmount.Equal(decimal.NewFromInt(6500)))
	assert.Equal(t, 2, cn.LineCount())
}

func TestCreditNote_AddLine_DuplicateInvoiceLine(t *testing.T) {
	cn := createTestCreditNote(t)
	lineID := uuid.New()

	_, err := cn.AddLine(lineID, "first", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = cn.AddLine(lineID, "second", decimal.NewFromInt(200))
	assert.Error(t, err)
}

func TestCreditNote_AddLine_Validation(t *testing.T) {
	cn := createTestCreditNote(t)

	_, err := cn.AddLine(uuid.Nil, "no line", decimal.NewFromInt(100))
	assert.Error(t, err)

	_, err = cn.AddLine(uuid.New(), "zero", decimal.Zero)
	assert.Error(t, err)

	_, err = cn.AddLine(uuid.New(), "negative", decimal.NewFromInt(-5))
	assert.Error(t, err)
}

func TestCreditNote_Apply(t *testing.T) {
	cn := createTestCreditNote(t)
	_, err := cn.AddLine(uuid.New(), "Rent overcharge", decimal.NewFromInt(5000))
	require.NoError(t, err)

	operator := uuid.New()
	require.NoError(t, cn.Apply(operator))

	assert.True(t, cn.IsApplied())
	assert.NotNil(t, cn.AppliedAtUtc)
	assert.Equal(t, operator, *cn.AppliedBy)
	assert.Len(t, cn.GetDomainEvents(), 1)
	assert.Equal(t, "CreditNoteApplied", cn.GetDomainEvents()[0].EventType())
}

func TestCreditNote_Apply_Empty(t *testing.T) {
	cn := createTestCreditNote(t)

	err := cn.Apply(uuid.New())
	assert.Error(t, err)
}

func TestCreditNote_Apply_Twice(t *testing.T) {
	cn := createTestCreditNote(t)
	_, err := cn.AddLine(uuid.New(), "line", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, cn.Apply(uuid.New()))

	err = cn.Apply(uuid.New())
	assert.Error(t, err)
}

func TestCreditNote_ImmutableAfterApply(t *testing.T) {
	cn := createTestCreditNote(t)
	_, err := cn.AddLine(uuid.New(), "line", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, cn.Apply(uuid.New()))

	_, err = cn.AddLine(uuid.New(), "late line", decimal.NewFromInt(50))
	assert.Error(t, err)
}

func TestCreditNote_Void(t *testing.T) {
	cn := createTestCreditNote(t)
	_, err := cn.AddLine(uuid.New(), "line", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.NoError(t, cn.Void("entered against wrong invoice"))
	assert.True(t, cn.IsVoided())

	err = cn.Apply(uuid.New())
	assert.Error(t, err)
}

func TestCreditNote_Void_RequiresReason(t *testing.T) {
	cn := createTestCreditNote(t)

	err := cn.Void("")
	assert.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeMissingReason))
}

// An applied note can never be voided; correction requires a counter-adjustment.
func TestCreditNote_Void_AppliedFails(t *testing.T) {
	cn := createTestCreditNote(t)
	_, err := cn.AddLine(uuid.New(), "line", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, cn.Apply(uuid.New()))

	err = cn.Void("changed my mind")
	assert.Error(t, err)
	assert.False(t, cn.IsVoided())
}
