package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenancy/backend/internal/domain/billing"
	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/domain/shared/valueobject"
)

func newTestPayment(t *testing.T, orgID, invoiceID, leaseID uuid.UUID, number string, amount decimal.Decimal) *billing.Payment {
	t.Helper()

	payment, err := billing.NewPayment(orgID, number, invoiceID, leaseID,
		valueobject.NewMoneyUSD(amount), billing.PaymentModeBankTransfer,
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "UTR-445")
	require.NoError(t, err)
	return payment
}

func TestGormPaymentRepository_SaveAndFind(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	t.Run("round trips a payment with status history", func(t *testing.T) {
		orgID := uuid.New()
		operator := uuid.New()
		payment := newTestPayment(t, orgID, uuid.New(), uuid.New(), "PAY-202603-00001", decimal.NewFromInt(20000))
		require.NoError(t, payment.SubmitForConfirmation(operator))
		require.NoError(t, repo.Save(ctx, payment))

		found, err := repo.FindByIDForOrg(ctx, orgID, payment.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "PAY-202603-00001", found.PaymentNumber)
		assert.Equal(t, billing.PaymentStatusPendingConfirmation, found.Status)
		assert.Equal(t, billing.PaymentModeBankTransfer, found.Mode)
		assert.Equal(t, "UTR-445", found.TransactionRef)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(20000)))
		require.Len(t, found.StatusHistory, 1)
		assert.Equal(t, billing.PaymentStatusPending, found.StatusHistory[0].FromStatus)
		assert.Equal(t, billing.PaymentStatusPendingConfirmation, found.StatusHistory[0].ToStatus)
		assert.Equal(t, operator, found.StatusHistory[0].ChangedBy)
	})

	t.Run("returns nil when payment does not exist", func(t *testing.T) {
		found, err := repo.FindByIDForOrg(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormPaymentRepository_SaveWithLock(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	t.Run("appends history entries without duplicating earlier ones", func(t *testing.T) {
		orgID := uuid.New()
		operator := uuid.New()
		payment := newTestPayment(t, orgID, uuid.New(), uuid.New(), "PAY-202603-00001", decimal.NewFromInt(20000))
		require.NoError(t, payment.SubmitForConfirmation(operator))
		require.NoError(t, repo.Save(ctx, payment))

		require.NoError(t, payment.Confirm(operator, "verified against bank statement"))
		require.NoError(t, repo.SaveWithLock(ctx, payment))

		found, err := repo.FindByIDForOrg(ctx, orgID, payment.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, billing.PaymentStatusCompleted, found.Status)
		assert.NotNil(t, found.CompletedAtUtc)
		require.Len(t, found.StatusHistory, 2)
		assert.Equal(t, billing.PaymentStatusCompleted, found.StatusHistory[1].ToStatus)
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		orgID := uuid.New()
		operator := uuid.New()
		payment := newTestPayment(t, orgID, uuid.New(), uuid.New(), "PAY-202603-00002", decimal.NewFromInt(20000))
		require.NoError(t, payment.SubmitForConfirmation(operator))
		require.NoError(t, repo.Save(ctx, payment))

		stale, err := repo.FindByIDForOrg(ctx, orgID, payment.ID)
		require.NoError(t, err)
		require.NotNil(t, stale)

		require.NoError(t, payment.Confirm(operator, ""))
		require.NoError(t, repo.SaveWithLock(ctx, payment))

		require.NoError(t, stale.Reject(operator, "duplicate entry"))
		err = repo.SaveWithLock(ctx, stale)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	})
}

func TestGormPaymentRepository_SumCompletedByInvoice(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	invoiceID := uuid.New()
	leaseID := uuid.New()
	operator := uuid.New()

	completed := newTestPayment(t, orgID, invoiceID, leaseID, "PAY-202603-00001", decimal.NewFromInt(20000))
	require.NoError(t, completed.SubmitForConfirmation(operator))
	require.NoError(t, completed.Confirm(operator, ""))
	require.NoError(t, repo.Save(ctx, completed))

	alsoCompleted := newTestPayment(t, orgID, invoiceID, leaseID, "PAY-202603-00002", decimal.NewFromInt(5000))
	require.NoError(t, alsoCompleted.SubmitForConfirmation(operator))
	require.NoError(t, alsoCompleted.Confirm(operator, ""))
	require.NoError(t, repo.Save(ctx, alsoCompleted))

	pending := newTestPayment(t, orgID, invoiceID, leaseID, "PAY-202603-00003", decimal.NewFromInt(7000))
	require.NoError(t, repo.Save(ctx, pending))

	rejected := newTestPayment(t, orgID, invoiceID, leaseID, "PAY-202603-00004", decimal.NewFromInt(9000))
	require.NoError(t, rejected.SubmitForConfirmation(operator))
	require.NoError(t, rejected.Reject(operator, "bounced"))
	require.NoError(t, repo.Save(ctx, rejected))

	otherInvoice := newTestPayment(t, orgID, uuid.New(), leaseID, "PAY-202603-00005", decimal.NewFromInt(11000))
	require.NoError(t, otherInvoice.SubmitForConfirmation(operator))
	require.NoError(t, otherInvoice.Confirm(operator, ""))
	require.NoError(t, repo.Save(ctx, otherInvoice))

	total, err := repo.SumCompletedByInvoice(ctx, orgID, invoiceID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(25000)), "got %s", total)
}

func TestGormPaymentRepository_FindByInvoice(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	invoiceID := uuid.New()
	leaseID := uuid.New()

	first := newTestPayment(t, orgID, invoiceID, leaseID, "PAY-202603-00001", decimal.NewFromInt(1000))
	require.NoError(t, repo.Save(ctx, first))
	second := newTestPayment(t, orgID, invoiceID, leaseID, "PAY-202603-00002", decimal.NewFromInt(2000))
	require.NoError(t, repo.Save(ctx, second))
	unrelated := newTestPayment(t, orgID, uuid.New(), leaseID, "PAY-202603-00003", decimal.NewFromInt(3000))
	require.NoError(t, repo.Save(ctx, unrelated))

	payments, err := repo.FindByInvoice(ctx, orgID, invoiceID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestGormPaymentRepository_FindAllForOrg(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	operator := uuid.New()

	pending := newTestPayment(t, orgID, uuid.New(), uuid.New(), "PAY-202603-00001", decimal.NewFromInt(1000))
	require.NoError(t, repo.Save(ctx, pending))

	completed := newTestPayment(t, orgID, uuid.New(), uuid.New(), "PAY-202603-00002", decimal.NewFromInt(2000))
	require.NoError(t, completed.SubmitForConfirmation(operator))
	require.NoError(t, completed.Confirm(operator, ""))
	require.NoError(t, repo.Save(ctx, completed))

	t.Run("filters by status", func(t *testing.T) {
		status := billing.PaymentStatusCompleted
		payments, err := repo.FindAllForOrg(ctx, orgID, billing.PaymentFilter{
			Filter: shared.DefaultFilter(),
			Status: &status,
		})
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, completed.ID, payments[0].ID)
	})

	t.Run("counts by filter", func(t *testing.T) {
		count, err := repo.CountForOrg(ctx, orgID, billing.PaymentFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
