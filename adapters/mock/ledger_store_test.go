package mock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roydeenn-boop/invite-usdt-api/domain"
	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

func TestUpdateDepositStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()
	id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("1"))

	now := time.Now().UTC()
	ok, err := store.UpdateDepositStatus(ctx, id, domain.DepositPending, domain.DepositConfirmed, reconcile.DepositFields{ConfirmedAt: &now})
	require.NoError(t, err)
	assert.True(t, ok)

	// the precondition no longer holds: the second swap must fail
	ok, err = store.UpdateDepositStatus(ctx, id, domain.DepositPending, domain.DepositConfirmed, reconcile.DepositFields{ConfirmedAt: &now})
	require.NoError(t, err)
	assert.False(t, ok)

	dep, _ := store.Deposit(id)
	assert.Equal(t, domain.DepositConfirmed, dep.Status)
}

func TestUpdateWithdrawalStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()
	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("1"), "Tdest", domain.WithdrawalApproved)

	txRef := "B1"
	now := time.Now().UTC()
	ok, err := store.UpdateWithdrawalStatus(ctx, id, domain.WithdrawalApproved, domain.WithdrawalSent, reconcile.WithdrawalFields{TxRef: &txRef, ProcessedAt: &now})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.UpdateWithdrawalStatus(ctx, id, domain.WithdrawalApproved, domain.WithdrawalRejected, reconcile.WithdrawalFields{})
	require.NoError(t, err)
	assert.False(t, ok)

	w, _ := store.Withdrawal(id)
	assert.Equal(t, domain.WithdrawalSent, w.Status)
	require.NotNil(t, w.TxRef)
	assert.Equal(t, "B1", *w.TxRef)
}

func TestUpdateUnknownRecordFails(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()

	ok, err := store.UpdateDepositStatus(ctx, uuid.New(), domain.DepositPending, domain.DepositConfirmed, reconcile.DepositFields{})
	require.NoError(t, err)
	assert.False(t, ok)
}
