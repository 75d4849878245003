package reconcile_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roydeenn-boop/invite-usdt-api/adapters/mock"
	"github.com/roydeenn-boop/invite-usdt-api/amount"
	"github.com/roydeenn-boop/invite-usdt-api/domain"
	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

const destAddr = "TXyzDestinationAddress"

func newSettler(store *mock.LedgerStore, chain *mock.ChainClient, signerFn reconcile.SignerFunc) *reconcile.WithdrawalSettler {
	return reconcile.NewWithdrawalSettler(store, chain, amount.New(amount.USDTPrecision), signerFn, reconcile.SettlerConfig{
		TokenContract: usdtContract,
		Workers:       2,
	}, testLogger())
}

func mockSignerFn() reconcile.SignerFunc {
	return func() (reconcile.Signer, error) {
		return mock.NewSigner(hotWallet), nil
	}
}

func TestSettlerSendsApprovedWithdrawal(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("50.5"), destAddr, domain.WithdrawalApproved)

	summary, err := newSettler(store, chain, mockSignerFn()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Settled)

	w, ok := store.Withdrawal(id)
	require.True(t, ok)
	assert.Equal(t, domain.WithdrawalSent, w.Status)
	require.NotNil(t, w.TxRef)
	require.NotNil(t, w.ProcessedAt)

	calls := chain.Broadcasts()
	require.Len(t, calls, 1)
	assert.Equal(t, usdtContract, calls[0].Token)
	assert.Equal(t, destAddr, calls[0].To)
	assert.Equal(t, big.NewInt(50_500_000), calls[0].AmountRaw)
}

func TestSettlerRejectsOnNodeRefusal(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()
	chain.RejectBroadcastsTo(destAddr, "CONTRACT_VALIDATE_ERROR")

	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("50.5"), destAddr, domain.WithdrawalApproved)

	settler := newSettler(store, chain, mockSignerFn())

	summary, err := settler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)

	w, _ := store.Withdrawal(id)
	assert.Equal(t, domain.WithdrawalRejected, w.Status)
	assert.Nil(t, w.TxRef)

	// rejected is terminal: a second pass never re-broadcasts
	attempts := len(chain.Broadcasts())
	summary, err = settler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Checked)
	assert.Len(t, chain.Broadcasts(), attempts)
}

func TestSettlerNeverRebroadcastsSentWithdrawal(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	store.AddWithdrawal(uuid.New(), decimal.RequireFromString("50.5"), destAddr, domain.WithdrawalApproved)

	settler := newSettler(store, chain, mockSignerFn())

	_, err := settler.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, chain.Broadcasts(), 1)

	summary, err := settler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Checked)
	assert.Len(t, chain.Broadcasts(), 1)
}

func TestSettlerRetainsOnUnknownOutcome(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()
	chain.TimeoutBroadcastsTo(destAddr)

	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("50.5"), destAddr, domain.WithdrawalApproved)

	summary, err := newSettler(store, chain, mockSignerFn()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 0, summary.Settled)
	assert.Equal(t, 0, summary.Rejected)

	// no definitive answer from the node: stay approved, retry next pass
	w, _ := store.Withdrawal(id)
	assert.Equal(t, domain.WithdrawalApproved, w.Status)
}

func TestSettlerRejectsUnrepresentableAmount(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("1.1234567"), destAddr, domain.WithdrawalApproved)

	summary, err := newSettler(store, chain, mockSignerFn()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)

	w, _ := store.Withdrawal(id)
	assert.Equal(t, domain.WithdrawalRejected, w.Status)
	assert.Empty(t, chain.Broadcasts())
}

func TestSettlerRejectsInvalidDestination(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()
	chain.MarkAddressInvalid("not-an-address")

	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("10"), "not-an-address", domain.WithdrawalApproved)

	summary, err := newSettler(store, chain, mockSignerFn()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)

	w, _ := store.Withdrawal(id)
	assert.Equal(t, domain.WithdrawalRejected, w.Status)
	assert.Empty(t, chain.Broadcasts())
}

func TestSettlerFailsClosedWithoutSigner(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddWithdrawal(uuid.New(), decimal.RequireFromString("10"), destAddr, domain.WithdrawalApproved)

	_, err := newSettler(store, chain, nil).Run(context.Background())
	assert.True(t, reconcile.IsConfigError(err))
	assert.Empty(t, chain.Broadcasts())

	// the record is untouched, not rejected: this is a pass-level abort
	w, _ := store.Withdrawal(id)
	assert.Equal(t, domain.WithdrawalApproved, w.Status)
}

func TestSettlerReleasesSignerAfterPass(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	signer := mock.NewSigner(hotWallet)
	settler := newSettler(store, chain, func() (reconcile.Signer, error) { return signer, nil })

	_, err := settler.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, signer.Closed())
}

func TestSettlerSkipsNonApprovedRecords(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	store.AddWithdrawal(uuid.New(), decimal.RequireFromString("10"), destAddr, domain.WithdrawalPending)
	store.AddWithdrawal(uuid.New(), decimal.RequireFromString("10"), destAddr, domain.WithdrawalRejected)

	summary, err := newSettler(store, chain, mockSignerFn()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Checked)
	assert.Empty(t, chain.Broadcasts())
}
