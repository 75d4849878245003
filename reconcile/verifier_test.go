package reconcile_test

import (
	"context"
	"io"
	"log/slog"
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

const (
	usdtContract = "41a614f803b6fd780986a42c78ec9c7f77e6ded13c"
	hotWallet    = "41b5c2f8a1d3e4956677889900aabbccddeeff0011"
	otherWallet  = "411111111111111111111111111111111111111111"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newVerifier(store *mock.LedgerStore, chain *mock.ChainClient) *reconcile.DepositVerifier {
	return reconcile.NewDepositVerifier(store, chain, amount.New(amount.USDTPrecision), reconcile.VerifierConfig{
		TokenContract:    usdtContract,
		HotWallet:        hotWallet,
		MinConfirmations: 1,
		Workers:          2,
	}, testLogger())
}

func usdtTransfer(to string, raw int64) reconcile.TransferEvent {
	return reconcile.TransferEvent{Contract: usdtContract, To: to, AmountRaw: big.NewInt(raw)}
}

func TestVerifierConfirmsMatchingDeposit(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("100.00"))
	chain.SimulateTransaction("T1", 5, usdtTransfer(hotWallet, 100_000_000))

	summary, err := newVerifier(store, chain).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Confirmed)

	dep, ok := store.Deposit(id)
	require.True(t, ok)
	assert.Equal(t, domain.DepositConfirmed, dep.Status)
	require.NotNil(t, dep.ConfirmedAt)
}

func TestVerifierLeavesUnknownReferencePending(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("100.00"))

	summary, err := newVerifier(store, chain).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 0, summary.Confirmed)
	assert.Equal(t, 0, summary.Failed)

	dep, _ := store.Deposit(id)
	assert.Equal(t, domain.DepositPending, dep.Status)
	assert.Nil(t, dep.ConfirmedAt)
}

func TestVerifierMatchSpecificity(t *testing.T) {
	tests := []struct {
		name  string
		event reconcile.TransferEvent
	}{
		{"wrong amount to hot wallet", usdtTransfer(hotWallet, 99_000_000)},
		{"right amount to other address", usdtTransfer(otherWallet, 100_000_000)},
		{"right amount wrong contract", reconcile.TransferEvent{
			Contract:  otherWallet,
			To:        hotWallet,
			AmountRaw: big.NewInt(100_000_000),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewLedgerStore()
			chain := mock.NewChainClient()

			id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("100.00"))
			chain.SimulateTransaction("T1", 5, tt.event)

			summary, err := newVerifier(store, chain).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, summary.Confirmed)
			assert.Equal(t, 1, summary.Mismatched)

			dep, _ := store.Deposit(id)
			assert.Equal(t, domain.DepositPending, dep.Status)
		})
	}
}

func TestVerifierIgnoresRevertedTransaction(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("100.00"))
	chain.SimulateRevertedTransaction("T1", usdtTransfer(hotWallet, 100_000_000))

	summary, err := newVerifier(store, chain).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Mismatched)

	dep, _ := store.Deposit(id)
	assert.Equal(t, domain.DepositPending, dep.Status)
}

func TestVerifierWaitsForConfirmationDepth(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	verifier := reconcile.NewDepositVerifier(store, chain, amount.New(amount.USDTPrecision), reconcile.VerifierConfig{
		TokenContract:    usdtContract,
		HotWallet:        hotWallet,
		MinConfirmations: 19,
	}, testLogger())

	id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("100.00"))
	chain.SimulateTransaction("T1", 3, usdtTransfer(hotWallet, 100_000_000))

	summary, err := verifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Confirmed)
	assert.Equal(t, 0, summary.Mismatched)

	dep, _ := store.Deposit(id)
	assert.Equal(t, domain.DepositPending, dep.Status)
}

func TestVerifierIsIdempotent(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	id := store.AddDeposit(uuid.New(), "T1", decimal.RequireFromString("100.00"))
	chain.SimulateTransaction("T1", 5, usdtTransfer(hotWallet, 100_000_000))

	verifier := newVerifier(store, chain)

	first, err := verifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Confirmed)

	dep, _ := store.Deposit(id)
	confirmedAt := dep.ConfirmedAt

	// Same chain state, second pass: the deposit is no longer pending, so
	// nothing is re-checked and nothing changes.
	second, err := verifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Checked)
	assert.Equal(t, 0, second.Confirmed)

	dep, _ = store.Deposit(id)
	assert.Equal(t, domain.DepositConfirmed, dep.Status)
	assert.Equal(t, confirmedAt, dep.ConfirmedAt)
}

func TestVerifierIsolatesPerRecordFailures(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	badID := store.AddDeposit(uuid.New(), "TBAD", decimal.RequireFromString("10"))
	goodID := store.AddDeposit(uuid.New(), "TGOOD", decimal.RequireFromString("100.00"))

	chain.SimulateLookupFailure("TBAD")
	chain.SimulateTransaction("TGOOD", 5, usdtTransfer(hotWallet, 100_000_000))

	summary, err := newVerifier(store, chain).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Confirmed)
	assert.Equal(t, 1, summary.Failed)

	good, _ := store.Deposit(goodID)
	assert.Equal(t, domain.DepositConfirmed, good.Status)
	bad, _ := store.Deposit(badID)
	assert.Equal(t, domain.DepositPending, bad.Status)
}

func TestVerifierRequiresMatchConfiguration(t *testing.T) {
	store := mock.NewLedgerStore()
	chain := mock.NewChainClient()

	verifier := reconcile.NewDepositVerifier(store, chain, amount.New(amount.USDTPrecision), reconcile.VerifierConfig{
		HotWallet: hotWallet,
	}, testLogger())

	_, err := verifier.Run(context.Background())
	assert.True(t, reconcile.IsConfigError(err))
}
