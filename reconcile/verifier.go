package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roydeenn-boop/invite-usdt-api/amount"
	"github.com/roydeenn-boop/invite-usdt-api/domain"
)

// Summary is the aggregate result of one reconciliation pass. Verifier passes
// fill Checked/Confirmed/Mismatched/Failed; settler passes fill
// Checked/Settled/Rejected/Failed.
type Summary struct {
	Checked    int
	Confirmed  int
	Mismatched int
	Settled    int
	Rejected   int
	Failed     int
}

// Tagged per-record result of a verification attempt. Every record lands in
// exactly one bucket; nothing is silently swallowed.
type verifyOutcome int

const (
	verifyConfirmed verifyOutcome = iota
	verifyPending                 // reference not visible yet, or not final enough
	verifyMismatch                // found on chain but does not satisfy the match criteria
	verifySkipped                 // record was concurrently moved by someone else
	verifyFailed                  // transient infrastructure failure, retry next pass
)

// VerifierConfig holds the match criteria for deposit confirmation.
// TokenContract and HotWallet must be in the chain adapter's canonical form.
type VerifierConfig struct {
	TokenContract    string
	HotWallet        string
	MinConfirmations int64
	Workers          int
}

// DepositVerifier reconciles pending deposit claims against chain reality.
// It holds no state between passes; every pass re-reads current records.
type DepositVerifier struct {
	store  LedgerStore
	chain  ChainClient
	codec  amount.Codec
	cfg    VerifierConfig
	logger *slog.Logger
}

func NewDepositVerifier(store LedgerStore, chain ChainClient, codec amount.Codec, cfg VerifierConfig, logger *slog.Logger) *DepositVerifier {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &DepositVerifier{
		store:  store,
		chain:  chain,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes one verification pass over all pending deposits. Per-record
// failures are isolated; only a pass-level precondition failure aborts.
func (v *DepositVerifier) Run(ctx context.Context) (Summary, error) {
	if v.cfg.TokenContract == "" {
		return Summary{}, &ConfigError{Reason: "token contract address not configured"}
	}
	if v.cfg.HotWallet == "" {
		return Summary{}, &ConfigError{Reason: "hot wallet address not configured"}
	}

	pending, err := v.store.ListDepositsByStatus(ctx, domain.DepositPending)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	var eg errgroup.Group
	eg.SetLimit(v.cfg.Workers)

	for _, dep := range pending {
		dep := dep
		eg.Go(func() error {
			outcome := v.verifyOne(ctx, dep)
			mu.Lock()
			defer mu.Unlock()
			summary.Checked++
			switch outcome {
			case verifyConfirmed:
				summary.Confirmed++
			case verifyMismatch:
				summary.Mismatched++
			case verifyFailed:
				summary.Failed++
			}
			return nil
		})
	}
	eg.Wait()

	v.logger.Info("deposit verification pass complete",
		"checked", summary.Checked,
		"confirmed", summary.Confirmed,
		"mismatched", summary.Mismatched,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (v *DepositVerifier) verifyOne(ctx context.Context, dep domain.Deposit) verifyOutcome {
	log := v.logger.With("deposit_id", dep.ID, "txid", dep.TxID)

	info, err := v.chain.GetTransaction(ctx, dep.TxID)
	if errors.Is(err, ErrTxNotFound) {
		// Indexer lag or a bogus reference: a legitimate pending state,
		// eligible for retry on the next pass.
		log.Debug("reference not visible on chain yet")
		return verifyPending
	}
	if err != nil {
		log.Error("chain lookup failed", "error", err)
		return verifyFailed
	}

	if !info.Success {
		log.Warn("deposit mismatch", "reason", "transaction reverted")
		return verifyMismatch
	}
	if info.Confirmations < v.cfg.MinConfirmations {
		log.Debug("awaiting confirmations",
			"have", info.Confirmations, "want", v.cfg.MinConfirmations)
		return verifyPending
	}

	events := v.chain.DecodeTransferEvents(info)
	matched := false
	reason := "no token transfer events in transaction"
	for _, ev := range events {
		if !strings.EqualFold(ev.Contract, v.cfg.TokenContract) {
			reason = "transfer from a different token contract"
			continue
		}
		if !strings.EqualFold(ev.To, v.cfg.HotWallet) {
			reason = "transfer to a different recipient"
			continue
		}
		if !v.codec.EqualsBaseUnits(dep.Amount, ev.AmountRaw) {
			reason = "transfer amount does not equal claimed amount"
			continue
		}
		matched = true
		break
	}
	if !matched {
		// Distinct from not-found so operators can triage: the chain has the
		// transaction, it just does not pay the claimed amount to us.
		log.Warn("deposit mismatch", "reason", reason, "events", len(events))
		return verifyMismatch
	}

	now := time.Now().UTC()
	ok, err := v.store.UpdateDepositStatus(ctx, dep.ID, domain.DepositPending, domain.DepositConfirmed, DepositFields{ConfirmedAt: &now})
	if err != nil {
		log.Error("confirm write failed", "error", err)
		return verifyFailed
	}
	if !ok {
		// Someone else already transitioned the record. Nothing to do.
		log.Info("deposit already transitioned, skipping")
		return verifySkipped
	}

	log.Info("deposit confirmed", "amount", dep.Amount.String())
	return verifyConfirmed
}
