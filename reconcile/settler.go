package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roydeenn-boop/invite-usdt-api/amount"
	"github.com/roydeenn-boop/invite-usdt-api/domain"
)

// Tagged per-record result of a settlement attempt.
type settleOutcome int

const (
	settleSent     settleOutcome = iota
	settleRejected               // definitive refusal or permanent validation failure
	settleRetained               // outcome unknown, record stays approved for retry
	settleSkipped                // record was concurrently moved by someone else
	settleFailed                 // ledger write failure after a known outcome
)

// SettlerConfig holds the settlement parameters. TokenContract must be in the
// chain adapter's canonical form.
type SettlerConfig struct {
	TokenContract string
	Workers       int
}

// WithdrawalSettler broadcasts approved withdrawals and records their fate.
// The hot-wallet signing capability is acquired per pass through signerFn and
// released when the pass ends; it is never held between passes.
type WithdrawalSettler struct {
	store    LedgerStore
	chain    ChainClient
	codec    amount.Codec
	signerFn SignerFunc
	cfg      SettlerConfig
	logger   *slog.Logger
}

func NewWithdrawalSettler(store LedgerStore, chain ChainClient, codec amount.Codec, signerFn SignerFunc, cfg SettlerConfig, logger *slog.Logger) *WithdrawalSettler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &WithdrawalSettler{
		store:    store,
		chain:    chain,
		codec:    codec,
		signerFn: signerFn,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one settlement pass over all approved withdrawals. Missing
// signing material aborts the pass before any broadcast: stalling withdrawals
// is always preferable to an unauthorized or malformed send.
func (s *WithdrawalSettler) Run(ctx context.Context) (Summary, error) {
	if s.cfg.TokenContract == "" {
		return Summary{}, &ConfigError{Reason: "token contract address not configured"}
	}
	if s.signerFn == nil {
		return Summary{}, &ConfigError{Reason: "hot wallet signing material not configured"}
	}
	signer, err := s.signerFn()
	if err != nil {
		return Summary{}, &ConfigError{Reason: "hot wallet signer unavailable: " + err.Error()}
	}
	defer signer.Close()

	approved, err := s.store.ListWithdrawalsByStatus(ctx, domain.WithdrawalApproved)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	var eg errgroup.Group
	eg.SetLimit(s.cfg.Workers)

	for _, w := range approved {
		w := w
		eg.Go(func() error {
			outcome := s.settleOne(ctx, w, signer)
			mu.Lock()
			defer mu.Unlock()
			summary.Checked++
			switch outcome {
			case settleSent:
				summary.Settled++
			case settleRejected:
				summary.Rejected++
			case settleFailed:
				summary.Failed++
			}
			return nil
		})
	}
	eg.Wait()

	s.logger.Info("withdrawal settlement pass complete",
		"checked", summary.Checked,
		"settled", summary.Settled,
		"rejected", summary.Rejected,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (s *WithdrawalSettler) settleOne(ctx context.Context, w domain.Withdrawal, signer Signer) settleOutcome {
	log := s.logger.With("withdrawal_id", w.ID, "to", w.ToAddress)

	raw, err := s.codec.ToBaseUnits(w.Amount)
	if err != nil {
		// Unrepresentable at the token's precision. Terminal for this record;
		// re-attempting requires a new approval cycle.
		log.Warn("withdrawal rejected", "reason", "amount not representable", "error", err)
		return s.reject(ctx, w, log)
	}
	if err := s.chain.ValidateAddress(w.ToAddress); err != nil {
		log.Warn("withdrawal rejected", "reason", "invalid destination address", "error", err)
		return s.reject(ctx, w, log)
	}

	res, err := s.chain.BroadcastTransfer(ctx, s.cfg.TokenContract, w.ToAddress, raw, signer)
	if err != nil {
		// No definitive accept or reject from the node. Leave the record
		// approved so the next pass retries; guessing a terminal state here
		// is exactly how funds get double-spent or stranded.
		var te *TransientError
		if errors.As(err, &te) {
			log.Warn("broadcast outcome unknown, will retry", "error", err)
		} else {
			log.Error("broadcast failed, will retry", "error", err)
		}
		return settleRetained
	}
	if !res.Accepted {
		log.Warn("withdrawal rejected", "reason", "node refused broadcast", "detail", res.Reason)
		return s.reject(ctx, w, log)
	}

	now := time.Now().UTC()
	ok, err := s.store.UpdateWithdrawalStatus(ctx, w.ID, domain.WithdrawalApproved, domain.WithdrawalSent, WithdrawalFields{
		TxRef:       &res.TxID,
		ProcessedAt: &now,
	})
	if err != nil {
		// The transfer is on its way but the ledger write failed. Surface
		// loudly: this record needs operator attention, not a silent retry
		// that would broadcast twice.
		log.Error("broadcast accepted but ledger write failed", "txref", res.TxID, "error", err)
		return settleFailed
	}
	if !ok {
		log.Error("broadcast accepted but record was concurrently moved", "txref", res.TxID)
		return settleSkipped
	}

	log.Info("withdrawal sent", "amount", w.Amount.String(), "txref", res.TxID)
	return settleSent
}

func (s *WithdrawalSettler) reject(ctx context.Context, w domain.Withdrawal, log *slog.Logger) settleOutcome {
	ok, err := s.store.UpdateWithdrawalStatus(ctx, w.ID, domain.WithdrawalApproved, domain.WithdrawalRejected, WithdrawalFields{})
	if err != nil {
		log.Error("reject write failed", "error", err)
		return settleFailed
	}
	if !ok {
		log.Info("withdrawal already transitioned, skipping")
		return settleSkipped
	}
	return settleRejected
}
