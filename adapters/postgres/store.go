// Package postgres implements the reconcile.LedgerStore port over pgx.
// Status transitions are single conditional UPDATEs keyed on the record's
// current status, which gives the compare-and-swap guarantee the engine
// relies on without a transaction manager.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/roydeenn-boop/invite-usdt-api/domain"
	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

// Connect builds a pgx pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// LedgerStore reads and transitions deposit/withdrawal records. The schema is
// provisioned outside this repository.
type LedgerStore struct {
	db *pgxpool.Pool
}

func NewLedgerStore(db *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) ListDepositsByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.Deposit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, txid, amount::text, status, confirmed_at, created_at
		FROM deposits
		WHERE status = $1
		ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	var out []domain.Deposit
	for rows.Next() {
		var (
			dep       domain.Deposit
			amountStr string
			st        string
		)
		if err := rows.Scan(&dep.ID, &dep.UserID, &dep.TxID, &amountStr, &st, &dep.ConfirmedAt, &dep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		dep.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("deposit %s: bad amount %q: %w", dep.ID, amountStr, err)
		}
		dep.Status = domain.DepositStatus(st)
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (s *LedgerStore) ListWithdrawalsByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount::text, to_address, status, tx_ref, processed_at, created_at
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []domain.Withdrawal
	for rows.Next() {
		var (
			w         domain.Withdrawal
			amountStr string
			st        string
		)
		if err := rows.Scan(&w.ID, &w.UserID, &amountStr, &w.ToAddress, &st, &w.TxRef, &w.ProcessedAt, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		w.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("withdrawal %s: bad amount %q: %w", w.ID, amountStr, err)
		}
		w.Status = domain.WithdrawalStatus(st)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *LedgerStore) UpdateDepositStatus(ctx context.Context, id uuid.UUID, expected, next domain.DepositStatus, fields reconcile.DepositFields) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE deposits
		SET status = $3, confirmed_at = COALESCE($4, confirmed_at)
		WHERE id = $1 AND status = $2`,
		id, string(expected), string(next), fields.ConfirmedAt)
	if err != nil {
		return false, fmt.Errorf("update deposit %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *LedgerStore) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, expected, next domain.WithdrawalStatus, fields reconcile.WithdrawalFields) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE withdrawals
		SET status = $3, tx_ref = COALESCE($4, tx_ref), processed_at = COALESCE($5, processed_at)
		WHERE id = $1 AND status = $2`,
		id, string(expected), string(next), fields.TxRef, fields.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("update withdrawal %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
