package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roydeenn-boop/invite-usdt-api/domain"
)

// DepositFields carries the extra columns written alongside a deposit status
// transition.
type DepositFields struct {
	ConfirmedAt *time.Time
}

// WithdrawalFields carries the extra columns written alongside a withdrawal
// status transition.
type WithdrawalFields struct {
	TxRef       *string
	ProcessedAt *time.Time
}

// LedgerStore is the port to the persistent record repository. Status updates
// are conditional on the record's current status (compare-and-swap): a false
// return means the precondition failed because someone else already moved the
// record, and the caller must treat the record as handled.
type LedgerStore interface {
	ListDepositsByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.Deposit, error)
	ListWithdrawalsByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]domain.Withdrawal, error)

	UpdateDepositStatus(ctx context.Context, id uuid.UUID, expected, next domain.DepositStatus, fields DepositFields) (bool, error)
	UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, expected, next domain.WithdrawalStatus, fields WithdrawalFields) (bool, error)
}
