package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositConfirmed DepositStatus = "confirmed"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalSent     WithdrawalStatus = "sent"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// Deposit is a user-submitted claim that a TRC20 transfer into the hot wallet
// happened on chain. It is created pending and only the verifier may move it
// to confirmed; a confirmed deposit is immutable.
type Deposit struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TxID        string // chain transaction reference, supplied by the user
	Amount      decimal.Decimal
	Status      DepositStatus
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// Withdrawal is a request to pay out stablecoin to an external address.
// It is created pending, moved to approved by a human reviewer outside this
// engine, and settled by the settler to exactly one of sent or rejected.
type Withdrawal struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      decimal.Decimal
	ToAddress   string
	Status      WithdrawalStatus
	TxRef       *string // chain reference of the outbound transfer, set on sent
	ProcessedAt *time.Time
	CreatedAt   time.Time
}
