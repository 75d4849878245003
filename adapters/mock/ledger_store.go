package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roydeenn-boop/invite-usdt-api/domain"
	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

// LedgerStore implements reconcile.LedgerStore in memory, with the same
// compare-and-swap semantics as the postgres adapter.
type LedgerStore struct {
	mu          sync.RWMutex
	deposits    map[uuid.UUID]*domain.Deposit
	withdrawals map[uuid.UUID]*domain.Withdrawal
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		deposits:    make(map[uuid.UUID]*domain.Deposit),
		withdrawals: make(map[uuid.UUID]*domain.Withdrawal),
	}
}

// AddDeposit seeds a pending deposit claim and returns its id.
func (s *LedgerStore) AddDeposit(userID uuid.UUID, txid string, amount decimal.Decimal) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	dep := &domain.Deposit{
		ID:        uuid.New(),
		UserID:    userID,
		TxID:      txid,
		Amount:    amount,
		Status:    domain.DepositPending,
		CreatedAt: time.Now().UTC(),
	}
	s.deposits[dep.ID] = dep
	return dep.ID
}

// AddWithdrawal seeds a withdrawal in the given status and returns its id.
func (s *LedgerStore) AddWithdrawal(userID uuid.UUID, amount decimal.Decimal, toAddress string, status domain.WithdrawalStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &domain.Withdrawal{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		ToAddress: toAddress,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	s.withdrawals[w.ID] = w
	return w.ID
}

// Deposit returns a copy of the deposit with the given id.
func (s *LedgerStore) Deposit(id uuid.UUID) (domain.Deposit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dep, ok := s.deposits[id]
	if !ok {
		return domain.Deposit{}, false
	}
	return *dep, true
}

// Withdrawal returns a copy of the withdrawal with the given id.
func (s *LedgerStore) Withdrawal(id uuid.UUID) (domain.Withdrawal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return domain.Withdrawal{}, false
	}
	return *w, true
}

func (s *LedgerStore) ListDepositsByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Deposit
	for _, dep := range s.deposits {
		if dep.Status == status {
			out = append(out, *dep)
		}
	}
	return out, nil
}

func (s *LedgerStore) ListWithdrawalsByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Withdrawal
	for _, w := range s.withdrawals {
		if w.Status == status {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (s *LedgerStore) UpdateDepositStatus(ctx context.Context, id uuid.UUID, expected, next domain.DepositStatus, fields reconcile.DepositFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dep, ok := s.deposits[id]
	if !ok || dep.Status != expected {
		return false, nil
	}
	dep.Status = next
	if fields.ConfirmedAt != nil {
		dep.ConfirmedAt = fields.ConfirmedAt
	}
	return true, nil
}

func (s *LedgerStore) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, expected, next domain.WithdrawalStatus, fields reconcile.WithdrawalFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok || w.Status != expected {
		return false, nil
	}
	w.Status = next
	if fields.TxRef != nil {
		w.TxRef = fields.TxRef
	}
	if fields.ProcessedAt != nil {
		w.ProcessedAt = fields.ProcessedAt
	}
	return true, nil
}
