package mock

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

// ChainClient implements reconcile.ChainClient for tests and demos. Chain
// state is seeded through the Simulate* helpers; broadcast behavior is
// scriptable per destination address.
type ChainClient struct {
	mu           sync.RWMutex
	transactions map[string]*reconcile.TransactionInfo
	events       map[string][]reconcile.TransferEvent
	lookupErr    map[string]error // per-reference forced lookup failures

	broadcastSeq   int
	broadcasts     []BroadcastCall
	rejectAddrs    map[string]string // destination -> refusal reason
	transientAddrs map[string]bool   // destination -> timeout, outcome unknown
	invalidAddrs   map[string]bool
}

// BroadcastCall records one broadcast attempt for assertions.
type BroadcastCall struct {
	Token     string
	To        string
	AmountRaw *big.Int
	Signer    string
}

func NewChainClient() *ChainClient {
	return &ChainClient{
		transactions:   make(map[string]*reconcile.TransactionInfo),
		events:         make(map[string][]reconcile.TransferEvent),
		lookupErr:      make(map[string]error),
		rejectAddrs:    make(map[string]string),
		transientAddrs: make(map[string]bool),
		invalidAddrs:   make(map[string]bool),
	}
}

// SimulateTransaction seeds a confirmed, successful transaction carrying the
// given transfer events.
func (c *ChainClient) SimulateTransaction(txid string, confirmations int64, events ...reconcile.TransferEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions[txid] = &reconcile.TransactionInfo{
		TxID:          txid,
		BlockNumber:   1,
		Confirmations: confirmations,
		Success:       true,
	}
	c.events[txid] = events
}

// SimulateRevertedTransaction seeds a transaction whose execution failed.
func (c *ChainClient) SimulateRevertedTransaction(txid string, events ...reconcile.TransferEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions[txid] = &reconcile.TransactionInfo{
		TxID:          txid,
		BlockNumber:   1,
		Confirmations: 10,
		Success:       false,
	}
	c.events[txid] = events
}

// SimulateLookupFailure makes GetTransaction fail transiently for a reference.
func (c *ChainClient) SimulateLookupFailure(txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookupErr[txid] = &reconcile.TransientError{Op: "get transaction", Err: fmt.Errorf("node unavailable")}
}

// RejectBroadcastsTo makes broadcasts to addr fail with a definitive refusal.
func (c *ChainClient) RejectBroadcastsTo(addr, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejectAddrs[addr] = reason
}

// TimeoutBroadcastsTo makes broadcasts to addr time out with no outcome.
func (c *ChainClient) TimeoutBroadcastsTo(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transientAddrs[addr] = true
}

// MarkAddressInvalid makes ValidateAddress fail for addr.
func (c *ChainClient) MarkAddressInvalid(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidAddrs[addr] = true
}

// Broadcasts returns a copy of every broadcast attempt seen so far.
func (c *ChainClient) Broadcasts() []BroadcastCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BroadcastCall, len(c.broadcasts))
	copy(out, c.broadcasts)
	return out
}

func (c *ChainClient) GetTransaction(ctx context.Context, ref string) (*reconcile.TransactionInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err, ok := c.lookupErr[ref]; ok {
		return nil, err
	}
	info, ok := c.transactions[ref]
	if !ok {
		return nil, reconcile.ErrTxNotFound
	}
	cp := *info
	return &cp, nil
}

func (c *ChainClient) DecodeTransferEvents(info *reconcile.TransactionInfo) []reconcile.TransferEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events[info.TxID]
}

func (c *ChainClient) ValidateAddress(addr string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.invalidAddrs[addr] || strings.TrimSpace(addr) == "" {
		return &reconcile.ValidationError{Reason: fmt.Sprintf("invalid address %q", addr)}
	}
	return nil
}

func (c *ChainClient) BroadcastTransfer(ctx context.Context, tokenContract, toAddress string, amountRaw *big.Int, signer reconcile.Signer) (*reconcile.BroadcastResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transientAddrs[toAddress] {
		return nil, &reconcile.TransientError{Op: "broadcast", Err: fmt.Errorf("timeout waiting for node")}
	}

	c.broadcasts = append(c.broadcasts, BroadcastCall{
		Token:     tokenContract,
		To:        toAddress,
		AmountRaw: new(big.Int).Set(amountRaw),
		Signer:    signer.Address(),
	})

	if reason, ok := c.rejectAddrs[toAddress]; ok {
		return &reconcile.BroadcastResult{Accepted: false, Reason: reason}, nil
	}

	c.broadcastSeq++
	return &reconcile.BroadcastResult{
		Accepted: true,
		TxID:     fmt.Sprintf("tx_mock_%04d", c.broadcastSeq),
	}, nil
}
