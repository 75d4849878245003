package reconcile

import (
	"context"
	"math/big"
)

// TransactionInfo is the chain-side view of a transaction referenced by a
// deposit claim. Logs are carried raw; DecodeTransferEvents interprets them.
type TransactionInfo struct {
	TxID          string
	BlockNumber   int64
	Confirmations int64
	Success       bool // execution receipt outcome; a reverted call never confirms anything
	Logs          []EventLog
}

// EventLog is one raw contract log entry as reported by the node.
type EventLog struct {
	Address string   // emitting contract, canonical form
	Topics  []string // hex-encoded, topic 0 is the event signature
	Data    string   // hex-encoded payload
}

// TransferEvent is a decoded token-transfer log: which contract moved how much
// to whom. Addresses are in the adapter's canonical form.
type TransferEvent struct {
	Contract  string
	To        string
	AmountRaw *big.Int
}

// BroadcastResult is the definitive outcome of a transfer broadcast attempt.
// Accepted=false means the node positively refused the transaction; transport
// failures where the outcome is unknown are returned as errors instead.
type BroadcastResult struct {
	Accepted bool
	TxID     string
	Reason   string // node-supplied refusal reason when not accepted
}

// ChainClient is the port to the external blockchain node or indexer.
// Implementations must distinguish "reference not visible yet" (ErrTxNotFound)
// from infrastructure failures (TransientError): the first is a legitimate
// pending state, the second must not mutate anything.
type ChainClient interface {
	// GetTransaction fetches execution details for a transaction reference.
	// Returns ErrTxNotFound if the reference is not (yet) known to the chain.
	GetTransaction(ctx context.Context, ref string) (*TransactionInfo, error)

	// DecodeTransferEvents extracts all token-transfer events from a
	// transaction, regardless of which contract emitted them.
	DecodeTransferEvents(info *TransactionInfo) []TransferEvent

	// ValidateAddress checks that an address is syntactically valid for this
	// chain. A failure is permanent for the record carrying the address.
	ValidateAddress(addr string) error

	// BroadcastTransfer submits a signed token transfer. A returned
	// BroadcastResult is a definitive accept or refuse; an error means the
	// outcome is unknown and the caller must not assume either.
	BroadcastTransfer(ctx context.Context, tokenContract, toAddress string, amountRaw *big.Int, signer Signer) (*BroadcastResult, error)
}

// Signer holds the hot-wallet signing capability for the duration of one
// settlement pass. It is constructed at pass start, never shared with the
// verifier or any read path, and Close must wipe the key material.
type Signer interface {
	// Address returns the canonical address controlled by this signer.
	Address() string

	// SignDigest signs a 32-byte transaction digest.
	SignDigest(digest []byte) ([]byte, error)

	// Close releases the signing capability and zeroes key material.
	Close()
}

// SignerFunc builds a Signer for a single settlement pass. A nil SignerFunc,
// or one that fails, aborts the pass before any broadcast (fail-closed).
type SignerFunc func() (Signer, error)
