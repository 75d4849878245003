// Package tron implements the reconcile.ChainClient port against a Tron full
// node's wallet API, with TRC20 transfer decoding and hot-wallet signing.
package tron

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/roydeenn-boop/invite-usdt-api/reconcile"

	tronclient "github.com/roydeenn-boop/invite-usdt-api/clients/tron"
)

const (
	transferSelector = "transfer(address,uint256)"

	// defaultFeeLimit caps the TRX burned for energy on an outbound TRC20
	// transfer, in sun. 100 TRX covers USDT transfers comfortably.
	defaultFeeLimit = 100_000_000
)

// ChainClient adapts the Tron wallet API to the reconcile.ChainClient port.
type ChainClient struct {
	client   *tronclient.Client
	feeLimit int64
	logger   *slog.Logger
}

func NewChainClient(client *tronclient.Client, logger *slog.Logger) *ChainClient {
	return &ChainClient{
		client:   client,
		feeLimit: defaultFeeLimit,
		logger:   logger,
	}
}

// GetTransaction fetches execution info and computes the confirmation depth
// against the current head block.
func (c *ChainClient) GetTransaction(ctx context.Context, ref string) (*reconcile.TransactionInfo, error) {
	info, err := c.client.GetTransactionInfoByID(ctx, ref)
	if err != nil {
		return nil, &reconcile.TransientError{Op: "get transaction info", Err: err}
	}
	if info == nil {
		return nil, reconcile.ErrTxNotFound
	}

	head, err := c.client.GetNowBlockNumber(ctx)
	if err != nil {
		return nil, &reconcile.TransientError{Op: "get head block", Err: err}
	}

	out := &reconcile.TransactionInfo{
		TxID:        info.ID,
		BlockNumber: info.BlockNumber,
		// TVM receipts carry SUCCESS for executed TRC20 calls; plain TRX
		// transfers have no receipt result at all.
		Success: info.Receipt.Result == "" || info.Receipt.Result == "SUCCESS",
	}
	if head >= info.BlockNumber {
		out.Confirmations = head - info.BlockNumber + 1
	}
	for _, l := range info.Log {
		out.Logs = append(out.Logs, reconcile.EventLog{
			Address: l.Address,
			Topics:  l.Topics,
			Data:    l.Data,
		})
	}
	return out, nil
}

func (c *ChainClient) DecodeTransferEvents(info *reconcile.TransactionInfo) []reconcile.TransferEvent {
	return decodeTransferEvents(info.Logs)
}

func (c *ChainClient) ValidateAddress(addr string) error {
	if _, err := CanonicalAddress(addr); err != nil {
		return &reconcile.ValidationError{Reason: "malformed address", Err: err}
	}
	return nil
}

// BroadcastTransfer builds a TRC20 transfer call on the node, signs its digest
// with the pass signer, and submits it. The node building or refusing the
// transaction is a definitive rejection; transport failures surface as
// transient errors because the outcome is unknown.
func (c *ChainClient) BroadcastTransfer(ctx context.Context, tokenContract, toAddress string, amountRaw *big.Int, signer reconcile.Signer) (*reconcile.BroadcastResult, error) {
	toHex, err := CanonicalAddress(toAddress)
	if err != nil {
		return &reconcile.BroadcastResult{Accepted: false, Reason: err.Error()}, nil
	}
	tokenHex, err := CanonicalAddress(tokenContract)
	if err != nil {
		return &reconcile.BroadcastResult{Accepted: false, Reason: err.Error()}, nil
	}

	trigger, err := c.client.TriggerSmartContract(ctx, tronclient.TriggerRequest{
		OwnerAddress:     signer.Address(),
		ContractAddress:  tokenHex,
		FunctionSelector: transferSelector,
		Parameter:        encodeTransferParams(toHex, amountRaw),
		FeeLimit:         c.feeLimit,
	})
	if err != nil {
		return nil, &reconcile.TransientError{Op: "build transfer", Err: err}
	}
	if !trigger.Result.Result {
		reason := tronclient.DecodeMessage(trigger.Result.Message)
		if reason == "" {
			reason = trigger.Result.Code
		}
		return &reconcile.BroadcastResult{Accepted: false, Reason: reason}, nil
	}

	signedTx, txID, err := signTransaction(trigger.Transaction, signer)
	if err != nil {
		return nil, fmt.Errorf("sign transfer: %w", err)
	}

	resp, err := c.client.BroadcastTransaction(ctx, signedTx)
	if err != nil {
		// The request may or may not have reached the pool. Unknown outcome.
		return nil, &reconcile.TransientError{Op: "broadcast transfer", Err: err}
	}
	if !resp.Result {
		// A duplicate means an earlier attempt with unknown outcome actually
		// made it into the pool. The transfer is out there; report accepted.
		if resp.Code == "DUP_TRANSACTION_ERROR" {
			c.logger.Warn("broadcast was a duplicate, treating as accepted", "txid", txID)
			return &reconcile.BroadcastResult{Accepted: true, TxID: txID}, nil
		}
		reason := tronclient.DecodeMessage(resp.Message)
		if reason == "" {
			reason = resp.Code
		}
		return &reconcile.BroadcastResult{Accepted: false, Reason: reason}, nil
	}

	return &reconcile.BroadcastResult{Accepted: true, TxID: txID}, nil
}

// encodeTransferParams ABI-encodes the (address,uint256) argument block for
// transfer: two 32-byte words, the account hash right-aligned in the first.
func encodeTransferParams(toHex string, amountRaw *big.Int) string {
	return leftPad64(toHex[2:]) + leftPad64(amountRaw.Text(16)) // strip the 41 prefix
}

func leftPad64(s string) string {
	if len(s) >= 64 {
		return s[len(s)-64:]
	}
	return strings.Repeat("0", 64-len(s)) + s
}

// signTransaction attaches the signer's signature to the node-built unsigned
// transaction. The txID is the sha256 digest of the raw transaction, which is
// exactly what gets signed.
func signTransaction(unsigned json.RawMessage, signer reconcile.Signer) (json.RawMessage, string, error) {
	var tx map[string]any
	if err := json.Unmarshal(unsigned, &tx); err != nil {
		return nil, "", fmt.Errorf("decode unsigned tx: %w", err)
	}
	txID, _ := tx["txID"].(string)
	if txID == "" {
		return nil, "", fmt.Errorf("unsigned tx carries no txID")
	}
	digest, err := hex.DecodeString(txID)
	if err != nil {
		return nil, "", fmt.Errorf("txID is not hex: %w", err)
	}

	sig, err := signer.SignDigest(digest)
	if err != nil {
		return nil, "", err
	}
	tx["signature"] = []string{hex.EncodeToString(sig)}

	signed, err := json.Marshal(tx)
	if err != nil {
		return nil, "", fmt.Errorf("encode signed tx: %w", err)
	}
	return signed, txID, nil
}
