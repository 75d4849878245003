// Package tron is a thin HTTP/JSON client for a Tron full node or TronGrid.
// It only speaks the wire protocol; interpretation of transactions and events
// lives in the chain adapter.
package tron

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const apiKeyHeader = "TRON-PRO-API-KEY"

// Config holds connection configuration.
type Config struct {
	BaseURL string // e.g. https://api.trongrid.io
	APIKey  string // optional TronGrid API key
	Timeout time.Duration
}

// Client wraps HTTP access to the node's wallet API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// TransactionInfo mirrors the wallet/gettransactioninfobyid response. The node
// returns an empty object for unknown transaction ids.
type TransactionInfo struct {
	ID              string `json:"id"`
	BlockNumber     int64  `json:"blockNumber"`
	ContractAddress string `json:"contract_address"`
	Receipt         struct {
		Result string `json:"result"`
	} `json:"receipt"`
	Log []EventLog `json:"log"`
}

// EventLog is one raw TVM log entry.
type EventLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// GetTransactionInfoByID fetches execution info for a transaction. It returns
// (nil, nil) when the node does not know the id.
func (c *Client) GetTransactionInfoByID(ctx context.Context, txid string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := c.post(ctx, "/wallet/gettransactioninfobyid", map[string]string{"value": txid}, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, nil
	}
	return &info, nil
}

// GetNowBlockNumber returns the current head block height.
func (c *Client) GetNowBlockNumber(ctx context.Context) (int64, error) {
	var resp struct {
		BlockHeader struct {
			RawData struct {
				Number int64 `json:"number"`
			} `json:"raw_data"`
		} `json:"block_header"`
	}
	if err := c.post(ctx, "/wallet/getnowblock", map[string]string{}, &resp); err != nil {
		return 0, err
	}
	return resp.BlockHeader.RawData.Number, nil
}

// TriggerRequest describes a smart contract call to be built by the node.
// Addresses are hex form (41-prefixed).
type TriggerRequest struct {
	OwnerAddress     string `json:"owner_address"`
	ContractAddress  string `json:"contract_address"`
	FunctionSelector string `json:"function_selector"`
	Parameter        string `json:"parameter"`
	FeeLimit         int64  `json:"fee_limit"`
	CallValue        int64  `json:"call_value"`
}

// TriggerResult carries the node-built unsigned transaction plus the build
// outcome. Message is hex-encoded by the node; DecodeMessage unpacks it.
type TriggerResult struct {
	Result struct {
		Result  bool   `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"result"`
	Transaction json.RawMessage `json:"transaction"`
}

// TriggerSmartContract asks the node to build an unsigned contract call.
func (c *Client) TriggerSmartContract(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	var res TriggerResult
	if err := c.post(ctx, "/wallet/triggersmartcontract", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BroadcastResponse mirrors wallet/broadcasttransaction.
type BroadcastResponse struct {
	Result  bool   `json:"result"`
	Code    string `json:"code"`
	Message string `json:"message"`
	TxID    string `json:"txid"`
}

// BroadcastTransaction submits a signed transaction to the node's pool.
func (c *Client) BroadcastTransaction(ctx context.Context, signedTx json.RawMessage) (*BroadcastResponse, error) {
	var res BroadcastResponse
	if err := c.post(ctx, "/wallet/broadcasttransaction", signedTx, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DecodeMessage unpacks the hex-encoded message field the node puts in error
// responses. Returns the input unchanged if it is not valid hex.
func DecodeMessage(hexMsg string) string {
	b, err := hex.DecodeString(hexMsg)
	if err != nil {
		return hexMsg
	}
	return string(b)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("node returned non-200", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%s: node returned status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}
