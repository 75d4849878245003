package tron

import (
	"math/big"
	"strings"

	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

// keccak256("Transfer(address,address,uint256)"), the TRC20/ERC20 transfer
// event signature.
const transferTopic = "ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// decodeTransferEvents extracts every TRC20 Transfer from a transaction's raw
// logs. Logs that are not well-formed transfers are ignored; this is a
// decoder, not a validator.
func decodeTransferEvents(logs []reconcile.EventLog) []reconcile.TransferEvent {
	var events []reconcile.TransferEvent
	for _, l := range logs {
		if len(l.Topics) < 3 {
			continue
		}
		topic0 := strings.TrimPrefix(strings.ToLower(l.Topics[0]), "0x")
		if topic0 != transferTopic {
			continue
		}

		contract, ok := canonicalLogAddress(l.Address)
		if !ok {
			continue
		}
		to, ok := topicAddress(l.Topics[2])
		if !ok {
			continue
		}

		data := strings.TrimPrefix(strings.ToLower(l.Data), "0x")
		amount, ok := new(big.Int).SetString(data, 16)
		if !ok || data == "" {
			continue
		}

		events = append(events, reconcile.TransferEvent{
			Contract:  contract,
			To:        to,
			AmountRaw: amount,
		})
	}
	return events
}

// canonicalLogAddress normalizes the emitting contract address. Tron nodes
// report log addresses as 20-byte hex without the 0x41 prefix.
func canonicalLogAddress(addr string) (string, bool) {
	addr = strings.TrimPrefix(strings.ToLower(addr), "0x")
	switch len(addr) {
	case 40:
		return "41" + addr, true
	case 42:
		if strings.HasPrefix(addr, "41") {
			return addr, true
		}
	}
	return "", false
}

// topicAddress extracts a canonical address from a 32-byte indexed topic: the
// account hash occupies the low 20 bytes.
func topicAddress(topic string) (string, bool) {
	topic = strings.TrimPrefix(strings.ToLower(topic), "0x")
	if len(topic) != 64 {
		return "", false
	}
	return "41" + topic[24:], true
}
