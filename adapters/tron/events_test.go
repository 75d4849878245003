package tron

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

const (
	recipientWord = "000000000000000000000000b5c2f8a1d3e4956677889900aabbccddeeff0011"
	senderWord    = "0000000000000000000000001111111111111111111111111111111111111111"
)

func transferLog() reconcile.EventLog {
	return reconcile.EventLog{
		Address: "a614f803b6fd780986a42c78ec9c7f77e6ded13c", // node reports without the 41 prefix
		Topics: []string{
			transferTopic,
			senderWord,
			recipientWord,
		},
		Data: "0000000000000000000000000000000000000000000000000000000005f5e100", // 100000000
	}
}

func TestDecodeTransferEvents(t *testing.T) {
	events := decodeTransferEvents([]reconcile.EventLog{transferLog()})

	require.Len(t, events, 1)
	assert.Equal(t, "41a614f803b6fd780986a42c78ec9c7f77e6ded13c", events[0].Contract)
	assert.Equal(t, "41b5c2f8a1d3e4956677889900aabbccddeeff0011", events[0].To)
	assert.Equal(t, big.NewInt(100_000_000), events[0].AmountRaw)
}

func TestDecodeTransferEventsIgnoresForeignEvents(t *testing.T) {
	approval := transferLog()
	approval.Topics[0] = "8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925" // Approval

	missingTopics := transferLog()
	missingTopics.Topics = missingTopics.Topics[:2]

	emptyData := transferLog()
	emptyData.Data = ""

	events := decodeTransferEvents([]reconcile.EventLog{approval, missingTopics, emptyData})
	assert.Empty(t, events)
}

func TestDecodeTransferEventsHandlesPrefixedForms(t *testing.T) {
	l := transferLog()
	l.Address = "0x" + l.Address
	l.Topics[0] = "0x" + l.Topics[0]
	l.Topics[2] = "0x" + l.Topics[2]
	l.Data = "0x" + l.Data

	events := decodeTransferEvents([]reconcile.EventLog{l})
	require.Len(t, events, 1)
	assert.Equal(t, big.NewInt(100_000_000), events[0].AmountRaw)
}

func TestEncodeTransferParams(t *testing.T) {
	got := encodeTransferParams("41b5c2f8a1d3e4956677889900aabbccddeeff0011", big.NewInt(50_500_000))
	want := recipientWord + "00000000000000000000000000000000000000000000000000000000030291a0"
	assert.Equal(t, want, got)
}
