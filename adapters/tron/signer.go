package tron

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeySigner implements reconcile.Signer over a secp256k1 hot-wallet
// key. It is built per settlement pass and must be closed when the pass ends;
// Close wipes the private scalar.
type PrivateKeySigner struct {
	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	address string // canonical hex form
}

// NewPrivateKeySigner parses a hex-encoded secp256k1 private key and derives
// the hot wallet address from it.
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, err
	}
	addr, err := addressFromPubkey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &PrivateKeySigner{key: key, address: addr}, nil
}

// AddressFromPrivateKey derives the canonical hot wallet address for a key
// without retaining any key material.
func AddressFromPrivateKey(hexKey string) (string, error) {
	s, err := NewPrivateKeySigner(hexKey)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Address(), nil
}

func addressFromPubkey(pub *ecdsa.PublicKey) (string, error) {
	// Same account hash as Ethereum, with Tron's 0x41 prefix in place of 0x.
	ethAddr := crypto.PubkeyToAddress(*pub)
	return CanonicalAddress("41" + hex.EncodeToString(ethAddr.Bytes()))
}

func (s *PrivateKeySigner) Address() string {
	return s.address
}

// SignDigest signs a 32-byte transaction digest, producing the 65-byte
// [R || S || V] signature the node expects.
func (s *PrivateKeySigner) SignDigest(digest []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil, errors.New("signer is closed")
	}
	if len(digest) != 32 {
		return nil, errors.New("digest must be 32 bytes")
	}
	return crypto.Sign(digest, s.key)
}

// Close zeroes the private scalar. The signer is unusable afterwards.
func (s *PrivateKeySigner) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		s.key.D.SetInt64(0)
		s.key = nil
	}
}
