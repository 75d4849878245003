package tron

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Tron addresses are 21 bytes: a 0x41 prefix followed by the 20-byte EVM-style
// account hash. They circulate either base58check-encoded ("T...") or as hex.
// Lowercase 41-prefixed hex is this adapter's canonical comparison form.

const addressPrefix = 0x41

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Index = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range base58Alphabet {
		idx[c] = int8(i)
	}
	return idx
}()

// CanonicalAddress converts any accepted address form (base58check "T...",
// "41..." hex, "0x41..." hex) to the canonical lowercase hex form. It rejects
// anything that is not a syntactically valid Tron account address.
func CanonicalAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	switch {
	case strings.HasPrefix(addr, "T") && len(addr) == 34:
		raw, err := base58CheckDecode(addr)
		if err != nil {
			return "", fmt.Errorf("address %q: %w", addr, err)
		}
		if len(raw) != 21 || raw[0] != addressPrefix {
			return "", fmt.Errorf("address %q: not a tron account address", addr)
		}
		return hex.EncodeToString(raw), nil
	case strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X"):
		return CanonicalAddress(addr[2:])
	case len(addr) == 42:
		raw, err := hex.DecodeString(addr)
		if err != nil {
			return "", fmt.Errorf("address %q: %w", addr, err)
		}
		if raw[0] != addressPrefix {
			return "", fmt.Errorf("address %q: missing 0x41 prefix", addr)
		}
		return strings.ToLower(addr), nil
	default:
		return "", fmt.Errorf("address %q: unrecognized format", addr)
	}
}

// Base58Address converts a canonical hex address to its base58check form.
func Base58Address(hexAddr string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexAddr, "0x"))
	if err != nil {
		return "", fmt.Errorf("address %q: %w", hexAddr, err)
	}
	if len(raw) != 21 || raw[0] != addressPrefix {
		return "", fmt.Errorf("address %q: not a tron account address", hexAddr)
	}
	return base58CheckEncode(raw), nil
}

func base58CheckEncode(payload []byte) string {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	full := append(append([]byte{}, payload...), second[:4]...)

	x := new(big.Int).SetBytes(full)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range full {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	// digits were produced least significant first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58CheckDecode(s string) ([]byte, error) {
	x := big.NewInt(0)
	radix := big.NewInt(58)
	for _, c := range s {
		if c >= 128 || base58Index[c] < 0 {
			return nil, fmt.Errorf("invalid base58 character %q", c)
		}
		x.Mul(x, radix)
		x.Add(x, big.NewInt(int64(base58Index[c])))
	}

	decoded := x.Bytes()
	// restore leading zero bytes encoded as '1'
	var zeros int
	for zeros < len(s) && s[zeros] == '1' {
		zeros++
	}
	full := append(make([]byte, zeros), decoded...)

	if len(full) < 5 {
		return nil, fmt.Errorf("base58 payload too short")
	}
	payload, checksum := full[:len(full)-4], full[len(full)-4:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(checksum, second[:4]) {
		return nil, fmt.Errorf("base58 checksum mismatch")
	}
	return payload, nil
}
