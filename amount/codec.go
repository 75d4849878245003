// Package amount converts between human-readable decimal amounts and the
// token's on-chain integer base unit. All conversions are exact; nothing in
// this package touches binary floating point.
package amount

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// USDTPrecision is the declared decimal precision of TRC20 USDT.
const USDTPrecision = 6

var (
	// ErrPrecision marks an amount with more fractional digits than the
	// token supports. Such amounts are rejected, never truncated.
	ErrPrecision = errors.New("amount exceeds token precision")

	// ErrNotPositive marks a zero or negative amount.
	ErrNotPositive = errors.New("amount must be positive")
)

// Codec performs fixed-point conversion for a token with a declared decimal
// precision. The zero value is unusable; construct with New.
type Codec struct {
	precision int32
}

func New(precision int32) Codec {
	return Codec{precision: precision}
}

// Precision returns the declared decimal precision.
func (c Codec) Precision() int32 {
	return c.precision
}

// ToBaseUnits converts a decimal amount to the chain's integer unit.
// 100.25 at precision 6 becomes 100250000. Amounts with fractional digits
// beyond the precision, and non-positive amounts, are rejected.
func (c Codec) ToBaseUnits(d decimal.Decimal) (*big.Int, error) {
	if !d.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrNotPositive, d.String())
	}
	shifted := d.Shift(c.precision)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d fractional digits", ErrPrecision, d.String(), c.precision)
	}
	return shifted.BigInt(), nil
}

// FromBaseUnits converts an integer unit amount back to its decimal form.
// The conversion is exact for any integer input.
func (c Codec) FromBaseUnits(raw *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -c.precision)
}

// EqualsBaseUnits reports whether a decimal amount corresponds exactly to the
// given raw integer amount. Amounts that are not representable at the codec's
// precision never match anything.
func (c Codec) EqualsBaseUnits(d decimal.Decimal, raw *big.Int) bool {
	want, err := c.ToBaseUnits(d)
	if err != nil {
		return false
	}
	return want.Cmp(raw) == 0
}
