/*
This file contains the fixed-point helpers shared by the whole engine:
rescaling integer amounts between decimal precisions and multiply-then-divide
with an explicit rounding direction.
*/

package mathutil

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// NormalizedDecimals is the fixed fractional precision used for all internal
// accounting, independent of the managed asset's native precision.
const NormalizedDecimals = 18

// Rounding selects the direction a division result is pushed when it does not
// divide evenly.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrZeroDenominator  = errors.New("denominator is zero")
)

var ten = sdkmath.NewInt(10)

// pow10 returns 10^n as an Int. n is a decimal count, so it is always small.
func pow10(n uint8) sdkmath.Int {
	out := sdkmath.OneInt()
	for i := uint8(0); i < n; i++ {
		out = out.Mul(ten)
	}
	return out
}

// Rescale converts amount from one decimal precision to another. Scaling up is
// exact; scaling down divides by a power of ten using the given rounding
// direction.
func Rescale(amount sdkmath.Int, fromDecimals, toDecimals uint8, round Rounding) (sdkmath.Int, error) {
	if fromDecimals > NormalizedDecimals || toDecimals > NormalizedDecimals {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: from=%d to=%d (must be between 0 and %d)",
			ErrInvalidPrecision, fromDecimals, toDecimals, NormalizedDecimals)
	}
	if amount.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	switch {
	case fromDecimals == toDecimals:
		return amount, nil
	case fromDecimals < toDecimals:
		return amount.Mul(pow10(toDecimals - fromDecimals)), nil
	default:
		factor := pow10(fromDecimals - toDecimals)
		if round == RoundUp {
			return ceilDiv(amount, factor), nil
		}
		return amount.Quo(factor), nil
	}
}

// Normalize rescales a native-precision amount to the 18-digit internal scale.
func Normalize(amount sdkmath.Int, nativeDecimals uint8) (sdkmath.Int, error) {
	return Rescale(amount, nativeDecimals, NormalizedDecimals, RoundDown)
}

// Denormalize rescales an 18-digit internal amount back to native precision.
func Denormalize(amount sdkmath.Int, nativeDecimals uint8, round Rounding) (sdkmath.Int, error) {
	return Rescale(amount, NormalizedDecimals, nativeDecimals, round)
}

// MulDiv computes a * b / denom with the given rounding direction. All inputs
// must be non-negative; denom must be nonzero.
func MulDiv(a, b, denom sdkmath.Int, round Rounding) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() || denom.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if a.IsNegative() || b.IsNegative() || denom.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if denom.IsZero() {
		return sdkmath.ZeroInt(), ErrZeroDenominator
	}
	num := a.Mul(b)
	if round == RoundUp {
		return ceilDiv(num, denom), nil
	}
	return num.Quo(denom), nil
}

// ceilDiv divides num by denom rounding any remainder up.
func ceilDiv(num, denom sdkmath.Int) sdkmath.Int {
	q := num.Quo(denom)
	if !num.Mod(denom).IsZero() {
		q = q.Add(sdkmath.OneInt())
	}
	return q
}

// MinInt returns the smaller of a and b.
func MinInt(a, b sdkmath.Int) sdkmath.Int {
	if a.LT(b) {
		return a
	}
	return b
}
