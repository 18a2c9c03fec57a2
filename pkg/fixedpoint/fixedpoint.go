// Package fixedpoint implements the 18-decimal scaled-integer arithmetic used
// throughout the relayer core: USD prices, fee fractions and allocation
// percentages are all represented as *big.Int scaled by Scale.
package fixedpoint

import "math/big"

// Scale is the fixed-point base: 10^18, matching on-chain 18-decimal tokens
// and USD price precision.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Uint256Max is the sentinel used for simulation failures (spec: RPC
// timeouts and failed gas simulations map to this value rather than an
// error, so downstream arithmetic treats the cost as prohibitively large).
var Uint256Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Zero is a convenience zero value; callers must never mutate it.
var Zero = big.NewInt(0)

// New wraps an int64 as a *big.Int for readability at call sites.
func New(v int64) *big.Int {
	return big.NewInt(v)
}

// FromScaledString parses a base-10 integer string already expressed in
// fixed-point units (e.g. "1000000000000000000" == 1.0).
func FromScaledString(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}

// MulFrac computes a * numer / denom using full-precision intermediate
// multiplication, flooring the division. denom must be non-zero; callers
// that need a ceiling division add 1 to the numerator's low bits
// themselves, mirroring the teacher convention of pushing rounding mode to
// the caller rather than hiding it in a shared helper.
func MulFrac(a, numer, denom *big.Int) *big.Int {
	if denom.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(a, numer)
	return out.Quo(out, denom)
}

// MulDiv is an alias of MulFrac kept for call sites that read more
// naturally as "multiply then divide" (gas-cost and allocation math).
func MulDiv(a, mul, div *big.Int) *big.Int {
	return MulFrac(a, mul, div)
}

// ToFP scales an integer amount expressed with fracDigits of precision up
// or down to the 18-decimal fixed-point Scale.
func ToFP(n *big.Int, fracDigits int) *big.Int {
	return ConvertDecimals(fracDigits, 18, n)
}

// ConvertDecimals rescales x from a `from`-decimal fixed-point
// representation to a `to`-decimal one. Lossless when to >= from;
// truncates (floors) toward zero when to < from, matching the spec's
// "division floors, callers add +1 for ceiling" convention.
func ConvertDecimals(from, to int, x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	if to == from {
		return new(big.Int).Set(x)
	}
	if to > from {
		mul := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(to-from)), nil)
		return new(big.Int).Mul(x, mul)
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(from-to)), nil)
	return new(big.Int).Quo(x, div)
}

// Mul multiplies two 18-decimal fixed-point values, rescaling the product
// back down to 18 decimals.
func Mul(a, b *big.Int) *big.Int {
	return MulFrac(a, b, Scale)
}

// Div divides two 18-decimal fixed-point values, keeping the quotient at
// 18-decimal scale.
func Div(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(a, Scale)
	return out.Quo(out, b)
}

// IsUint256Max reports whether v is the simulation-failure sentinel.
func IsUint256Max(v *big.Int) bool {
	return v != nil && v.Cmp(Uint256Max) == 0
}

// Max returns the larger of a and b.
func Max(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Abs returns the absolute value of v without mutating it.
func Abs(v *big.Int) *big.Int {
	return new(big.Int).Abs(v)
}
