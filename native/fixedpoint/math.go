// Package fixedpoint provides the decimal-scaled integer arithmetic shared by
// every monetary calculation in the engine. All division truncates toward
// zero, matching on-chain integer division; nothing in this package rounds up.
package fixedpoint

import "math/big"

var (
	// BasisPoints is the denominator for rates expressed in basis points.
	BasisPoints = big.NewInt(10_000)

	zero = big.NewInt(0)
	ten  = big.NewInt(10)
)

// Pow10 returns 10^decimals as a big integer scale factor.
func Pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)
}

// MulDiv computes a * b / denom with full intermediate precision and floor
// division. Nil operands or a zero denominator yield zero rather than
// panicking; callers validate prices and scales before reaching here.
func MulDiv(a, b, denom *big.Int) *big.Int {
	if a == nil || b == nil || denom == nil || denom.Sign() == 0 {
		return new(big.Int)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denom)
}

// ApplyBps scales amount by rate basis points: amount * bps / 10000.
func ApplyBps(amount *big.Int, bps uint64) *big.Int {
	return MulDiv(amount, new(big.Int).SetUint64(bps), BasisPoints)
}

// WithHeadroom inflates amount by the supplied basis points of headroom:
// amount * (10000 + bps) / 10000. Used when approving token allowances so
// rounding drift cannot leave the approval short.
func WithHeadroom(amount *big.Int, bps uint64) *big.Int {
	factor := new(big.Int).SetUint64(10_000 + bps)
	return MulDiv(amount, factor, BasisPoints)
}

// Min returns the smaller of a and b, treating nil as zero.
func Min(a, b *big.Int) *big.Int {
	if a == nil {
		a = zero
	}
	if b == nil {
		b = zero
	}
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// FloorSub returns a - b floored at zero, treating nil as zero.
func FloorSub(a, b *big.Int) *big.Int {
	if a == nil {
		a = zero
	}
	if b == nil {
		b = zero
	}
	diff := new(big.Int).Sub(a, b)
	if diff.Sign() < 0 {
		return new(big.Int)
	}
	return diff
}

// FormatUnits renders a scaled integer as a decimal string with the given
// number of fractional places. This is the one-way display boundary: its
// output is for humans and must never be parsed back into calculation paths.
func FormatUnits(amount *big.Int, decimals uint8, places int) string {
	if amount == nil {
		return "0"
	}
	if places < 0 {
		places = int(decimals)
	}
	rat := new(big.Rat).SetFrac(amount, Pow10(decimals))
	return rat.FloatString(places)
}
