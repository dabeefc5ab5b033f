package lending

import (
	"fmt"
	"math/big"

	"loanmesh/native/fixedpoint"
)

// RepayKind distinguishes the two repayment paths. Only RepayFull may bypass
// the price freshness gate; callers branch on the kind explicitly.
type RepayKind int

const (
	RepayPartial RepayKind = iota
	RepayFull
)

// fullRepayToleranceBps is the 0.1% band around the outstanding balance in
// which a repayment snaps to the exact remaining debt.
const fullRepayToleranceBps = 10

// NormalizeRepayment classifies a repayment against the outstanding balance.
// Amounts within 0.1% of the full balance (in either direction) normalize to
// exactly the outstanding debt so rounding artifacts cannot block a "pay it
// all off" action. Amounts above the tolerance fail with ErrAmountExceedsDebt.
func NormalizeRepayment(amount, outstanding *big.Int) (*big.Int, RepayKind, error) {
	if outstanding == nil || outstanding.Sign() == 0 {
		return nil, RepayPartial, ErrNoOutstandingDebt
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, RepayPartial, ErrInvalidAmount
	}

	diff := new(big.Int).Sub(outstanding, amount)
	tolerance := fixedpoint.ApplyBps(outstanding, fullRepayToleranceBps)
	if diff.CmpAbs(tolerance) <= 0 {
		return new(big.Int).Set(outstanding), RepayFull, nil
	}
	if diff.Sign() < 0 {
		return nil, RepayPartial, fmt.Errorf("%w: %s over %s outstanding", ErrAmountExceedsDebt, amount, outstanding)
	}
	return new(big.Int).Set(amount), RepayPartial, nil
}

// MinPartialRepayment converts the configured USD-cent floor into the
// repayment asset at the live price. The result floors like all engine math;
// a floor of zero disables the minimum.
func MinPartialRepayment(floorUSDCents *big.Int, assetPrice *big.Int, assetDecimals uint8) *big.Int {
	if floorUSDCents == nil || floorUSDCents.Sign() <= 0 || assetPrice == nil || assetPrice.Sign() <= 0 {
		return big.NewInt(0)
	}
	// cents -> 1e8-scaled USD, then into asset units at the live price.
	valueUSD := new(big.Int).Mul(floorUSDCents, usdCentScale)
	return fixedpoint.MulDiv(valueUSD, fixedpoint.Pow10(assetDecimals), assetPrice)
}

// ValidatePartialRepayment enforces the minimum on partial repayments. Full
// repayments are exempt.
func ValidatePartialRepayment(amount, minimum *big.Int, kind RepayKind) error {
	if kind == RepayFull {
		return nil
	}
	if minimum == nil || minimum.Sign() <= 0 {
		return nil
	}
	if amount == nil || amount.Cmp(minimum) < 0 {
		return fmt.Errorf("%w: minimum %s", ErrRepaymentBelowMinimum, minimum)
	}
	return nil
}
