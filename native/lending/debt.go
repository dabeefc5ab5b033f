package lending

import (
	"math/big"

	"loanmesh/core/types"
	"loanmesh/native/fixedpoint"
)

// HealthStatus buckets a health factor for display.
type HealthStatus string

const (
	HealthStatusHealthy HealthStatus = "healthy"
	HealthStatusWarning HealthStatus = "warning"
	HealthStatusDanger  HealthStatus = "danger"
)

const (
	healthyFloorPercent = 150
	warningFloorPercent = 100
)

// TotalInterest applies the flat rate once over the full term:
// principal * rateBps / 10000. Interest is fixed at origination and does not
// shrink with early repayment.
func TotalInterest(principal *big.Int, rateBps uint64) *big.Int {
	return fixedpoint.ApplyBps(principal, rateBps)
}

// TotalRepaymentDue is principal plus flat interest.
func TotalRepaymentDue(principal *big.Int, rateBps uint64) *big.Int {
	if principal == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Add(principal, TotalInterest(principal, rateBps))
}

// EnsureComplete reports whether every input a debt calculation needs is
// populated. Callers render a pending placeholder instead of zeros while any
// field is missing.
func EnsureComplete(loan *types.Loan) error {
	if loan == nil || loan.Principal == nil || loan.AmountRepaid == nil ||
		loan.CollateralAmount == nil || loan.CollateralReleased == nil {
		return ErrPending
	}
	return nil
}

// OutstandingDebt returns totalRepaymentDue - amountRepaid floored at zero.
func OutstandingDebt(loan *types.Loan) *big.Int {
	if loan == nil {
		return big.NewInt(0)
	}
	due := TotalRepaymentDue(loan.Principal, loan.InterestRateBps)
	return fixedpoint.FloorSub(due, loan.AmountRepaid)
}

// OutstandingDebtFiat mirrors OutstandingDebt for fiat loans, in integer
// cents.
func OutstandingDebtFiat(loan *types.FiatLoan) *big.Int {
	if loan == nil {
		return big.NewInt(0)
	}
	due := TotalRepaymentDue(loan.PrincipalCents, loan.InterestRateBps)
	return fixedpoint.FloorSub(due, loan.AmountRepaidCents)
}

// DebtValueUSD converts an outstanding token debt into 1e8-scaled USD.
func DebtValueUSD(outstanding, borrowPrice *big.Int, borrowDecimals uint8) *big.Int {
	return fixedpoint.MulDiv(outstanding, borrowPrice, fixedpoint.Pow10(borrowDecimals))
}

// CollateralValueUSD converts remaining escrow into 1e8-scaled USD.
func CollateralValueUSD(remaining, collateralPrice *big.Int, collateralDecimals uint8) *big.Int {
	return fixedpoint.MulDiv(remaining, collateralPrice, fixedpoint.Pow10(collateralDecimals))
}

// ComputeHealthFactor returns (collateralValueUSD / debtValueUSD) * 100 as a
// percentage, or nil when debt is zero: the factor is undefined and renders
// as "--".
func ComputeHealthFactor(remainingCollateralValueUSD, debtValueUSD *big.Int) *big.Int {
	if debtValueUSD == nil || debtValueUSD.Sign() == 0 {
		return nil
	}
	if remainingCollateralValueUSD == nil {
		return big.NewInt(0)
	}
	return fixedpoint.MulDiv(remainingCollateralValueUSD, big.NewInt(100), debtValueUSD)
}

// ClassifyHealth buckets a health factor percentage. A nil factor (no debt)
// reads as healthy.
func ClassifyHealth(healthFactor *big.Int) HealthStatus {
	if healthFactor == nil {
		return HealthStatusHealthy
	}
	if healthFactor.Cmp(big.NewInt(healthyFloorPercent)) >= 0 {
		return HealthStatusHealthy
	}
	if healthFactor.Cmp(big.NewInt(warningFloorPercent)) >= 0 {
		return HealthStatusWarning
	}
	return HealthStatusDanger
}

// LiquidationEligible reports whether the position sits below the pair's
// liquidation threshold. The comparison is done in basis points without
// dividing first so no precision is lost. The binding decision is always the
// on-chain simulation; this is advisory.
func LiquidationEligible(remainingCollateralValueUSD, debtValueUSD *big.Int, thresholdBps uint64) bool {
	if debtValueUSD == nil || debtValueUSD.Sign() == 0 {
		return false
	}
	if remainingCollateralValueUSD == nil || remainingCollateralValueUSD.Sign() == 0 {
		return true
	}
	num := new(big.Int).Mul(remainingCollateralValueUSD, fixedpoint.BasisPoints)
	den := new(big.Int).Mul(debtValueUSD, new(big.Int).SetUint64(thresholdBps))
	return num.Cmp(den) < 0
}
