package lending

import (
	"math/big"

	"loanmesh/native/fixedpoint"
	"loanmesh/native/oracle"
)

// LiquidationSplit mirrors the contract's settlement arithmetic for display.
// The invariant ToLiquidator + ToBorrower == remainingCollateral always
// holds; the actual split is recomputed and enforced on-chain at execution.
type LiquidationSplit struct {
	DebtToPay         *big.Int
	DebtValueUSD      *big.Int
	CollateralForDebt *big.Int
	Bonus             *big.Int
	ToLiquidator      *big.Int
	ToBorrower        *big.Int
}

// ComputeLiquidationSplit derives the advisory liquidation payout: the
// collateral covering the debt plus the liquidation bonus goes to the
// liquidator, capped at the remaining escrow; the borrower keeps the rest.
func ComputeLiquidationSplit(
	outstandingDebt *big.Int,
	borrowPrice *big.Int,
	borrowDecimals uint8,
	collateralPrice *big.Int,
	collateralDecimals uint8,
	remainingCollateral *big.Int,
	bonusBps uint64,
) (LiquidationSplit, error) {
	if outstandingDebt == nil || outstandingDebt.Sign() == 0 {
		return LiquidationSplit{}, ErrNoOutstandingDebt
	}
	if borrowPrice == nil || borrowPrice.Sign() <= 0 || collateralPrice == nil || collateralPrice.Sign() <= 0 {
		return LiquidationSplit{}, oracle.ErrPriceUnavailable
	}
	if remainingCollateral == nil {
		remainingCollateral = big.NewInt(0)
	}
	if bonusBps == 0 {
		bonusBps = DefaultLiquidationBonusBps
	}

	debtValue := fixedpoint.MulDiv(outstandingDebt, borrowPrice, fixedpoint.Pow10(borrowDecimals))
	collateralForDebt := fixedpoint.MulDiv(debtValue, fixedpoint.Pow10(collateralDecimals), collateralPrice)
	bonus := fixedpoint.ApplyBps(collateralForDebt, bonusBps)

	toLiquidator := new(big.Int).Add(collateralForDebt, bonus)
	toLiquidator = fixedpoint.Min(toLiquidator, remainingCollateral)
	toBorrower := new(big.Int).Sub(remainingCollateral, toLiquidator)

	return LiquidationSplit{
		DebtToPay:         new(big.Int).Set(outstandingDebt),
		DebtValueUSD:      debtValue,
		CollateralForDebt: collateralForDebt,
		Bonus:             bonus,
		ToLiquidator:      toLiquidator,
		ToBorrower:        toBorrower,
	}, nil
}
