package lending

import (
	"math/big"

	"loanmesh/core/types"
	"loanmesh/native/fixedpoint"
	"loanmesh/native/oracle"
)

// BorrowQuote is the derived view for a candidate borrow at a selected LTV.
// CollateralValueUSD and LoanValueUSD are 1e8-scaled USD; BorrowAmount is in
// the borrow asset's smallest unit (or integer cents for fiat targets).
type BorrowQuote struct {
	CollateralValueUSD *big.Int
	LoanValueUSD       *big.Int
	BorrowAmount       *big.Int
	AppliedLTVBps      uint64
}

// MaxBorrow computes the borrowable amount of a crypto target asset for the
// given collateral position and selected LTV. The selected LTV is clamped
// into [MinLTVBps, params.MaxLTVBps] before any arithmetic.
func MaxBorrow(
	collateralAmount *big.Int,
	collateralPrice *big.Int,
	collateralDecimals uint8,
	selectedLTVBps uint64,
	params RiskParameters,
	borrowPrice *big.Int,
	borrowDecimals uint8,
) (BorrowQuote, error) {
	if collateralAmount == nil || collateralAmount.Sign() <= 0 {
		return BorrowQuote{}, ErrInvalidAmount
	}
	if collateralPrice == nil || collateralPrice.Sign() <= 0 || borrowPrice == nil || borrowPrice.Sign() <= 0 {
		return BorrowQuote{}, oracle.ErrPriceUnavailable
	}

	applied := ClampLTV(selectedLTVBps, params.MaxLTVBps)
	collateralValue := fixedpoint.MulDiv(collateralAmount, collateralPrice, fixedpoint.Pow10(collateralDecimals))
	loanValue := fixedpoint.ApplyBps(collateralValue, applied)
	borrowAmount := fixedpoint.MulDiv(loanValue, fixedpoint.Pow10(borrowDecimals), borrowPrice)

	return BorrowQuote{
		CollateralValueUSD: collateralValue,
		LoanValueUSD:       loanValue,
		BorrowAmount:       borrowAmount,
		AppliedLTVBps:      applied,
	}, nil
}

// MaxBorrowFiat computes the borrowable amount in integer cents of a fiat
// currency whose exchange rate (units-per-USD) is 1e8-scaled.
func MaxBorrowFiat(
	collateralAmount *big.Int,
	collateralPrice *big.Int,
	collateralDecimals uint8,
	selectedLTVBps uint64,
	params RiskParameters,
	exchangeRate *big.Int,
) (BorrowQuote, error) {
	if collateralAmount == nil || collateralAmount.Sign() <= 0 {
		return BorrowQuote{}, ErrInvalidAmount
	}
	if collateralPrice == nil || collateralPrice.Sign() <= 0 {
		return BorrowQuote{}, oracle.ErrPriceUnavailable
	}
	if exchangeRate == nil || exchangeRate.Sign() <= 0 {
		return BorrowQuote{}, oracle.ErrRateUnavailable
	}

	applied := ClampLTV(selectedLTVBps, params.MaxLTVBps)
	collateralValue := fixedpoint.MulDiv(collateralAmount, collateralPrice, fixedpoint.Pow10(collateralDecimals))
	loanValue := fixedpoint.ApplyBps(collateralValue, applied)

	// 1e8-scaled USD to USD cents, then into the target currency.
	usdCents := new(big.Int).Quo(loanValue, usdCentScale)
	fiatCents := fixedpoint.MulDiv(usdCents, exchangeRate, types.RateScale)

	return BorrowQuote{
		CollateralValueUSD: collateralValue,
		LoanValueUSD:       loanValue,
		BorrowAmount:       fiatCents,
		AppliedLTVBps:      applied,
	}, nil
}

// usdCentScale converts 1e8-scaled USD into integer cents (1e8 / 100).
var usdCentScale = big.NewInt(1_000_000)
