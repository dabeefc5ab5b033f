// Package fiat converts between integer fiat cents and 1e8-scaled USD values
// using units-per-USD exchange rates. All conversions floor; a loan that froze
// its rate at origination converts with that frozen rate for its whole
// lifetime, never the live one.
package fiat

import (
	"errors"
	"math/big"

	"loanmesh/core/types"
	"loanmesh/native/fixedpoint"
)

// ErrInvalidRate indicates a nil or non-positive exchange rate reached a
// conversion.
var ErrInvalidRate = errors.New("fiat: invalid exchange rate")

// ToUSDCents converts fiat cents into USD cents: fiatCents * 1e8 / rate.
func ToUSDCents(fiatCents, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	if fiatCents == nil {
		return big.NewInt(0), nil
	}
	return fixedpoint.MulDiv(fiatCents, types.RateScale, rate), nil
}

// FromUSDCents converts USD cents into fiat cents: usdCents * rate / 1e8.
func FromUSDCents(usdCents, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	if usdCents == nil {
		return big.NewInt(0), nil
	}
	return fixedpoint.MulDiv(usdCents, rate, types.RateScale), nil
}

// LoanRate returns the rate authoritative for a fiat loan: the frozen
// origination rate when present, otherwise the supplied live rate.
func LoanRate(loan *types.FiatLoan, live types.ExchangeRate) *big.Int {
	if loan != nil && loan.ExchangeRateAtCreation != nil && loan.ExchangeRateAtCreation.Sign() > 0 {
		return new(big.Int).Set(loan.ExchangeRateAtCreation)
	}
	if live.Rate == nil {
		return nil
	}
	return new(big.Int).Set(live.Rate)
}
