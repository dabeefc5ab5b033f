package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RateScale is the fixed-point scale shared by USD prices and fiat exchange
// rates (1e8).
var RateScale = big.NewInt(100_000_000)

// StaleThreshold is the freshness window applied to price and exchange-rate
// quotes. Anything older is unsafe for new commitments.
const StaleThreshold = 900 * time.Second

// PriceQuote carries a 1e8-scaled USD price for a token or currency together
// with the feed it came from and the upstream update time.
type PriceQuote struct {
	Price     *big.Int
	Feed      common.Address
	UpdatedAt time.Time
}

// IsStale reports whether the quote is older than the freshness threshold at
// the supplied instant.
func (q PriceQuote) IsStale(now time.Time) bool {
	if q.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(q.UpdatedAt) > StaleThreshold
}

// Clone returns a deep copy so callers cannot mutate a shared quote.
func (q PriceQuote) Clone() PriceQuote {
	clone := PriceQuote{Feed: q.Feed, UpdatedAt: q.UpdatedAt}
	if q.Price != nil {
		clone.Price = new(big.Int).Set(q.Price)
	}
	return clone
}

// ExchangeRate carries a 1e8-scaled fiat-units-per-USD rate.
type ExchangeRate struct {
	Rate      *big.Int
	UpdatedAt time.Time
}

// IsStale reports whether the rate is older than the freshness threshold at
// the supplied instant.
func (r ExchangeRate) IsStale(now time.Time) bool {
	if r.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(r.UpdatedAt) > StaleThreshold
}

// Clone returns a deep copy so callers cannot mutate a shared rate.
func (r ExchangeRate) Clone() ExchangeRate {
	clone := ExchangeRate{UpdatedAt: r.UpdatedAt}
	if r.Rate != nil {
		clone.Rate = new(big.Int).Set(r.Rate)
	}
	return clone
}
