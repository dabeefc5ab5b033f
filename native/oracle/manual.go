package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"loanmesh/core/types"
)

// IdentityRate returns the USD identity exchange rate (1e8-scaled 1.0).
func IdentityRate() *big.Int {
	return new(big.Int).Set(types.RateScale)
}

// ManualSource is an in-memory price and rate source used in tests and for
// manual overrides during incident response.
type ManualSource struct {
	mu     sync.RWMutex
	prices map[string]types.PriceQuote
	rates  map[string]types.ExchangeRate
}

// NewManualSource constructs an empty manual source.
func NewManualSource() *ManualSource {
	return &ManualSource{
		prices: make(map[string]types.PriceQuote),
		rates:  make(map[string]types.ExchangeRate),
	}
}

// SetPrice stores a 1e8-scaled USD price for the symbol.
func (m *ManualSource) SetPrice(symbol string, price *big.Int, feed common.Address, ts time.Time) {
	if m == nil || price == nil {
		return
	}
	sym := normaliseSymbol(symbol)
	if sym == "" {
		return
	}
	m.mu.Lock()
	m.prices[sym] = types.PriceQuote{Price: new(big.Int).Set(price), Feed: feed, UpdatedAt: ts}
	m.mu.Unlock()
}

// SetPriceDecimal parses a human decimal price ("2000.25") into the 1e8 scale
// and stores it.
func (m *ManualSource) SetPriceDecimal(symbol, price string, feed common.Address, ts time.Time) error {
	scaled, err := parseScaledDecimal(price)
	if err != nil {
		return fmt.Errorf("manual source: %w", err)
	}
	m.SetPrice(symbol, scaled, feed, ts)
	return nil
}

// SetRate stores a 1e8-scaled units-per-USD exchange rate for the currency.
func (m *ManualSource) SetRate(currency string, rate *big.Int, ts time.Time) {
	if m == nil || rate == nil {
		return
	}
	code := normaliseSymbol(currency)
	if code == "" {
		return
	}
	m.mu.Lock()
	m.rates[code] = types.ExchangeRate{Rate: new(big.Int).Set(rate), UpdatedAt: ts}
	m.mu.Unlock()
}

// SetRateDecimal parses a human decimal rate ("0.92") into the 1e8 scale and
// stores it.
func (m *ManualSource) SetRateDecimal(currency, rate string, ts time.Time) error {
	scaled, err := parseScaledDecimal(rate)
	if err != nil {
		return fmt.Errorf("manual source: %w", err)
	}
	m.SetRate(currency, scaled, ts)
	return nil
}

// GetPrice implements PriceSource.
func (m *ManualSource) GetPrice(_ context.Context, symbol string) (types.PriceQuote, error) {
	if m == nil {
		return types.PriceQuote{}, fmt.Errorf("manual source not configured")
	}
	sym := normaliseSymbol(symbol)
	m.mu.RLock()
	quote, ok := m.prices[sym]
	m.mu.RUnlock()
	if !ok {
		return types.PriceQuote{}, fmt.Errorf("manual source: no feed for %s", sym)
	}
	return quote.Clone(), nil
}

// GetExchangeRate implements RateSource.
func (m *ManualSource) GetExchangeRate(_ context.Context, currency string) (types.ExchangeRate, error) {
	if m == nil {
		return types.ExchangeRate{}, fmt.Errorf("manual source not configured")
	}
	code := normaliseSymbol(currency)
	m.mu.RLock()
	rate, ok := m.rates[code]
	m.mu.RUnlock()
	if !ok {
		return types.ExchangeRate{}, fmt.Errorf("manual source: no rate for %s", code)
	}
	return rate.Clone(), nil
}

// parseScaledDecimal converts a decimal string into a 1e8-scaled integer,
// truncating fractional digits beyond the scale.
func parseScaledDecimal(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("value required")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, fmt.Errorf("invalid decimal %q", value)
	}
	if rat.Sign() <= 0 {
		return nil, fmt.Errorf("value must be positive")
	}
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(types.RateScale))
	return new(big.Int).Quo(scaled.Num(), scaled.Denom()), nil
}
