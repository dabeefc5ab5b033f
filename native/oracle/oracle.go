// Package oracle wraps the external price and exchange-rate capabilities and
// classifies quote freshness. Calculators that commit new value must refuse
// stale quotes; only full-balance settlement may bypass the freshness gate,
// and callers encode that exception explicitly by choosing Price over
// FreshPrice.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"loanmesh/core/types"
)

var (
	// ErrPriceUnavailable indicates no feed is configured for the symbol or
	// the feed returned an unusable price.
	ErrPriceUnavailable = errors.New("oracle: price unavailable")
	// ErrStalePrice indicates the quote exists but is older than the
	// freshness threshold and must not back a new commitment.
	ErrStalePrice = errors.New("oracle: stale price")
	// ErrRateUnavailable indicates no exchange rate is configured for the
	// currency.
	ErrRateUnavailable = errors.New("oracle: exchange rate unavailable")
)

// USD is the identity currency: its rate is fixed at the 1e8 scale and never
// subject to staleness.
const USD = "USD"

// PriceSource resolves a USD price quote for a token or currency symbol.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (types.PriceQuote, error)
}

// RateSource resolves a fiat-units-per-USD exchange rate for a currency code.
type RateSource interface {
	GetExchangeRate(ctx context.Context, currency string) (types.ExchangeRate, error)
}

// FeedHealth describes the most recent observation for a symbol.
type FeedHealth struct {
	Symbol       string
	LastObserved time.Time
}

// Adapter fronts the raw sources with freshness classification and last-seen
// bookkeeping. The zero threshold falls back to the shared default.
type Adapter struct {
	prices    PriceSource
	rates     RateSource
	threshold time.Duration
	now       func() time.Time

	mu   sync.RWMutex
	seen map[string]time.Time
}

// NewAdapter constructs an adapter over the supplied sources. A nil now
// function defaults to the wall clock; threshold <= 0 uses
// types.StaleThreshold.
func NewAdapter(prices PriceSource, rates RateSource, threshold time.Duration) *Adapter {
	if threshold <= 0 {
		threshold = types.StaleThreshold
	}
	return &Adapter{
		prices:    prices,
		rates:     rates,
		threshold: threshold,
		now:       time.Now,
		seen:      make(map[string]time.Time),
	}
}

// SetClock overrides the time source. Tests use this to pin staleness
// boundaries.
func (a *Adapter) SetClock(now func() time.Time) {
	if a == nil || now == nil {
		return
	}
	a.now = now
}

// Price fetches a quote without a freshness check. Only the full-repayment
// path may use this; everything else goes through FreshPrice.
func (a *Adapter) Price(ctx context.Context, symbol string) (types.PriceQuote, error) {
	return a.fetchPrice(ctx, symbol)
}

// FreshPrice fetches a quote and fails with ErrStalePrice when the quote is
// older than the staleness threshold.
func (a *Adapter) FreshPrice(ctx context.Context, symbol string) (types.PriceQuote, error) {
	quote, err := a.fetchPrice(ctx, symbol)
	if err != nil {
		return types.PriceQuote{}, err
	}
	if a.stale(quote.UpdatedAt) {
		return types.PriceQuote{}, fmt.Errorf("%w: %s last updated %s", ErrStalePrice, normaliseSymbol(symbol), quote.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return quote, nil
}

// Rate fetches an exchange rate without a freshness check. USD resolves to the
// identity rate.
func (a *Adapter) Rate(ctx context.Context, currency string) (types.ExchangeRate, error) {
	return a.fetchRate(ctx, currency)
}

// FreshRate fetches an exchange rate and fails with ErrStalePrice when the
// rate is older than the staleness threshold. USD is exempt.
func (a *Adapter) FreshRate(ctx context.Context, currency string) (types.ExchangeRate, error) {
	code := normaliseSymbol(currency)
	rate, err := a.fetchRate(ctx, code)
	if err != nil {
		return types.ExchangeRate{}, err
	}
	if code != USD && a.stale(rate.UpdatedAt) {
		return types.ExchangeRate{}, fmt.Errorf("%w: rate %s last updated %s", ErrStalePrice, code, rate.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return rate, nil
}

// Health reports the last observation time per symbol, sorted for stable
// output.
func (a *Adapter) Health() []FeedHealth {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	feeds := make([]FeedHealth, 0, len(a.seen))
	for symbol, ts := range a.seen {
		feeds = append(feeds, FeedHealth{Symbol: symbol, LastObserved: ts})
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].Symbol < feeds[j].Symbol })
	return feeds
}

func (a *Adapter) fetchPrice(ctx context.Context, symbol string) (types.PriceQuote, error) {
	if a == nil || a.prices == nil {
		return types.PriceQuote{}, fmt.Errorf("%w: no price source configured", ErrPriceUnavailable)
	}
	sym := normaliseSymbol(symbol)
	if sym == "" {
		return types.PriceQuote{}, fmt.Errorf("%w: symbol required", ErrPriceUnavailable)
	}
	quote, err := a.prices.GetPrice(ctx, sym)
	if err != nil {
		return types.PriceQuote{}, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, sym, err)
	}
	if quote.Price == nil || quote.Price.Sign() <= 0 {
		return types.PriceQuote{}, fmt.Errorf("%w: %s returned non-positive price", ErrPriceUnavailable, sym)
	}
	a.observe(sym, quote.UpdatedAt)
	return quote.Clone(), nil
}

func (a *Adapter) fetchRate(ctx context.Context, currency string) (types.ExchangeRate, error) {
	code := normaliseSymbol(currency)
	if code == "" {
		return types.ExchangeRate{}, fmt.Errorf("%w: currency required", ErrRateUnavailable)
	}
	if code == USD {
		return types.ExchangeRate{Rate: IdentityRate(), UpdatedAt: a.clock()}, nil
	}
	if a == nil || a.rates == nil {
		return types.ExchangeRate{}, fmt.Errorf("%w: no rate source configured", ErrRateUnavailable)
	}
	rate, err := a.rates.GetExchangeRate(ctx, code)
	if err != nil {
		return types.ExchangeRate{}, fmt.Errorf("%w: %s: %v", ErrRateUnavailable, code, err)
	}
	if rate.Rate == nil || rate.Rate.Sign() <= 0 {
		return types.ExchangeRate{}, fmt.Errorf("%w: %s returned non-positive rate", ErrRateUnavailable, code)
	}
	a.observe(code, rate.UpdatedAt)
	return rate.Clone(), nil
}

func (a *Adapter) observe(symbol string, ts time.Time) {
	a.mu.Lock()
	if a.seen == nil {
		a.seen = make(map[string]time.Time)
	}
	a.seen[symbol] = ts
	a.mu.Unlock()
}

func (a *Adapter) stale(updated time.Time) bool {
	if updated.IsZero() {
		return true
	}
	return a.clock().Sub(updated) > a.threshold
}

func (a *Adapter) clock() time.Time {
	if a == nil || a.now == nil {
		return time.Now()
	}
	return a.now()
}

func normaliseSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
