package fiat

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"loanmesh/core/types"
)

func TestRoundTripBoundedByRate(t *testing.T) {
	rates := []*big.Int{
		big.NewInt(100_000_000), // 1.0 (USD identity)
		big.NewInt(92_134_567),  // EUR-ish
		big.NewInt(151_00000000 / 1000),
		big.NewInt(1),
		big.NewInt(7_345_678_901),
	}
	amounts := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(99),
		big.NewInt(123_456),
		big.NewInt(10_000_000_000),
	}
	one := big.NewInt(1)
	for _, rate := range rates {
		// One USD cent spans ceil(rate/1e8) fiat cents, so the double floor
		// can lose up to that many units per trip. At or below parity the
		// bound collapses to a single unit.
		tolerance := new(big.Int).Add(rate, new(big.Int).Sub(types.RateScale, one))
		tolerance.Quo(tolerance, types.RateScale)
		if tolerance.Cmp(one) < 0 {
			tolerance.Set(one)
		}
		for _, amount := range amounts {
			usd, err := ToUSDCents(amount, rate)
			if err != nil {
				t.Fatalf("to usd: %v", err)
			}
			back, err := FromUSDCents(usd, rate)
			if err != nil {
				t.Fatalf("from usd: %v", err)
			}
			diff := new(big.Int).Sub(amount, back)
			if diff.Sign() < 0 {
				t.Fatalf("round trip overshot: %s -> %s (rate %s)", amount, back, rate)
			}
			if diff.Cmp(tolerance) > 0 {
				t.Fatalf("round trip drift %s beyond %s units: %s -> %s (rate %s)", diff, tolerance, amount, back, rate)
			}
		}
	}
}

func TestRoundTripExactAtOrBelowParity(t *testing.T) {
	// Rates at or below one unit per USD never drift more than a single
	// unit, and the USD identity rate is lossless both ways.
	rates := []*big.Int{
		types.RateScale,
		big.NewInt(92_134_567),
		big.NewInt(1),
	}
	one := big.NewInt(1)
	for _, rate := range rates {
		for _, amount := range []*big.Int{big.NewInt(1), big.NewInt(99), big.NewInt(123_456)} {
			usd, err := ToUSDCents(amount, rate)
			if err != nil {
				t.Fatalf("to usd: %v", err)
			}
			back, err := FromUSDCents(usd, rate)
			if err != nil {
				t.Fatalf("from usd: %v", err)
			}
			diff := new(big.Int).Sub(amount, back)
			if diff.Sign() < 0 || diff.Cmp(one) > 0 {
				t.Fatalf("drift beyond 1 unit at rate %s: %s -> %s", rate, amount, back)
			}
			if rate.Cmp(types.RateScale) == 0 && back.Cmp(amount) != 0 {
				t.Fatalf("identity rate must round-trip exactly: %s -> %s", amount, back)
			}
		}
	}
}

func TestIdentityRateIsExact(t *testing.T) {
	amount := big.NewInt(123_456)
	usd, err := ToUSDCents(amount, types.RateScale)
	if err != nil {
		t.Fatalf("to usd: %v", err)
	}
	if usd.Cmp(amount) != 0 {
		t.Fatalf("identity conversion changed value: %s", usd)
	}
}

func TestInvalidRate(t *testing.T) {
	if _, err := ToUSDCents(big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := FromUSDCents(big.NewInt(1), nil); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestLoanRatePrefersFrozenRate(t *testing.T) {
	frozen := big.NewInt(90_000_000)
	live := types.ExchangeRate{Rate: big.NewInt(95_000_000), UpdatedAt: time.Now()}

	loan := &types.FiatLoan{ExchangeRateAtCreation: frozen}
	if got := LoanRate(loan, live); got.Cmp(frozen) != 0 {
		t.Fatalf("expected frozen rate, got %s", got)
	}

	// Without a frozen rate the live one applies.
	if got := LoanRate(&types.FiatLoan{}, live); got.Cmp(live.Rate) != 0 {
		t.Fatalf("expected live rate, got %s", got)
	}

	// The returned rate is a copy, not an alias.
	got := LoanRate(loan, live)
	got.SetInt64(1)
	if frozen.Cmp(big.NewInt(90_000_000)) != 0 {
		t.Fatalf("frozen rate mutated through alias")
	}
}
