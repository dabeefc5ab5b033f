package lending

import (
	"errors"
	"math/big"
	"testing"

	"loanmesh/native/fixedpoint"
	"loanmesh/native/oracle"
)

func TestMaxBorrowScenario(t *testing.T) {
	// 10 units of collateral at $2000 (8 decimals), 70% LTV, borrowing a
	// $1 asset with 6 decimals.
	collateral := big.NewInt(1_000_000_000)        // 10 * 1e8
	collateralPrice := big.NewInt(200_000_000_000) // 2000 * 1e8
	borrowPrice := big.NewInt(100_000_000)         // 1 * 1e8
	params := RiskParameters{MaxLTVBps: 7_500, LiquidationThresholdBps: 8_000}

	quote, err := MaxBorrow(collateral, collateralPrice, 8, 7_000, params, borrowPrice, 6)
	if err != nil {
		t.Fatalf("max borrow: %v", err)
	}

	wantCollateralValue, _ := new(big.Int).SetString("2000000000000", 10) // $20,000
	if quote.CollateralValueUSD.Cmp(wantCollateralValue) != 0 {
		t.Fatalf("unexpected collateral value: %s", quote.CollateralValueUSD)
	}
	wantLoanValue, _ := new(big.Int).SetString("1400000000000", 10) // $14,000
	if quote.LoanValueUSD.Cmp(wantLoanValue) != 0 {
		t.Fatalf("unexpected loan value: %s", quote.LoanValueUSD)
	}
	wantBorrow, _ := new(big.Int).SetString("14000000000", 10) // 14,000.000000
	if quote.BorrowAmount.Cmp(wantBorrow) != 0 {
		t.Fatalf("unexpected borrow amount: %s", quote.BorrowAmount)
	}
	if quote.AppliedLTVBps != 7_000 {
		t.Fatalf("unexpected applied LTV: %d", quote.AppliedLTVBps)
	}
}

func TestMaxBorrowNeverExceedsConfiguredLTV(t *testing.T) {
	collateral := big.NewInt(1_000_000_000)
	collateralPrice := big.NewInt(200_000_000_000)
	borrowPrice := big.NewInt(100_000_000)
	params := RiskParameters{MaxLTVBps: 6_000}

	for _, selected := range []uint64{500, 6_000, 6_001, 9_999, 20_000} {
		quote, err := MaxBorrow(collateral, collateralPrice, 8, selected, params, borrowPrice, 6)
		if err != nil {
			t.Fatalf("max borrow at %d bps: %v", selected, err)
		}
		if quote.AppliedLTVBps > params.MaxLTVBps {
			t.Fatalf("applied LTV %d exceeds maximum %d", quote.AppliedLTVBps, params.MaxLTVBps)
		}
		if quote.AppliedLTVBps < MinLTVBps {
			t.Fatalf("applied LTV %d below minimum", quote.AppliedLTVBps)
		}
		// Implied LTV of the result must stay within the maximum.
		impliedLoanValue := fixedpoint.ApplyBps(quote.CollateralValueUSD, params.MaxLTVBps)
		if quote.LoanValueUSD.Cmp(impliedLoanValue) > 0 {
			t.Fatalf("loan value %s implies LTV above configured maximum", quote.LoanValueUSD)
		}
	}
}

func TestMaxBorrowMissingPrice(t *testing.T) {
	params := RiskParameters{MaxLTVBps: 7_000}
	if _, err := MaxBorrow(big.NewInt(1), nil, 8, 5_000, params, big.NewInt(1), 6); !errors.Is(err, oracle.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
	if _, err := MaxBorrow(big.NewInt(1), big.NewInt(0), 8, 5_000, params, big.NewInt(1), 6); !errors.Is(err, oracle.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable for zero price, got %v", err)
	}
}

func TestMaxBorrowFiat(t *testing.T) {
	// $20,000 collateral value at 70% LTV into a currency at 0.92 units/USD.
	collateral := big.NewInt(1_000_000_000)
	collateralPrice := big.NewInt(200_000_000_000)
	rate := big.NewInt(92_000_000)
	params := RiskParameters{MaxLTVBps: 7_000}

	quote, err := MaxBorrowFiat(collateral, collateralPrice, 8, 7_000, params, rate)
	if err != nil {
		t.Fatalf("max borrow fiat: %v", err)
	}
	// $14,000 = 1,400,000 USD cents -> 1,288,000 fiat cents.
	if quote.BorrowAmount.Cmp(big.NewInt(1_288_000)) != 0 {
		t.Fatalf("unexpected fiat amount: %s", quote.BorrowAmount)
	}
}

func TestRiskTableLookup(t *testing.T) {
	table := NewRiskTable()
	asset := addr(0x11)
	table.Set(asset, 86_400, RiskParameters{MaxLTVBps: 7_000, LiquidationThresholdBps: 8_000})

	params, err := table.Lookup(asset, 86_400)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if params.LiquidationBonusBps != DefaultLiquidationBonusBps {
		t.Fatalf("expected default bonus, got %d", params.LiquidationBonusBps)
	}

	if _, err := table.Lookup(asset, 172_800); !errors.Is(err, ErrAssetNotEnabled) {
		t.Fatalf("expected ErrAssetNotEnabled, got %v", err)
	}
}
