package lending

import (
	"errors"
	"math/big"
	"testing"

	"loanmesh/native/oracle"
)

func TestLiquidationSplitScenario(t *testing.T) {
	// 1,050 USDC debt at $1 against 1 ETH of collateral at $2,500.
	outstanding := big.NewInt(1_050_000_000)                          // 1050 * 1e6
	borrowPrice := big.NewInt(100_000_000)                            // $1
	collateralPrice := big.NewInt(250_000_000_000)                    // $2500
	remaining, _ := new(big.Int).SetString("1000000000000000000", 10) // 1 ETH

	split, err := ComputeLiquidationSplit(outstanding, borrowPrice, 6, collateralPrice, 18, remaining, 500)
	if err != nil {
		t.Fatalf("liquidation split: %v", err)
	}

	wantForDebt, _ := new(big.Int).SetString("420000000000000000", 10) // 0.42 ETH
	if split.CollateralForDebt.Cmp(wantForDebt) != 0 {
		t.Fatalf("unexpected collateral for debt: %s", split.CollateralForDebt)
	}
	wantBonus, _ := new(big.Int).SetString("21000000000000000", 10) // 0.021 ETH
	if split.Bonus.Cmp(wantBonus) != 0 {
		t.Fatalf("unexpected bonus: %s", split.Bonus)
	}
	wantLiquidator, _ := new(big.Int).SetString("441000000000000000", 10) // 0.441 ETH
	if split.ToLiquidator.Cmp(wantLiquidator) != 0 {
		t.Fatalf("unexpected liquidator share: %s", split.ToLiquidator)
	}
	wantBorrower, _ := new(big.Int).SetString("559000000000000000", 10) // 0.559 ETH
	if split.ToBorrower.Cmp(wantBorrower) != 0 {
		t.Fatalf("unexpected borrower share: %s", split.ToBorrower)
	}
}

func TestLiquidationSplitAlwaysSumsToRemaining(t *testing.T) {
	borrowPrice := big.NewInt(100_000_000)
	collateralPrice := big.NewInt(250_000_000_000)
	remainders := []string{"1", "1000", "420000000000000000", "1000000000000000000"}
	debts := []int64{1, 999, 1_050_000_000, 900_000_000_000}

	for _, rem := range remainders {
		remaining, _ := new(big.Int).SetString(rem, 10)
		for _, debt := range debts {
			split, err := ComputeLiquidationSplit(big.NewInt(debt), borrowPrice, 6, collateralPrice, 18, remaining, 500)
			if err != nil {
				t.Fatalf("split(%s, %d): %v", rem, debt, err)
			}
			sum := new(big.Int).Add(split.ToLiquidator, split.ToBorrower)
			if sum.Cmp(remaining) != 0 {
				t.Fatalf("split does not sum to remaining: %s + %s != %s", split.ToLiquidator, split.ToBorrower, remaining)
			}
			if split.ToLiquidator.Sign() < 0 || split.ToBorrower.Sign() < 0 {
				t.Fatalf("negative share in split: %+v", split)
			}
		}
	}
}

func TestLiquidationSplitCapsAtEscrow(t *testing.T) {
	// Debt worth far more than the remaining escrow: liquidator takes it
	// all, borrower gets nothing back.
	outstanding := big.NewInt(10_000_000_000_000)
	remaining := big.NewInt(1_000)

	split, err := ComputeLiquidationSplit(outstanding, big.NewInt(100_000_000), 6, big.NewInt(250_000_000_000), 18, remaining, 500)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.ToLiquidator.Cmp(remaining) != 0 {
		t.Fatalf("expected liquidator capped at escrow, got %s", split.ToLiquidator)
	}
	if split.ToBorrower.Sign() != 0 {
		t.Fatalf("expected zero borrower share, got %s", split.ToBorrower)
	}
}

func TestLiquidationSplitErrors(t *testing.T) {
	if _, err := ComputeLiquidationSplit(big.NewInt(0), big.NewInt(1), 6, big.NewInt(1), 18, big.NewInt(1), 500); !errors.Is(err, ErrNoOutstandingDebt) {
		t.Fatalf("expected ErrNoOutstandingDebt, got %v", err)
	}
	if _, err := ComputeLiquidationSplit(big.NewInt(1), nil, 6, big.NewInt(1), 18, big.NewInt(1), 500); !errors.Is(err, oracle.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}
