package lending

import (
	"errors"
	"math/big"
	"testing"
)

func TestNormalizeRepaymentSnapsNearFullBalance(t *testing.T) {
	outstanding := big.NewInt(1_000_000)
	cases := []int64{999_000, 999_500, 1_000_000, 1_000_999, 1_001_000}
	for _, amount := range cases {
		normalized, kind, err := NormalizeRepayment(big.NewInt(amount), outstanding)
		if err != nil {
			t.Fatalf("normalize %d: %v", amount, err)
		}
		if kind != RepayFull {
			t.Fatalf("amount %d within tolerance should be full repayment", amount)
		}
		if normalized.Cmp(outstanding) != 0 {
			t.Fatalf("amount %d should snap to %s, got %s", amount, outstanding, normalized)
		}
	}
}

func TestNormalizeRepaymentPartial(t *testing.T) {
	outstanding := big.NewInt(1_000_000)
	normalized, kind, err := NormalizeRepayment(big.NewInt(400_000), outstanding)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if kind != RepayPartial {
		t.Fatalf("expected partial repayment")
	}
	if normalized.Cmp(big.NewInt(400_000)) != 0 {
		t.Fatalf("partial amount changed: %s", normalized)
	}
}

func TestNormalizeRepaymentExceedsDebt(t *testing.T) {
	outstanding := big.NewInt(1_000_000)
	if _, _, err := NormalizeRepayment(big.NewInt(1_002_000), outstanding); !errors.Is(err, ErrAmountExceedsDebt) {
		t.Fatalf("expected ErrAmountExceedsDebt, got %v", err)
	}
}

func TestNormalizeRepaymentNoDebt(t *testing.T) {
	if _, _, err := NormalizeRepayment(big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrNoOutstandingDebt) {
		t.Fatalf("expected ErrNoOutstandingDebt, got %v", err)
	}
	if _, _, err := NormalizeRepayment(big.NewInt(0), big.NewInt(100)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMinPartialRepayment(t *testing.T) {
	// $1.00 floor against a $2,000 asset with 8 decimals: 1/2000 of a unit.
	floor := big.NewInt(100)
	price := big.NewInt(200_000_000_000)
	minimum := MinPartialRepayment(floor, price, 8)
	if minimum.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("unexpected minimum: %s", minimum)
	}

	if got := MinPartialRepayment(nil, price, 8); got.Sign() != 0 {
		t.Fatalf("nil floor should disable minimum, got %s", got)
	}
	if got := MinPartialRepayment(floor, nil, 8); got.Sign() != 0 {
		t.Fatalf("missing price should disable minimum, got %s", got)
	}
}

func TestValidatePartialRepayment(t *testing.T) {
	minimum := big.NewInt(1_000)
	if err := ValidatePartialRepayment(big.NewInt(999), minimum, RepayPartial); !errors.Is(err, ErrRepaymentBelowMinimum) {
		t.Fatalf("expected ErrRepaymentBelowMinimum, got %v", err)
	}
	if err := ValidatePartialRepayment(big.NewInt(1_000), minimum, RepayPartial); err != nil {
		t.Fatalf("at-minimum repayment rejected: %v", err)
	}
	// Full repayments are exempt from the floor.
	if err := ValidatePartialRepayment(big.NewInt(1), minimum, RepayFull); err != nil {
		t.Fatalf("full repayment should bypass minimum: %v", err)
	}
}
