package types

import (
	"math/big"
	"testing"
	"time"
)

func TestRemainingCollateralFloorsAtZero(t *testing.T) {
	loan := &Loan{
		CollateralAmount:   big.NewInt(100),
		CollateralReleased: big.NewInt(150),
	}
	if got := loan.RemainingCollateral(); got.Sign() != 0 {
		t.Fatalf("remaining = %s, want 0", got)
	}

	loan.CollateralReleased = big.NewInt(40)
	if got := loan.RemainingCollateral(); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("remaining = %s, want 60", got)
	}

	var nilLoan *Loan
	if got := nilLoan.RemainingCollateral(); got.Sign() != 0 {
		t.Fatalf("nil loan remaining = %s, want 0", got)
	}
}

func TestRemainingCollateralDoesNotAliasLoanFields(t *testing.T) {
	loan := &Loan{CollateralAmount: big.NewInt(100), CollateralReleased: big.NewInt(10)}
	remaining := loan.RemainingCollateral()
	remaining.SetInt64(0)
	if loan.CollateralAmount.Cmp(big.NewInt(100)) != 0 {
		t.Fatal("mutating the result must not change the loan")
	}
}

func TestEffectiveStatusExpiresPendingRequests(t *testing.T) {
	req := &LoanRequest{Status: RequestStatusPending, ExpireAt: 1_000}
	if got := req.EffectiveStatus(999); got != RequestStatusPending {
		t.Fatalf("before expiry: %q", got)
	}
	if got := req.EffectiveStatus(1_000); got != RequestStatusPending {
		t.Fatalf("at expiry: %q", got)
	}
	if got := req.EffectiveStatus(1_001); got != RequestStatusExpired {
		t.Fatalf("after expiry: %q", got)
	}

	// Terminal states never flip to expired.
	req.Status = RequestStatusFunded
	if got := req.EffectiveStatus(2_000); got != RequestStatusFunded {
		t.Fatalf("funded request: %q", got)
	}

	// A zero ExpireAt means no expiry.
	open := &LenderOffer{Status: RequestStatusPending}
	if got := open.EffectiveStatus(uint64(time.Now().Unix())); got != RequestStatusPending {
		t.Fatalf("open offer: %q", got)
	}
}

func TestPriceQuoteStaleness(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	quote := PriceQuote{Price: big.NewInt(1), UpdatedAt: now.Add(-StaleThreshold)}
	if quote.IsStale(now) {
		t.Fatal("quote exactly at the threshold is still fresh")
	}
	quote.UpdatedAt = now.Add(-StaleThreshold - time.Second)
	if !quote.IsStale(now) {
		t.Fatal("quote past the threshold is stale")
	}
	quote.UpdatedAt = time.Time{}
	if !quote.IsStale(now) {
		t.Fatal("zero timestamp is always stale")
	}
}
