package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LoanStatus enumerates the terminal and non-terminal states of a funded loan.
type LoanStatus string

const (
	LoanStatusActive     LoanStatus = "ACTIVE"
	LoanStatusRepaid     LoanStatus = "REPAID"
	LoanStatusLiquidated LoanStatus = "LIQUIDATED"
	LoanStatusDefaulted  LoanStatus = "DEFAULTED"
)

// RequestStatus enumerates the lifecycle of a pre-funding intent.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusFunded    RequestStatus = "FUNDED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
)

// FiatLoanStatus enumerates the states of a fiat-settled loan.
type FiatLoanStatus string

const (
	FiatLoanStatusPendingSupplier FiatLoanStatus = "PENDING_SUPPLIER"
	FiatLoanStatusActive          FiatLoanStatus = "ACTIVE"
	FiatLoanStatusRepaid          FiatLoanStatus = "REPAID"
	FiatLoanStatusLiquidated      FiatLoanStatus = "LIQUIDATED"
	FiatLoanStatusCancelled       FiatLoanStatus = "CANCELLED"
)

// Loan is the canonical snapshot of an on-chain crypto-settled loan. Monetary
// amounts are unsigned integers in the native scale of their asset; the engine
// never mutates a Loan, it only reads snapshots and computes derived views.
type Loan struct {
	ID       uint64
	Borrower common.Address
	Lender   common.Address
	// CollateralToken identifies the escrowed asset; CollateralAmount and
	// CollateralReleased are denominated in that asset's smallest unit.
	CollateralToken    common.Address
	CollateralAmount   *big.Int
	CollateralReleased *big.Int
	// BorrowToken identifies the borrowed asset and Principal its amount in
	// the asset's smallest unit.
	BorrowToken common.Address
	Principal   *big.Int
	// InterestRateBps is the flat rate applied once over the full term,
	// expressed in basis points.
	InterestRateBps uint64
	// Duration is the loan term in seconds; StartTime and DueDate are unix
	// timestamps. GracePeriodEnd marks when a defaulted loan becomes
	// claimable.
	Duration       uint64
	StartTime      uint64
	DueDate        uint64
	GracePeriodEnd uint64
	AmountRepaid   *big.Int
	Status         LoanStatus
}

// RemainingCollateral returns the escrow still held for the loan, floored at
// zero so a released amount exceeding the original escrow can never produce a
// negative balance.
func (l *Loan) RemainingCollateral() *big.Int {
	if l == nil || l.CollateralAmount == nil {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Set(l.CollateralAmount)
	if l.CollateralReleased != nil {
		remaining.Sub(remaining, l.CollateralReleased)
	}
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// FiatLoan mirrors Loan for fiat-settled borrowing. Amounts are integer cents
// of the borrow currency. ExchangeRateAtCreation freezes the USD conversion at
// origination (units-per-USD, 1e8-scaled) and stays authoritative for the
// loan's lifetime.
type FiatLoan struct {
	ID                     uint64
	Borrower               common.Address
	Supplier               common.Address
	CollateralToken        common.Address
	CollateralAmount       *big.Int
	CollateralReleased     *big.Int
	BorrowCurrency         string
	PrincipalCents         *big.Int
	InterestRateBps        uint64
	Duration               uint64
	StartTime              uint64
	DueDate                uint64
	GracePeriodEnd         uint64
	AmountRepaidCents      *big.Int
	ExchangeRateAtCreation *big.Int
	Status                 FiatLoanStatus
}

// RemainingCollateral returns the escrow still held for the fiat loan.
func (l *FiatLoan) RemainingCollateral() *big.Int {
	if l == nil || l.CollateralAmount == nil {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Set(l.CollateralAmount)
	if l.CollateralReleased != nil {
		remaining.Sub(remaining, l.CollateralReleased)
	}
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// LoanRequest is a borrower-side pre-funding intent awaiting a counterparty.
type LoanRequest struct {
	ID                 uint64
	Borrower           common.Address
	CollateralToken    common.Address
	CollateralAmount   *big.Int
	BorrowToken        common.Address
	BorrowAmount       *big.Int
	Duration           uint64
	MaxInterestRateBps uint64
	InterestRateBps    uint64
	ExpireAt           uint64
	Status             RequestStatus
}

// EffectiveStatus resolves the request state at the supplied unix time. A
// pending request past its expiry reads as expired even before the contract
// observes it.
func (r *LoanRequest) EffectiveStatus(now uint64) RequestStatus {
	if r == nil {
		return RequestStatusExpired
	}
	if r.Status == RequestStatusPending && r.ExpireAt > 0 && now > r.ExpireAt {
		return RequestStatusExpired
	}
	return r.Status
}

// LenderOffer is the supply-side counterpart of a LoanRequest.
type LenderOffer struct {
	ID              uint64
	Lender          common.Address
	BorrowToken     common.Address
	Amount          *big.Int
	Duration        uint64
	InterestRateBps uint64
	ExpireAt        uint64
	Status          RequestStatus
}

// EffectiveStatus resolves the offer state at the supplied unix time.
func (o *LenderOffer) EffectiveStatus(now uint64) RequestStatus {
	if o == nil {
		return RequestStatusExpired
	}
	if o.Status == RequestStatusPending && o.ExpireAt > 0 && now > o.ExpireAt {
		return RequestStatusExpired
	}
	return o.Status
}

// FiatLenderOffer is a supply-side intent denominated in a fiat currency.
type FiatLenderOffer struct {
	ID              uint64
	Supplier        common.Address
	Currency        string
	AmountCents     *big.Int
	Duration        uint64
	InterestRateBps uint64
	ExpireAt        uint64
	Status          RequestStatus
}

// EffectiveStatus resolves the offer state at the supplied unix time.
func (o *FiatLenderOffer) EffectiveStatus(now uint64) RequestStatus {
	if o == nil {
		return RequestStatusExpired
	}
	if o.Status == RequestStatusPending && o.ExpireAt > 0 && now > o.ExpireAt {
		return RequestStatusExpired
	}
	return o.Status
}
