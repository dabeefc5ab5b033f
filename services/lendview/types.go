package lendview

import (
	"fmt"
	"math/big"
	"strings"
)

// Integer amounts cross the HTTP boundary as decimal strings so callers never
// lose precision to floating point.

type maxBorrowRequest struct {
	CollateralToken    string `json:"collateralToken"`
	DurationSeconds    uint64 `json:"durationSeconds"`
	CollateralAmount   string `json:"collateralAmount"`
	CollateralSymbol   string `json:"collateralSymbol"`
	CollateralDecimals uint8  `json:"collateralDecimals"`
	SelectedLTVBps     uint64 `json:"selectedLtvBps"`
	BorrowSymbol       string `json:"borrowSymbol"`
	BorrowDecimals     uint8  `json:"borrowDecimals"`
	Currency           string `json:"currency"`
}

type maxBorrowResponse struct {
	CollateralValueUSD string `json:"collateralValueUsd"`
	LoanValueUSD       string `json:"loanValueUsd"`
	BorrowAmount       string `json:"borrowAmount"`
	AppliedLTVBps      uint64 `json:"appliedLtvBps"`
}

type loanHealthRequest struct {
	CollateralToken    string `json:"collateralToken"`
	DurationSeconds    uint64 `json:"durationSeconds"`
	Principal          string `json:"principal"`
	AmountRepaid       string `json:"amountRepaid"`
	InterestRateBps    uint64 `json:"interestRateBps"`
	CollateralAmount   string `json:"collateralAmount"`
	CollateralReleased string `json:"collateralReleased"`
	CollateralSymbol   string `json:"collateralSymbol"`
	CollateralDecimals uint8  `json:"collateralDecimals"`
	BorrowSymbol       string `json:"borrowSymbol"`
	BorrowDecimals     uint8  `json:"borrowDecimals"`
}

type loanHealthResponse struct {
	OutstandingDebt     string `json:"outstandingDebt"`
	DebtValueUSD        string `json:"debtValueUsd"`
	CollateralValueUSD  string `json:"collateralValueUsd"`
	HealthFactor        string `json:"healthFactor,omitempty"`
	Status              string `json:"status"`
	LiquidationEligible bool   `json:"liquidationEligible"`
}

type liquidationSplitRequest struct {
	CollateralToken     string `json:"collateralToken"`
	DurationSeconds     uint64 `json:"durationSeconds"`
	OutstandingDebt     string `json:"outstandingDebt"`
	BorrowSymbol        string `json:"borrowSymbol"`
	BorrowDecimals      uint8  `json:"borrowDecimals"`
	CollateralSymbol    string `json:"collateralSymbol"`
	CollateralDecimals  uint8  `json:"collateralDecimals"`
	RemainingCollateral string `json:"remainingCollateral"`
}

type liquidationSplitResponse struct {
	DebtToPay         string `json:"debtToPay"`
	DebtValueUSD      string `json:"debtValueUsd"`
	CollateralForDebt string `json:"collateralForDebt"`
	Bonus             string `json:"bonus"`
	ToLiquidator      string `json:"toLiquidator"`
	ToBorrower        string `json:"toBorrower"`
}

type minPartialRepayRequest struct {
	AssetSymbol   string `json:"assetSymbol"`
	AssetDecimals uint8  `json:"assetDecimals"`
}

type minPartialRepayResponse struct {
	MinimumAmount string `json:"minimumAmount"`
	FloorUSDCents uint64 `json:"floorUsdCents"`
}

type convertRequest struct {
	Currency    string `json:"currency"`
	AmountCents string `json:"amountCents"`
	Direction   string `json:"direction"`
}

type convertResponse struct {
	ConvertedCents string `json:"convertedCents"`
	Rate           string `json:"rate"`
}

type feedStatus struct {
	Symbol       string `json:"symbol"`
	LastObserved string `json:"lastObserved"`
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a decimal integer", field, value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return amount, nil
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
