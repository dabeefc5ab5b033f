package txflow

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// genericRevertMessage is the last-resort rendering when nothing in the
// payload can be decoded.
const genericRevertMessage = "transaction would revert"

// revertSignatures maps known custom contract error signatures to user-facing
// text. Decoding tries these structured identifiers first, then the standard
// Error(string) payload, then a raw-string match, in that order.
var revertSignatures = map[string]string{
	"AmountExceedsDebt()":      "repayment exceeds the outstanding debt",
	"RepaymentBelowMinimum()":  "repayment is below the minimum partial amount",
	"InsufficientAllowance()":  "token allowance is too low for this amount",
	"InsufficientCollateral()": "collateral does not cover the requested amount",
	"LoanNotActive()":          "the loan is no longer active",
	"LoanNotExpired()":         "the loan has not reached its due date",
	"NotLiquidatable()":        "the loan is not eligible for liquidation",
	"PriceFeedStale()":         "the price feed is stale; try again shortly",
	"RequestExpired()":         "the loan request has expired",
	"ExtensionNotRequested()":  "no extension was requested for this loan",
	"TransferFailed()":         "the token transfer failed",
	"Unauthorized()":           "the connected account is not a party to this loan",
}

// revertStrings maps known require-style revert reasons to user-facing text.
var revertStrings = map[string]string{
	"amount exceeds debt":                    "repayment exceeds the outstanding debt",
	"below minimum repayment":                "repayment is below the minimum partial amount",
	"insufficient allowance":                 "token allowance is too low for this amount",
	"loan not active":                        "the loan is no longer active",
	"not liquidatable":                       "the loan is not eligible for liquidation",
	"stale price":                            "the price feed is stale; try again shortly",
	"erc20: transfer amount exceeds balance": "the account balance cannot cover this amount",
}

var selectorMessages = buildSelectorTable()

func buildSelectorTable() map[string]string {
	table := make(map[string]string, len(revertSignatures))
	for signature, message := range revertSignatures {
		selector := crypto.Keccak256([]byte(signature))[:4]
		table[hex.EncodeToString(selector)] = message
	}
	return table
}

// DecodeRevert renders the most specific user-facing message available for a
// failed simulation or revert: structured error selector first, then the
// ABI-standard Error(string) payload, then a raw reason match, then a generic
// fallback.
func DecodeRevert(data []byte, raw string) string {
	if len(data) >= 4 {
		if message, ok := selectorMessages[hex.EncodeToString(data[:4])]; ok {
			return message
		}
		if reason, err := abi.UnpackRevert(data); err == nil && strings.TrimSpace(reason) != "" {
			return matchRawReason(reason)
		}
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return matchRawReason(trimmed)
	}
	return genericRevertMessage
}

func matchRawReason(reason string) string {
	needle := strings.ToLower(strings.TrimSpace(reason))
	if message, ok := revertStrings[needle]; ok {
		return message
	}
	for fragment, message := range revertStrings {
		if strings.Contains(needle, fragment) {
			return message
		}
	}
	return reason
}
