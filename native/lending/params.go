package lending

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MinLTVBps is the lowest loan-to-value a borrower may select.
const MinLTVBps uint64 = 1_000

// DefaultLiquidationBonusBps is the fixed 5% bonus paid to liquidators when a
// pair does not override it.
const DefaultLiquidationBonusBps uint64 = 500

// RiskParameters holds the contract-sourced safety limits for one
// (collateral asset, duration) pair, all in basis points.
type RiskParameters struct {
	MaxLTVBps               uint64
	LiquidationThresholdBps uint64
	LiquidationBonusBps     uint64
}

type riskKey struct {
	asset    common.Address
	duration uint64
}

// RiskTable resolves risk parameters per (asset, duration) pair. A missing
// entry means the asset is not enabled for that duration.
type RiskTable struct {
	entries map[riskKey]RiskParameters
}

// NewRiskTable constructs an empty table.
func NewRiskTable() *RiskTable {
	return &RiskTable{entries: make(map[riskKey]RiskParameters)}
}

// Set registers parameters for the pair, applying the default liquidation
// bonus when unset.
func (t *RiskTable) Set(asset common.Address, duration uint64, params RiskParameters) {
	if t == nil {
		return
	}
	if t.entries == nil {
		t.entries = make(map[riskKey]RiskParameters)
	}
	if params.LiquidationBonusBps == 0 {
		params.LiquidationBonusBps = DefaultLiquidationBonusBps
	}
	t.entries[riskKey{asset: asset, duration: duration}] = params
}

// Lookup returns the parameters for the pair or ErrAssetNotEnabled.
func (t *RiskTable) Lookup(asset common.Address, duration uint64) (RiskParameters, error) {
	if t == nil || t.entries == nil {
		return RiskParameters{}, fmt.Errorf("%w: %s/%ds", ErrAssetNotEnabled, asset.Hex(), duration)
	}
	params, ok := t.entries[riskKey{asset: asset, duration: duration}]
	if !ok {
		return RiskParameters{}, fmt.Errorf("%w: %s/%ds", ErrAssetNotEnabled, asset.Hex(), duration)
	}
	return params, nil
}

// ClampLTV bounds a user-selected LTV into [MinLTVBps, maxBps]. Values beyond
// the contract-reported maximum are never extrapolated, only clamped.
func ClampLTV(selectedBps, maxBps uint64) uint64 {
	if maxBps < MinLTVBps {
		return maxBps
	}
	if selectedBps < MinLTVBps {
		return MinLTVBps
	}
	if selectedBps > maxBps {
		return maxBps
	}
	return selectedBps
}
