package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"loanmesh/native/lending"
)

// Config is the engine's operator-facing configuration. Every knob has a
// working default so an empty file is a valid deployment.
type Config struct {
	StaleAfterSeconds       uint64      `toml:"StaleAfterSeconds"`
	ApprovalHeadroomBps     uint64      `toml:"ApprovalHeadroomBps"`
	AllowanceBackoffSeconds uint64      `toml:"AllowanceBackoffSeconds"`
	ConfirmTimeoutSeconds   uint64      `toml:"ConfirmTimeoutSeconds"`
	MinPartialRepayUSDCents uint64      `toml:"MinPartialRepayUSDCents"`
	Risk                    []RiskEntry `toml:"Risk"`
}

// RiskEntry binds one collateral asset and loan duration to its risk limits.
type RiskEntry struct {
	CollateralToken         string `toml:"CollateralToken"`
	DurationSeconds         uint64 `toml:"DurationSeconds"`
	MaxLTVBps               uint64 `toml:"MaxLTVBps"`
	LiquidationThresholdBps uint64 `toml:"LiquidationThresholdBps"`
	LiquidationBonusBps     uint64 `toml:"LiquidationBonusBps"`
}

// Load reads the configuration from the given path. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.Normalise()
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalise fills zero values with the operating defaults.
func (c *Config) Normalise() {
	if c.StaleAfterSeconds == 0 {
		c.StaleAfterSeconds = 900
	}
	if c.ApprovalHeadroomBps == 0 {
		c.ApprovalHeadroomBps = 100
	}
	if c.AllowanceBackoffSeconds == 0 {
		c.AllowanceBackoffSeconds = 2
	}
	if c.ConfirmTimeoutSeconds == 0 {
		c.ConfirmTimeoutSeconds = 90
	}
	if c.MinPartialRepayUSDCents == 0 {
		c.MinPartialRepayUSDCents = 100
	}
}

// Validate rejects entries that cannot be turned into a working risk table.
func (c *Config) Validate() error {
	for i, entry := range c.Risk {
		token := strings.TrimSpace(entry.CollateralToken)
		if !common.IsHexAddress(token) {
			return fmt.Errorf("config: Risk[%d]: %q is not a hex address", i, entry.CollateralToken)
		}
		if entry.MaxLTVBps == 0 || entry.MaxLTVBps > 10_000 {
			return fmt.Errorf("config: Risk[%d]: MaxLTVBps %d out of range", i, entry.MaxLTVBps)
		}
		if entry.LiquidationThresholdBps < entry.MaxLTVBps {
			return fmt.Errorf("config: Risk[%d]: liquidation threshold %d below max LTV %d", i, entry.LiquidationThresholdBps, entry.MaxLTVBps)
		}
	}
	return nil
}

// StaleAfter returns the oracle freshness window.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// AllowanceBackoff returns the pause before the single allowance re-check.
func (c *Config) AllowanceBackoff() time.Duration {
	return time.Duration(c.AllowanceBackoffSeconds) * time.Second
}

// ConfirmTimeout returns the confirmation polling bound.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

// RiskTable builds the lending risk table from the configured entries.
func (c *Config) RiskTable() (*lending.RiskTable, error) {
	table := lending.NewRiskTable()
	for i, entry := range c.Risk {
		token := strings.TrimSpace(entry.CollateralToken)
		if !common.IsHexAddress(token) {
			return nil, fmt.Errorf("config: Risk[%d]: %q is not a hex address", i, entry.CollateralToken)
		}
		params := lending.RiskParameters{
			MaxLTVBps:               entry.MaxLTVBps,
			LiquidationThresholdBps: entry.LiquidationThresholdBps,
			LiquidationBonusBps:     entry.LiquidationBonusBps,
		}
		table.Set(common.HexToAddress(token), entry.DurationSeconds, params)
	}
	return table, nil
}
