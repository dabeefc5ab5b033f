// Package config loads the lendview daemon's runtime settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings for the lendview daemon.
type Config struct {
	ListenAddress string         `yaml:"listen"`
	EnginePath    string         `yaml:"engine_config"`
	Feeds         []FeedOverride `yaml:"feeds"`
	Rates         []RateOverride `yaml:"rates"`
}

// FeedOverride pins a manual USD price for a symbol, for incident response
// and local development.
type FeedOverride struct {
	Symbol string `yaml:"symbol"`
	Price  string `yaml:"price"`
}

// RateOverride pins a manual units-per-USD exchange rate for a currency.
type RateOverride struct {
	Currency string `yaml:"currency"`
	Rate     string `yaml:"rate"`
}

// Load reads the YAML configuration from disk and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: ":8470",
		EnginePath:    "loanmesh.toml",
	}
	if path == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8470"
	}
	cfg.EnginePath = strings.TrimSpace(cfg.EnginePath)
	if cfg.EnginePath == "" {
		cfg.EnginePath = "loanmesh.toml"
	}
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	for i, feed := range cfg.Feeds {
		if strings.TrimSpace(feed.Symbol) == "" || strings.TrimSpace(feed.Price) == "" {
			return fmt.Errorf("feeds[%d]: symbol and price are required", i)
		}
	}
	for i, rate := range cfg.Rates {
		if strings.TrimSpace(rate.Currency) == "" || strings.TrimSpace(rate.Rate) == "" {
			return fmt.Errorf("rates[%d]: currency and rate are required", i)
		}
	}
	return nil
}
