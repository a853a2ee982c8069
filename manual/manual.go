// Package manual implements the fetch adapter for hand-tracked assets that
// have no API: pension funds, crypto wallets, anything whose cashflows are
// maintained by editing the account's cashflow file directly. The adapter
// only contributes the declared current valuation; history lives in the
// store like any other account.
package manual

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v10"

	"github.com/etnz/patry"
)

// Account is the identifier this adapter is registered under.
const Account = "extras"

// Config declares the hand-tracked asset and its current valuation.
type Config struct {
	Asset   string  `env:"EXTRAS_ASSET" envDefault:"AFP Modelo"`
	Balance float64 `env:"EXTRAS_BALANCE"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Balance == 0 {
		return Config{}, fmt.Errorf("manual: EXTRAS_BALANCE is required")
	}
	return cfg, nil
}

// Fetcher reports the declared balance. It implements [patry.Fetcher].
type Fetcher struct {
	cfg Config
}

func New(cfg Config) *Fetcher { return &Fetcher{cfg: cfg} }

// Fetch returns the declared valuation. It never produces cashflows: those
// are appended to the store by hand.
func (f *Fetcher) Fetch(ctx context.Context) (patry.FetchResult, error) {
	return patry.FetchResult{
		Balances: []patry.AssetBalance{{
			Asset: f.cfg.Asset,
			Value: patry.M(f.cfg.Balance, patry.DefaultCurrency),
		}},
		AsOf: patry.Today(),
	}, nil
}
