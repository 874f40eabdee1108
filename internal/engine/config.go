package engine

import (
	"fmt"

	"strata/internal/cost"
)

// Config carries everything one run needs besides data and strategy.
// Treat as immutable once built; independent runs must use Clone so the
// stateful cost models are not shared.
type Config struct {
	InitialCapital     float64
	Commission         cost.Commission
	Spread             *cost.Spread
	Slippage           *cost.Slippage
	AllowShorts        bool
	MaxPositionPercent float64 // cap on position notional as percent of equity
	WarmupBars         int
	IntegerQuantity    bool
}

// DefaultConfig mirrors a retail-ish cost assumption: 0.1% commission,
// 0.01% spread, 0.05% slippage.
func DefaultConfig() Config {
	commission, _ := cost.PercentCommission(0.1)
	spread, _ := cost.PercentSpread(0.01)
	slippage, _ := cost.FixedPercentSlippage(0.05)
	return Config{
		InitialCapital:     100_000,
		Commission:         commission,
		Spread:             spread,
		Slippage:           slippage,
		AllowShorts:        true,
		MaxPositionPercent: 100,
	}
}

// ZeroCostConfig is the frictionless variant used by analytic tests and
// cost-sensitivity baselines.
func ZeroCostConfig() Config {
	cfg := DefaultConfig()
	cfg.Commission = cost.ZeroCommission()
	cfg.Spread = cost.ZeroSpread()
	cfg.Slippage = cost.ZeroSlippage()
	return cfg
}

func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.Spread == nil || c.Slippage == nil {
		return fmt.Errorf("cost models must be set")
	}
	if c.MaxPositionPercent <= 0 || c.MaxPositionPercent > 100 {
		return fmt.Errorf("max position percent must be in (0, 100], got %v", c.MaxPositionPercent)
	}
	if c.WarmupBars < 0 {
		return fmt.Errorf("warmup bars must be >= 0, got %v", c.WarmupBars)
	}
	return nil
}

// Clone returns a config whose stateful cost models are fresh copies, so
// a parallel run cannot observe another run's previous-bar state.
func (c Config) Clone() Config {
	out := c
	out.Spread = c.Spread.Clone()
	out.Slippage = c.Slippage.Clone()
	return out
}
