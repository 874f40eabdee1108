package config

import (
	"fmt"
	"strings"

	"strata/internal/series"
)

func validate(cfg *Config) error {
	var problems []string

	if cfg.Backtest.InitialCapital <= 0 {
		problems = append(problems, "backtest.initial_capital must be > 0")
	}
	if cfg.Backtest.MaxPositionPercent <= 0 || cfg.Backtest.MaxPositionPercent > 100 {
		problems = append(problems, "backtest.max_position_percent must be in (0, 100]")
	}
	if cfg.Backtest.WarmupBars < 0 {
		problems = append(problems, "backtest.warmup_bars must be >= 0")
	}
	if strings.TrimSpace(cfg.Strategy.Name) == "" {
		problems = append(problems, "strategy.name cannot be empty")
	}
	if cfg.Data.Timeframe != "" {
		if _, err := series.ParseTimeframe(cfg.Data.Timeframe); err != nil {
			problems = append(problems, fmt.Sprintf("data.timeframe: %v", err))
		}
	}

	r := cfg.Robustness
	if r.MonteCarlo.Simulations <= 0 {
		problems = append(problems, "robustness.monte_carlo.simulations must be > 0")
	}
	if mode := r.MonteCarlo.Mode; mode != "permute" && mode != "bootstrap" {
		problems = append(problems, fmt.Sprintf("robustness.monte_carlo.mode %q: want permute or bootstrap", mode))
	}
	if r.WalkForward.TrainBars <= 0 || r.WalkForward.TestBars <= 0 || r.WalkForward.StepBars <= 0 {
		problems = append(problems, "robustness.walk_forward windows must be > 0")
	}
	if r.Sensitivity.GridSize < 2 {
		problems = append(problems, "robustness.sensitivity.grid_size must be >= 2")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
