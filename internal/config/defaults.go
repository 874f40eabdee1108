package config

import "github.com/spf13/viper"

func applyDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("backtest.initial_capital", 100_000)
	v.SetDefault("backtest.commission.type", "percent")
	v.SetDefault("backtest.commission.value", 0.1)
	v.SetDefault("backtest.spread.type", "percent")
	v.SetDefault("backtest.spread.value", 0.01)
	v.SetDefault("backtest.slippage.type", "fixed_percent")
	v.SetDefault("backtest.slippage.value", 0.05)
	v.SetDefault("backtest.allow_shorts", true)
	v.SetDefault("backtest.max_position_percent", 100)

	v.SetDefault("strategy.name", "sma_cross")

	v.SetDefault("robustness.monte_carlo.simulations", 10_000)
	v.SetDefault("robustness.monte_carlo.mode", "permute")
	v.SetDefault("robustness.monte_carlo.retain_curves", 100)
	v.SetDefault("robustness.walk_forward.train_bars", 5000)
	v.SetDefault("robustness.walk_forward.test_bars", 1000)
	v.SetDefault("robustness.walk_forward.step_bars", 500)
	v.SetDefault("robustness.walk_forward.iterations", 50)
	v.SetDefault("robustness.sensitivity.grid_size", 10)
	v.SetDefault("robustness.sensitivity.metric", "sharpe_ratio")

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.html", true)
	v.SetDefault("report.png", false)

	v.SetDefault("server.addr", ":8090")
}
