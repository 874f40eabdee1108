// Package robust stress-tests a strategy's historical performance:
// Monte Carlo trade resampling, walk-forward out-of-sample validation,
// parameter sensitivity sweeps, and adverse-scenario injection. Each
// analyzer re-invokes the simulation engine many times; parallel tasks
// own their engine, portfolio, and strategy instance, so the analyzers
// share nothing mutable across goroutines.
package robust

import (
	"fmt"
	"runtime"

	"strata/internal/engine"
	"strata/internal/series"
	"strata/internal/stats"
	"strata/internal/strategy"
)

// Metric selects which statistic an optimizer or sweep ranks by.
// Drawdown is minimized; everything else is maximized.
type Metric string

const (
	MetricNetReturn    Metric = "net_return"
	MetricSharpeRatio  Metric = "sharpe_ratio"
	MetricSortinoRatio Metric = "sortino_ratio"
	MetricProfitFactor Metric = "profit_factor"
	MetricMaxDrawdown  Metric = "max_drawdown"
	MetricWinRate      Metric = "win_rate"
	MetricCalmarRatio  Metric = "calmar_ratio"
	MetricExpectancy   Metric = "expectancy"
)

func (m Metric) minimize() bool { return m == MetricMaxDrawdown }

func (m Metric) extract(s stats.Statistics) float64 {
	switch m {
	case MetricNetReturn:
		return s.NetReturnPercent
	case MetricSharpeRatio:
		return s.SharpeRatio
	case MetricSortinoRatio:
		return s.SortinoRatio
	case MetricProfitFactor:
		return s.ProfitFactor
	case MetricMaxDrawdown:
		return s.MaxDrawdownPercent
	case MetricWinRate:
		return s.WinRate
	case MetricCalmarRatio:
		return s.CalmarRatio
	case MetricExpectancy:
		return s.Expectancy
	default:
		return s.NetReturnPercent
	}
}

func (m Metric) better(candidate, incumbent float64) bool {
	if m.minimize() {
		return candidate < incumbent
	}
	return candidate > incumbent
}

func defaultWorkers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// runOnce executes one isolated simulation: cloned config, fresh
// strategy instance, fresh engine.
func runOnce(cfg engine.Config, factory strategy.Factory, params map[string]any, data *series.TimeSeries) (*engine.Result, stats.Statistics, error) {
	strat := factory()
	if len(params) > 0 {
		if err := strat.SetParams(params); err != nil {
			return nil, stats.Statistics{}, fmt.Errorf("set params: %w", err)
		}
	}
	eng, err := engine.New(cfg.Clone())
	if err != nil {
		return nil, stats.Statistics{}, err
	}
	result, err := eng.Run(data, strat)
	if err != nil {
		return nil, stats.Statistics{}, err
	}
	return result, stats.NewCalculator().Calculate(result), nil
}
