// Package engine drives the bar-by-bar simulation: it marks the
// portfolio to market, invokes the strategy callback after warmup, and
// records each completed bar for the dynamic cost models strictly after
// the callback, so a decision can never see its own bar's finished range
// or volume.
package engine

import (
	"fmt"
	"time"

	"strata/internal/logger"
	"strata/internal/portfolio"
	"strata/internal/series"
	"strata/internal/strategy"
)

// Engine runs one strategy over one series per call. The bar loop is
// strictly sequential; parallelism lives in the analyzers, which run
// many engines over independent state.
type Engine struct {
	cfg Config
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Run executes the full simulation and assembles the result. The config
// is cloned per run, so one Engine can serve many sequential runs without
// leaking previous-bar state between them.
func (e *Engine) Run(data *series.TimeSeries, strat strategy.Strategy) (*Result, error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("no data to simulate")
	}

	cfg := e.cfg.Clone()
	pf := portfolio.New(cfg.InitialCapital)
	ctx := NewContext(data, pf, cfg)

	strat.Initialize(ctx)

	warmup := cfg.WarmupBars
	if sw := strat.WarmupBars(); sw > warmup {
		warmup = sw
	}

	start := time.Now()
	logger.Debugf("run start: strategy=%s symbol=%s bars=%d warmup=%d",
		strat.Name(), data.Symbol(), data.Len(), warmup)

	for i := 0; i < data.Len(); i++ {
		bar := data.Bar(i)
		ctx.SetBarIndex(i)
		ctx.UpdatePortfolio(bar)

		if i >= warmup {
			strat.OnBar(ctx)
			if err := ctx.Failure(); err != nil {
				return nil, fmt.Errorf("run failed at bar %d: %w", i, err)
			}
		}

		// record the completed bar only now, after the callback: the
		// dynamic spread/slippage for bar i must depend on bar i-1
		cfg.Spread.RecordBar(bar)
		cfg.Slippage.RecordBar(bar)
	}

	// flatten whatever is still open at the final bar's market price
	if pf.HasPosition() {
		ctx.SetBarIndex(data.Len() - 1)
		ctx.ClosePosition()
		if err := ctx.Failure(); err != nil {
			return nil, fmt.Errorf("final close failed: %w", err)
		}
	}

	strat.OnEnd(ctx)
	if err := ctx.Failure(); err != nil {
		return nil, fmt.Errorf("run failed in OnEnd: %w", err)
	}

	result := e.buildResult(data, strat, ctx, pf, warmup, time.Since(start))
	logger.Debugf("run done: strategy=%s return=%.2f%% trades=%d elapsed=%s",
		strat.Name(), result.ReturnPercent(), len(result.Trades), result.Duration)
	return result, nil
}

func (e *Engine) buildResult(data *series.TimeSeries, strat strategy.Strategy, ctx *Context, pf *portfolio.Portfolio, warmup int, elapsed time.Duration) *Result {
	closes := data.Closes()
	firstClose := closes[0]
	buyHold := make([]float64, len(closes))
	for i, c := range closes {
		buyHold[i] = e.cfg.InitialCapital * c / firstClose
	}

	return &Result{
		StrategyName:         strat.Name(),
		Symbol:               data.Symbol(),
		Timeframe:            data.Timeframe().Key,
		BarsPerYear:          data.Timeframe().BarsPerYear,
		InitialCapital:       e.cfg.InitialCapital,
		FinalEquity:          pf.Equity(),
		Trades:               pf.Trades(),
		EquityHistory:        pf.EquityHistory(),
		BuyHoldEquity:        buyHold,
		BuyHoldReturnPercent: (closes[len(closes)-1]/firstClose - 1) * 100,
		TotalCommissions:     ctx.TotalCommissions(),
		TotalSlippage:        ctx.TotalSlippage(),
		TotalSpreadCost:      ctx.TotalSpreadCost(),
		MaxDrawdown:          pf.MaxDrawdown(),
		MaxDrawdownPercent:   pf.MaxDrawdownPercent(),
		TotalBars:            data.Len(),
		WarmupBars:           warmup,
		BarsInMarket:         pf.TotalBarsInMarket(),
		Duration:             elapsed,
	}
}
