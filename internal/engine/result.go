package engine

import (
	"time"

	"strata/internal/portfolio"
)

// Result is the full output of one run. Immutable once built.
type Result struct {
	StrategyName string         `json:"strategy_name"`
	Symbol       string         `json:"symbol"`
	Timeframe    string         `json:"timeframe"`
	BarsPerYear  float64        `json:"bars_per_year"`
	Params       map[string]any `json:"params,omitempty"`

	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`

	Trades        []portfolio.Trade       `json:"trades"`
	EquityHistory []portfolio.EquityPoint `json:"equity_history"`

	// buy-and-hold comparison: same initial capital riding the close
	BuyHoldEquity        []float64 `json:"buy_hold_equity"`
	BuyHoldReturnPercent float64   `json:"buy_hold_return_percent"`

	TotalCommissions float64 `json:"total_commissions"`
	TotalSlippage    float64 `json:"total_slippage"`
	TotalSpreadCost  float64 `json:"total_spread_cost"`

	MaxDrawdown        float64 `json:"max_drawdown"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`

	TotalBars    int           `json:"total_bars"`
	WarmupBars   int           `json:"warmup_bars"`
	BarsInMarket int           `json:"bars_in_market"`
	Duration     time.Duration `json:"duration"`
}

// NetProfit is final equity minus initial capital.
func (r *Result) NetProfit() float64 {
	return r.FinalEquity - r.InitialCapital
}

// ReturnPercent is the net profit relative to initial capital.
func (r *Result) ReturnPercent() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return r.NetProfit() / r.InitialCapital * 100
}

// TotalCosts aggregates commission, slippage, and spread drag.
func (r *Result) TotalCosts() float64 {
	return r.TotalCommissions + r.TotalSlippage + r.TotalSpreadCost
}

// Alpha is the strategy return minus the buy-and-hold return.
func (r *Result) Alpha() float64 {
	return r.ReturnPercent() - r.BuyHoldReturnPercent
}

// TradePnLs extracts the net P&L sequence in trade order.
func (r *Result) TradePnLs() []float64 {
	out := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = t.NetPnL
	}
	return out
}
