package stats

// Statistics is the full set of derived performance metrics for one run.
// A pure value object; every field is computed by Calculator.
type Statistics struct {
	// P&L
	NetProfit        float64 `json:"net_profit"`
	NetReturnPercent float64 `json:"net_return_percent"`
	GrossProfit      float64 `json:"gross_profit"`
	GrossLoss        float64 `json:"gross_loss"`
	ProfitFactor     float64 `json:"profit_factor"`

	// Run-up and drawdown
	MaxEquityRunUp        float64 `json:"max_equity_run_up"`
	MaxEquityRunUpPercent float64 `json:"max_equity_run_up_percent"`
	MaxDrawdown           float64 `json:"max_drawdown"`
	MaxDrawdownPercent    float64 `json:"max_drawdown_percent"`
	MaxDrawdownDuration   int     `json:"max_drawdown_duration"` // longest run of bars under a peak

	// Benchmark
	BuyHoldReturn float64 `json:"buy_hold_return"`
	Alpha         float64 `json:"alpha"`

	// Risk-adjusted
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	CalmarRatio    float64 `json:"calmar_ratio"`
	RecoveryFactor float64 `json:"recovery_factor"`
	CAGR           float64 `json:"cagr"`

	// Trades
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	WinRate              float64 `json:"win_rate"`
	AvgTrade             float64 `json:"avg_trade"`
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"`
	PayoffRatio          float64 `json:"payoff_ratio"`
	Expectancy           float64 `json:"expectancy"`
	ExpectancyPercent    float64 `json:"expectancy_percent"`
	LargestWin           float64 `json:"largest_win"`
	LargestLoss          float64 `json:"largest_loss"`
	AvgBarsInTrade       float64 `json:"avg_bars_in_trade"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	AvgMFE               float64 `json:"avg_mfe"`
	AvgMAE               float64 `json:"avg_mae"`

	// Volatility and exposure
	ReturnVolatility  float64 `json:"return_volatility"`
	DownsideDeviation float64 `json:"downside_deviation"`
	TimeInMarket      float64 `json:"time_in_market"`

	// Activity
	Turnover      float64 `json:"turnover"`
	TradesPerYear int     `json:"trades_per_year"`

	// Costs
	TotalCommissions  float64 `json:"total_commissions"`
	TotalSlippage     float64 `json:"total_slippage"`
	TotalSpreadCost   float64 `json:"total_spread_cost"`
	TotalCosts        float64 `json:"total_costs"`
	PnLBeforeCosts    float64 `json:"pnl_before_costs"`
	PnLAfterCosts     float64 `json:"pnl_after_costs"`
	CostImpactPercent float64 `json:"cost_impact_percent"`

	// Extent
	TotalBars    int `json:"total_bars"`
	BarsInMarket int `json:"bars_in_market"`
}
