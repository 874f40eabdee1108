package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"strata/internal/engine"
	"strata/internal/portfolio"
)

func resultWith(trades []portfolio.Trade, equities []float64) *engine.Result {
	history := make([]portfolio.EquityPoint, len(equities))
	peak := 0.0
	for i, e := range equities {
		if e > peak {
			peak = e
		}
		history[i] = portfolio.EquityPoint{Timestamp: int64(i), Equity: e, Drawdown: peak - e}
	}
	final := 10000.0
	if len(equities) > 0 {
		final = equities[len(equities)-1]
	}
	return &engine.Result{
		InitialCapital: 10000,
		FinalEquity:    final,
		Trades:         trades,
		EquityHistory:  history,
		TotalBars:      len(equities),
		BarsPerYear:    252,
	}
}

func trade(pnl float64, barsHeld int) portfolio.Trade {
	return portfolio.Trade{
		EntryPrice: 100,
		Quantity:   10,
		NetPnL:     pnl,
		GrossPnL:   pnl,
		BarsHeld:   barsHeld,
	}
}

func TestEmptyInputsDegradeToZero(t *testing.T) {
	calc := NewCalculator()
	s := calc.Calculate(resultWith(nil, nil))

	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.SortinoRatio)
	assert.Zero(t, s.CalmarRatio)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.PayoffRatio)
	assert.Zero(t, s.MaxDrawdown)
	assert.Zero(t, s.Turnover)
	assert.False(t, math.IsNaN(s.CAGR))
}

func TestTradeMetrics(t *testing.T) {
	trades := []portfolio.Trade{
		trade(100, 5), trade(200, 3), trade(-50, 2), trade(300, 4), trade(-150, 6),
	}
	s := NewCalculator().Calculate(resultWith(trades, []float64{10000, 10100, 10300, 10250, 10550, 10400}))

	assert.Equal(t, 5, s.TotalTrades)
	assert.Equal(t, 3, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.InDelta(t, 60.0, s.WinRate, 1e-9)
	assert.InDelta(t, 600.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 200.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 3.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 200.0, s.AvgWin, 1e-9)
	assert.InDelta(t, 100.0, s.AvgLoss, 1e-9)
	assert.InDelta(t, 2.0, s.PayoffRatio, 1e-9)
	assert.Equal(t, 300.0, s.LargestWin)
	assert.Equal(t, -150.0, s.LargestLoss)
	assert.InDelta(t, 4.0, s.AvgBarsInTrade, 1e-9)
	assert.Equal(t, 2, s.MaxConsecutiveWins)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)

	// entry notional 1000 each way, 5 round trips
	avgEquity := (10000.0 + 10100 + 10300 + 10250 + 10550 + 10400) / 6
	assert.InDelta(t, 5*100*10*2/avgEquity, s.Turnover, 1e-9)
}

func TestProfitFactorInfiniteWithNoLosses(t *testing.T) {
	s := NewCalculator().Calculate(resultWith([]portfolio.Trade{trade(100, 1)}, []float64{10000, 10100}))
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.True(t, math.IsInf(s.PayoffRatio, 1))
}

func TestRatiosZeroOnZeroDenominator(t *testing.T) {
	// perfectly flat equity: stddev 0, drawdown 0
	s := NewCalculator().Calculate(resultWith(nil, []float64{10000, 10000, 10000, 10000}))
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.SortinoRatio)
	assert.Zero(t, s.CalmarRatio)
	assert.Zero(t, s.RecoveryFactor)

	// monotonically rising equity: no negative returns -> sortino 0
	s = NewCalculator().Calculate(resultWith(nil, []float64{10000, 10100, 10200, 10300}))
	assert.Zero(t, s.SortinoRatio)
	assert.Greater(t, s.SharpeRatio, 0.0)
}

func TestDrawdownDuration(t *testing.T) {
	// peak at 10500, then four bars underwater, recovery, then two more
	equity := []float64{10000, 10500, 10400, 10300, 10350, 10450, 10600, 10550, 10500}
	s := NewCalculator().Calculate(resultWith(nil, equity))

	assert.InDelta(t, 200.0, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 200.0/10500*100, s.MaxDrawdownPercent, 1e-9)
	assert.Equal(t, 4, s.MaxDrawdownDuration)
	assert.InDelta(t, 600.0, s.MaxEquityRunUp, 1e-9)
}

func TestCostImpact(t *testing.T) {
	r := resultWith(nil, []float64{10000, 10400})
	r.FinalEquity = 10400
	r.TotalCommissions = 60
	r.TotalSlippage = 30
	r.TotalSpreadCost = 10

	s := NewCalculator().Calculate(r)
	assert.InDelta(t, 100.0, s.TotalCosts, 1e-9)
	assert.InDelta(t, 500.0, s.PnLBeforeCosts, 1e-9)
	assert.InDelta(t, 400.0, s.PnLAfterCosts, 1e-9)
	assert.InDelta(t, 20.0, s.CostImpactPercent, 1e-9)
}

func TestAnnualization(t *testing.T) {
	// 252 bar returns alternating +0.2%/0%: roughly a full trading year
	equity := make([]float64, 253)
	equity[0] = 10000
	for i := 1; i < len(equity); i++ {
		r := 1.002
		if i%2 == 0 {
			r = 1.0
		}
		equity[i] = equity[i-1] * r
	}
	s := NewCalculator().Calculate(resultWith(nil, equity))

	// mean 0.1% and stddev 0.1% per bar: Sharpe near sqrt(252)
	assert.InDelta(t, math.Sqrt(252), s.SharpeRatio, 0.2)
	realized := (equity[len(equity)-1]/10000 - 1) * 100
	assert.InDelta(t, realized, s.CAGR, 1.0)

	// the override constant rescales Sharpe by sqrt(ratio)
	weekly := &Calculator{PeriodsPerYear: 52}
	s52 := weekly.Calculate(resultWith(nil, equity))
	assert.InDelta(t, s.SharpeRatio*math.Sqrt(52.0/252.0), s52.SharpeRatio, 1e-6)
}
