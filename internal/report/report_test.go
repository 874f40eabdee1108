package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/engine"
	"strata/internal/portfolio"
	"strata/internal/robust"
	"strata/internal/stats"
)

func sampleResult() *engine.Result {
	equities := []float64{10000, 10200, 10100, 10500, 10400, 10800}
	history := make([]portfolio.EquityPoint, len(equities))
	peak := equities[0]
	for i, eq := range equities {
		if eq > peak {
			peak = eq
		}
		history[i] = portfolio.EquityPoint{
			Timestamp: int64(i) * 3_600_000,
			Equity:    eq,
			Drawdown:  peak - eq,
		}
	}
	bh := make([]float64, len(equities))
	for i := range bh {
		bh[i] = 10000 + float64(i)*50
	}
	return &engine.Result{
		StrategyName:   "sma_cross",
		Symbol:         "BTCUSDT",
		Timeframe:      "1h",
		BarsPerYear:    8760,
		InitialCapital: 10000,
		FinalEquity:    10800,
		Trades: []portfolio.Trade{
			{Symbol: "BTCUSDT", Side: portfolio.Long, EntryTime: 0, ExitTime: 7_200_000, EntryPrice: 100, ExitPrice: 110, Quantity: 20, NetPnL: 200, BarsHeld: 2},
			{Symbol: "BTCUSDT", Side: portfolio.Short, EntryTime: 7_200_000, ExitTime: 14_400_000, EntryPrice: 110, ExitPrice: 105, Quantity: 20, NetPnL: 100, BarsHeld: 2},
		},
		EquityHistory:        history,
		BuyHoldEquity:        bh,
		BuyHoldReturnPercent: 2.5,
		TotalCommissions:     12,
		MaxDrawdown:          100,
		MaxDrawdownPercent:   100.0 / 10500 * 100,
		TotalBars:            len(equities),
	}
}

func sampleReport() *Report {
	res := sampleResult()
	return &Report{Result: res, Stats: stats.NewCalculator().Calculate(res)}
}

func TestStatisticsTableContainsKeyMetrics(t *testing.T) {
	r := sampleReport()
	out := StatisticsTable(r.Result, r.Stats)

	assert.Contains(t, out, "sma_cross")
	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "Net Profit")
	assert.Contains(t, out, "800.00")
	assert.Contains(t, out, "Sharpe Ratio")
	assert.Contains(t, out, "Win Rate")
	assert.Contains(t, out, "100.00%")
}

func TestTradesTableLimitsToNewest(t *testing.T) {
	trades := make([]portfolio.Trade, 30)
	for i := range trades {
		trades[i] = portfolio.Trade{
			Side:       portfolio.Long,
			EntryPrice: 100,
			ExitPrice:  101,
			Quantity:   1,
			NetPnL:     float64(i + 1),
			BarsHeld:   1,
		}
	}
	out := TradesTable(trades, 20)

	assert.Contains(t, out, "showing last 20 of 30 trades")
	assert.Contains(t, out, "30.00")
	assert.NotContains(t, out, "10.00")
	assert.Contains(t, out, "LONG")
}

func TestMonteCarloTableShowsPercentiles(t *testing.T) {
	out := MonteCarloTable(robust.MonteCarloResult{
		Equity5:         9000,
		Equity50:        10500,
		Equity95:        12000,
		MaxDrawdown50:   8,
		RuinProbability: 1.5,
	})

	assert.Contains(t, out, "9000.00")
	assert.Contains(t, out, "12000.00")
	assert.Contains(t, out, "Ruin Probability")
	assert.Contains(t, out, "1.50%")
}

func TestWalkForwardTableMarksFailedWindows(t *testing.T) {
	wf := &robust.WalkForwardResult{
		Windows: []robust.WindowResult{
			{TrainStart: 0, TrainEnd: 100, TestStart: 100, TestEnd: 150, TrainScore: 1.2, Result: sampleResult()},
			{TrainStart: 50, TrainEnd: 150, TestStart: 150, TestEnd: 200, Error: "slice out of range"},
		},
		Aggregated: robust.Aggregated{TotalReturn: 8, TotalTrades: 2, SharpeRatio: 1.1},
	}
	out := WalkForwardTable(wf)

	assert.Contains(t, out, "0-100")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "sharpe 1.10")
}

func TestStressTableRendersVerdicts(t *testing.T) {
	sr := &robust.StressReport{Scenarios: []robust.ScenarioResult{
		{Name: "Baseline", NetReturn: 8, SharpeRatio: 1.5, MaxDrawdown: 5, Trades: 12, Status: robust.StatusPass},
		{Name: "30% Crash", NetReturn: -12, MaxDrawdown: 35, Trades: 12, Status: robust.StatusFail},
	}}
	out := StressTable(sr)

	assert.Contains(t, out, "Baseline")
	assert.Contains(t, out, "30% Crash")
	assert.Contains(t, out, "1/2 passed")
	assert.Contains(t, out, robust.StatusFail)
}

func TestSummaryIncludesOptionalSections(t *testing.T) {
	r := sampleReport()
	base := r.Summary()
	assert.NotContains(t, base, "Monte Carlo")

	r.MonteCarlo = &robust.MonteCarloResult{Equity50: 10500}
	r.Stress = &robust.StressReport{Scenarios: []robust.ScenarioResult{{Name: "Baseline", Status: robust.StatusPass}}}
	full := r.Summary()
	assert.Contains(t, full, "Monte Carlo")
	assert.Contains(t, full, "Stress Battery")
}

func TestHTMLRendersChartPage(t *testing.T) {
	r := sampleReport()
	r.MonteCarlo = &robust.MonteCarloResult{
		Simulations: 100,
		Curves:      [][]float64{{10000, 10100, 10300}, {10000, 9900, 10200}},
	}
	r.Sensitivity = &robust.HeatmapResult{
		Param1Name: "fast",
		Param2Name: "slow",
		Param1:     []float64{5, 10},
		Param2:     []float64{20, 30},
		Values:     [][]float64{{1.1, 0.9}, {1.4, 1.2}},
		Metric:     robust.MetricSharpeRatio,
	}

	html, err := r.HTML()
	require.NoError(t, err)
	page := string(html)

	assert.Contains(t, page, "echarts")
	assert.Contains(t, page, "Strategy")
	assert.Contains(t, page, "Hold")
	assert.Contains(t, page, "Drawdown")
	assert.Contains(t, page, "Monte Carlo")
	assert.Contains(t, page, "Sensitivity")
}

func TestHTMLRequiresEquityHistory(t *testing.T) {
	r := &Report{Result: &engine.Result{}}
	_, err := r.HTML()
	assert.Error(t, err)
}

func TestWriteHTMLCreatesDirectories(t *testing.T) {
	r := sampleReport()
	path := filepath.Join(t.TempDir(), "out", "report.html")
	require.NoError(t, r.WriteHTML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "echarts"))
}
