package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/cost"
	"strata/internal/portfolio"
	"strata/internal/series"
	"strata/internal/strategy"
)

// scripted is a minimal strategy driven by closures, for exercising the
// engine without any indicator logic.
type scripted struct {
	warmup int
	onInit func(ctx strategy.Context)
	onBar  func(ctx strategy.Context)
	onEnd  func(ctx strategy.Context)
}

func (s *scripted) Name() string                     { return "scripted" }
func (s *scripted) Description() string              { return "closure-driven test strategy" }
func (s *scripted) Params() []strategy.Param         { return nil }
func (s *scripted) SetParams(map[string]any) error   { return nil }
func (s *scripted) WarmupBars() int                  { return s.warmup }
func (s *scripted) Initialize(ctx strategy.Context) {
	if s.onInit != nil {
		s.onInit(ctx)
	}
}
func (s *scripted) OnBar(ctx strategy.Context) {
	if s.onBar != nil {
		s.onBar(ctx)
	}
}
func (s *scripted) OnEnd(ctx strategy.Context) {
	if s.onEnd != nil {
		s.onEnd(ctx)
	}
}

func linearSeries(t *testing.T, n int, first, last float64) *series.TimeSeries {
	t.Helper()
	bars := make([]series.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	step := (last - first) / float64(n-1)
	for i := range bars {
		c := first + step*float64(i)
		bars[i] = series.Bar{
			Timestamp: base + int64(i)*time.Hour.Milliseconds(),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1000,
		}
	}
	ts, err := series.New("TEST", series.TimeframeUnknown, bars)
	require.NoError(t, err)
	return ts
}

func TestBuyAndHoldScenario(t *testing.T) {
	// 200 bars rising 100 -> 150, zero costs, buy 1 unit at bar 50 and
	// hold: net return, buy-and-hold return both ~50%, alpha ~0
	data := linearSeries(t, 200, 100, 150)
	cfg := ZeroCostConfig()
	cfg.InitialCapital = 200

	bought := false
	strat := &scripted{onBar: func(ctx strategy.Context) {
		if !bought && ctx.BarIndex() == 50 {
			ctx.ExecuteMarketOrder(1)
			bought = true
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1) // auto-flattened at the end
	assert.InDelta(t, 50.0, result.BuyHoldReturnPercent, 1e-9)

	entry := data.Bar(50).Close
	expected := (150 - entry) / 200 * 100
	assert.InDelta(t, expected, result.ReturnPercent(), 1e-6)
	assert.InDelta(t, expected-50.0, result.Alpha(), 1e-6)

	assert.Equal(t, 200, result.TotalBars)
	assert.Len(t, result.EquityHistory, 200)
	assert.Len(t, result.BuyHoldEquity, 200)
	assert.Equal(t, 150-50, result.BarsInMarket)
}

func TestWarmupSuppressesCallback(t *testing.T) {
	data := linearSeries(t, 50, 100, 110)
	cfg := ZeroCostConfig()
	cfg.WarmupBars = 10

	var seen []int
	strat := &scripted{
		warmup: 20,
		onBar:  func(ctx strategy.Context) { seen = append(seen, ctx.BarIndex()) },
	}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)

	// strategy warmup wins over the config's smaller value
	require.NotEmpty(t, seen)
	assert.Equal(t, 20, seen[0])
	assert.Len(t, seen, 30)
	assert.Equal(t, 20, result.WarmupBars)

	// warmup bars still get marked to market
	assert.Len(t, result.EquityHistory, 50)
}

func TestDynamicSpreadUsesPreviousBar(t *testing.T) {
	// bar 2 has a huge range; a fill on bar 2 must be priced off bar 1's
	// small range
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	hour := time.Hour.Milliseconds()
	bars := []series.Bar{
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		{Timestamp: base + hour, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		{Timestamp: base + 2*hour, Open: 100, High: 120, Low: 80, Close: 100, Volume: 100},
	}
	data, err := series.New("TEST", series.TimeframeUnknown, bars)
	require.NoError(t, err)

	spread, err := cost.DynamicSpread(0)
	require.NoError(t, err)
	cfg := ZeroCostConfig()
	cfg.Spread = spread

	var fill float64
	strat := &scripted{onBar: func(ctx strategy.Context) {
		if ctx.BarIndex() == 2 {
			fill = ctx.ExecuteMarketOrder(1)
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	_, err = eng.Run(data, strat)
	require.NoError(t, err)

	// bar 1 range is 2 -> half spread 0.2; bar 2's own range of 40 must
	// not leak into its own fill
	assert.InDelta(t, 100+2*0.1, fill, 1e-9)
}

func TestInsufficientFundsFailsRun(t *testing.T) {
	data := linearSeries(t, 20, 100, 110)
	cfg := ZeroCostConfig()
	cfg.InitialCapital = 1000

	strat := &scripted{onBar: func(ctx strategy.Context) {
		ctx.ExecuteMarketOrder(1000) // ~100k notional against 1k cash
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	_, err = eng.Run(data, strat)
	require.Error(t, err)
	assert.ErrorIs(t, err, portfolio.ErrInsufficientFunds)
}

func TestReversalSplitsIntoTwoPositions(t *testing.T) {
	data := linearSeries(t, 20, 100, 100)
	cfg := ZeroCostConfig()

	strat := &scripted{onBar: func(ctx strategy.Context) {
		switch ctx.BarIndex() {
		case 0:
			ctx.ExecuteMarketOrder(10)
		case 2:
			ctx.ExecuteMarketOrder(-15) // closes 10, opens 5 short
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, portfolio.Long, result.Trades[0].Side)
	assert.Equal(t, 10.0, result.Trades[0].Quantity)
	assert.Equal(t, portfolio.Short, result.Trades[1].Side)
	assert.Equal(t, 5.0, result.Trades[1].Quantity)
}

func TestAddToPositionAveragesEntry(t *testing.T) {
	data := linearSeries(t, 20, 100, 119)
	cfg := ZeroCostConfig()
	cfg.InitialCapital = 10000

	var avgEntry float64
	strat := &scripted{onBar: func(ctx strategy.Context) {
		switch ctx.BarIndex() {
		case 0:
			ctx.ExecuteMarketOrder(10)
		case 4:
			ctx.ExecuteMarketOrder(10)
			avgEntry = ctx.PositionEntryPrice()
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)

	entry0 := data.Bar(0).Close
	entry4 := data.Bar(4).Close
	assert.InDelta(t, (entry0*10+entry4*10)/20, avgEntry, 1e-9)

	// close-then-reopen leaves a zero-P&L wash trade in the ledger plus
	// the final flatten
	require.Len(t, result.Trades, 2)
	assert.InDelta(t, 0, result.Trades[0].GrossPnL, 1e-9)
	assert.Equal(t, 20.0, result.Trades[1].Quantity)
}

func TestExecuteAtPriceRange(t *testing.T) {
	data := linearSeries(t, 20, 100, 100) // highs 100.5, lows 99.5
	cfg := ZeroCostConfig()

	var unreachable, reachable float64
	strat := &scripted{onBar: func(ctx strategy.Context) {
		if ctx.BarIndex() == 1 {
			unreachable = ctx.ExecuteAtPrice(1, 98) // below the low
			reachable = ctx.ExecuteAtPrice(1, 100.25)
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(unreachable))
	assert.Equal(t, 100.25, reachable)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, 100.25, result.Trades[0].EntryPrice)
}

func TestZeroQuantityReturnsNaN(t *testing.T) {
	data := linearSeries(t, 10, 100, 100)
	var fill float64
	strat := &scripted{onBar: func(ctx strategy.Context) {
		if ctx.BarIndex() == 0 {
			fill = ctx.ExecuteMarketOrder(0)
		}
	}}

	eng, err := New(ZeroCostConfig())
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(fill))
	assert.Empty(t, result.Trades)
}

func TestShortsDisabled(t *testing.T) {
	data := linearSeries(t, 10, 100, 100)
	cfg := ZeroCostConfig()
	cfg.AllowShorts = false

	var fill float64
	strat := &scripted{onBar: func(ctx strategy.Context) {
		if ctx.BarIndex() == 0 {
			fill = ctx.ExecuteMarketOrder(-5)
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(fill))
	assert.Empty(t, result.Trades)
}

func TestIntegerQuantityTruncates(t *testing.T) {
	data := linearSeries(t, 10, 100, 100)
	cfg := ZeroCostConfig()
	cfg.IntegerQuantity = true

	strat := &scripted{onBar: func(ctx strategy.Context) {
		if ctx.BarIndex() == 0 {
			ctx.ExecuteMarketOrder(7.9)
		}
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	result, err := eng.Run(data, strat)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, 7.0, result.Trades[0].Quantity)
}

func TestSizingHelpers(t *testing.T) {
	data := linearSeries(t, 10, 100, 100)
	cfg := ZeroCostConfig()
	cfg.InitialCapital = 10000

	strat := &scripted{onBar: func(ctx strategy.Context) {
		if ctx.BarIndex() != 0 {
			return
		}
		assert.Equal(t, 50.0, ctx.QuantityForDollars(5000))
		assert.Equal(t, 50.0, ctx.QuantityForPercentage(50))

		// risk 1% of 10k equity with a stop 2 points away -> 50 units
		assert.Equal(t, 50.0, ctx.QuantityForRisk(1, 2))
		// zero stop distance is a refused order, not a division
		assert.Equal(t, 0.0, ctx.QuantityForRisk(1, 0))
		// clamped by affordable cash with the 1% buffer
		assert.Equal(t, math.Floor(10000.0/100*0.99), ctx.QuantityForRisk(100, 0.1))
	}}

	eng, err := New(cfg)
	require.NoError(t, err)
	_, err = eng.Run(data, strat)
	require.NoError(t, err)
}
