package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/series"
)

func bar(ts int64, close float64) series.Bar {
	return series.Bar{Timestamp: ts, Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 100}
}

func TestOpenCloseRoundTrip(t *testing.T) {
	p := New(10000)
	require.NoError(t, p.Open("EURUSD", Long, 100, 50, 1000, 0, 5))

	assert.True(t, p.HasPosition())
	assert.InDelta(t, 10000-100*50-5, p.Cash(), 1e-9)
	assert.InDelta(t, 10000-5, p.Equity(), 1e-9)

	p.Update(bar(2000, 110))
	assert.InDelta(t, 50*10, p.Position().UnrealizedPnL(), 1e-9)

	trade, err := p.Close(110, 2000, 1, 5, 0)
	require.NoError(t, err)
	assert.False(t, p.HasPosition())
	assert.InDelta(t, 500.0, trade.GrossPnL, 1e-9)
	assert.InDelta(t, 490.0, trade.NetPnL, 1e-9)
	assert.Equal(t, 10.0, trade.Commission)
	assert.Equal(t, 1, trade.BarsHeld)
	assert.True(t, trade.Win())
	assert.Len(t, p.Trades(), 1)
	assert.InDelta(t, 10000+500-10, p.Cash(), 1e-9)
}

func TestShortPnL(t *testing.T) {
	p := New(10000)
	require.NoError(t, p.Open("EURUSD", Short, 100, 20, 1000, 0, 0))

	trade, err := p.Close(90, 2000, 3, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, trade.GrossPnL, 1e-9)
	assert.Equal(t, 3, trade.BarsHeld)
}

func TestInsufficientFunds(t *testing.T) {
	p := New(100)
	err := p.Open("EURUSD", Long, 100, 5, 1000, 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "required 500.00")
	assert.Contains(t, err.Error(), "available 100.00")
	assert.False(t, p.HasPosition())
	assert.Equal(t, 100.0, p.Cash())
}

func TestSingleOpenPositionInvariant(t *testing.T) {
	p := New(10000)
	require.NoError(t, p.Open("EURUSD", Long, 100, 10, 1000, 0, 0))

	err := p.Open("EURUSD", Long, 100, 10, 2000, 1, 0)
	assert.ErrorIs(t, err, ErrPositionState)

	_, err = New(10000).Close(100, 1000, 0, 0, 0)
	assert.ErrorIs(t, err, ErrPositionState)
}

func TestEquityHistoryAndDrawdown(t *testing.T) {
	p := New(10000)
	require.NoError(t, p.Open("EURUSD", Long, 100, 100, 1000, 0, 0))

	closes := []float64{100, 110, 105, 90, 95}
	for i, c := range closes {
		p.Update(bar(int64(1000+i*1000), c))
	}

	history := p.EquityHistory()
	require.Len(t, history, len(closes))

	// peak at 110 close: equity 11000; trough at 90: equity 9000
	assert.InDelta(t, 11000, p.PeakEquity(), 1e-9)
	assert.InDelta(t, 2000, p.MaxDrawdown(), 1e-9)
	assert.InDelta(t, 2000.0/11000*100, p.MaxDrawdownPercent(), 1e-9)
	assert.InDelta(t, 1500, p.CurrentDrawdown(), 1e-9)
	assert.Equal(t, len(closes), p.TotalBarsInMarket())

	// peak sequence never decreases
	peak := 0.0
	for _, pt := range history {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		assert.InDelta(t, peak-pt.Equity, pt.Drawdown, 1e-9)
		assert.True(t, pt.InPosition)
	}
}

func TestExcursionWatermarks(t *testing.T) {
	pos := NewPosition("EURUSD", Long, 100, 10, 1000, 0)
	for _, price := range []float64{102, 97, 104, 99} {
		pos.UpdatePrice(price)
	}
	assert.InDelta(t, (104-100)*10, pos.MaxFavorableExcursion(), 1e-9)
	assert.InDelta(t, (97-100)*10, pos.MaxAdverseExcursion(), 1e-9)

	short := NewPosition("EURUSD", Short, 100, 10, 1000, 0)
	for _, price := range []float64{102, 97, 104, 99} {
		short.UpdatePrice(price)
	}
	assert.InDelta(t, (100-97)*10, short.MaxFavorableExcursion(), 1e-9)
	assert.InDelta(t, (100-104)*10, short.MaxAdverseExcursion(), 1e-9)
}

func TestReset(t *testing.T) {
	p := New(10000)
	require.NoError(t, p.Open("EURUSD", Long, 100, 10, 1000, 0, 0))
	p.Update(bar(1000, 105))
	_, err := p.Close(105, 2000, 1, 0, 0)
	require.NoError(t, err)

	p.Reset()
	assert.Equal(t, 10000.0, p.Cash())
	assert.Empty(t, p.Trades())
	assert.Empty(t, p.EquityHistory())
	assert.Equal(t, 10000.0, p.PeakEquity())
	assert.Zero(t, p.MaxDrawdown())
}
