package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/series"
)

func seriesFromCloses(t *testing.T, closes []float64) *series.TimeSeries {
	t.Helper()
	bars := make([]series.Bar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i, c := range closes {
		bars[i] = series.Bar{
			Timestamp: base + int64(i)*time.Hour.Milliseconds(),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	ts, err := series.New("TEST", series.TimeframeUnknown, bars)
	require.NoError(t, err)
	return ts
}

func TestSMAValues(t *testing.T) {
	ind := NewIndicators(seriesFromCloses(t, []float64{1, 2, 3, 4, 5, 6}))

	assert.True(t, math.IsNaN(ind.SMA(1, 3)))
	assert.InDelta(t, 2.0, ind.SMA(2, 3), 1e-9)
	assert.InDelta(t, 5.0, ind.SMA(5, 3), 1e-9)
	assert.True(t, math.IsNaN(ind.SMA(5, 0)))
}

func TestIndicatorsNeverSeeFutureBars(t *testing.T) {
	// identical prefixes must give identical values regardless of what
	// comes after the evaluation index
	closesA := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	closesB := append(append([]float64{}, closesA[:8]...), 500, 600)

	a := NewIndicators(seriesFromCloses(t, closesA))
	b := NewIndicators(seriesFromCloses(t, closesB))

	for _, period := range []int{3, 5} {
		assert.Equal(t, a.SMA(7, period), b.SMA(7, period))
		assert.Equal(t, a.EMA(7, period), b.EMA(7, period))
		assert.Equal(t, a.RSI(7, period), b.RSI(7, period))
		assert.Equal(t, a.Momentum(7, period), b.Momentum(7, period))
	}
}

func TestRSIBounds(t *testing.T) {
	up := make([]float64, 40)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	ind := NewIndicators(seriesFromCloses(t, up))

	assert.True(t, math.IsNaN(ind.RSI(10, 14)))
	rsi := ind.RSI(30, 14)
	assert.InDelta(t, 100, rsi, 1e-6) // straight-up series pins RSI at 100
}

func TestATRGating(t *testing.T) {
	ind := NewIndicators(seriesFromCloses(t, []float64{10, 11, 12, 13, 14, 15, 16, 17}))
	assert.True(t, math.IsNaN(ind.ATR(2, 3)))
	atr := ind.ATR(6, 3)
	assert.False(t, math.IsNaN(atr))
	assert.Greater(t, atr, 0.0)
}

func TestBollingerBandsBracketSMA(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16}
	ind := NewIndicators(seriesFromCloses(t, closes))

	mid := ind.SMA(9, 5)
	upper := ind.BollingerUpper(9, 5, 2)
	lower := ind.BollingerLower(9, 5, 2)
	assert.Greater(t, upper, mid)
	assert.Less(t, lower, mid)
	assert.InDelta(t, mid, (upper+lower)/2, 1e-9)
}

func TestOscillatorsOnFlatWindow(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	bars := make([]series.Bar, len(flat))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := range bars {
		bars[i] = series.Bar{
			Timestamp: base + int64(i)*time.Hour.Milliseconds(),
			Open:      100, High: 100, Low: 100, Close: 100, Volume: 100,
		}
	}
	ts, err := series.New("TEST", series.TimeframeUnknown, bars)
	require.NoError(t, err)
	ind := NewIndicators(ts)

	assert.Equal(t, 50.0, ind.StochK(20, 14))
	assert.Equal(t, -50.0, ind.WilliamsR(20, 14))
	assert.Equal(t, 0.0, ind.CCI(20, 14))
}
