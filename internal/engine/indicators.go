package engine

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"strata/internal/series"
)

// Indicators computes the fixed indicator set on demand over the series
// up to and including a given bar index. Insufficient history is signaled
// as NaN, never an error, so strategies can branch on it during warmup.
type Indicators struct {
	data *series.TimeSeries
}

func NewIndicators(data *series.TimeSeries) *Indicators {
	return &Indicators{data: data}
}

// window returns the close prices up to and including index. Nothing past
// the given bar is ever handed to a calculation.
func (ind *Indicators) window(index int) []float64 {
	return ind.data.Closes()[:index+1]
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func (ind *Indicators) SMA(index, period int) float64 {
	if period <= 0 || index < period-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	return last(talib.Sma(ind.window(index), period))
}

func (ind *Indicators) EMA(index, period int) float64 {
	if period <= 0 || index < period-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	return last(talib.Ema(ind.window(index), period))
}

func (ind *Indicators) RSI(index, period int) float64 {
	if period <= 0 || index < period || index >= ind.data.Len() {
		return math.NaN()
	}
	return last(talib.Rsi(ind.window(index), period))
}

func (ind *Indicators) ATR(index, period int) float64 {
	if period <= 0 || index < period || index >= ind.data.Len() {
		return math.NaN()
	}
	end := index + 1
	return last(talib.Atr(ind.data.Highs()[:end], ind.data.Lows()[:end], ind.data.Closes()[:end], period))
}

func (ind *Indicators) Highest(index, period int) float64 {
	return ind.data.Highest(index, period)
}

func (ind *Indicators) Lowest(index, period int) float64 {
	return ind.data.Lowest(index, period)
}

// StdDev is the population standard deviation of closes over the period.
func (ind *Indicators) StdDev(index, period int) float64 {
	if period <= 1 || index < period-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	return last(talib.StdDev(ind.window(index), period, 1.0))
}

func (ind *Indicators) MACD(index, fast, slow int) float64 {
	if fast <= 0 || slow <= fast || index < slow-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	macd, _, _ := talib.Macd(ind.window(index), fast, slow, 9)
	return last(macd)
}

func (ind *Indicators) MACDSignal(index, fast, slow, signal int) float64 {
	if fast <= 0 || slow <= fast || signal <= 0 || index < slow+signal-2 || index >= ind.data.Len() {
		return math.NaN()
	}
	_, sig, _ := talib.Macd(ind.window(index), fast, slow, signal)
	return last(sig)
}

func (ind *Indicators) BollingerUpper(index, period int, stdDevs float64) float64 {
	return ind.SMA(index, period) + stdDevs*ind.StdDev(index, period)
}

func (ind *Indicators) BollingerLower(index, period int, stdDevs float64) float64 {
	return ind.SMA(index, period) - stdDevs*ind.StdDev(index, period)
}

// Momentum is the absolute close change over the period.
func (ind *Indicators) Momentum(index, period int) float64 {
	if period <= 0 || index < period || index >= ind.data.Len() {
		return math.NaN()
	}
	return last(talib.Mom(ind.window(index), period))
}

// ROC is the percentage close change over the period.
func (ind *Indicators) ROC(index, period int) float64 {
	if period <= 0 || index < period || index >= ind.data.Len() {
		return math.NaN()
	}
	return last(talib.Roc(ind.window(index), period))
}

func (ind *Indicators) ADX(index, period int) float64 {
	if period <= 0 || index < period*2 || index >= ind.data.Len() {
		return math.NaN()
	}
	end := index + 1
	return last(talib.Adx(ind.data.Highs()[:end], ind.data.Lows()[:end], ind.data.Closes()[:end], period))
}

// CCI returns 0 on a flat window where the mean deviation vanishes.
func (ind *Indicators) CCI(index, period int) float64 {
	if period <= 0 || index < period-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	end := index + 1
	v := last(talib.Cci(ind.data.Highs()[:end], ind.data.Lows()[:end], ind.data.Closes()[:end], period))
	return sanitize(v, 0)
}

// WilliamsR returns -50 on a flat window.
func (ind *Indicators) WilliamsR(index, period int) float64 {
	if period <= 0 || index < period-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	end := index + 1
	v := last(talib.WillR(ind.data.Highs()[:end], ind.data.Lows()[:end], ind.data.Closes()[:end], period))
	return sanitize(v, -50)
}

// StochK returns 50 on a flat window.
func (ind *Indicators) StochK(index, period int) float64 {
	if period <= 0 || index < period-1 || index >= ind.data.Len() {
		return math.NaN()
	}
	end := index + 1
	k, _ := talib.Stoch(ind.data.Highs()[:end], ind.data.Lows()[:end], ind.data.Closes()[:end], period, 1, talib.SMA, 3, talib.SMA)
	return sanitize(last(k), 50)
}

// StochD is the 3-bar smoothing of StochK.
func (ind *Indicators) StochD(index, period int) float64 {
	if period <= 0 || index < period+1 || index >= ind.data.Len() {
		return math.NaN()
	}
	end := index + 1
	_, d := talib.Stoch(ind.data.Highs()[:end], ind.data.Lows()[:end], ind.data.Closes()[:end], period, 1, talib.SMA, 3, talib.SMA)
	return sanitize(last(d), 50)
}
