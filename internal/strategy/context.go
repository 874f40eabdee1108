package strategy

import "strata/internal/series"

// Context is the only surface a strategy uses to read market state and
// place fills. The engine supplies the implementation; strategies get
// full discretion over entry/exit timing, sizing, and order style.
//
// Execution methods return the fill price, or NaN when the order could
// not fill (zero quantity, limit price outside the bar, no position to
// close). Indicator methods return NaN while history is insufficient.
type Context interface {
	// Market data
	Data() *series.TimeSeries
	CurrentBar() series.Bar
	BarIndex() int
	BarAt(index int) (series.Bar, bool)
	Closes(count int) []float64

	// Account state
	Equity() float64
	Cash() float64
	PositionSize() float64 // signed: positive long, negative short, 0 flat
	PositionEntryPrice() float64
	HasPosition() bool
	IsLong() bool
	IsShort() bool
	UnrealizedPnL() float64

	// Execution
	ExecuteMarketOrder(quantity float64) float64
	ExecuteAtPrice(quantity, price float64) float64
	ClosePosition() float64
	ClosePositionAtPrice(price float64) float64

	// Position sizing
	QuantityForDollars(dollars float64) float64
	QuantityForPercentage(percent float64) float64
	QuantityForRisk(riskPercent, stopDistance float64) float64

	// Indicators, computed through the current bar
	SMA(period int) float64
	EMA(period int) float64
	RSI(period int) float64
	ATR(period int) float64
	Highest(period int) float64
	Lowest(period int) float64
	StdDev(period int) float64
	MACD(fast, slow int) float64
	MACDSignal(fast, slow, signal int) float64
	BollingerUpper(period int, stdDevs float64) float64
	BollingerLower(period int, stdDevs float64) float64
	Momentum(period int) float64
	ROC(period int) float64
	ADX(period int) float64
	CCI(period int) float64
	WilliamsR(period int) float64
	StochK(period int) float64
	StochD(period int) float64
}
