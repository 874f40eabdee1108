package strategy

import "math"

// RSIReversion buys when RSI drops below the oversold level and exits
// when it recovers past the overbought level. Long only; any position
// left at the end is closed in OnEnd.
type RSIReversion struct {
	base

	period       int
	oversold     float64
	overbought   float64
	positionSize float64
}

func NewRSIReversion() *RSIReversion {
	s := &RSIReversion{}
	s.params = NewParams(
		IntParam("rsiPeriod", "RSI period", 14, 2, 50),
		FloatParam("oversold", "Oversold entry level", 30, 5, 50, 5),
		FloatParam("overbought", "Overbought exit level", 70, 50, 95, 5),
		FloatParam("positionSize", "Position size (% of cash)", 100, 10, 100, 10),
	)
	return s
}

func (s *RSIReversion) Name() string { return "rsi_reversion" }

func (s *RSIReversion) Description() string {
	return "Mean reversion: buy oversold RSI, exit overbought."
}

func (s *RSIReversion) WarmupBars() int {
	return s.params.Int("rsiPeriod") + 1
}

func (s *RSIReversion) Initialize(ctx Context) {
	s.period = s.params.Int("rsiPeriod")
	s.oversold = s.params.Float("oversold")
	s.overbought = s.params.Float("overbought")
	s.positionSize = s.params.Float("positionSize")
}

func (s *RSIReversion) OnBar(ctx Context) {
	rsi := ctx.RSI(s.period)
	if math.IsNaN(rsi) {
		return
	}

	if ctx.HasPosition() {
		if rsi >= s.overbought {
			ctx.ClosePosition()
		}
		return
	}

	if rsi <= s.oversold {
		quantity := ctx.QuantityForPercentage(s.positionSize)
		if quantity > 0 {
			ctx.ExecuteMarketOrder(quantity)
		}
	}
}

func (s *RSIReversion) OnEnd(ctx Context) {
	if ctx.HasPosition() {
		ctx.ClosePosition()
	}
}
