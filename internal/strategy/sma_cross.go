package strategy

import "math"

// SMACross enters long when the fast SMA crosses above the slow SMA,
// sizes the position by risk, and manages its own ATR-based stop loss
// and take profit.
type SMACross struct {
	base

	fastPeriod    int
	slowPeriod    int
	riskPercent   float64
	stopLossATR   float64
	takeProfitATR float64

	stopLoss    float64
	takeProfit  float64
	prevFastSMA float64
	prevSlowSMA float64
}

func NewSMACross() *SMACross {
	s := &SMACross{}
	s.params = NewParams(
		IntParam("fastPeriod", "Fast SMA period", 10, 5, 50),
		IntParam("slowPeriod", "Slow SMA period", 20, 10, 200),
		FloatParam("riskPercent", "Risk per trade (%)", 2.0, 0.5, 10.0, 0.5),
		FloatParam("stopLossAtr", "Stop loss (ATR multiplier)", 2.0, 0.5, 5.0, 0.5),
		FloatParam("takeProfitAtr", "Take profit (ATR multiplier)", 3.0, 1.0, 10.0, 0.5),
	)
	return s
}

func (s *SMACross) Name() string { return "sma_cross" }

func (s *SMACross) Description() string {
	return "Long on fast/slow SMA cross up with ATR stop loss and take profit."
}

func (s *SMACross) WarmupBars() int {
	slow := s.params.Int("slowPeriod")
	if slow < 14 {
		slow = 14
	}
	return slow + 1
}

func (s *SMACross) Initialize(ctx Context) {
	s.fastPeriod = s.params.Int("fastPeriod")
	s.slowPeriod = s.params.Int("slowPeriod")
	s.riskPercent = s.params.Float("riskPercent")
	s.stopLossATR = s.params.Float("stopLossAtr")
	s.takeProfitATR = s.params.Float("takeProfitAtr")

	s.stopLoss = 0
	s.takeProfit = 0
	s.prevFastSMA = math.NaN()
	s.prevSlowSMA = math.NaN()
}

func (s *SMACross) OnBar(ctx Context) {
	fast := ctx.SMA(s.fastPeriod)
	slow := ctx.SMA(s.slowPeriod)
	atr := ctx.ATR(14)

	if math.IsNaN(fast) || math.IsNaN(slow) || math.IsNaN(atr) {
		s.prevFastSMA, s.prevSlowSMA = fast, slow
		return
	}

	bar := ctx.CurrentBar()

	if ctx.HasPosition() {
		switch {
		case bar.Low <= s.stopLoss:
			ctx.ClosePositionAtPrice(s.stopLoss)
		case bar.High >= s.takeProfit:
			ctx.ClosePositionAtPrice(s.takeProfit)
		case !math.IsNaN(s.prevFastSMA) && s.prevFastSMA >= s.prevSlowSMA && fast < slow:
			ctx.ClosePosition()
		}
	} else if !math.IsNaN(s.prevFastSMA) && !math.IsNaN(s.prevSlowSMA) &&
		s.prevFastSMA <= s.prevSlowSMA && fast > slow {
		stopDistance := atr * s.stopLossATR
		quantity := ctx.QuantityForRisk(s.riskPercent, stopDistance)
		if quantity > 0 {
			fill := ctx.ExecuteMarketOrder(quantity)
			if !math.IsNaN(fill) {
				s.stopLoss = fill - stopDistance
				s.takeProfit = fill + atr*s.takeProfitATR
			}
		}
	}

	s.prevFastSMA, s.prevSlowSMA = fast, slow
}
