package strategy

import "math"

// Breakout goes long when the close clears the highest high of the
// lookback channel and exits on a close under the lower channel. Shorts
// mirror the logic when enabled.
type Breakout struct {
	base

	entryPeriod int
	exitPeriod  int
	allowShort  bool
}

func NewBreakout() *Breakout {
	s := &Breakout{}
	s.params = NewParams(
		IntParam("entryPeriod", "Entry channel lookback", 20, 5, 100),
		IntParam("exitPeriod", "Exit channel lookback", 10, 3, 50),
		BoolParam("allowShort", "Take short breakouts", false),
	)
	return s
}

func (s *Breakout) Name() string { return "breakout" }

func (s *Breakout) Description() string {
	return "Channel breakout: enter on new highs, exit on opposite channel."
}

func (s *Breakout) WarmupBars() int {
	return s.params.Int("entryPeriod") + 1
}

func (s *Breakout) Initialize(ctx Context) {
	s.entryPeriod = s.params.Int("entryPeriod")
	s.exitPeriod = s.params.Int("exitPeriod")
	s.allowShort = s.params.Bool("allowShort")
}

func (s *Breakout) OnBar(ctx Context) {
	// channel excludes the current bar, otherwise the close can never
	// clear its own high
	i := ctx.BarIndex()
	if i < 1 {
		return
	}
	prev := i - 1
	upper := ctx.Data().Highest(prev, s.entryPeriod)
	lower := ctx.Data().Lowest(prev, s.entryPeriod)
	exitUpper := ctx.Data().Highest(prev, s.exitPeriod)
	exitLower := ctx.Data().Lowest(prev, s.exitPeriod)
	if math.IsNaN(upper) || math.IsNaN(lower) {
		return
	}

	close := ctx.CurrentBar().Close

	if ctx.IsLong() && close < exitLower {
		ctx.ClosePosition()
	} else if ctx.IsShort() && close > exitUpper {
		ctx.ClosePosition()
	}

	if ctx.HasPosition() {
		return
	}

	if close > upper {
		if quantity := ctx.QuantityForPercentage(90); quantity > 0 {
			ctx.ExecuteMarketOrder(quantity)
		}
	} else if s.allowShort && close < lower {
		if quantity := ctx.QuantityForPercentage(90); quantity > 0 {
			ctx.ExecuteMarketOrder(-quantity)
		}
	}
}

func (s *Breakout) OnEnd(ctx Context) {
	if ctx.HasPosition() {
		ctx.ClosePosition()
	}
}
