package robust

import (
	"strata/internal/series"
	"strata/internal/stats"
	"strata/internal/strategy"
)

// scripted is a minimal parameterized strategy for analyzer tests.
type scripted struct {
	params strategy.Params
	warmup int
	onBar  func(ctx strategy.Context)
	onEnd  func(ctx strategy.Context)
}

func newScripted(onBar func(ctx strategy.Context), params ...strategy.Param) *scripted {
	return &scripted{params: strategy.NewParams(params...), onBar: onBar}
}

func (s *scripted) Name() string                       { return "scripted" }
func (s *scripted) Description() string                { return "test fixture" }
func (s *scripted) Params() []strategy.Param           { return s.params.Declared() }
func (s *scripted) SetParams(v map[string]any) error   { return s.params.Set(v) }
func (s *scripted) WarmupBars() int                    { return s.warmup }
func (s *scripted) Initialize(ctx strategy.Context)    {}
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

// buyAndHold enters one unit on the first callback and holds.
func buyAndHold() strategy.Strategy {
	entered := false
	return newScripted(func(ctx strategy.Context) {
		if !entered {
			ctx.ExecuteMarketOrder(1)
			entered = true
		}
	},
		strategy.IntParam("period", "unused lookback", 10, 5, 25),
		strategy.FloatParam("threshold", "unused threshold", 1.0, 0.5, 2.0, 0),
	)
}

// noTrade never places an order.
func noTrade() strategy.Strategy {
	return newScripted(nil,
		strategy.IntParam("period", "unused lookback", 10, 5, 25),
		strategy.FloatParam("threshold", "unused threshold", 1.0, 0.5, 2.0, 0),
	)
}

func statsWith(sharpe, maxDDPercent float64, trades int) stats.Statistics {
	return stats.Statistics{SharpeRatio: sharpe, MaxDrawdownPercent: maxDDPercent, TotalTrades: trades}
}

// linearSeries builds n bars climbing from first to last close, one bar
// per hour, with a fixed intra-bar range.
func linearSeries(n int, first, last float64) *series.TimeSeries {
	bars := make([]series.Bar, n)
	for i := 0; i < n; i++ {
		price := first + (last-first)*float64(i)/float64(n-1)
		bars[i] = series.Bar{
			Timestamp: int64(i) * 3_600_000,
			Open:      price * 0.999,
			High:      price * 1.002,
			Low:       price * 0.997,
			Close:     price,
			Volume:    1000,
		}
	}
	data, err := series.New("TEST", series.TimeframeUnknown, bars)
	if err != nil {
		panic(err)
	}
	return data
}
