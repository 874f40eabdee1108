package robust

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"strata/internal/cost"
	"strata/internal/engine"
	"strata/internal/series"
	"strata/internal/strategy"
)

// Scenario status classification.
const (
	StatusPass     = "PASS"     // profitable, drawdown under 30%
	StatusMarginal = "MARGINAL" // profitable, deep drawdown
	StatusFail     = "FAIL"     // unprofitable
	StatusFailed   = "FAILED"   // run error
)

// StressTester re-runs the same strategy under a fixed battery of
// adverse transformations: multiplied costs, rescaled volatility, a
// synthetic crash, injected gaps, a flattened sideways stretch, and a
// mirrored trend reversal.
type StressTester struct {
	Config  engine.Config
	Workers int
}

func NewStressTester(cfg engine.Config) *StressTester {
	return &StressTester{Config: cfg}
}

// ScenarioResult is one labeled row of the stress report. A scenario
// whose run errored is reported as FAILED with the message, never
// fatal to the batch.
type ScenarioResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	NetReturn   float64 `json:"net_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
	Trades      int     `json:"trades"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// StressReport is the full battery outcome.
type StressReport struct {
	Scenarios []ScenarioResult `json:"scenarios"`
}

func (r *StressReport) PassCount() int {
	n := 0
	for _, s := range r.Scenarios {
		if s.Status == StatusPass {
			n++
		}
	}
	return n
}

func (r *StressReport) FailCount() int {
	n := 0
	for _, s := range r.Scenarios {
		if s.Status == StatusFail || s.Status == StatusFailed {
			n++
		}
	}
	return n
}

func (r *StressReport) AverageReturn() float64 {
	sum, n := 0.0, 0
	for _, s := range r.Scenarios {
		if s.Status != StatusFailed {
			sum += s.NetReturn
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (r *StressReport) WorstReturn() float64 {
	worst, seen := 0.0, false
	for _, s := range r.Scenarios {
		if s.Status == StatusFailed {
			continue
		}
		if !seen || s.NetReturn < worst {
			worst, seen = s.NetReturn, true
		}
	}
	return worst
}

// Rating classifies the pass rate: Excellent above 80%, Good above
// 60%, Moderate above 40%, else Poor.
func (r *StressReport) Rating() string {
	if len(r.Scenarios) == 0 {
		return "Poor"
	}
	passRate := float64(r.PassCount()) / float64(len(r.Scenarios))
	switch {
	case passRate > 0.8:
		return "Excellent"
	case passRate > 0.6:
		return "Good"
	case passRate > 0.4:
		return "Moderate"
	default:
		return "Poor"
	}
}

func (r *StressReport) Baseline() *ScenarioResult {
	for i := range r.Scenarios {
		if r.Scenarios[i].Name == "Baseline" {
			return &r.Scenarios[i]
		}
	}
	return nil
}

type scenario struct {
	name        string
	description string
	config      func() (engine.Config, error)
	data        func() (*series.TimeSeries, error)
}

// RunAll executes the full scenario battery. Scenario order in the
// report is fixed; execution is parallel, one engine per scenario.
func (st *StressTester) RunAll(factory strategy.Factory, data *series.TimeSeries) *StressReport {
	baseConfig := func() (engine.Config, error) { return st.Config, nil }
	baseData := func() (*series.TimeSeries, error) { return data, nil }

	scenarios := []scenario{
		{"Baseline", "Normal conditions", baseConfig, baseData},

		{"2x Commission", "Commission 2.0x", st.scaledCosts(2, 1, 1), baseData},
		{"3x Commission", "Commission 3.0x", st.scaledCosts(3, 1, 1), baseData},
		{"2x Slippage", "Slippage 2.0x", st.scaledCosts(1, 2, 1), baseData},
		{"2x Spread", "Spread 2.0x", st.scaledCosts(1, 1, 2), baseData},
		{"All Costs 2x", "Commission, slippage, and spread 2.0x", st.scaledCosts(2, 2, 2), baseData},

		{"1.5x Volatility", "Bar ranges expanded 1.5x", baseConfig, transformed(data, "VOL1.5", scaleVolatility(1.5))},
		{"2x Volatility", "Bar ranges expanded 2x", baseConfig, transformed(data, "VOL2", scaleVolatility(2.0))},
		{"0.5x Volatility", "Bar ranges compressed to half", baseConfig, transformed(data, "VOL0.5", scaleVolatility(0.5))},

		{"10% Flash Crash", "10% decline injected mid-period", baseConfig, transformed(data, "CRASH10", injectCrash(0.10))},
		{"20% Market Crash", "20% decline injected mid-period", baseConfig, transformed(data, "CRASH20", injectCrash(0.20))},
		{"30% Bear Market", "30% decline injected mid-period", baseConfig, transformed(data, "CRASH30", injectCrash(0.30))},

		{"Daily Gaps", "Random +/-2% gaps", baseConfig, transformed(data, "GAPS2", injectGaps(0.02))},
		{"Weekly Gaps", "Random +/-5% gaps", baseConfig, transformed(data, "GAPS5", injectGaps(0.05))},

		{"Extended Sideways", "30% of the data flattened", baseConfig, transformed(data, "SIDEWAYS", injectSideways(0.3))},
		{"Trend Reversal", "Returns mirrored past the midpoint", baseConfig, transformed(data, "REVERSAL", injectTrendReversal())},
	}

	results := make([]ScenarioResult, len(scenarios))
	var eg errgroup.Group
	eg.SetLimit(defaultWorkers(st.Workers))
	for i, sc := range scenarios {
		i, sc := i, sc
		eg.Go(func() error {
			results[i] = st.runScenario(factory, sc)
			return nil
		})
	}
	_ = eg.Wait()

	return &StressReport{Scenarios: results}
}

func (st *StressTester) runScenario(factory strategy.Factory, sc scenario) ScenarioResult {
	out := ScenarioResult{Name: sc.name, Description: sc.description}

	err := func() error {
		cfg, err := sc.config()
		if err != nil {
			return err
		}
		data, err := sc.data()
		if err != nil {
			return err
		}
		result, runStats, err := runOnce(cfg, factory, nil, data)
		if err != nil {
			return err
		}
		out.NetReturn = result.ReturnPercent()
		out.SharpeRatio = runStats.SharpeRatio
		out.MaxDrawdown = runStats.MaxDrawdownPercent
		out.WinRate = runStats.WinRate
		out.Trades = runStats.TotalTrades
		return nil
	}()

	switch {
	case err != nil:
		out.Status = StatusFailed
		out.Error = err.Error()
	case out.NetReturn > 0 && out.MaxDrawdown < 30:
		out.Status = StatusPass
	case out.NetReturn > 0:
		out.Status = StatusMarginal
	default:
		out.Status = StatusFail
	}
	return out
}

// scaledCosts rebuilds the cost models with multiplied values; the
// commission minimum is left alone.
func (st *StressTester) scaledCosts(commissionMult, slippageMult, spreadMult float64) func() (engine.Config, error) {
	return func() (engine.Config, error) {
		cfg := st.Config.Clone()
		commission, err := cost.NewCommission(cfg.Commission.Type(), cfg.Commission.Value()*commissionMult, cfg.Commission.Minimum())
		if err != nil {
			return engine.Config{}, err
		}
		spread, err := cost.NewSpread(cfg.Spread.Type(), cfg.Spread.Value()*spreadMult)
		if err != nil {
			return engine.Config{}, err
		}
		slippage, err := cost.NewSlippage(cfg.Slippage.Type(), cfg.Slippage.Value()*slippageMult)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.Commission = commission
		cfg.Spread = spread
		cfg.Slippage = slippage
		return cfg, nil
	}
}

// transformed memoizes a data transformation so parallel scenarios
// never rebuild it and the source series is never mutated.
func transformed(data *series.TimeSeries, suffix string, transform func(*series.TimeSeries) []series.Bar) func() (*series.TimeSeries, error) {
	return func() (*series.TimeSeries, error) {
		return series.New(data.Symbol()+"_"+suffix, data.Timeframe(), transform(data))
	}
}

// scaleVolatility expands or compresses each bar around its open/close
// midpoint, re-clamping so high covers the body and low stays under it.
func scaleVolatility(mult float64) func(*series.TimeSeries) []series.Bar {
	return func(data *series.TimeSeries) []series.Bar {
		bars := make([]series.Bar, data.Len())
		for i, bar := range data.Bars() {
			mid := (bar.Open + bar.Close) / 2
			open := mid * (1 + (bar.Open-mid)/mid*mult)
			high := mid * (1 + (bar.High-mid)/mid*mult)
			low := mid * (1 + (bar.Low-mid)/mid*mult)
			closePrice := mid * (1 + (bar.Close-mid)/mid*mult)

			if body := max(open, closePrice); high < body {
				high = body
			}
			if body := min(open, closePrice); low > body {
				low = body
			}

			bars[i] = series.Bar{
				Timestamp: bar.Timestamp,
				Open:      open, High: high, Low: low, Close: closePrice,
				Volume: bar.Volume,
			}
		}
		return bars
	}
}

// injectCrash applies a multiplicative decay over a contiguous window
// starting at the series midpoint.
func injectCrash(crashPercent float64) func(*series.TimeSeries) []series.Bar {
	return func(data *series.TimeSeries) []series.Bar {
		crashStart := data.Len() / 2
		crashDuration := data.Len() / 10
		if crashDuration > 50 {
			crashDuration = 50
		}
		if crashDuration < 1 {
			crashDuration = 1
		}
		perBarDrop := crashPercent / float64(crashDuration)

		factor := 1.0
		bars := make([]series.Bar, data.Len())
		for i, bar := range data.Bars() {
			if i >= crashStart && i < crashStart+crashDuration {
				factor *= 1 - perBarDrop
			}
			bars[i] = scaledBar(bar, factor)
		}
		return bars
	}
}

// injectGaps multiplies in a random gap roughly every 50 bars. Fixed
// seed so the scenario is reproducible across report runs.
func injectGaps(maxGap float64) func(*series.TimeSeries) []series.Bar {
	return func(data *series.TimeSeries) []series.Bar {
		rng := rand.New(rand.NewSource(42))
		factor := 1.0
		bars := make([]series.Bar, data.Len())
		for i, bar := range data.Bars() {
			if i > 0 && rng.Intn(50) == 0 {
				gap := (rng.Float64()*2 - 1) * maxGap
				factor *= 1 + gap
			}
			bars[i] = scaledBar(bar, factor)
		}
		return bars
	}
}

// injectSideways pins a stretch of the series to the price where the
// stretch begins, keeping 30% of each bar's original range.
func injectSideways(portion float64) func(*series.TimeSeries) []series.Bar {
	return func(data *series.TimeSeries) []series.Bar {
		start := data.Len() / 3
		end := start + int(float64(data.Len())*portion)
		flat := data.Bar(start).Close

		bars := make([]series.Bar, data.Len())
		for i, bar := range data.Bars() {
			if i >= start && i < end {
				halfRange := bar.Range() * 0.3 / 2
				bars[i] = series.Bar{
					Timestamp: bar.Timestamp,
					Open:      flat, High: flat + halfRange, Low: flat - halfRange, Close: flat,
					Volume: bar.Volume,
				}
			} else {
				bars[i] = series.Bar{
					Timestamp: bar.Timestamp,
					Open:      bar.Open, High: bar.High, Low: bar.Low, Close: bar.Close,
					Volume: bar.Volume,
				}
			}
		}
		return bars
	}
}

// injectTrendReversal mirrors the pre-midpoint returns onto the second
// half, turning the realized trend into its inverse.
func injectTrendReversal() func(*series.TimeSeries) []series.Bar {
	return func(data *series.TimeSeries) []series.Bar {
		pivot := data.Len() / 2
		pivotClose := data.Bar(pivot).Close

		bars := make([]series.Bar, data.Len())
		for i, bar := range data.Bars() {
			if i > pivot {
				mirrorIdx := pivot - (i - pivot)
				if mirrorIdx >= 0 && pivotClose > 0 {
					mirrorReturn := data.Bar(mirrorIdx).Close / pivotClose
					if mirrorReturn > 0 {
						bars[i] = scaledBar(bar, 1/mirrorReturn)
						continue
					}
				}
			}
			bars[i] = series.Bar{
				Timestamp: bar.Timestamp,
				Open:      bar.Open, High: bar.High, Low: bar.Low, Close: bar.Close,
				Volume: bar.Volume,
			}
		}
		return bars
	}
}

func scaledBar(bar series.Bar, factor float64) series.Bar {
	return series.Bar{
		Timestamp: bar.Timestamp,
		Open:      bar.Open * factor,
		High:      bar.High * factor,
		Low:       bar.Low * factor,
		Close:     bar.Close * factor,
		Volume:    bar.Volume,
	}
}
