package robust

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"strata/internal/engine"
	"strata/internal/logger"
	"strata/internal/series"
	"strata/internal/stats"
	"strata/internal/strategy"
)

// WalkForward partitions the series into rolling train/test windows,
// re-optimizes the strategy's parameters on each training slice, and
// validates the winner on the immediately following out-of-sample
// slice. The concatenated out-of-sample results are the realistic
// performance estimate.
type WalkForward struct {
	Config engine.Config

	TrainBars int
	TestBars  int
	StepBars  int

	// OptimizationIterations caps the parameter combinations evaluated
	// per window; a larger grid is randomly subsampled.
	OptimizationIterations int

	Workers int
	Seed    int64
}

// NewWalkForward uses 5000/1000 train/test bars, stepping 500 at a
// time, 50 combinations per window.
func NewWalkForward(cfg engine.Config) *WalkForward {
	return &WalkForward{
		Config:                 cfg,
		TrainBars:              5000,
		TestBars:               1000,
		StepBars:               500,
		OptimizationIterations: 50,
	}
}

// WindowResult is one train/test cycle. A window whose out-of-sample
// run failed is reported with Error set rather than dropped.
type WindowResult struct {
	TrainStart int `json:"train_start"`
	TrainEnd   int `json:"train_end"`
	TestStart  int `json:"test_start"`
	TestEnd    int `json:"test_end"`

	OptimalParams map[string]any   `json:"optimal_params"`
	TrainScore    float64          `json:"train_score"`
	Result        *engine.Result   `json:"result,omitempty"`
	Stats         stats.Statistics `json:"stats"`
	Error         string           `json:"error,omitempty"`
}

// Aggregated blends the out-of-sample windows.
type Aggregated struct {
	TotalReturn      float64 `json:"total_return"`
	AvgReturn        float64 `json:"avg_return"`
	TotalTrades      int     `json:"total_trades"`
	WinRate          float64 `json:"win_rate"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	ReturnVolatility float64 `json:"return_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// WalkForwardResult is the full analysis output.
type WalkForwardResult struct {
	Windows    []WindowResult `json:"windows"`
	Aggregated Aggregated     `json:"aggregated"`
	TrainBars  int            `json:"train_bars"`
	TestBars   int            `json:"test_bars"`
	StepBars   int            `json:"step_bars"`
}

/// WindowCount is the number of train/test windows the data admits:
// floor((n - train - test) / step) + 1, zero when the data is shorter
// than one full window.
func (wf *WalkForward) WindowCount(dataLen int) int {
	if wf.StepBars <= 0 || dataLen < wf.TrainBars+wf.TestBars {
		return 0
	}
	return (dataLen-wf.TrainBars-wf.TestBars)/wf.StepBars + 1
}

// Analyze runs the full walk-forward cycle. The factory builds one
// fresh strategy instance per simulation.
func (wf *WalkForward) Analyze(factory strategy.Factory, data *series.TimeSeries) (*WalkForwardResult, error) {
	if wf.TrainBars <= 0 || wf.TestBars <= 0 || wf.StepBars <= 0 {
		return nil, fmt.Errorf("walk-forward window sizes must be positive (train=%d test=%d step=%d)",
			wf.TrainBars, wf.TestBars, wf.StepBars)
	}
	numWindows := wf.WindowCount(data.Len())
	logger.Debugf("walk-forward: %d windows over %d bars (train=%d test=%d step=%d)",
		numWindows, data.Len(), wf.TrainBars, wf.TestBars, wf.StepBars)

	seed := wf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	windows := make([]WindowResult, 0, numWindows)
	var oosReturns []float64
	agg := Aggregated{}
	var totalWins float64

	for start := 0; start+wf.TrainBars+wf.TestBars <= data.Len(); start += wf.StepBars {
		trainEnd := start + wf.TrainBars
		testEnd := trainEnd + wf.TestBars

		win := WindowResult{
			TrainStart: start,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		}

		trainData, err := data.Slice(start, trainEnd)
		if err != nil {
			win.Error = err.Error()
			windows = append(windows, win)
			continue
		}
		testData, err := data.Slice(trainEnd, testEnd)
		if err != nil {
			win.Error = err.Error()
			windows = append(windows, win)
			continue
		}

		best := wf.optimize(factory, trainData, rng)
		win.OptimalParams = best.params
		win.TrainScore = best.score

		result, st, err := runOnce(wf.Config, factory, best.params, testData)
		if err != nil {
			win.Error = err.Error()
			windows = append(windows, win)
			continue
		}
		win.Result = result
		win.Stats = st
		windows = append(windows, win)

		ret := result.ReturnPercent()
		oosReturns = append(oosReturns, ret)
		agg.TotalReturn += ret
		agg.TotalTrades += st.TotalTrades
		totalWins += float64(st.TotalTrades) * st.WinRate / 100
		if st.MaxDrawdownPercent > agg.MaxDrawdown {
			agg.MaxDrawdown = st.MaxDrawdownPercent
		}
	}

	if n := len(oosReturns); n > 0 {
		agg.AvgReturn = agg.TotalReturn / float64(n)
		if agg.TotalTrades > 0 {
			agg.WinRate = totalWins / float64(agg.TotalTrades) * 100
		}
		agg.ReturnVolatility = sampleStdDev(oosReturns)
		if agg.ReturnVolatility > 0 {
			agg.SharpeRatio = agg.AvgReturn / agg.ReturnVolatility
		}
	}

	return &WalkForwardResult{
		Windows:    windows,
		Aggregated: agg,
		TrainBars:  wf.TrainBars,
		TestBars:   wf.TestBars,
		StepBars:   wf.StepBars,
	}, nil
}

type scored struct {
	params map[string]any
	score  float64
}

// optimize grid-searches the declared parameter space on the training
// slice. A task that fails is excluded from the winner search, never
// fatal to the window.
func (wf *WalkForward) optimize(factory strategy.Factory, trainData *series.TimeSeries, rng *rand.Rand) scored {
	declared := factory().Params()
	if len(declared) == 0 {
		return scored{params: map[string]any{}, score: math.Inf(-1)}
	}

	combos := wf.combinations(declared, rng)
	if len(combos) > wf.OptimizationIterations {
		rng.Shuffle(len(combos), func(i, j int) { combos[i], combos[j] = combos[j], combos[i] })
		combos = combos[:wf.OptimizationIterations]
	}

	var mu sync.Mutex
	best := scored{score: math.Inf(-1)}

	var eg errgroup.Group
	eg.SetLimit(defaultWorkers(wf.Workers))
	for _, combo := range combos {
		combo := combo
		eg.Go(func() error {
			_, st, err := runOnce(wf.Config, factory, combo, trainData)
			if err != nil {
				logger.Debugf("walk-forward: combination %v skipped: %v", combo, err)
				return nil
			}
			score := optimizationScore(st)
			mu.Lock()
			if score > best.score {
				best = scored{params: combo, score: score}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	if best.params == nil {
		best.params = map[string]any{}
	}
	return best
}

// optimizationScore ranks a training run: Sharpe, penalized for deep
// drawdowns and for fitting on too few trades.
func optimizationScore(st stats.Statistics) float64 {
	score := st.SharpeRatio
	if st.MaxDrawdownPercent > 20 {
		score -= (st.MaxDrawdownPercent - 20) * 0.1
	}
	if st.TotalTrades < 10 {
		score -= 1.0
	}
	return score
}

// combinations builds the cross-product grid over the declared
// parameters, seeded with the defaults and bounded to 10x the
// iteration cap while growing.
func (wf *WalkForward) combinations(declared []strategy.Param, rng *rand.Rand) []map[string]any {
	defaults := make(map[string]any, len(declared))
	for _, p := range declared {
		defaults[p.Name] = p.Default
	}
	combos := []map[string]any{defaults}

	limit := wf.OptimizationIterations * 10
	for _, p := range declared {
		values := candidateValues(p)
		next := make([]map[string]any, 0, len(values)*len(combos))
		for _, v := range values {
			for _, existing := range combos {
				combo := make(map[string]any, len(existing))
				for k, val := range existing {
					combo[k] = val
				}
				combo[p.Name] = v
				next = append(next, combo)
			}
		}
		combos = next
		if len(combos) > limit {
			rng.Shuffle(len(combos), func(i, j int) { combos[i], combos[j] = combos[j], combos[i] })
			combos = combos[:limit]
		}
	}
	return combos
}

// candidateValues spans a parameter's declared range in about six
// steps. Floats honor an explicit declared step.
func candidateValues(p strategy.Param) []any {
	switch p.Type {
	case strategy.ParamInt:
		min, max := int(p.Min), int(p.Max)
		step := (max - min) / 5
		if step < 1 {
			step = 1
		}
		var values []any
		for v := min; v <= max; v += step {
			values = append(values, v)
		}
		return values
	case strategy.ParamFloat:
		step := p.Step
		if step <= 0 {
			step = (p.Max - p.Min) / 5
		}
		if step <= 0 {
			return []any{p.Default}
		}
		var values []any
		for v := p.Min; v <= p.Max+step*1e-9; v += step {
			values = append(values, v)
		}
		return values
	case strategy.ParamBool:
		return []any{true, false}
	default:
		return []any{p.Default}
	}
}
