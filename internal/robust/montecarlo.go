package robust

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Resampling mode for the Monte Carlo replays.
type ResampleMode string

const (
	// ResamplePermute reshuffles the trade sequence, preserving every
	// trade exactly once per replay.
	ResamplePermute ResampleMode = "permute"
	// ResampleBootstrap draws a same-size sample with replacement.
	ResampleBootstrap ResampleMode = "bootstrap"
)

// MonteCarlo replays the realized trade P&L sequence many times in
// random order to estimate the distribution of outcomes the strategy
// could have produced.
type MonteCarlo struct {
	Simulations   int
	InitialEquity float64
	Mode          ResampleMode

	// RetainCurves bounds how many full equity curves are kept for
	// visualization; the rest only contribute to the aggregates.
	RetainCurves int

	// Seed fixes the random source. Zero seeds from the clock.
	Seed int64
}

// NewMonteCarlo uses 10,000 permutation replays.
func NewMonteCarlo(initialEquity float64) *MonteCarlo {
	return &MonteCarlo{
		Simulations:   10_000,
		InitialEquity: initialEquity,
		Mode:          ResamplePermute,
		RetainCurves:  100,
	}
}

// MonteCarloResult aggregates the replay distribution.
type MonteCarloResult struct {
	Simulations   int          `json:"simulations"`
	InitialEquity float64      `json:"initial_equity"`
	Mode          ResampleMode `json:"mode"`

	Equity5  float64 `json:"equity_p5"`
	Equity25 float64 `json:"equity_p25"`
	Equity50 float64 `json:"equity_p50"`
	Equity75 float64 `json:"equity_p75"`
	Equity95 float64 `json:"equity_p95"`

	EquityMean   float64 `json:"equity_mean"`
	EquityStdDev float64 `json:"equity_std_dev"`

	MaxDrawdown5    float64 `json:"max_drawdown_p5"`
	MaxDrawdown50   float64 `json:"max_drawdown_p50"`
	MaxDrawdown95   float64 `json:"max_drawdown_p95"`
	MaxDrawdownMean float64 `json:"max_drawdown_mean"`

	// RuinProbability is the percentage of replays whose final equity
	// fell below half the initial equity.
	RuinProbability float64 `json:"ruin_probability"`

	FinalEquities []float64   `json:"final_equities,omitempty"`
	Curves        [][]float64 `json:"curves,omitempty"`
}

// ReturnRange is the 5th-to-95th percentile return band, in percent.
func (r MonteCarloResult) ReturnRange() (low, high float64) {
	if r.InitialEquity == 0 {
		return 0, 0
	}
	low = (r.Equity5 - r.InitialEquity) / r.InitialEquity * 100
	high = (r.Equity95 - r.InitialEquity) / r.InitialEquity * 100
	return low, high
}

// Simulate replays the P&L sequence. Empty input yields a zero result.
func (mc *MonteCarlo) Simulate(tradePnLs []float64) MonteCarloResult {
	if len(tradePnLs) == 0 || mc.Simulations <= 0 {
		return MonteCarloResult{Mode: mc.Mode, InitialEquity: mc.InitialEquity}
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	finals := make([]float64, mc.Simulations)
	drawdowns := make([]float64, mc.Simulations)
	curves := make([][]float64, 0, min(mc.RetainCurves, mc.Simulations))
	ruined := 0

	scratch := make([]float64, len(tradePnLs))
	for i := 0; i < mc.Simulations; i++ {
		mc.resample(rng, tradePnLs, scratch)

		var curve []float64
		if len(curves) < mc.RetainCurves {
			curve = make([]float64, 0, len(scratch)+1)
		}

		equity := mc.InitialEquity
		peak := equity
		maxDDPercent := 0.0
		if curve != nil {
			curve = append(curve, equity)
		}
		for _, pnl := range scratch {
			equity += pnl
			if equity > peak {
				peak = equity
			} else if peak > 0 {
				if dd := (peak - equity) / peak * 100; dd > maxDDPercent {
					maxDDPercent = dd
				}
			}
			if curve != nil {
				curve = append(curve, equity)
			}
		}

		finals[i] = equity
		drawdowns[i] = maxDDPercent
		if equity < mc.InitialEquity*0.5 {
			ruined++
		}
		if curve != nil {
			curves = append(curves, curve)
		}
	}

	sort.Float64s(finals)
	sort.Float64s(drawdowns)

	return MonteCarloResult{
		Simulations:     mc.Simulations,
		InitialEquity:   mc.InitialEquity,
		Mode:            mc.Mode,
		Equity5:         percentile(finals, 5),
		Equity25:        percentile(finals, 25),
		Equity50:        percentile(finals, 50),
		Equity75:        percentile(finals, 75),
		Equity95:        percentile(finals, 95),
		EquityMean:      stat.Mean(finals, nil),
		EquityStdDev:    sampleStdDev(finals),
		MaxDrawdown5:    percentile(drawdowns, 5),
		MaxDrawdown50:   percentile(drawdowns, 50),
		MaxDrawdown95:   percentile(drawdowns, 95),
		MaxDrawdownMean: stat.Mean(drawdowns, nil),
		RuinProbability: float64(ruined) / float64(mc.Simulations) * 100,
		FinalEquities:   finals,
		Curves:          curves,
	}
}

func (mc *MonteCarlo) resample(rng *rand.Rand, src, dst []float64) {
	if mc.Mode == ResampleBootstrap {
		for i := range dst {
			dst[i] = src[rng.Intn(len(src))]
		}
		return
	}
	// Fisher-Yates
	copy(dst, src)
	for i := len(dst) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		dst[i], dst[j] = dst[j], dst[i]
	}
}

// percentile indexes into an ascending-sorted slice at ceil(p%*n)-1.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
