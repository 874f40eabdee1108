package robust

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/engine"
)

func TestStressBatteryStatuses(t *testing.T) {
	cfg := engine.ZeroCostConfig()
	cfg.InitialCapital = 10_000

	st := NewStressTester(cfg)
	st.Workers = 2
	report := st.RunAll(buyAndHold, linearSeries(300, 100, 150))

	require.Len(t, report.Scenarios, 16)

	baseline := report.Baseline()
	require.NotNil(t, baseline)
	assert.Equal(t, StatusPass, baseline.Status)
	assert.Greater(t, baseline.NetReturn, 0.0)
	assert.Equal(t, 1, baseline.Trades)

	valid := map[string]bool{StatusPass: true, StatusMarginal: true, StatusFail: true, StatusFailed: true}
	for _, sc := range report.Scenarios {
		assert.True(t, valid[sc.Status], "scenario %s has status %s", sc.Name, sc.Status)
		if sc.Status == StatusFailed {
			assert.NotEmpty(t, sc.Error, "scenario %s", sc.Name)
		} else {
			assert.Empty(t, sc.Error, "scenario %s: %s", sc.Name, sc.Error)
		}
	}

	// zero-cost config: multiplying zero costs changes nothing
	for _, name := range []string{"2x Commission", "All Costs 2x"} {
		sc := findScenario(t, report, name)
		assert.InDelta(t, baseline.NetReturn, sc.NetReturn, 1e-9, name)
	}

	assert.Contains(t, []string{"Excellent", "Good", "Moderate", "Poor"}, report.Rating())
	assert.LessOrEqual(t, report.WorstReturn(), report.AverageReturn())
}

func TestStressNoTradeStrategyFailsEverywhere(t *testing.T) {
	st := NewStressTester(engine.ZeroCostConfig())
	st.Workers = 2
	report := st.RunAll(noTrade, linearSeries(200, 100, 120))

	for _, sc := range report.Scenarios {
		assert.Equal(t, StatusFail, sc.Status, sc.Name)
	}
	assert.Equal(t, "Poor", report.Rating())
	assert.Zero(t, report.PassCount())
	assert.Equal(t, len(report.Scenarios), report.FailCount())
}

func TestScaleVolatilityClampsBars(t *testing.T) {
	data := linearSeries(50, 100, 110)
	bars := scaleVolatility(2.0)(data)

	require.Len(t, bars, data.Len())
	for i, bar := range bars {
		orig := data.Bar(i)
		assert.GreaterOrEqual(t, bar.High, math.Max(bar.Open, bar.Close))
		assert.LessOrEqual(t, bar.Low, math.Min(bar.Open, bar.Close))
		// midpoint is preserved
		assert.InDelta(t, (orig.Open+orig.Close)/2, (bar.Open+bar.Close)/2, 1e-9)
		// range doubles
		assert.InDelta(t, orig.Range()*2, bar.High-bar.Low, 1e-6)
	}
}

func TestInjectCrashDepth(t *testing.T) {
	data := linearSeries(200, 100, 100)
	bars := injectCrash(0.20)(data)

	// pre-crash bars untouched
	assert.InDelta(t, data.Bar(10).Close, bars[10].Close, 1e-9)

	// after the decay window the cumulative factor is (1 - 0.20/d)^d,
	// close to but above a full 20% drop
	last := bars[len(bars)-1].Close
	assert.Less(t, last, data.Last().Close*0.85)
	assert.Greater(t, last, data.Last().Close*0.75)
}

func TestInjectGapsDeterministic(t *testing.T) {
	data := linearSeries(300, 100, 110)
	first := injectGaps(0.02)(data)
	second := injectGaps(0.02)(data)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Close, second[i].Close)
	}

	// gaps shift prices somewhere
	moved := false
	for i := range first {
		if math.Abs(first[i].Close-data.Bar(i).Close) > 1e-9 {
			moved = true
			break
		}
	}
	assert.True(t, moved)
}

func TestInjectSidewaysFlattens(t *testing.T) {
	data := linearSeries(300, 100, 200)
	bars := injectSideways(0.3)(data)

	start := data.Len() / 3
	end := start + int(float64(data.Len())*0.3)
	flat := data.Bar(start).Close
	for i := start; i < end; i++ {
		assert.Equal(t, flat, bars[i].Open)
		assert.Equal(t, flat, bars[i].Close)
		assert.LessOrEqual(t, bars[i].High-bars[i].Low, data.Bar(i).Range()*0.3+1e-9)
	}
	assert.Equal(t, data.Bar(end).Close, bars[end].Close)
}

func TestInjectTrendReversalMirrors(t *testing.T) {
	data := linearSeries(200, 100, 200)
	bars := injectTrendReversal()(data)

	pivot := data.Len() / 2
	pivotClose := data.Bar(pivot).Close

	// bars up to and including the pivot are untouched
	assert.Equal(t, data.Bar(pivot).Close, bars[pivot].Close)

	// past the pivot, each bar is divided by its mirror bar's return
	// relative to the pivot close
	for _, off := range []int{1, 10, 50} {
		i := pivot + off
		mirror := data.Bar(pivot-off).Close / pivotClose
		assert.InDelta(t, data.Bar(i).Close/mirror, bars[i].Close, 1e-9)
		assert.InDelta(t, data.Bar(i).High/mirror, bars[i].High, 1e-9)
	}
}

func findScenario(t *testing.T, report *StressReport, name string) ScenarioResult {
	t.Helper()
	for _, sc := range report.Scenarios {
		if sc.Name == name {
			return sc
		}
	}
	t.Fatalf("scenario %q not found", name)
	return ScenarioResult{}
}
