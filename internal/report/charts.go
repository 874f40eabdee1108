package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"strata/internal/portfolio"
	"strata/internal/robust"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorEquity        = "#3b82f6"
	colorBuyHold       = "#fbbf24"
	colorDrawdown      = "#f87171"
	colorMonteCarlo    = "#a78bfa"
	colorHeatLow       = "#1d4ed8"
	colorHeatHigh      = "#f59e0b"

	chartWidthPx  = 1600
	chartHeightPx = 420
)

// HTML renders the full chart page: equity vs buy-and-hold, drawdown,
// plus the Monte Carlo fan and sensitivity heatmap when those sections
// are present.
func (r *Report) HTML() ([]byte, error) {
	if r.Result == nil || len(r.Result.EquityHistory) == 0 {
		return nil, fmt.Errorf("no equity history to render")
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	xAxis := equityXAxis(r.Result.EquityHistory)
	page.AddCharts(
		r.equityChart(xAxis),
		r.drawdownChart(xAxis),
	)
	if r.MonteCarlo != nil && len(r.MonteCarlo.Curves) > 0 {
		page.AddCharts(monteCarloChart(r.MonteCarlo))
	}
	if r.Sensitivity != nil {
		page.AddCharts(heatmapChart(r.Sensitivity))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func chartInit(heightPx int) opts.Initialization {
	return opts.Initialization{
		Theme:           types.ThemeWesteros,
		Width:           fmt.Sprintf("%dpx", chartWidthPx),
		Height:          fmt.Sprintf("%dpx", heightPx),
		BackgroundColor: colorBackground,
	}
}

func equityXAxis(history []portfolio.EquityPoint) []string {
	x := make([]string, len(history))
	for i, p := range history {
		x[i] = time.UnixMilli(p.Timestamp).UTC().Format("01-02 15:04")
	}
	return x
}

func (r *Report) equityChart(xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("Equity  %s %s", r.Result.Symbol, r.Result.Timeframe),
			Subtitle:   fmt.Sprintf("%s | net %.2f (%.2f%%)", r.Result.StrategyName, r.Result.NetProfit(), r.Result.ReturnPercent()),
			Left:       "left",
			Top:        "10",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	equity := make([]opts.LineData, len(r.Result.EquityHistory))
	for i, p := range r.Result.EquityHistory {
		equity[i] = opts.LineData{Value: round(p.Equity, 2)}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Strategy", equity, charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}))

	if len(r.Result.BuyHoldEquity) == len(xAxis) {
		bh := make([]opts.LineData, len(r.Result.BuyHoldEquity))
		for i, v := range r.Result.BuyHoldEquity {
			bh[i] = opts.LineData{Value: round(v, 2)}
		}
		line.AddSeries("Buy & Hold", bh, charts.WithLineStyleOpts(opts.LineStyle{Color: colorBuyHold, Width: 2}))
	}
	return line
}

func (r *Report) drawdownChart(xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(260)),
		charts.WithTitleOpts(opts.Title{Title: "Drawdown %", Left: "left", TitleStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	dd := make([]opts.LineData, len(r.Result.EquityHistory))
	peak := 0.0
	for i, p := range r.Result.EquityHistory {
		if p.Equity > peak {
			peak = p.Equity
		}
		pct := 0.0
		if peak > 0 {
			pct = (peak - p.Equity) / peak * 100
		}
		dd[i] = opts.LineData{Value: round(-pct, 3)}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Drawdown", dd, charts.WithLineStyleOpts(opts.LineStyle{Color: colorDrawdown, Width: 2}))
	return line
}

// monteCarloChart draws the retained resample curves as a faint fan
// over the trade sequence.
func monteCarloChart(mc *robust.MonteCarloResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:      "Monte Carlo",
			Subtitle:   fmt.Sprintf("%d resamples | p5 %.0f / p50 %.0f / p95 %.0f | ruin %.1f%%", mc.Simulations, mc.Equity5, mc.Equity50, mc.Equity95, mc.RuinProbability),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	steps := len(mc.Curves[0])
	xAxis := make([]string, steps)
	for i := range xAxis {
		xAxis[i] = fmt.Sprintf("%d", i)
	}
	line.SetXAxis(xAxis)
	for i, curve := range mc.Curves {
		data := make([]opts.LineData, len(curve))
		for j, v := range curve {
			data[j] = opts.LineData{Value: round(v, 2)}
		}
		line.AddSeries(fmt.Sprintf("run %d", i+1), data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorMonteCarlo, Width: 1, Opacity: opts.Float(0.25)}))
	}
	return line
}

// heatmapChart renders the 2D parameter grid. Failed cells (NaN) are
// left empty.
func heatmapChart(hm *robust.HeatmapResult) *charts.HeatMap {
	chart := charts.NewHeatMap()

	lo, hi := math.Inf(1), math.Inf(-1)
	data := make([]opts.HeatMapData, 0, len(hm.Param1)*len(hm.Param2))
	for i := range hm.Param1 {
		for j := range hm.Param2 {
			v := hm.Values[i][j]
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, round(v, 3)}})
		}
	}
	if lo > hi {
		lo, hi = 0, 0
	}

	xAxis := make([]string, len(hm.Param1))
	for i, v := range hm.Param1 {
		xAxis[i] = fmt.Sprintf("%g", round(v, 3))
	}
	yAxis := make([]string, len(hm.Param2))
	for j, v := range hm.Param2 {
		yAxis[j] = fmt.Sprintf("%g", round(v, 3))
	}

	chart.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("Sensitivity  %s x %s (%s)", hm.Param1Name, hm.Param2Name, hm.Metric),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Name:      hm.Param1Name,
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Name:      hm.Param2Name,
			Data:      yAxis,
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: []string{colorHeatLow, colorHeatHigh}},
		}),
	)
	chart.SetXAxis(xAxis)
	chart.AddSeries("metric", data)
	return chart
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
