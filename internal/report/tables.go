package report

import (
	"fmt"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"strata/internal/engine"
	"strata/internal/portfolio"
	"strata/internal/robust"
	"strata/internal/stats"
)

func money(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}

func percent(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f%%", f)
	}
	return fmt.Sprint(v)
}

func ratio(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", f)
}

// StatisticsTable renders the full metric set in two-column form.
func StatisticsTable(res *engine.Result, st stats.Statistics) string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("%s  %s %s", res.StrategyName, res.Symbol, res.Timeframe))
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Value", Align: text.AlignRight},
	})

	rows := []table.Row{
		{"Initial Capital", money(res.InitialCapital)},
		{"Final Equity", money(res.FinalEquity)},
		{"Net Profit", money(st.NetProfit)},
		{"Return", percent(st.NetReturnPercent)},
		{"CAGR", percent(st.CAGR)},
		{"Buy & Hold Return", percent(st.BuyHoldReturn)},
		{"Alpha", percent(st.Alpha)},
		{"Max Drawdown", percent(st.MaxDrawdownPercent)},
		{"Max Drawdown Bars", st.MaxDrawdownDuration},
		{"Max Run-Up", money(st.MaxEquityRunUp)},
		{"Sharpe Ratio", ratio(st.SharpeRatio)},
		{"Sortino Ratio", ratio(st.SortinoRatio)},
		{"Calmar Ratio", ratio(st.CalmarRatio)},
		{"Recovery Factor", ratio(st.RecoveryFactor)},
		{"Volatility (ann.)", percent(st.ReturnVolatility)},
		{"Total Trades", st.TotalTrades},
		{"Win Rate", percent(st.WinRate)},
		{"Profit Factor", ratio(st.ProfitFactor)},
		{"Payoff Ratio", ratio(st.PayoffRatio)},
		{"Expectancy", money(st.Expectancy)},
		{"Avg Win", money(st.AvgWin)},
		{"Avg Loss", money(st.AvgLoss)},
		{"Largest Win", money(st.LargestWin)},
		{"Largest Loss", money(st.LargestLoss)},
		{"Max Win Streak", st.MaxConsecutiveWins},
		{"Max Loss Streak", st.MaxConsecutiveLosses},
		{"Avg Bars In Trade", fmt.Sprintf("%.1f", st.AvgBarsInTrade)},
		{"Time In Market", percent(st.TimeInMarket)},
		{"Trades / Year", st.TradesPerYear},
		{"Turnover", ratio(st.Turnover)},
		{"Total Costs", money(st.TotalCosts)},
		{"Cost Impact", percent(st.CostImpactPercent)},
	}
	tw.AppendRows(rows)
	return tw.Render()
}

// TradesTable lists the most recent closed trades, newest last.
func TradesTable(trades []portfolio.Trade, limit int) string {
	tw := table.NewWriter()
	tw.SetTitle("Trades")
	tw.AppendHeader(table.Row{"#", "Side", "Entry Time", "Exit Time", "Entry", "Exit", "Qty", "PnL", "PnL %", "Bars"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Entry", Align: text.AlignRight, Transformer: money},
		{Name: "Exit", Align: text.AlignRight, Transformer: money},
		{Name: "Qty", Align: text.AlignRight},
		{Name: "PnL", Align: text.AlignRight, Transformer: money},
		{Name: "PnL %", Align: text.AlignRight, Transformer: percent},
		{Name: "Bars", Align: text.AlignRight},
	})

	start := 0
	if limit > 0 && len(trades) > limit {
		start = len(trades) - limit
	}
	for i := start; i < len(trades); i++ {
		tr := trades[i]
		tw.AppendRow(table.Row{
			i + 1,
			tr.Side.String(),
			time.UnixMilli(tr.EntryTime).UTC().Format(time.DateTime),
			time.UnixMilli(tr.ExitTime).UTC().Format(time.DateTime),
			tr.EntryPrice,
			tr.ExitPrice,
			fmt.Sprintf("%.4f", tr.Quantity),
			tr.NetPnL,
			tr.ReturnPercent(),
			tr.BarsHeld,
		})
	}
	if start > 0 {
		tw.SetCaption("showing last %d of %d trades", len(trades)-start, len(trades))
	}
	return tw.Render()
}

// MonteCarloTable summarizes the resampling distribution.
func MonteCarloTable(mc robust.MonteCarloResult) string {
	tw := table.NewWriter()
	tw.SetTitle("Monte Carlo")
	tw.AppendHeader(table.Row{"Percentile", "Final Equity", "Max Drawdown"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Final Equity", Align: text.AlignRight, Transformer: money},
		{Name: "Max Drawdown", Align: text.AlignRight, Transformer: percent},
	})
	tw.AppendRows([]table.Row{
		{"5th", mc.Equity5, mc.MaxDrawdown95},
		{"25th", mc.Equity25, ""},
		{"50th", mc.Equity50, mc.MaxDrawdown50},
		{"75th", mc.Equity75, ""},
		{"95th", mc.Equity95, mc.MaxDrawdown5},
	})
	tw.AppendFooter(table.Row{"Ruin Probability", percent(mc.RuinProbability), ""})
	return tw.Render()
}

// WalkForwardTable lists each out-of-sample window plus the aggregate
// row.
func WalkForwardTable(wf *robust.WalkForwardResult) string {
	tw := table.NewWriter()
	tw.SetTitle("Walk-Forward")
	tw.AppendHeader(table.Row{"Window", "Train", "Test", "Score", "OOS Return", "Trades", "Status"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Score", Align: text.AlignRight, Transformer: ratio},
		{Name: "OOS Return", Align: text.AlignRight, Transformer: percent},
		{Name: "Trades", Align: text.AlignRight},
	})
	for i, w := range wf.Windows {
		status := "ok"
		oosReturn := math.NaN()
		trades := 0
		if w.Error != "" {
			status = "error"
		} else if w.Result != nil {
			oosReturn = w.Result.ReturnPercent()
			trades = len(w.Result.Trades)
		}
		tw.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%d-%d", w.TrainStart, w.TrainEnd),
			fmt.Sprintf("%d-%d", w.TestStart, w.TestEnd),
			w.TrainScore,
			oosReturn,
			trades,
			status,
		})
	}
	agg := wf.Aggregated
	tw.AppendFooter(table.Row{
		"Total", "", "", "",
		percent(agg.TotalReturn),
		agg.TotalTrades,
		fmt.Sprintf("sharpe %.2f", agg.SharpeRatio),
	})
	return tw.Render()
}

// StressTable lists every scenario with its verdict.
func StressTable(sr *robust.StressReport) string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("Stress Battery  (rating: %s)", sr.Rating()))
	tw.AppendHeader(table.Row{"Scenario", "Return", "Sharpe", "Max DD", "Trades", "Status"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Return", Align: text.AlignRight, Transformer: percent},
		{Name: "Sharpe", Align: text.AlignRight, Transformer: ratio},
		{Name: "Max DD", Align: text.AlignRight, Transformer: percent},
		{Name: "Trades", Align: text.AlignRight},
	})
	for _, sc := range sr.Scenarios {
		tw.AppendRow(table.Row{sc.Name, sc.NetReturn, sc.SharpeRatio, sc.MaxDrawdown, sc.Trades, sc.Status})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d/%d passed", sr.PassCount(), len(sr.Scenarios)),
		percent(sr.AverageReturn()), "", percent(sr.WorstReturn()), "", "",
	})
	return tw.Render()
}
