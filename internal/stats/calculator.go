// Package stats derives the performance metric set from a completed run.
// Every computation degrades to zero on an empty or degenerate input
// rather than failing: statistics on a run with no trades are all zeros.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"strata/internal/engine"
	"strata/internal/portfolio"
)

// Calculator turns a run result into Statistics. PeriodsPerYear
// overrides the annualization constant; zero means use the bar interval
// detected on the input data.
type Calculator struct {
	PeriodsPerYear float64
}

func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) periodsPerYear(result *engine.Result) float64 {
	if c.PeriodsPerYear > 0 {
		return c.PeriodsPerYear
	}
	if result.BarsPerYear > 0 {
		return result.BarsPerYear
	}
	return 252
}

// Calculate computes the full metric set. Pure function of its input.
func (c *Calculator) Calculate(result *engine.Result) Statistics {
	trades := result.Trades
	history := result.EquityHistory
	initial := result.InitialCapital
	final := result.FinalEquity
	perYear := c.periodsPerYear(result)

	returns := barReturns(history)

	netProfit := final - initial
	netReturnPercent := 0.0
	if initial > 0 {
		netReturnPercent = netProfit / initial * 100
	}

	var grossProfit, grossLoss float64
	var wins, losses int
	var largestWin, largestLoss float64
	var barsHeldSum int
	var mfeSum, maeSum, returnPctSum float64
	var totalTraded float64
	for _, t := range trades {
		if t.Win() {
			wins++
			grossProfit += t.NetPnL
		} else if t.Loss() {
			losses++
			grossLoss += -t.NetPnL
		}
		if t.NetPnL > largestWin {
			largestWin = t.NetPnL
		}
		if t.NetPnL < largestLoss {
			largestLoss = t.NetPnL
		}
		barsHeldSum += t.BarsHeld
		mfeSum += t.MFE
		maeSum += t.MAE
		returnPctSum += t.ReturnPercent()
		totalTraded += t.EntryPrice * t.Quantity * 2
	}

	profitFactor := ratioOrInf(grossProfit, grossLoss)

	runUp, runUpPercent := maxRunUp(history, initial)
	maxDD, maxDDPercent, maxDDDuration := drawdown(history)

	alpha := netReturnPercent - result.BuyHoldReturnPercent

	sharpe := sharpeRatio(returns, perYear)
	sortino := sortinoRatio(returns, perYear)
	cagr := annualGrowth(initial, final, result.TotalBars, perYear)

	calmar := 0.0
	if maxDDPercent != 0 {
		calmar = cagr / maxDDPercent
	}
	recovery := 0.0
	if maxDD != 0 {
		recovery = netProfit / maxDD
	}

	total := len(trades)
	winRate := 0.0
	avgTrade := 0.0
	avgBars := 0.0
	expectancyPercent := 0.0
	avgMFE, avgMAE := 0.0, 0.0
	if total > 0 {
		winRate = float64(wins) / float64(total) * 100
		avgTrade = netProfit / float64(total)
		avgBars = float64(barsHeldSum) / float64(total)
		expectancyPercent = returnPctSum / float64(total)
		avgMFE = mfeSum / float64(total)
		avgMAE = maeSum / float64(total)
	}
	avgWin := 0.0
	if wins > 0 {
		avgWin = grossProfit / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = grossLoss / float64(losses)
	}
	payoff := ratioOrInf(avgWin, avgLoss)

	maxConsecWins, maxConsecLosses := streaks(trades)

	volatility := sampleStdDev(returns) * math.Sqrt(perYear) * 100
	downside := downsideDeviation(returns) * math.Sqrt(perYear) * 100

	timeInMarket := 0.0
	if result.TotalBars > 0 {
		timeInMarket = float64(result.BarsInMarket) / float64(result.TotalBars) * 100
	}

	avgEquity := initial
	if len(history) > 0 {
		sum := 0.0
		for _, pt := range history {
			sum += pt.Equity
		}
		avgEquity = sum / float64(len(history))
	}
	turnover := 0.0
	if avgEquity > 0 {
		turnover = totalTraded / avgEquity
	}

	tradesPerYear := total
	if years := float64(result.TotalBars) / perYear; years > 0 {
		tradesPerYear = int(float64(total) / years)
	}

	totalCosts := result.TotalCosts()
	pnlBeforeCosts := netProfit + totalCosts
	costImpact := 0.0
	if pnlBeforeCosts != 0 {
		costImpact = totalCosts / math.Abs(pnlBeforeCosts) * 100
	}

	return Statistics{
		NetProfit:             netProfit,
		NetReturnPercent:      netReturnPercent,
		GrossProfit:           grossProfit,
		GrossLoss:             grossLoss,
		ProfitFactor:          profitFactor,
		MaxEquityRunUp:        runUp,
		MaxEquityRunUpPercent: runUpPercent,
		MaxDrawdown:           maxDD,
		MaxDrawdownPercent:    maxDDPercent,
		MaxDrawdownDuration:   maxDDDuration,
		BuyHoldReturn:         result.BuyHoldReturnPercent,
		Alpha:                 alpha,
		SharpeRatio:           sharpe,
		SortinoRatio:          sortino,
		CalmarRatio:           calmar,
		RecoveryFactor:        recovery,
		CAGR:                  cagr,
		TotalTrades:           total,
		WinningTrades:         wins,
		LosingTrades:          losses,
		WinRate:               winRate,
		AvgTrade:              avgTrade,
		AvgWin:                avgWin,
		AvgLoss:               avgLoss,
		PayoffRatio:           payoff,
		Expectancy:            avgTrade,
		ExpectancyPercent:     expectancyPercent,
		LargestWin:            largestWin,
		LargestLoss:           largestLoss,
		AvgBarsInTrade:        avgBars,
		MaxConsecutiveWins:    maxConsecWins,
		MaxConsecutiveLosses:  maxConsecLosses,
		AvgMFE:                avgMFE,
		AvgMAE:                avgMAE,
		ReturnVolatility:      volatility,
		DownsideDeviation:     downside,
		TimeInMarket:          timeInMarket,
		Turnover:              turnover,
		TradesPerYear:         tradesPerYear,
		TotalCommissions:      result.TotalCommissions,
		TotalSlippage:         result.TotalSlippage,
		TotalSpreadCost:       result.TotalSpreadCost,
		TotalCosts:            totalCosts,
		PnLBeforeCosts:        pnlBeforeCosts,
		PnLAfterCosts:         netProfit,
		CostImpactPercent:     costImpact,
		TotalBars:             result.TotalBars,
		BarsInMarket:          result.BarsInMarket,
	}
}

// barReturns is the per-bar simple return sequence of the equity curve.
func barReturns(history []portfolio.EquityPoint) []float64 {
	if len(history) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Equity
		if prev > 0 {
			returns = append(returns, (history[i].Equity-prev)/prev)
		} else {
			returns = append(returns, 0)
		}
	}
	return returns
}

func maxRunUp(history []portfolio.EquityPoint, initial float64) (float64, float64) {
	maxEquity := initial
	for _, pt := range history {
		if pt.Equity > maxEquity {
			maxEquity = pt.Equity
		}
	}
	runUp := maxEquity - initial
	if initial > 0 {
		return runUp, runUp / initial * 100
	}
	return runUp, 0
}

// drawdown walks the curve with a running peak, tracking the deepest
// decline and the longest consecutive run of bars spent under a peak.
func drawdown(history []portfolio.EquityPoint) (maxDD, maxDDPercent float64, maxDuration int) {
	if len(history) == 0 {
		return 0, 0, 0
	}
	peak := history[0].Equity
	duration := 0
	for _, pt := range history {
		if pt.Equity > peak {
			peak = pt.Equity
			duration = 0
			continue
		}
		dd := peak - pt.Equity
		duration++
		if dd > maxDD {
			maxDD = dd
			if peak > 0 {
				maxDDPercent = dd / peak * 100
			}
		}
		if duration > maxDuration {
			maxDuration = duration
		}
	}
	return maxDD, maxDDPercent, maxDuration
}

func sharpeRatio(returns []float64, perYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := sampleStdDev(returns)
	if sd == 0 {
		return 0
	}
	return math.Sqrt(perYear) * stat.Mean(returns, nil) / sd
}

func sortinoRatio(returns []float64, perYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	dd := downsideDeviation(returns)
	if dd == 0 {
		return 0
	}
	return math.Sqrt(perYear) * stat.Mean(returns, nil) / dd
}

// downsideDeviation is the sample standard deviation of the negative
// returns only. Zero when no return is negative.
func downsideDeviation(returns []float64) float64 {
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	return sampleStdDev(negative)
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

func annualGrowth(initial, final float64, totalBars int, perYear float64) float64 {
	if totalBars == 0 || initial <= 0 || final <= 0 {
		return 0
	}
	years := float64(totalBars) / perYear
	if years <= 0 {
		return 0
	}
	return (math.Pow(final/initial, 1/years) - 1) * 100
}

func streaks(trades []portfolio.Trade) (maxWins, maxLosses int) {
	var curWins, curLosses int
	for _, t := range trades {
		switch {
		case t.Win():
			curWins++
			curLosses = 0
			if curWins > maxWins {
				maxWins = curWins
			}
		case t.Loss():
			curLosses++
			curWins = 0
			if curLosses > maxLosses {
				maxLosses = curLosses
			}
		}
	}
	return maxWins, maxLosses
}

// ratioOrInf is the shared profit-factor/payoff rule: +Inf when there
// are gains and no losses, 0 when there is nothing at all.
func ratioOrInf(gain, loss float64) float64 {
	if loss > 0 {
		return gain / loss
	}
	if gain > 0 {
		return math.Inf(1)
	}
	return 0
}
