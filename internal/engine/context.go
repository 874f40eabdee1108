package engine

import (
	"math"

	"strata/internal/portfolio"
	"strata/internal/series"
)

// Context is the strategy-facing execution surface for one run. It
// translates trading intents into fills by composing the cost models and
// mutating the portfolio. Fills happen immediately; there is no order
// queue. Not safe for concurrent use; every run owns its own Context.
type Context struct {
	data       *series.TimeSeries
	pf         *portfolio.Portfolio
	cfg        Config
	indicators *Indicators

	barIndex int

	totalCommissions float64
	totalSlippage    float64
	totalSpreadCost  float64

	// first fatal execution error; once set, further orders are refused
	failure error
}

func NewContext(data *series.TimeSeries, pf *portfolio.Portfolio, cfg Config) *Context {
	return &Context{
		data:       data,
		pf:         pf,
		cfg:        cfg,
		indicators: NewIndicators(data),
	}
}

// SetBarIndex advances the context to bar i. Called by the engine.
func (c *Context) SetBarIndex(i int) { c.barIndex = i }

// UpdatePortfolio marks the portfolio to the bar. Called by the engine.
func (c *Context) UpdatePortfolio(bar series.Bar) { c.pf.Update(bar) }

// Failure returns the fatal execution error for this run, if any.
func (c *Context) Failure() error { return c.failure }

func (c *Context) TotalCommissions() float64 { return c.totalCommissions }
func (c *Context) TotalSlippage() float64    { return c.totalSlippage }
func (c *Context) TotalSpreadCost() float64  { return c.totalSpreadCost }

// ----- market data -----

func (c *Context) Data() *series.TimeSeries { return c.data }
func (c *Context) CurrentBar() series.Bar   { return c.data.Bar(c.barIndex) }
func (c *Context) BarIndex() int            { return c.barIndex }

func (c *Context) BarAt(index int) (series.Bar, bool) {
	if index < 0 || index >= c.data.Len() {
		return series.Bar{}, false
	}
	return c.data.Bar(index), true
}

// Closes returns up to count closes ending at the current bar.
func (c *Context) Closes(count int) []float64 {
	start := c.barIndex - count + 1
	if start < 0 {
		start = 0
	}
	return c.data.Closes()[start : c.barIndex+1]
}

// ----- account state -----

func (c *Context) Equity() float64 { return c.pf.Equity() }
func (c *Context) Cash() float64   { return c.pf.Cash() }

func (c *Context) PositionSize() float64 {
	pos := c.pf.Position()
	if pos == nil {
		return 0
	}
	return pos.Quantity * pos.Side.Multiplier()
}

func (c *Context) PositionEntryPrice() float64 {
	if pos := c.pf.Position(); pos != nil {
		return pos.EntryPrice
	}
	return 0
}

func (c *Context) HasPosition() bool { return c.pf.HasPosition() }

func (c *Context) IsLong() bool {
	pos := c.pf.Position()
	return pos != nil && pos.IsLong()
}

func (c *Context) IsShort() bool {
	pos := c.pf.Position()
	return pos != nil && pos.IsShort()
}

func (c *Context) UnrealizedPnL() float64 {
	if pos := c.pf.Position(); pos != nil {
		return pos.UnrealizedPnL()
	}
	return 0
}

// ----- execution -----

// ExecuteMarketOrder fills a signed quantity at the current bar's close
// adjusted by half-spread (ask side for buys, bid side for sells) and
// slippage in the trade direction. Commission is computed on the final
// fill price. Returns the fill price, or NaN for a zero quantity, a
// refused short, or a failed run.
func (c *Context) ExecuteMarketOrder(quantity float64) float64 {
	if c.failure != nil || quantity == 0 {
		return math.NaN()
	}
	if c.cfg.IntegerQuantity {
		quantity = math.Trunc(quantity)
		if quantity == 0 {
			return math.NaN()
		}
	}
	if quantity < 0 && !c.cfg.AllowShorts && !c.IsLong() {
		return math.NaN()
	}

	bar := c.CurrentBar()
	base := bar.Close

	halfSpread := c.cfg.Spread.HalfSpread(base)
	priceAfterSpread := base + halfSpread
	if quantity < 0 {
		priceAfterSpread = base - halfSpread
	}

	absQty := math.Abs(quantity)
	slip := c.cfg.Slippage.Amount(priceAfterSpread, absQty)
	fill := priceAfterSpread + slip
	if quantity < 0 {
		fill = priceAfterSpread - slip
	}

	commission := c.cfg.Commission.Calculate(absQty, fill)
	if !c.executeTrade(quantity, fill, commission, slip*absQty, halfSpread*absQty) {
		return math.NaN()
	}
	return fill
}

// ExecuteAtPrice fills a signed quantity at an exact price, but only if
// that price lies within the current bar's range. Commission applies; no
// spread or slippage, since the caller named the price. Returns NaN when
// the price is unreachable this bar.
func (c *Context) ExecuteAtPrice(quantity, price float64) float64 {
	if c.failure != nil || quantity == 0 {
		return math.NaN()
	}
	if c.cfg.IntegerQuantity {
		quantity = math.Trunc(quantity)
		if quantity == 0 {
			return math.NaN()
		}
	}
	if quantity < 0 && !c.cfg.AllowShorts && !c.IsLong() {
		return math.NaN()
	}

	bar := c.CurrentBar()
	if price < bar.Low || price > bar.High {
		return math.NaN()
	}

	commission := c.cfg.Commission.Calculate(math.Abs(quantity), price)
	if !c.executeTrade(quantity, price, commission, 0, 0) {
		return math.NaN()
	}
	return price
}

func (c *Context) ClosePosition() float64 {
	pos := c.pf.Position()
	if pos == nil {
		return math.NaN()
	}
	return c.ExecuteMarketOrder(-pos.Quantity * pos.Side.Multiplier())
}

func (c *Context) ClosePositionAtPrice(price float64) float64 {
	pos := c.pf.Position()
	if pos == nil {
		return math.NaN()
	}
	return c.ExecuteAtPrice(-pos.Quantity*pos.Side.Multiplier(), price)
}

// executeTrade applies one fill to the portfolio: open when flat, close
// or reverse against an opposite position, close-and-reopen at the
// weighted average entry when adding to the same side. Reports false and
// records the failure when the portfolio refuses the fill.
func (c *Context) executeTrade(signedQty, price, commission, slippageCost, spreadCost float64) bool {
	bar := c.CurrentBar()
	absQty := math.Abs(signedQty)
	isBuy := signedQty > 0

	c.totalCommissions += commission
	c.totalSlippage += slippageCost
	c.totalSpreadCost += spreadCost

	pos := c.pf.Position()
	if pos == nil {
		side := portfolio.Short
		if isBuy {
			side = portfolio.Long
		}
		if err := c.pf.Open(c.data.Symbol(), side, price, absQty, bar.Timestamp, c.barIndex, commission); err != nil {
			c.failure = err
			return false
		}
		return true
	}

	closing := (pos.IsLong() && !isBuy) || (pos.IsShort() && isBuy)
	if closing {
		prevQty := pos.Quantity
		if _, err := c.pf.Close(price, bar.Timestamp, c.barIndex, commission, slippageCost); err != nil {
			c.failure = err
			return false
		}

		// an oversized close reverses: the excess opens a new position
		excess := absQty - prevQty
		if excess > 0 {
			side := portfolio.Short
			if isBuy {
				side = portfolio.Long
			}
			if side == portfolio.Short && !c.cfg.AllowShorts {
				return true
			}
			newCommission := c.cfg.Commission.Calculate(excess, price)
			if err := c.pf.Open(c.data.Symbol(), side, price, excess, bar.Timestamp, c.barIndex, newCommission); err != nil {
				c.failure = err
				return false
			}
			c.totalCommissions += newCommission
		}
		return true
	}

	// adding to the position: modeled as close-then-reopen at the
	// quantity-weighted average entry price, keeping a single open
	// position per portfolio
	newQty := pos.Quantity + absQty
	avgPrice := (pos.EntryPrice*pos.Quantity + price*absQty) / newQty
	entryPrice := pos.EntryPrice
	side := pos.Side

	if _, err := c.pf.Close(entryPrice, bar.Timestamp, c.barIndex, 0, 0); err != nil {
		c.failure = err
		return false
	}
	if err := c.pf.Open(c.data.Symbol(), side, avgPrice, newQty, bar.Timestamp, c.barIndex, commission); err != nil {
		c.failure = err
		return false
	}
	return true
}

// ----- position sizing -----

// QuantityForDollars returns the quantity whose full per-unit cost (ask,
// expected slippage, commission) fits the budget, floored to a whole
// number of units.
func (c *Context) QuantityForDollars(dollars float64) float64 {
	bar := c.CurrentBar()
	ask := bar.Close + c.cfg.Spread.HalfSpread(bar.Close)
	effective := ask + c.cfg.Slippage.Amount(ask, 1)
	perUnit := effective + c.cfg.Commission.Calculate(1, effective)
	if perUnit <= 0 {
		return 0
	}
	return math.Floor(dollars / perUnit)
}

// QuantityForPercentage sizes against cash, not equity, so an open
// position cannot be levered into a larger one.
func (c *Context) QuantityForPercentage(percent float64) float64 {
	return c.QuantityForDollars(c.Cash() * percent / 100)
}

// QuantityForRisk sizes so that stopDistance of adverse movement loses
// riskPercent of equity, clamped to what cash can afford with a 1%
// buffer.
func (c *Context) QuantityForRisk(riskPercent, stopDistance float64) float64 {
	if stopDistance <= 0 {
		return 0
	}
	quantity := c.Equity() * riskPercent / 100 / stopDistance

	bar := c.CurrentBar()
	ask := bar.Close + c.cfg.Spread.HalfSpread(bar.Close)
	if ask <= 0 {
		return 0
	}
	maxAffordable := math.Floor(c.Cash() / ask * 0.99)
	return math.Min(quantity, maxAffordable)
}

// ----- indicators -----

func (c *Context) SMA(period int) float64     { return c.indicators.SMA(c.barIndex, period) }
func (c *Context) EMA(period int) float64     { return c.indicators.EMA(c.barIndex, period) }
func (c *Context) RSI(period int) float64     { return c.indicators.RSI(c.barIndex, period) }
func (c *Context) ATR(period int) float64     { return c.indicators.ATR(c.barIndex, period) }
func (c *Context) Highest(period int) float64 { return c.indicators.Highest(c.barIndex, period) }
func (c *Context) Lowest(period int) float64  { return c.indicators.Lowest(c.barIndex, period) }
func (c *Context) StdDev(period int) float64  { return c.indicators.StdDev(c.barIndex, period) }

func (c *Context) MACD(fast, slow int) float64 {
	return c.indicators.MACD(c.barIndex, fast, slow)
}

func (c *Context) MACDSignal(fast, slow, signal int) float64 {
	return c.indicators.MACDSignal(c.barIndex, fast, slow, signal)
}

func (c *Context) BollingerUpper(period int, stdDevs float64) float64 {
	return c.indicators.BollingerUpper(c.barIndex, period, stdDevs)
}

func (c *Context) BollingerLower(period int, stdDevs float64) float64 {
	return c.indicators.BollingerLower(c.barIndex, period, stdDevs)
}

func (c *Context) Momentum(period int) float64  { return c.indicators.Momentum(c.barIndex, period) }
func (c *Context) ROC(period int) float64       { return c.indicators.ROC(c.barIndex, period) }
func (c *Context) ADX(period int) float64       { return c.indicators.ADX(c.barIndex, period) }
func (c *Context) CCI(period int) float64       { return c.indicators.CCI(c.barIndex, period) }
func (c *Context) WilliamsR(period int) float64 { return c.indicators.WilliamsR(c.barIndex, period) }
func (c *Context) StochK(period int) float64    { return c.indicators.StochK(c.barIndex, period) }
func (c *Context) StochD(period int) float64    { return c.indicators.StochD(c.barIndex, period) }
