package portfolio

import (
	"errors"
	"fmt"

	"strata/internal/series"
)

// ErrInsufficientFunds marks an open that exceeds available cash. The
// wrapping error carries the attempted cost and the cash on hand.
var ErrInsufficientFunds = errors.New("insufficient cash for position")

// ErrPositionState marks an open while a position exists, or a close
// while none does.
var ErrPositionState = errors.New("invalid position state")

// EquityPoint is one per-bar sample of the equity curve.
type EquityPoint struct {
	Timestamp  int64   `json:"timestamp"`
	Equity     float64 `json:"equity"`
	Drawdown   float64 `json:"drawdown"`
	InPosition bool    `json:"in_position"`
}

// Portfolio owns the cash balance, the at-most-one open position, the
// append-only trade ledger, and the per-bar equity history. One instance
// per run; not safe for concurrent use.
type Portfolio struct {
	initialCash float64
	cash        float64
	position    *Position
	trades      []Trade
	equity      []EquityPoint

	peakEquity         float64
	currentDrawdown    float64
	maxDrawdown        float64
	maxDrawdownPercent float64

	totalBarsInMarket int
	maxPositionValue  float64
}

func New(initialCash float64) *Portfolio {
	return &Portfolio{
		initialCash: initialCash,
		cash:        initialCash,
		peakEquity:  initialCash,
	}
}

// Equity is cash plus the open position's mark-to-market value.
func (p *Portfolio) Equity() float64 {
	if p.position != nil {
		return p.cash + p.position.Value()
	}
	return p.cash
}

func (p *Portfolio) Cash() float64        { return p.cash }
func (p *Portfolio) InitialCash() float64 { return p.initialCash }
func (p *Portfolio) HasPosition() bool    { return p.position != nil }

// Position returns the open position, or nil.
func (p *Portfolio) Position() *Position { return p.position }

// Open creates the position and deducts its cost from cash. The price is
// the final fill price, costs already applied by the caller.
func (p *Portfolio) Open(symbol string, side Side, price, quantity float64, timestamp int64, barIndex int, commission float64) error {
	if p.position != nil {
		return fmt.Errorf("%w: position already open", ErrPositionState)
	}
	cost := price*quantity + commission
	if cost > p.cash {
		return fmt.Errorf("%w: required %.2f, available %.2f", ErrInsufficientFunds, cost, p.cash)
	}
	p.cash -= cost
	p.position = NewPosition(symbol, side, price, quantity, timestamp, barIndex)
	if v := p.position.EntryValue(); v > p.maxPositionValue {
		p.maxPositionValue = v
	}
	return nil
}

// Close flattens the position at the given fill price, returns the
// proceeds to cash, and appends the round-trip to the ledger. Commission
// is the per-side fee; the recorded trade carries both sides. Slippage is
// the total price deviation cost the caller applied across entry and exit.
func (p *Portfolio) Close(price float64, timestamp int64, barIndex int, commission, slippage float64) (Trade, error) {
	if p.position == nil {
		return Trade{}, fmt.Errorf("%w: no position to close", ErrPositionState)
	}
	pos := p.position

	grossPnL := (price - pos.EntryPrice) * pos.Quantity * pos.Side.Multiplier()
	totalCommission := commission * 2
	netPnL := grossPnL - totalCommission

	p.cash += price*pos.Quantity - commission

	trade := Trade{
		Symbol:        pos.Symbol,
		Side:          pos.Side,
		EntryTime:     pos.EntryTime,
		ExitTime:      timestamp,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     price,
		Quantity:      pos.Quantity,
		GrossPnL:      grossPnL,
		Commission:    totalCommission,
		Slippage:      slippage,
		NetPnL:        netPnL,
		BarsHeld:      barIndex - pos.EntryBarIndex,
		EntryBarIndex: pos.EntryBarIndex,
		ExitBarIndex:  barIndex,
		MFE:           pos.MaxFavorableExcursion(),
		MAE:           pos.MaxAdverseExcursion(),
	}
	p.trades = append(p.trades, trade)
	p.position = nil
	return trade, nil
}

// Update marks the portfolio to the bar's close and appends exactly one
// equity point. Called once per bar by the engine, warmup included.
func (p *Portfolio) Update(bar series.Bar) {
	if p.position != nil {
		p.position.UpdatePrice(bar.Close)
		p.totalBarsInMarket++
	}

	equity := p.Equity()
	if equity > p.peakEquity {
		p.peakEquity = equity
	}
	p.currentDrawdown = p.peakEquity - equity
	if p.currentDrawdown > p.maxDrawdown {
		p.maxDrawdown = p.currentDrawdown
		if p.peakEquity > 0 {
			p.maxDrawdownPercent = p.currentDrawdown / p.peakEquity * 100
		}
	}

	p.equity = append(p.equity, EquityPoint{
		Timestamp:  bar.Timestamp,
		Equity:     equity,
		Drawdown:   p.currentDrawdown,
		InPosition: p.position != nil,
	})
}

// Trades returns the ledger. Callers must not modify it.
func (p *Portfolio) Trades() []Trade { return p.trades }

// EquityHistory returns the per-bar equity points. Callers must not
// modify it.
func (p *Portfolio) EquityHistory() []EquityPoint { return p.equity }

func (p *Portfolio) PeakEquity() float64         { return p.peakEquity }
func (p *Portfolio) CurrentDrawdown() float64    { return p.currentDrawdown }
func (p *Portfolio) MaxDrawdown() float64        { return p.maxDrawdown }
func (p *Portfolio) MaxDrawdownPercent() float64 { return p.maxDrawdownPercent }
func (p *Portfolio) TotalBarsInMarket() int      { return p.totalBarsInMarket }
func (p *Portfolio) MaxPositionValue() float64   { return p.maxPositionValue }

// Reset returns the portfolio to its initial state.
func (p *Portfolio) Reset() {
	p.cash = p.initialCash
	p.position = nil
	p.trades = nil
	p.equity = nil
	p.peakEquity = p.initialCash
	p.currentDrawdown = 0
	p.maxDrawdown = 0
	p.maxDrawdownPercent = 0
	p.totalBarsInMarket = 0
	p.maxPositionValue = 0
}
