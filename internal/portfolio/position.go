package portfolio

// Position is the single open trade a portfolio may hold. It is mutated
// once per bar by UpdatePrice, which maintains the high/low watermarks
// behind the excursion figures.
type Position struct {
	Symbol        string
	Side          Side
	EntryPrice    float64
	Quantity      float64
	EntryTime     int64
	EntryBarIndex int

	currentPrice float64
	maxPrice     float64
	minPrice     float64
}

func NewPosition(symbol string, side Side, entryPrice, quantity float64, entryTime int64, entryBarIndex int) *Position {
	return &Position{
		Symbol:        symbol,
		Side:          side,
		EntryPrice:    entryPrice,
		Quantity:      quantity,
		EntryTime:     entryTime,
		EntryBarIndex: entryBarIndex,
		currentPrice:  entryPrice,
		maxPrice:      entryPrice,
		minPrice:      entryPrice,
	}
}

// UpdatePrice marks the position to the given price and advances the
// watermarks.
func (p *Position) UpdatePrice(price float64) {
	p.currentPrice = price
	if price > p.maxPrice {
		p.maxPrice = price
	}
	if price < p.minPrice {
		p.minPrice = price
	}
}

func (p *Position) CurrentPrice() float64 { return p.currentPrice }
func (p *Position) MaxPrice() float64     { return p.maxPrice }
func (p *Position) MinPrice() float64     { return p.minPrice }

// Value is the position's mark-to-market notional.
func (p *Position) Value() float64 { return p.currentPrice * p.Quantity }

// EntryValue is the notional at entry.
func (p *Position) EntryValue() float64 { return p.EntryPrice * p.Quantity }

func (p *Position) UnrealizedPnL() float64 {
	return (p.currentPrice - p.EntryPrice) * p.Quantity * p.Side.Multiplier()
}

func (p *Position) UnrealizedPnLPercent() float64 {
	return (p.currentPrice - p.EntryPrice) / p.EntryPrice * 100 * p.Side.Multiplier()
}

// MaxAdverseExcursion is the worst unrealized loss seen over the
// position's life, derived from the price watermarks.
func (p *Position) MaxAdverseExcursion() float64 {
	if p.Side == Long {
		return (p.minPrice - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - p.maxPrice) * p.Quantity
}

// MaxFavorableExcursion is the best unrealized profit seen.
func (p *Position) MaxFavorableExcursion() float64 {
	if p.Side == Long {
		return (p.maxPrice - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - p.minPrice) * p.Quantity
}

func (p *Position) IsLong() bool  { return p.Side == Long }
func (p *Position) IsShort() bool { return p.Side == Short }
