package portfolio

// Trade is the immutable record of one completed round-trip. It is built
// the instant a position fully closes and appended to the ledger.
type Trade struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	EntryTime     int64   `json:"entry_time"`
	ExitTime      int64   `json:"exit_time"`
	EntryPrice    float64 `json:"entry_price"`
	ExitPrice     float64 `json:"exit_price"`
	Quantity      float64 `json:"quantity"`
	GrossPnL      float64 `json:"gross_pnl"`
	Commission    float64 `json:"commission"`
	Slippage      float64 `json:"slippage"`
	NetPnL        float64 `json:"net_pnl"`
	BarsHeld      int     `json:"bars_held"`
	EntryBarIndex int     `json:"entry_bar_index"`
	ExitBarIndex  int     `json:"exit_bar_index"`
	MFE           float64 `json:"max_favorable_excursion"`
	MAE           float64 `json:"max_adverse_excursion"`
}

func (t Trade) Win() bool  { return t.NetPnL > 0 }
func (t Trade) Loss() bool { return t.NetPnL < 0 }

// ReturnPercent is the net P&L relative to the entry notional.
func (t Trade) ReturnPercent() float64 {
	notional := t.EntryPrice * t.Quantity
	if notional == 0 {
		return 0
	}
	return t.NetPnL / notional * 100
}
