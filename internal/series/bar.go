package series

import "time"

// Bar is one immutable OHLCV sample. Index is the zero-based position of
// the bar inside its TimeSeries and is assigned at series construction.
type Bar struct {
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"` // epoch millis
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Valid reports whether the OHLCV values are internally consistent:
// low <= open,close <= high, positive prices, non-negative volume.
func (b Bar) Valid() bool {
	if b.Open <= 0 || b.Close <= 0 || b.High <= 0 || b.Low <= 0 {
		return false
	}
	if b.Volume < 0 {
		return false
	}
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	if b.High < b.Open || b.High < b.Close {
		return false
	}
	return b.Low <= b.High
}

func (b Bar) Range() float64 {
	return b.High - b.Low
}

func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

func (b Bar) MidPrice() float64 {
	return (b.High + b.Low) / 2
}

// TrueRange needs the previous close; pass NaN or the bar's own close
// when no previous bar exists and it degrades to the plain range.
func (b Bar) TrueRange(prevClose float64) float64 {
	tr := b.Range()
	if prevClose > 0 {
		if hc := abs(b.High - prevClose); hc > tr {
			tr = hc
		}
		if lc := abs(b.Low - prevClose); lc > tr {
			tr = lc
		}
	}
	return tr
}

func (b Bar) Bullish() bool { return b.Close > b.Open }
func (b Bar) Bearish() bool { return b.Close < b.Open }

func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
