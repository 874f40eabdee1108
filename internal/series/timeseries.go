package series

import (
	"fmt"
	"math"
)

// TimeSeries is an ordered, index-addressable bar sequence for a single
// symbol. Bars are re-indexed at construction and the series is immutable
// afterwards; slicing produces a new re-indexed series.
type TimeSeries struct {
	symbol    string
	timeframe Timeframe
	bars      []Bar

	opens, highs, lows, closes, volumes []float64
	byTime                              map[int64]int
}

// New validates bar ordering and integrity, re-indexes the bars, and
// builds the cached OHLCV arrays. The input slice is copied.
func New(symbol string, tf Timeframe, bars []Bar) (*TimeSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("time series requires a symbol")
	}
	s := &TimeSeries{
		symbol:    symbol,
		timeframe: tf,
		bars:      make([]Bar, len(bars)),
		opens:     make([]float64, len(bars)),
		highs:     make([]float64, len(bars)),
		lows:      make([]float64, len(bars)),
		closes:    make([]float64, len(bars)),
		volumes:   make([]float64, len(bars)),
		byTime:    make(map[int64]int, len(bars)),
	}
	var prevTS int64 = math.MinInt64
	for i, b := range bars {
		if !b.Valid() {
			return nil, fmt.Errorf("invalid bar at position %d (timestamp %d)", i, b.Timestamp)
		}
		if b.Timestamp <= prevTS {
			return nil, fmt.Errorf("timestamps not strictly ascending at position %d", i)
		}
		prevTS = b.Timestamp
		b.Index = i
		s.bars[i] = b
		s.opens[i] = b.Open
		s.highs[i] = b.High
		s.lows[i] = b.Low
		s.closes[i] = b.Close
		s.volumes[i] = b.Volume
		s.byTime[b.Timestamp] = i
	}
	return s, nil
}

// Detect builds a series and infers its timeframe from the bar spacing.
func Detect(symbol string, bars []Bar) (*TimeSeries, error) {
	timestamps := make([]int64, len(bars))
	for i, b := range bars {
		timestamps[i] = b.Timestamp
	}
	return New(symbol, DetectTimeframe(timestamps), bars)
}

func (s *TimeSeries) Symbol() string       { return s.symbol }
func (s *TimeSeries) Timeframe() Timeframe { return s.timeframe }
func (s *TimeSeries) Len() int             { return len(s.bars) }

// Bar returns the bar at index i; i must be within [0, Len).
func (s *TimeSeries) Bar(i int) Bar { return s.bars[i] }

func (s *TimeSeries) First() Bar { return s.bars[0] }
func (s *TimeSeries) Last() Bar  { return s.bars[len(s.bars)-1] }

// Bars returns the underlying bar slice. Callers must not modify it.
func (s *TimeSeries) Bars() []Bar { return s.bars }

// The cached arrays are shared, not copied. Callers must not modify them.
func (s *TimeSeries) Opens() []float64   { return s.opens }
func (s *TimeSeries) Highs() []float64   { return s.highs }
func (s *TimeSeries) Lows() []float64    { return s.lows }
func (s *TimeSeries) Closes() []float64  { return s.closes }
func (s *TimeSeries) Volumes() []float64 { return s.volumes }

// IndexOfTime returns the bar index holding the exact timestamp.
func (s *TimeSeries) IndexOfTime(ts int64) (int, bool) {
	i, ok := s.byTime[ts]
	return i, ok
}

// Slice returns a new re-indexed series over [start, end).
func (s *TimeSeries) Slice(start, end int) (*TimeSeries, error) {
	if start < 0 || end > len(s.bars) || start >= end {
		return nil, fmt.Errorf("slice bounds [%d, %d) out of range for %d bars", start, end, len(s.bars))
	}
	return New(s.symbol, s.timeframe, s.bars[start:end])
}

// SliceFromEnd returns the trailing n bars as a new re-indexed series.
func (s *TimeSeries) SliceFromEnd(n int) (*TimeSeries, error) {
	if n <= 0 || n > len(s.bars) {
		return nil, fmt.Errorf("cannot take trailing %d of %d bars", n, len(s.bars))
	}
	return s.Slice(len(s.bars)-n, len(s.bars))
}

// Highest returns the highest high over the period bars ending at end
// (inclusive). NaN when the lookback extends before the series start.
func (s *TimeSeries) Highest(end, period int) float64 {
	if period <= 0 || end-period+1 < 0 || end >= len(s.bars) {
		return math.NaN()
	}
	v := s.highs[end-period+1]
	for i := end - period + 2; i <= end; i++ {
		if s.highs[i] > v {
			v = s.highs[i]
		}
	}
	return v
}

// Lowest returns the lowest low over the period bars ending at end.
func (s *TimeSeries) Lowest(end, period int) float64 {
	if period <= 0 || end-period+1 < 0 || end >= len(s.bars) {
		return math.NaN()
	}
	v := s.lows[end-period+1]
	for i := end - period + 2; i <= end; i++ {
		if s.lows[i] < v {
			v = s.lows[i]
		}
	}
	return v
}
