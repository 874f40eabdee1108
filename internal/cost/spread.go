package cost

import (
	"fmt"
	"math"

	"strata/internal/series"
)

type SpreadType string

const (
	SpreadNone    SpreadType = "none"
	SpreadPips    SpreadType = "pips"    // fixed pips (0.0001 per pip)
	SpreadPoints  SpreadType = "points"  // fixed price points
	SpreadPercent SpreadType = "percent" // percentage of price
	SpreadDynamic SpreadType = "dynamic" // base percent + previous bar volatility
)

// Spread models the bid-ask gap. The dynamic variant widens with the
// previous bar's range; before any bar has been recorded it degrades to
// the base-only estimate.
type Spread struct {
	kind  SpreadType
	value float64

	prevBar    series.Bar
	hasPrevBar bool
}

func NewSpread(kind SpreadType, value float64) (*Spread, error) {
	switch kind {
	case SpreadNone, SpreadPips, SpreadPoints, SpreadPercent, SpreadDynamic:
	default:
		return nil, fmt.Errorf("unknown spread type %q", kind)
	}
	if value < 0 || math.IsNaN(value) {
		return nil, fmt.Errorf("spread value must be >= 0, got %v", value)
	}
	return &Spread{kind: kind, value: value}, nil
}

func ZeroSpread() *Spread { return &Spread{kind: SpreadNone} }

func PipsSpread(pips float64) (*Spread, error)       { return NewSpread(SpreadPips, pips) }
func PointsSpread(points float64) (*Spread, error)   { return NewSpread(SpreadPoints, points) }
func PercentSpread(percent float64) (*Spread, error) { return NewSpread(SpreadPercent, percent) }
func DynamicSpread(basePercent float64) (*Spread, error) {
	return NewSpread(SpreadDynamic, basePercent)
}

// RecordBar stores the completed bar used by the dynamic variant.
// The engine calls this once per bar, after the strategy callback.
func (s *Spread) RecordBar(bar series.Bar) {
	s.prevBar = bar
	s.hasPrevBar = true
}

// HalfSpread is the amount added to buys and subtracted from sells.
func (s *Spread) HalfSpread(price float64) float64 {
	switch s.kind {
	case SpreadPips:
		return s.value * 0.0001
	case SpreadPoints:
		return s.value
	case SpreadPercent:
		return price * (s.value / 100)
	case SpreadDynamic:
		base := price * (s.value / 100)
		if s.hasPrevBar {
			return base + s.prevBar.Range()*0.1
		}
		return base
	default:
		return 0
	}
}

func (s *Spread) FullSpread(price float64) float64 {
	return s.HalfSpread(price) * 2
}

// Bid is the price at which a sell fills.
func (s *Spread) Bid(mid float64) float64 { return mid - s.HalfSpread(mid) }

// Ask is the price at which a buy fills.
func (s *Spread) Ask(mid float64) float64 { return mid + s.HalfSpread(mid) }

// Clone returns a copy with no recorded bar, for use by an independent run.
func (s *Spread) Clone() *Spread {
	return &Spread{kind: s.kind, value: s.value}
}

func (s *Spread) Type() SpreadType { return s.kind }
func (s *Spread) Value() float64   { return s.value }

func (s *Spread) String() string {
	switch s.kind {
	case SpreadPips:
		return fmt.Sprintf("%.1f pips", s.value)
	case SpreadPoints:
		return fmt.Sprintf("%.5f points", s.value)
	case SpreadPercent:
		return fmt.Sprintf("%.3f%%", s.value)
	case SpreadDynamic:
		return fmt.Sprintf("dynamic (base %.3f%%)", s.value)
	default:
		return "no spread"
	}
}
