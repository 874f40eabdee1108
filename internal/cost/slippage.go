package cost

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"strata/internal/series"
)

type SlippageType string

const (
	SlippageNone         SlippageType = "none"
	SlippageFixedPercent SlippageType = "fixed_percent"
	SlippageFixedPoints  SlippageType = "fixed_points"
	SlippageRandom       SlippageType = "random_percent" // uniform in [0, value] percent
	SlippageVolume       SlippageType = "volume_based"   // impact scaled by previous bar volume
)

// Slippage models the execution-price deviation added in the direction of
// the trade. The volume-based variant sizes its impact against the
// previous bar's traded value; with no recorded bar (or zero volume) it
// degrades to the base-only estimate.
type Slippage struct {
	kind  SlippageType
	value float64
	rng   *rand.Rand

	prevBar    series.Bar
	hasPrevBar bool
}

func NewSlippage(kind SlippageType, value float64) (*Slippage, error) {
	switch kind {
	case SlippageNone, SlippageFixedPercent, SlippageFixedPoints, SlippageRandom, SlippageVolume:
	default:
		return nil, fmt.Errorf("unknown slippage type %q", kind)
	}
	if value < 0 || math.IsNaN(value) {
		return nil, fmt.Errorf("slippage value must be >= 0, got %v", value)
	}
	return &Slippage{
		kind:  kind,
		value: value,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func ZeroSlippage() *Slippage {
	return &Slippage{kind: SlippageNone, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func FixedPercentSlippage(percent float64) (*Slippage, error) {
	return NewSlippage(SlippageFixedPercent, percent)
}

func FixedPointsSlippage(points float64) (*Slippage, error) {
	return NewSlippage(SlippageFixedPoints, points)
}

func RandomSlippage(maxPercent float64) (*Slippage, error) {
	return NewSlippage(SlippageRandom, maxPercent)
}

func VolumeSlippage(basePercent float64) (*Slippage, error) {
	return NewSlippage(SlippageVolume, basePercent)
}

// Seed makes the random variant reproducible.
func (s *Slippage) Seed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// RecordBar stores the completed bar used by the volume-based variant.
// The engine calls this once per bar, after the strategy callback.
func (s *Slippage) RecordBar(bar series.Bar) {
	s.prevBar = bar
	s.hasPrevBar = true
}

// Amount returns the price deviation for a fill of quantity units at
// price. Always non-negative; the caller applies it in trade direction.
func (s *Slippage) Amount(price, quantity float64) float64 {
	switch s.kind {
	case SlippageFixedPercent:
		return price * (s.value / 100)
	case SlippageFixedPoints:
		return s.value
	case SlippageRandom:
		return price * (s.rng.Float64() * s.value / 100)
	case SlippageVolume:
		return s.volumeBased(price, math.Abs(quantity))
	default:
		return 0
	}
}

// volumeBased charges the base half-percent plus 1bp of price per 1% of
// the previous bar's traded value that the order consumes.
func (s *Slippage) volumeBased(price, quantity float64) float64 {
	base := price * (s.value / 100) * 0.5
	if !s.hasPrevBar || s.prevBar.Volume <= 0 {
		return base
	}
	prevTraded := s.prevBar.Volume * s.prevBar.TypicalPrice()
	ratio := (quantity * price) / prevTraded
	return base + price*ratio*0.01
}

// Clone returns a copy with no recorded bar and a fresh random source.
func (s *Slippage) Clone() *Slippage {
	return &Slippage{
		kind:  s.kind,
		value: s.value,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Slippage) Type() SlippageType { return s.kind }
func (s *Slippage) Value() float64     { return s.value }

func (s *Slippage) String() string {
	switch s.kind {
	case SlippageFixedPercent:
		return fmt.Sprintf("%.3f%%", s.value)
	case SlippageFixedPoints:
		return fmt.Sprintf("%.5f points", s.value)
	case SlippageRandom:
		return fmt.Sprintf("0-%.3f%% random", s.value)
	case SlippageVolume:
		return fmt.Sprintf("volume-based (base %.3f%%)", s.value)
	default:
		return "no slippage"
	}
}
