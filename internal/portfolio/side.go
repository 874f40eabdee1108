package portfolio

// Side is the direction of a position.
type Side int

const (
	Long  Side = 1
	Short Side = -1
)

// Multiplier returns +1 for long, -1 for short, for P&L math.
func (s Side) Multiplier() float64 { return float64(s) }

func (s Side) Opposite() Side { return -s }

func (s Side) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}
