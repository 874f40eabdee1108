// Package cost holds the three composable transaction-cost models:
// commission, spread, and slippage. Spread and slippage variants that
// depend on market state use the previous completed bar only; the engine
// records it once per bar, after the strategy callback, so a decision can
// never see its own bar's finished range or volume.
package cost

import (
	"fmt"
	"math"
)

type CommissionType string

const (
	CommissionFixed   CommissionType = "fixed"     // flat fee per trade
	CommissionPercent CommissionType = "percent"   // percentage of notional
	CommissionPerUnit CommissionType = "per_unit"  // fee per share/contract
)

// Commission computes the fee for one fill. Immutable.
type Commission struct {
	kind    CommissionType
	value   float64
	minimum float64
}

func NewCommission(kind CommissionType, value, minimum float64) (Commission, error) {
	switch kind {
	case CommissionFixed, CommissionPercent, CommissionPerUnit:
	default:
		return Commission{}, fmt.Errorf("unknown commission type %q", kind)
	}
	if value < 0 || math.IsNaN(value) {
		return Commission{}, fmt.Errorf("commission value must be >= 0, got %v", value)
	}
	if minimum < 0 || math.IsNaN(minimum) {
		return Commission{}, fmt.Errorf("commission minimum must be >= 0, got %v", minimum)
	}
	return Commission{kind: kind, value: value, minimum: minimum}, nil
}

// ZeroCommission charges nothing.
func ZeroCommission() Commission {
	return Commission{kind: CommissionFixed}
}

// FixedCommission charges a flat fee per fill.
func FixedCommission(amount float64) (Commission, error) {
	return NewCommission(CommissionFixed, amount, 0)
}

// PercentCommission charges percent of the fill notional.
func PercentCommission(percent float64) (Commission, error) {
	return NewCommission(CommissionPercent, percent, 0)
}

// PerUnitCommission charges per share/contract with an optional minimum.
func PerUnitCommission(amount, minimum float64) (Commission, error) {
	return NewCommission(CommissionPerUnit, amount, minimum)
}

// InteractiveBrokersCommission is the familiar US equities tier:
// $0.005 per share, $1 minimum.
func InteractiveBrokersCommission() Commission {
	return Commission{kind: CommissionPerUnit, value: 0.005, minimum: 1.0}
}

// Calculate returns the fee for a fill of quantity units at price.
// Quantity is taken as absolute; the result never falls below the minimum.
func (c Commission) Calculate(quantity, price float64) float64 {
	quantity = math.Abs(quantity)
	var fee float64
	switch c.kind {
	case CommissionFixed:
		fee = c.value
	case CommissionPercent:
		fee = price * quantity * (c.value / 100)
	case CommissionPerUnit:
		fee = quantity * c.value
	}
	return math.Max(fee, c.minimum)
}

func (c Commission) Type() CommissionType { return c.kind }
func (c Commission) Value() float64       { return c.value }
func (c Commission) Minimum() float64     { return c.minimum }

func (c Commission) String() string {
	switch c.kind {
	case CommissionPercent:
		return fmt.Sprintf("%.3f%%", c.value)
	case CommissionPerUnit:
		return fmt.Sprintf("$%.4f per unit (min $%.2f)", c.value, c.minimum)
	default:
		return fmt.Sprintf("$%.2f per trade", c.value)
	}
}
