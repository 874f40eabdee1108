package strategy

import (
	"fmt"
	"math"
)

type ParamType string

const (
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
	ParamBool   ParamType = "bool"
	ParamString ParamType = "string"
)

// Param declares one tunable strategy parameter. The optimizer sweeps
// numeric parameters across [Min, Max]; Step is a granularity hint and
// may be zero, in which case the analyzer derives one.
type Param struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        ParamType `json:"type"`
	Default     any       `json:"default"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Step        float64   `json:"step"`
}

func IntParam(name, description string, def, min, max int) Param {
	return Param{Name: name, Description: description, Type: ParamInt, Default: def, Min: float64(min), Max: float64(max), Step: 1}
}

func FloatParam(name, description string, def, min, max, step float64) Param {
	return Param{Name: name, Description: description, Type: ParamFloat, Default: def, Min: min, Max: max, Step: step}
}

func BoolParam(name, description string, def bool) Param {
	return Param{Name: name, Description: description, Type: ParamBool, Default: def}
}

func StringParam(name, description, def string) Param {
	return Param{Name: name, Description: description, Type: ParamString, Default: def}
}

// Params is a declared parameter set with the currently assigned values.
// Assignment is weakly typed: optimizer grids hand numeric values around
// as float64 regardless of the declared type.
type Params struct {
	declared []Param
	byName   map[string]Param
	values   map[string]any
}

func NewParams(declared ...Param) Params {
	byName := make(map[string]Param, len(declared))
	for _, p := range declared {
		byName[p.Name] = p
	}
	return Params{
		declared: declared,
		byName:   byName,
		values:   make(map[string]any, len(declared)),
	}
}

// Declared returns the parameter declarations in order.
func (ps *Params) Declared() []Param { return ps.declared }

// Set assigns values by name. Unknown names are configuration errors.
func (ps *Params) Set(values map[string]any) error {
	for name, v := range values {
		if _, ok := ps.byName[name]; !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		ps.values[name] = v
	}
	return nil
}

// Values returns the assigned values merged over defaults.
func (ps *Params) Values() map[string]any {
	out := make(map[string]any, len(ps.declared))
	for _, p := range ps.declared {
		out[p.Name] = p.Default
	}
	for name, v := range ps.values {
		out[name] = v
	}
	return out
}

func (ps *Params) lookup(name string) any {
	if v, ok := ps.values[name]; ok {
		return v
	}
	if p, ok := ps.byName[name]; ok {
		return p.Default
	}
	return nil
}

func (ps *Params) Int(name string) int {
	switch v := ps.lookup(name).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(math.Round(v))
	default:
		return 0
	}
}

func (ps *Params) Float(name string) float64 {
	switch v := ps.lookup(name).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func (ps *Params) Bool(name string) bool {
	v, _ := ps.lookup(name).(bool)
	return v
}

func (ps *Params) String(name string) string {
	v, _ := ps.lookup(name).(string)
	return v
}
