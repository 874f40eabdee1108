// Package strategy defines the callback contract the simulation engine
// drives, the typed parameter declarations the optimizers sweep, and the
// builtin strategy library.
package strategy

// Strategy is the callback contract: Initialize once before the run,
// OnBar once per post-warmup bar, OnEnd once after the last bar. The
// engine treats the parameter set opaquely.
type Strategy interface {
	Name() string
	Description() string
	Params() []Param
	SetParams(values map[string]any) error
	WarmupBars() int
	Initialize(ctx Context)
	OnBar(ctx Context)
	OnEnd(ctx Context)
}

// Factory builds a fresh strategy instance. Parallel analyses create one
// instance per task, so factories must not share mutable state.
type Factory func() Strategy
