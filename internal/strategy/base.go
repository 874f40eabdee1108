package strategy

// base carries the parameter plumbing shared by the builtin strategies.
type base struct {
	params Params
}

func (b *base) Params() []Param                       { return b.params.Declared() }
func (b *base) SetParams(values map[string]any) error { return b.params.Set(values) }
func (b *base) Initialize(ctx Context)                {}
func (b *base) OnEnd(ctx Context)                     {}
