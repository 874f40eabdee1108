package strategy

import (
	"fmt"
	"sort"
	"sync"

	"strata/internal/predict"
)

// Registry maps strategy names to factories. It is an explicit object
// passed to whoever needs to construct strategies; there is no package
// level registry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("registry entry requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) Create(name string) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f(), nil
}

// Factory returns the registered factory so callers can build many
// fresh instances, as the robustness analyzers do.
func (r *Registry) Factory(name string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns a registry pre-populated with the builtin strategies.
// ml_gate runs on the rule baseline; callers with a trained model
// register their own entry around NewMLGate.
func Builtins() *Registry {
	r := NewRegistry()
	r.Register("sma_cross", func() Strategy { return NewSMACross() })
	r.Register("rsi_reversion", func() Strategy { return NewRSIReversion() })
	r.Register("breakout", func() Strategy { return NewBreakout() })
	r.Register("ml_gate", func() Strategy { return NewMLGate(predict.RulePredictor{}) })
	return r
}
