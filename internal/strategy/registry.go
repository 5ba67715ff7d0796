package strategy

import (
	"sort"
	"sync"

	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Registry manages the available strategies by name.
type Registry interface {
	Register(s Strategy) error
	Get(name string) (Strategy, error)
	List() []string
}

type registry struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() Registry {
	return &registry{strategies: make(map[string]Strategy)}
}

// NewDefaultRegistry creates a registry with all built-in strategies
// registered under their default parameters.
func NewDefaultRegistry() Registry {
	r := NewRegistry()

	// Registration of built-ins cannot collide.
	_ = r.Register(NewMomentum())
	_ = r.Register(NewMeanReversion())
	_ = r.Register(NewRSIMeanReversion())

	return r
}

// Register adds a strategy to the registry.
func (r *registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy '%s' already registered", name)
	}

	r.strategies[name] = s

	return nil
}

// Get retrieves a strategy by name.
func (r *registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.strategies[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy '%s' not found", name)
	}

	return s, nil
}

// List returns the registered strategy names in sorted order.
func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
