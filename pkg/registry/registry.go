package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/chains/pkg/domain"
)

// Call describes one invocation of an action by a chain step.
type Call struct {
	ChainID string
	Args    map[string]any
}

// ActionFunc is the implementation of a named action.
// It runs on the goroutine that drives the chains and must not block.
type ActionFunc func(ctx context.Context, call Call) error

// Registry manages the actions scenario steps can call.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]ActionFunc),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute looks up an action by name and runs it.
// Returns an error wrapping domain.ErrUnknownAction if it is not registered.
func (r *Registry) Execute(ctx context.Context, name string, call Call) error {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, name)
	}
	if err := fn(ctx, call); err != nil {
		return fmt.Errorf("action %s: %w", name, err)
	}
	return nil
}
