package supervision

import (
	"context"
	"errors"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Spec describes one aspect of a compiled graph.
type Spec struct {
	Name      string
	Index     int
	Strategy  Strategy
	Factory   Factory
	Arguments cty.Value
}

// Set is the active supervision set of an execution context. Parallel child
// contexts share their parent's Set; asynchronous flows get their own.
type Set struct {
	observe func(aspect string, t Transition)

	mu         sync.Mutex
	containers map[int]*Container
	order      []*Container
}

// NewSet creates an empty set. observe may be nil.
func NewSet(observe func(aspect string, t Transition)) *Set {
	return &Set{observe: observe, containers: make(map[int]*Container)}
}

// Get returns the container for spec.Index, creating it on first use.
func (s *Set) Get(spec Spec) *Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.containers[spec.Index]; ok {
		return c
	}
	c := &Container{
		name:     spec.Name,
		index:    spec.Index,
		strategy: spec.Strategy,
		factory:  spec.Factory,
		args:     spec.Arguments,
		observe:  s.observe,
	}
	s.containers[spec.Index] = c
	s.order = append(s.order, c)
	return c
}

// Lookup returns the container for idx if it was ever requested.
func (s *Set) Lookup(idx int) (*Container, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[idx]
	return c, ok
}

// Close deactivates every active aspect, most recently created first. A
// clean close uses each aspect's configured strategy; otherwise every aspect
// is disregarded.
func (s *Set) Close(ctx context.Context, clean bool) error {
	s.mu.Lock()
	order := make([]*Container, len(s.order))
	copy(order, s.order)
	s.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		c := order[i]
		strategy := Disregard
		if clean {
			strategy = c.Strategy()
		}
		if err := c.Deactivate(ctx, strategy); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disregard drops the tracked state of every active aspect.
func (s *Set) Disregard(ctx context.Context) error {
	return s.Close(ctx, false)
}
