package resource

import (
	"context"
	"errors"
	"sync"
)

// Pool holds the containers of one scope instance: the process, one root
// execution context, or one task node.
type Pool struct {
	scope Scope
	// onReady is called once for every container that becomes ready.
	onReady func(*Container)

	mu         sync.Mutex
	containers map[int]*Container
	ready      []*Container
	recycled   bool
}

// NewPool creates an empty pool. onReady may be nil.
func NewPool(scope Scope, onReady func(*Container)) *Pool {
	return &Pool{
		scope:      scope,
		onReady:    onReady,
		containers: make(map[int]*Container),
	}
}

// Scope returns the scope this pool serves.
func (p *Pool) Scope() Scope { return p.scope }

// Get returns the container for resource index idx, building it with build
// when the pool has none yet. build runs without the pool lock so it may
// resolve dependency containers from the same pool.
func (p *Pool) Get(idx int, build func() *Container) *Container {
	p.mu.Lock()
	if c, ok := p.containers[idx]; ok {
		p.mu.Unlock()
		return c
	}
	p.mu.Unlock()

	built := build()

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.containers[idx]; ok {
		return c
	}
	built.pool = p
	p.containers[idx] = built
	return built
}

// Lookup returns the container for idx if one was created.
func (p *Pool) Lookup(idx int) (*Container, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.containers[idx]
	return c, ok
}

func (p *Pool) markReady(c *Container) {
	p.mu.Lock()
	p.ready = append(p.ready, c)
	p.mu.Unlock()
	if p.onReady != nil {
		p.onReady(c)
	}
}

// Recycle tears down every container, most recently readied first. It runs
// at most once; errors from individual recyclers are joined.
func (p *Pool) Recycle(ctx context.Context) error {
	p.mu.Lock()
	if p.recycled {
		p.mu.Unlock()
		return nil
	}
	p.recycled = true
	order := make([]*Container, 0, len(p.containers))
	seen := make(map[*Container]bool, len(p.containers))
	for i := len(p.ready) - 1; i >= 0; i-- {
		order = append(order, p.ready[i])
		seen[p.ready[i]] = true
	}
	for _, c := range p.containers {
		if !seen[c] {
			order = append(order, c)
		}
	}
	p.mu.Unlock()

	var errs []error
	for _, c := range order {
		if err := c.recycle(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
