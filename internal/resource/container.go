package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// State is the lifecycle position of a Container.
type State int

const (
	Unsourced State = iota
	Sourcing
	AsyncPending
	Ready
	Failed
	Recycled
)

func (s State) String() string {
	switch s {
	case Unsourced:
		return "unsourced"
	case Sourcing:
		return "sourcing"
	case AsyncPending:
		return "async_pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Recycled:
		return "recycled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrRecycled is returned when a recycled container is loaded again.
var ErrRecycled = errors.New("resource already recycled")

// Spec describes how to build one container.
type Spec struct {
	Name      string
	Index     int
	Scope     Scope
	Factory   Factory
	Arguments cty.Value
	DependsOn []*Container
}

// Container is the state machine for one resource inside one scope instance.
type Container struct {
	name    string
	index   int
	scope   Scope
	factory Factory
	args    cty.Value
	deps    []*Container
	pool    *Pool

	mu       sync.Mutex
	state    State
	obj      any
	err      error
	pending  int
	asyncErr error
	waiters  []func()
}

// NewContainer creates an unsourced container. It is usually created through
// Pool.Get so that it is recycled with its scope.
func NewContainer(spec Spec) *Container {
	return &Container{
		name:    spec.Name,
		index:   spec.Index,
		scope:   spec.Scope,
		factory: spec.Factory,
		args:    spec.Arguments,
		deps:    spec.DependsOn,
	}
}

func (c *Container) Name() string { return c.name }
func (c *Container) Index() int   { return c.index }
func (c *Container) Scope() Scope { return c.scope }

// State returns the current lifecycle state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Object returns the sourced object. ok is false until the container is ready.
func (c *Container) Object() (obj any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return nil, false
	}
	return c.obj, true
}

// Check makes sure the container and its transitive dependencies are sourced.
// It returns the first container that is not ready yet, or nil when the whole
// subtree is ready. Every dependency is asked even after a blocker is found so
// that independent containers start sourcing in the same pass.
func (c *Container) Check(ctx context.Context) (*Container, error) {
	var blocker *Container
	for _, dep := range c.deps {
		b, err := dep.Check(ctx)
		if err != nil {
			return nil, fmt.Errorf("dependency '%s' of resource '%s': %w", dep.name, c.name, err)
		}
		if blocker == nil {
			blocker = b
		}
	}
	if blocker != nil {
		return blocker, nil
	}

	c.mu.Lock()
	switch c.state {
	case Ready:
		c.mu.Unlock()
		return nil, nil
	case Failed:
		err := c.err
		c.mu.Unlock()
		return nil, err
	case Recycled:
		c.mu.Unlock()
		return nil, fmt.Errorf("resource '%s': %w", c.name, ErrRecycled)
	case Sourcing, AsyncPending:
		c.mu.Unlock()
		return c, nil
	}
	c.state = Sourcing
	c.mu.Unlock()

	c.source(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Ready:
		return nil, nil
	case Failed:
		return nil, c.err
	default:
		return c, nil
	}
}

// Await registers fn to be called once the container leaves the sourcing
// states. It returns false, without registering, when the container has
// already settled; the caller should check again instead of waiting.
func (c *Container) Await(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Sourcing && c.state != AsyncPending {
		return false
	}
	c.waiters = append(c.waiters, fn)
	return true
}

func (c *Container) source(ctx context.Context) {
	logger := ctxlog.FromContext(ctx).With("resource", c.name, "scope", c.scope.String())
	logger.Info("▶️ Sourcing resource")

	sc := &SourceContext{
		name:      c.name,
		arguments: c.args,
		deps:      make(map[string]any, len(c.deps)),
		container: c,
	}
	for _, dep := range c.deps {
		obj, _ := dep.Object()
		sc.deps[dep.name] = obj
	}

	obj, err := c.callFactory(ctx, sc)

	c.mu.Lock()
	switch {
	case err != nil:
		c.state = Failed
		c.err = fmt.Errorf("sourcing resource '%s': %w", c.name, err)
	case c.pending > 0:
		c.obj = obj
		c.state = AsyncPending
	case c.asyncErr != nil:
		c.obj = obj
		c.fail(c.asyncErr)
	default:
		c.obj = obj
		c.state = Ready
	}
	state := c.state
	waiters := c.takeWaiters()
	c.mu.Unlock()

	switch state {
	case Ready:
		logger.Info("✅ Resource ready")
		c.notifyReady()
	case AsyncPending:
		logger.Debug("Resource waiting for asynchronous operations.")
	case Failed:
		logger.Error("Resource sourcing failed.", "error", c.err)
	}
	notify(waiters)
}

func (c *Container) callFactory(ctx context.Context, sc *SourceContext) (obj any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in resource factory: %v", r)
		}
	}()
	if c.factory == nil {
		return nil, fmt.Errorf("no factory for resource '%s'", c.name)
	}
	return c.factory.Source(ctx, sc)
}

func (c *Container) completeAsync(err error) {
	c.mu.Lock()
	if c.state == Recycled || c.state == Failed {
		c.mu.Unlock()
		return
	}
	c.pending--
	if err != nil && c.asyncErr == nil {
		c.asyncErr = err
	}
	// Still inside the factory call: source() settles the state.
	if c.state == Sourcing {
		c.mu.Unlock()
		return
	}
	if c.asyncErr != nil {
		c.fail(c.asyncErr)
	} else if c.pending == 0 {
		c.state = Ready
	} else {
		c.mu.Unlock()
		return
	}
	state := c.state
	waiters := c.takeWaiters()
	c.mu.Unlock()

	if state == Ready {
		c.notifyReady()
	}
	notify(waiters)
}

// fail must be called with mu held.
func (c *Container) fail(err error) {
	c.state = Failed
	c.err = fmt.Errorf("asynchronous sourcing of resource '%s': %w", c.name, err)
}

// takeWaiters must be called with mu held.
func (c *Container) takeWaiters() []func() {
	w := c.waiters
	c.waiters = nil
	return w
}

func (c *Container) notifyReady() {
	if c.pool != nil {
		c.pool.markReady(c)
	}
}

func notify(waiters []func()) {
	for _, fn := range waiters {
		fn()
	}
}

// recycle tears the object down. Containers that never became ready are
// only marked recycled.
func (c *Container) recycle(ctx context.Context) error {
	c.mu.Lock()
	prev := c.state
	obj := c.obj
	c.state = Recycled
	c.obj = nil
	waiters := c.takeWaiters()
	c.mu.Unlock()
	notify(waiters)

	if prev != Ready && prev != AsyncPending {
		return nil
	}
	rec, ok := c.factory.(Recycler)
	if !ok {
		return nil
	}
	logger := ctxlog.FromContext(ctx).With("resource", c.name, "scope", c.scope.String())
	logger.Info("🔥 Recycling resource")
	if err := rec.Recycle(ctx, obj); err != nil {
		return fmt.Errorf("recycling resource '%s': %w", c.name, err)
	}
	return nil
}
