package resource

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Factory sources the object behind a resource.
type Factory interface {
	Source(ctx context.Context, sc *SourceContext) (any, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func(ctx context.Context, sc *SourceContext) (any, error)

// Source calls f.
func (f FactoryFunc) Source(ctx context.Context, sc *SourceContext) (any, error) {
	return f(ctx, sc)
}

// Recycler is implemented by factories whose objects need teardown.
type Recycler interface {
	Recycle(ctx context.Context, obj any) error
}

// SourceContext is handed to a Factory while it sources one container.
type SourceContext struct {
	name      string
	arguments cty.Value
	deps      map[string]any
	container *Container
}

// Name returns the resource name being sourced.
func (sc *SourceContext) Name() string { return sc.name }

// Arguments returns the configured arguments of the resource, or cty.NilVal.
func (sc *SourceContext) Arguments() cty.Value { return sc.arguments }

// Dependency returns the object of a declared dependency. Dependencies are
// always ready before a factory runs.
func (sc *SourceContext) Dependency(name string) (any, bool) {
	obj, ok := sc.deps[name]
	return obj, ok
}

// Async registers an asynchronous operation. The container stays
// AsyncPending after Source returns until every registered operation is
// completed.
func (sc *SourceContext) Async() *Operation {
	c := sc.container
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	return &Operation{container: c}
}

// Operation is a pending asynchronous step of resource sourcing.
type Operation struct {
	container *Container
	once      sync.Once
}

// Complete finishes the operation. A non-nil error fails the container.
// Only the first call has an effect.
func (op *Operation) Complete(err error) {
	op.once.Do(func() {
		op.container.completeAsync(err)
	})
}
