package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type testModule struct{}

func (testModule) Register(r *Registry) {
	r.RegisterTask("noop", func(context.Context, task.Context) (any, error) { return nil, nil })
	r.RegisterResource("thing", resource.FactoryFunc(func(context.Context, *resource.SourceContext) (any, error) {
		return 1, nil
	}))
	r.RegisterSupervision("guard", func(context.Context, cty.Value) (supervision.Unit, error) { return nil, nil })
}

func TestRegistry_LoadAndLookup(t *testing.T) {
	r := New().Load(testModule{})
	_, ok := r.Task("noop")
	assert.True(t, ok)
	_, ok = r.Resource("thing")
	assert.True(t, ok)
	_, ok = r.Supervision("guard")
	assert.True(t, ok)
	_, ok = r.Task("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := New().Load(testModule{})
	assert.Panics(t, func() { testModule{}.Register(r) })
}

func TestRegistry_Validate(t *testing.T) {
	r := New().Load(testModule{})

	b := graph.NewBuilder()
	b.Task("a", "noop").Uses("r")
	b.Resource("r", "thing", resource.ScopeProcess)
	b.Supervision("s", "guard", supervision.Enforce)
	g, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, r.Validate(context.Background(), g))

	b = graph.NewBuilder()
	b.Task("a", "ghost_task")
	b.Resource("r", "ghost_resource", resource.ScopeTask)
	b.Supervision("s", "ghost_supervision", supervision.Disregard)
	g, err = b.Build()
	require.NoError(t, err)

	err = r.Validate(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task handler 'ghost_task' is not registered")
	assert.Contains(t, err.Error(), "resource handler 'ghost_resource' is not registered")
	assert.Contains(t, err.Error(), "supervision handler 'ghost_supervision' is not registered")
}
