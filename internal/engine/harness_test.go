package engine

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/specialistvlad/burstflow/internal/testutil"
	"github.com/specialistvlad/burstflow/internal/workerpool"
	"github.com/stretchr/testify/require"
)

// harness wires a builder, a registry and a worker pool for one test.
// Every task registered through it records its name in the trace when it
// executes.
type harness struct {
	t     *testing.T
	ctx   context.Context
	logs  *testutil.SafeBuffer
	trace *testutil.Trace
	reg   *registry.Registry
	b     *graph.Builder
	pool  *workerpool.Pool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, logs := testutil.LogContext(t)
	pool, err := workerpool.New(ctx, workerpool.Config{DefaultWorkers: 4, Teams: map[string]int{"io": 2}})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return &harness{
		t:     t,
		ctx:   ctx,
		logs:  logs,
		trace: &testutil.Trace{},
		reg:   registry.New(),
		b:     graph.NewBuilder(),
		pool:  pool,
	}
}

// task declares a task whose handler has the same name.
func (h *harness) task(name string, fn task.Func) *graph.TaskBuilder {
	h.reg.RegisterTask(name, func(ctx context.Context, tc task.Context) (any, error) {
		h.trace.Add(name)
		if fn == nil {
			return nil, nil
		}
		return fn(ctx, tc)
	})
	return h.b.Task(name, name)
}

func (h *harness) engine(opts ...Option) *Engine {
	h.t.Helper()
	g, err := h.b.Build()
	require.NoError(h.t, err)
	e, err := New(h.ctx, g, h.reg, h.pool, opts...)
	require.NoError(h.t, err)
	return e
}

func (h *harness) run(e *Engine, start string, param any, opts ...InvokeOption) (any, error) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()
	v, err := e.Run(ctx, start, param, opts...)
	require.NotErrorIs(h.t, err, context.DeadlineExceeded, "invocation did not complete")
	return v, err
}

func returns(v any) task.Func {
	return func(context.Context, task.Context) (any, error) { return v, nil }
}

func fails(err error) task.Func {
	return func(context.Context, task.Context) (any, error) { return nil, err }
}
