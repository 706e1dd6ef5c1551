package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/metrics"
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/specialistvlad/burstflow/internal/task"
)

// Engine binds a compiled graph to its registered handlers and a
// dispatcher. One engine serves any number of concurrent invocations.
type Engine struct {
	graph      *graph.Graph
	dispatcher Dispatcher
	metrics    *metrics.Collector

	tasks        []task.Func
	resources    []resource.Factory
	supervisions []supervision.Factory

	systemHandler *graph.Task
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	metrics       *metrics.Collector
	systemHandler string
}

// WithMetrics records scheduler counters on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *engineOptions) { o.metrics = c }
}

// WithSystemHandler names the task that handles escalations no other scope
// handled. It is the last level before an escalation becomes fatal.
func WithSystemHandler(taskName string) Option {
	return func(o *engineOptions) { o.systemHandler = taskName }
}

// New validates the graph against the registry and creates an engine.
func New(ctx context.Context, g *graph.Graph, reg *registry.Registry, d Dispatcher, opts ...Option) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := reg.Validate(ctx, g); err != nil {
		return nil, err
	}

	e := &Engine{
		graph:        g,
		dispatcher:   d,
		metrics:      o.metrics,
		tasks:        make([]task.Func, len(g.Tasks)),
		resources:    make([]resource.Factory, len(g.Resources)),
		supervisions: make([]supervision.Factory, len(g.Supervisions)),
	}
	for i, t := range g.Tasks {
		e.tasks[i], _ = reg.Task(t.Handler)
	}
	for i, r := range g.Resources {
		e.resources[i], _ = reg.Resource(r.Handler)
	}
	for i, s := range g.Supervisions {
		e.supervisions[i], _ = reg.Supervision(s.Handler)
	}
	if o.systemHandler != "" {
		t, ok := g.TaskByName(o.systemHandler)
		if !ok {
			return nil, fmt.Errorf("system handler task '%s' not found in graph", o.systemHandler)
		}
		e.systemHandler = t
	}

	ctxlog.FromContext(ctx).Debug("Engine created.", "tasks", len(g.Tasks), "resources", len(g.Resources), "supervisions", len(g.Supervisions))
	return e, nil
}

// InvokeOption configures one invocation.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	handler string
}

// WithInvocationHandler names the task that handles escalations that
// neither the owner chain, the flow, nor the process scope handled.
func WithInvocationHandler(taskName string) InvokeOption {
	return func(o *invokeOptions) { o.handler = taskName }
}

// Invoke starts the named task as the primary flow of a new process and
// returns immediately. callback, which may be nil, receives the result
// exactly once.
func (e *Engine) Invoke(ctx context.Context, taskName string, param any, callback func(Result), opts ...InvokeOption) (*Process, error) {
	var o invokeOptions
	for _, opt := range opts {
		opt(&o)
	}
	start, ok := e.graph.TaskByName(taskName)
	if !ok {
		return nil, fmt.Errorf("start task '%s' not found in graph", taskName)
	}
	var invocationHandler *graph.Task
	if o.handler != "" {
		invocationHandler, ok = e.graph.TaskByName(o.handler)
		if !ok {
			return nil, fmt.Errorf("invocation handler task '%s' not found in graph", o.handler)
		}
	}

	p := e.newProcess(ctx, callback, invocationHandler)
	p.logger.Info("▶️ Starting invocation", "task", taskName)
	t := p.newRootThread(nil, escalation.LevelFlow, true)
	e.dispatcher.Dispatch(e.newNode(t, start, param))
	return p, nil
}

// Run invokes the named task and blocks until the process completes or ctx
// is done. Cancelling ctx does not stop the process.
func (e *Engine) Run(ctx context.Context, taskName string, param any, opts ...InvokeOption) (any, error) {
	done := make(chan Result, 1)
	if _, err := e.Invoke(ctx, taskName, param, func(r Result) { done <- r }, opts...); err != nil {
		return nil, err
	}
	select {
	case r := <-done:
		return r.Value, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) resourceReady(c *resource.Container) {
	e.metrics.ResourceSourced(c.Name())
}

// container resolves the container of resource idx for node n, building it
// and its dependencies in the pools of their scopes.
func (e *Engine) container(n *Node, idx int) *resource.Container {
	decl := e.graph.Resources[idx]
	var pool *resource.Pool
	switch decl.Scope {
	case resource.ScopeProcess:
		pool = n.thread.process.resources
	case resource.ScopeThread:
		pool = n.thread.resources
	default:
		if n.taskResources == nil {
			n.taskResources = resource.NewPool(resource.ScopeTask, e.resourceReady)
		}
		pool = n.taskResources
	}
	return pool.Get(idx, func() *resource.Container {
		deps := make([]*resource.Container, 0, len(decl.DependsOn))
		for _, di := range decl.DependsOn {
			deps = append(deps, e.container(n, di))
		}
		return resource.NewContainer(resource.Spec{
			Name:      decl.Name,
			Index:     decl.Index,
			Scope:     decl.Scope,
			Factory:   e.resources[idx],
			Arguments: decl.Arguments,
			DependsOn: deps,
		})
	})
}

func (e *Engine) supervisionSpec(idx int) supervision.Spec {
	return e.graph.Supervisions[idx].SupervisionSpec(e.supervisions[idx])
}
