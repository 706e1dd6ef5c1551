package engine

import (
	"context"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/workerpool"
)

// Step is a continuation handed to the worker pool.
type Step = workerpool.Step

// Dispatcher queues steps for execution, usually a *workerpool.Pool.
type Dispatcher interface {
	Dispatch(s Step)
}

// waitStep parks a node on a resource that is still sourcing.
type waitStep struct {
	node      *Node
	container *resource.Container
}

func (s *waitStep) Team() string { return s.node.Team() }

func (s *waitStep) Run(ctx context.Context) Step {
	n := s.node
	// Nothing may touch n after Await succeeds: the notifier owns it now.
	if s.container.Await(func() { n.engine.dispatcher.Dispatch(n) }) {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Resource settled before wait was registered.", "resource", s.container.Name())
	return n
}

// supervisionStep activates or deactivates one aspect for a node, then
// re-enters the node at the same reconcile index.
type supervisionStep struct {
	node     *Node
	index    int
	activate bool
}

func (s *supervisionStep) Team() string { return s.node.Team() }

func (s *supervisionStep) Run(ctx context.Context) Step {
	return s.node.engine.reconcileAspect(ctx, s.node, s.index, s.activate)
}

// spawnStep starts the asynchronous flows a node instigated, then hands the
// node back so it can complete.
type spawnStep struct {
	node *Node
}

func (s *spawnStep) Team() string { return s.node.Team() }

func (s *spawnStep) Run(ctx context.Context) Step {
	return s.node.engine.spawn(ctx, s.node)
}
