package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/metrics"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
)

// run is the node state machine. It advances inline until the node has to
// wait, hands off, or finishes.
func (e *Engine) run(ctx context.Context, n *Node) Step {
	ctx = ctxlog.WithLogger(ctx, n.log)
	p := n.thread.process

	if p.aborted() {
		return e.drop(ctx, n)
	}
	if n.parallelSibling != nil {
		return n.deepestSibling()
	}
	if esc := n.thread.takeFailure(); esc != nil {
		n.log.Warn("Execution context carries a failure, escalating.", "kind", string(esc.Kind))
		return e.escalate(ctx, n, esc)
	}

	for {
		switch n.state {
		case stateLoadResources:
			if !n.started {
				n.started = true
				n.log.Info("▶️ Starting task")
			}
			if next, wait := e.load(ctx, n); wait {
				return next
			}
			n.state = stateExecute
		case stateExecute:
			if esc := e.execute(ctx, n); esc != nil {
				return e.escalate(ctx, n, esc)
			}
			n.state = stateActivateNext
		case stateActivateNext:
			return e.activateNext(ctx, n)
		default:
			return e.selectNext(ctx, n)
		}
	}
}

// load checks resources, reconciles supervision and governs the loaded
// resources. It returns wait=true with the step to return when the node
// cannot proceed to EXECUTE yet.
func (e *Engine) load(ctx context.Context, n *Node) (next Step, wait bool) {
	if n.containers == nil {
		n.containers = make([]*resource.Container, 0, len(n.task.Resources))
		for _, idx := range n.task.Resources {
			n.containers = append(n.containers, e.container(n, idx))
		}
	}

	var blocker *resource.Container
	for _, c := range n.containers {
		b, err := c.Check(ctx)
		if err != nil {
			return e.escalate(ctx, n, escalation.From(err, escalation.KindResource)), true
		}
		if blocker == nil {
			blocker = b
		}
	}
	if blocker != nil {
		n.log.Debug("Waiting for resource.", "resource", blocker.Name(), "state", blocker.State().String())
		return &waitStep{node: n, container: blocker}, true
	}

	if step := e.reconcile(ctx, n); step != nil {
		return step, true
	}

	if err := e.govern(ctx, n); err != nil {
		return e.escalate(ctx, n, escalation.From(err, escalation.KindSupervision)), true
	}
	return nil, false
}

// reconcile compares required aspects with the active set, starting at the
// node's cursor. The first mismatch yields a step that fixes it and
// re-enters at the same index.
func (e *Engine) reconcile(ctx context.Context, n *Node) Step {
	set := n.thread.supervision
	for ; n.supervisionCursor < len(n.task.Supervision); n.supervisionCursor++ {
		i := n.supervisionCursor
		required := n.task.Supervision[i]
		var active bool
		if c, ok := set.Lookup(i); ok {
			active = c.Active()
		}
		if required != active {
			return &supervisionStep{node: n, index: i, activate: required}
		}
	}
	return nil
}

// reconcileAspect runs one supervision action on behalf of n.
func (e *Engine) reconcileAspect(ctx context.Context, n *Node, idx int, activate bool) Step {
	ctx = ctxlog.WithLogger(ctx, n.log)
	c := n.thread.supervision.Get(e.supervisionSpec(idx))

	var err error
	if activate {
		err = c.Activate(ctx)
	} else {
		err = c.Deactivate(ctx, c.Strategy())
	}
	switch {
	case err == nil:
		return n
	case errors.Is(err, supervision.ErrUnknownStrategy):
		n.thread.process.invariant(ctx, &InvariantError{Op: fmt.Sprintf("deactivating supervision '%s'", c.Name()), Err: err})
		return e.drop(ctx, n)
	default:
		return e.escalate(ctx, n, escalation.From(err, escalation.KindSupervision))
	}
}

// govern places the node's resources under every active aspect that
// supervises them.
func (e *Engine) govern(ctx context.Context, n *Node) error {
	set := n.thread.supervision
	for _, c := range n.containers {
		decl := e.graph.Resources[c.Index()]
		if len(decl.SupervisedBy) == 0 {
			continue
		}
		obj, _ := c.Object()
		for _, si := range decl.SupervisedBy {
			sc, ok := set.Lookup(si)
			if !ok || !sc.Active() {
				continue
			}
			if err := sc.Govern(ctx, c, c.Name(), obj); err != nil {
				return err
			}
		}
	}
	return nil
}

// execute runs the task logic exactly once.
func (e *Engine) execute(ctx context.Context, n *Node) (esc *escalation.Escalation) {
	tc := &taskContext{node: n}
	defer func() {
		tc.closed = true
		if r := recover(); r != nil {
			esc = &escalation.Escalation{
				Kind:    escalation.KindPanic,
				Payload: r,
				Cause:   fmt.Errorf("panic in task '%s': %v", n.task.Name, r),
			}
		}
		if esc != nil {
			e.metrics.TaskExecuted(n.task.Name, metrics.OutcomeFailure)
		} else {
			e.metrics.TaskExecuted(n.task.Name, metrics.OutcomeSuccess)
		}
	}()

	n.log.Debug("Executing task.", "handler", n.task.Handler)
	result, err := e.tasks[n.task.Index](ctx, tc)
	if err != nil {
		return escalation.From(err, escalation.KindError)
	}
	n.result = result
	return nil
}

// activateNext links the static successor, starts spawned flows and
// completes the node.
func (e *Engine) activateNext(ctx context.Context, n *Node) Step {
	if !n.nextLinked {
		n.nextLinked = true
		if n.task.Next != graph.NoTask {
			n.nextSequential = e.newNode(n.thread, e.graph.Tasks[n.task.Next], n.result)
		}
	}
	if len(n.spawns) > 0 {
		return &spawnStep{node: n}
	}
	n.state = stateCompleted
	e.complete(ctx, n)
	n.log.Info("✅ Finished task")
	return e.selectNext(ctx, n)
}

// complete runs the node's completion side effects once: task-scoped
// resources are recycled.
func (e *Engine) complete(ctx context.Context, n *Node) {
	if n.completed {
		return
	}
	n.completed = true
	if n.taskResources != nil {
		if err := n.taskResources.Recycle(ctx); err != nil {
			n.log.Warn("Failed to recycle task resources.", "error", err)
		}
	}
}

// releaseNode drops the node's hold on its context, once.
func (e *Engine) releaseNode(ctx context.Context, n *Node) {
	if n.released {
		return
	}
	n.released = true
	n.thread.release(ctx)
}

// selectNext picks the continuation after a finished node: the deepest
// pending parallel child, then the sequential successor, then the owner.
func (e *Engine) selectNext(ctx context.Context, n *Node) Step {
	if n.parallelSibling != nil {
		return n.deepestSibling()
	}
	if s := n.nextSequential; s != nil {
		n.nextSequential = nil
		s.parallelOwner = n.parallelOwner
		e.releaseNode(ctx, n)
		return s
	}
	if o := n.parallelOwner; o != nil {
		o.parallelSibling = nil
		e.releaseNode(ctx, n)
		return o
	}
	if n.thread.primary && n.state == stateCompleted {
		n.thread.process.setResult(n.result)
	}
	e.releaseNode(ctx, n)
	return nil
}

// drop abandons a node of an aborted process: pending children are
// unwound and control passes to the owner so its hold is released too.
func (e *Engine) drop(ctx context.Context, n *Node) Step {
	if !n.finished() {
		n.state = stateFailed
	}
	e.complete(ctx, n)
	dropped := e.unwindParallel(ctx, n, nil)
	dropped = e.unwindSequential(ctx, n, dropped)
	o := n.parallelOwner
	if o != nil {
		o.parallelSibling = nil
	}
	e.releaseNode(ctx, n)
	e.releaseAll(ctx, dropped)
	if o != nil {
		return o
	}
	return nil
}
