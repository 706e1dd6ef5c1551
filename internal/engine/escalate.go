package engine

import (
	"context"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/graph"
)

const levelTask = "task"

// escalate resolves a failure raised by n. The owner chain is searched
// first, nearest node first: every visited node loses its pending parallel
// children and its sequential successor, and a matching node gets the
// handler as a new parallel child in a fresh context. A node that does not
// match is torn down. When the chain is exhausted the scope fallbacks are
// tried.
//
// The failing context's supervision set is disregarded up front. It is
// shared with the owner chain, so a handler found there runs with every
// aspect left and has to activate again if it needs one.
func (e *Engine) escalate(ctx context.Context, n *Node, esc *escalation.Escalation) Step {
	p := n.thread.process
	if esc.Task == "" {
		c := *esc
		c.Task = n.task.Name
		esc = &c
	}
	n.log.Warn("🔥 Task failed, escalating.", "kind", string(esc.Kind), "error", esc)

	n.state = stateFailed
	e.complete(ctx, n)
	if err := n.thread.supervision.Disregard(ctx); err != nil {
		n.log.Error("Failed to disregard supervision of failing context.", "error", err)
	}

	// Nothing is released until a handler holds its contexts.
	p.hold()
	defer p.contextDone(ctx)

	var dropped []*Node
	for cur := n; cur != nil; {
		dropped = e.unwindParallel(ctx, cur, dropped)
		dropped = e.unwindSequential(ctx, cur, dropped)
		if idx, ok := cur.task.Escalations.Match(esc.Kind); ok {
			h := e.startChildHandler(cur, e.graph.Tasks[idx], esc)
			e.metrics.Escalated(levelTask)
			n.log.Info("🛟 Escalation routed to task handler", "owner", cur.task.Name, "handler", h.task.Name)
			e.releaseAll(ctx, dropped)
			return h
		}
		owner := cur.parallelOwner
		if !cur.finished() {
			cur.state = stateFailed
		}
		e.complete(ctx, cur)
		cur.discarded = true
		cur.thread.tainted.Store(true)
		dropped = append(dropped, cur)
		cur = owner
	}

	step := e.fallback(ctx, n.thread, esc)
	e.releaseAll(ctx, dropped)
	return step
}

// fallback tries the scope handlers from the context's cursor onward. Each
// level is tried once per context tree.
func (e *Engine) fallback(ctx context.Context, t *Thread, esc *escalation.Escalation) Step {
	p := t.process
	logger := ctxlog.FromContext(ctx)

	for level := escalation.Level(t.level.Load()); level < escalation.LevelExhausted; level++ {
		t.level.Store(int32(level + 1))
		switch level {
		case escalation.LevelFlow:
			if t.flow == nil || t.flow.callback == nil {
				continue
			}
			out, called := t.flow.report(esc)
			if !called {
				continue
			}
			e.metrics.Escalated(level.String())
			if out == nil {
				logger.Info("🛟 Escalation handled by flow callback", "kind", string(esc.Kind))
				return nil
			}
			esc = escalation.From(out, esc.Kind)
		case escalation.LevelProcess:
			if idx, ok := e.graph.Escalations.Match(esc.Kind); ok {
				return e.startRootHandler(ctx, p, e.graph.Tasks[idx], esc, level)
			}
		case escalation.LevelInvocation:
			if p.invocationHandler != nil {
				return e.startRootHandler(ctx, p, p.invocationHandler, esc, level)
			}
		case escalation.LevelSystem:
			if e.systemHandler != nil {
				return e.startRootHandler(ctx, p, e.systemHandler, esc, level)
			}
		}
	}

	e.metrics.Escalated(escalation.LevelExhausted.String())
	logger.Error("💀 Escalation unhandled at every scope.", "kind", string(esc.Kind), "error", esc)
	p.setFatal(esc)
	return nil
}

// startChildHandler links a handler below owner in a new child context.
func (e *Engine) startChildHandler(owner *Node, tk *graph.Task, esc *escalation.Escalation) *Node {
	t := owner.thread.process.newChildThread(owner.thread)
	h := e.newNode(t, tk, esc)
	e.addParallel(owner, h)
	return h
}

// startRootHandler starts a handler as a new flow whose own escalations
// resume the fallback search after level.
func (e *Engine) startRootHandler(ctx context.Context, p *Process, tk *graph.Task, esc *escalation.Escalation, level escalation.Level) Step {
	e.metrics.Escalated(level.String())
	ctxlog.FromContext(ctx).Info("🛟 Escalation routed to scope handler", "level", level.String(), "handler", tk.Name)
	t := p.newRootThread(nil, level+1, false)
	return e.newNode(t, tk, esc)
}

// unwindParallel tears down the pending parallel chain below n.
func (e *Engine) unwindParallel(ctx context.Context, n *Node, dropped []*Node) []*Node {
	x := n.parallelSibling
	n.parallelSibling = nil
	if x == nil {
		return dropped
	}
	return e.teardown(ctx, x, dropped)
}

// unwindSequential tears down n's sequential successor and everything
// linked below it.
func (e *Engine) unwindSequential(ctx context.Context, n *Node, dropped []*Node) []*Node {
	x := n.nextSequential
	n.nextSequential = nil
	if x == nil {
		return dropped
	}
	return e.teardown(ctx, x, dropped)
}

// teardown discards x and every node linked below it, iteratively. The
// discarded nodes are returned for release once the caller is done
// relinking.
func (e *Engine) teardown(ctx context.Context, x *Node, dropped []*Node) []*Node {
	stack := []*Node{x}
	for len(stack) > 0 {
		y := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if y.discarded {
			continue
		}
		y.discarded = true
		if !y.finished() {
			y.state = stateFailed
		}
		e.complete(ctx, y)
		if y.parallelSibling != nil {
			stack = append(stack, y.parallelSibling)
			y.parallelSibling = nil
		}
		if y.nextSequential != nil {
			stack = append(stack, y.nextSequential)
			y.nextSequential = nil
		}
		y.log.Debug("Unwound pending task.")
		dropped = append(dropped, y)
	}
	return dropped
}

func (e *Engine) releaseAll(ctx context.Context, nodes []*Node) {
	for _, n := range nodes {
		e.releaseNode(ctx, n)
	}
}
