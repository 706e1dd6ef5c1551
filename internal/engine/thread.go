package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/specialistvlad/burstflow/internal/task"
)

// flow is the asynchronous flow a root context tree belongs to.
type flow struct {
	callback task.FlowCallback
	once     sync.Once
}

// report hands the outcome of the flow to its callback, at most once. The
// returned error is the callback's verdict; nil means handled.
func (f *flow) report(err error) (out error, called bool) {
	f.once.Do(func() {
		called = true
		if f.callback != nil {
			out = f.callback(err)
		} else {
			out = err
		}
	})
	return out, called
}

// Thread is an execution context: one logical thread of control. Parallel
// and handler children share their parent's supervision set and
// thread-scope resources; asynchronous flows and fallback handlers start a
// new root.
type Thread struct {
	id      string
	process *Process
	parent  *Thread
	flow    *flow
	primary bool

	supervision *supervision.Set
	resources   *resource.Pool

	// level is the escalation cursor: the next fallback level to try.
	level   atomic.Int32
	failure atomic.Pointer[escalation.Escalation]
	// tainted marks a context torn down by an unhandled escalation; its
	// supervision is disregarded instead of deactivated normally.
	tainted atomic.Bool
	// active counts live nodes plus live child contexts.
	active atomic.Int64
}

// newRootThread creates a context tree root. The process counts it as live
// until it finishes.
func (p *Process) newRootThread(f *flow, level escalation.Level, primary bool) *Thread {
	e := p.engine
	t := &Thread{
		id:      ulid.Make().String(),
		process: p,
		flow:    f,
		primary: primary,
		supervision: supervision.NewSet(func(aspect string, tr supervision.Transition) {
			e.metrics.SupervisionTransition(aspect, string(tr))
		}),
		resources: resource.NewPool(resource.ScopeThread, e.resourceReady),
	}
	t.level.Store(int32(level))
	p.active.Add(1)
	p.register(t)
	p.logger.Debug("Execution context started.", "thread", t.id, "root", true, "level", level.String())
	return t
}

// newChildThread creates a context below parent.
func (p *Process) newChildThread(parent *Thread) *Thread {
	t := &Thread{
		id:          ulid.Make().String(),
		process:     p,
		parent:      parent,
		flow:        parent.flow,
		primary:     parent.primary,
		supervision: parent.supervision,
		resources:   parent.resources,
	}
	t.level.Store(parent.level.Load())
	parent.retain()
	p.register(t)
	p.logger.Debug("Execution context started.", "thread", t.id, "parent", parent.id)
	return t
}

// ID returns the context's unique id.
func (t *Thread) ID() string { return t.id }

func (t *Thread) retain() {
	t.active.Add(1)
}

func (t *Thread) release(ctx context.Context) {
	if t.active.Add(-1) == 0 {
		t.finish(ctx)
	}
}

// fail sets the context failure unless one is already pending.
func (t *Thread) fail(esc *escalation.Escalation) {
	t.failure.CompareAndSwap(nil, esc)
}

func (t *Thread) takeFailure() *escalation.Escalation {
	return t.failure.Swap(nil)
}

// finish runs once the last node and child context are gone.
func (t *Thread) finish(ctx context.Context) {
	p := t.process
	e := p.engine
	p.unregister(t)
	if t.parent != nil {
		p.logger.Debug("Execution context finished.", "thread", t.id)
		t.parent.release(ctx)
		return
	}

	clean := !t.tainted.Load()
	if err := t.supervision.Close(ctx, clean); err != nil {
		if errors.Is(err, supervision.ErrUnknownStrategy) {
			p.invariant(ctx, &InvariantError{Op: "supervision deactivation", Err: err})
		} else if !p.aborted() {
			p.logger.Error("Supervision deactivation failed at end of context.", "thread", t.id, "error", err)
			esc := escalation.Wrap(escalation.KindSupervision, err)
			if step := e.fallback(ctx, t, esc); step != nil {
				e.dispatcher.Dispatch(step)
			}
		}
	}
	if err := t.resources.Recycle(ctx); err != nil {
		p.logger.Warn("Failed to recycle thread resources.", "thread", t.id, "error", err)
	}
	if t.flow != nil {
		if err, called := t.flow.report(nil); called && err != nil {
			p.logger.Warn("Flow callback returned an error for a clean flow, ignoring.", "thread", t.id, "error", err)
		}
	}
	p.logger.Debug("Execution context finished.", "thread", t.id, "root", true)
	p.contextDone(ctx)
}
