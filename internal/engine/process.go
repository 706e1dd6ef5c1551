package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/resource"
)

// Result is delivered to the invoking caller once the process completes.
// Value is the result of the last task of the primary flow; Err is the
// terminal error, if any.
type Result struct {
	Value any
	Err   error
}

// Process is one invocation: the primary execution context, process-scope
// resources and the invocation-scope fallback handler.
type Process struct {
	id                string
	engine            *Engine
	logger            *slog.Logger
	resources         *resource.Pool
	invocationHandler *graph.Task
	callback          func(Result)

	// active counts live root contexts plus temporary holds.
	active atomic.Int64
	abort  atomic.Bool

	mu      sync.Mutex
	threads map[*Thread]struct{}
	result  any
	fatal   error

	deliverOnce sync.Once
	done        chan struct{}
	final       Result
}

func (e *Engine) newProcess(ctx context.Context, callback func(Result), invocationHandler *graph.Task) *Process {
	id := ulid.Make().String()
	return &Process{
		id:                id,
		engine:            e,
		logger:            ctxlog.FromContext(ctx).With("process", id),
		resources:         resource.NewPool(resource.ScopeProcess, e.resourceReady),
		invocationHandler: invocationHandler,
		callback:          callback,
		threads:           make(map[*Thread]struct{}),
		done:              make(chan struct{}),
	}
}

// ID returns the process's unique id.
func (p *Process) ID() string { return p.id }

// Done is closed once the completion callback has been delivered.
func (p *Process) Done() <-chan struct{} { return p.done }

// Result returns the final result. It is only meaningful after Done is
// closed.
func (p *Process) Result() Result {
	<-p.done
	return p.final
}

// Fail sets err as the current failure of every live execution context.
// Each context escalates it when its next continuation runs. Contexts that
// already carry a pending failure keep it.
func (p *Process) Fail(err error) {
	esc := escalation.From(err, escalation.KindError)
	if esc == nil {
		return
	}
	p.mu.Lock()
	threads := make([]*Thread, 0, len(p.threads))
	for t := range p.threads {
		threads = append(threads, t)
	}
	p.mu.Unlock()

	p.logger.Warn("Failing every live execution context.", "contexts", len(threads), "kind", string(esc.Kind))
	for _, t := range threads {
		t.fail(esc)
	}
}

func (p *Process) register(t *Thread) {
	p.mu.Lock()
	p.threads[t] = struct{}{}
	p.mu.Unlock()
	p.engine.metrics.ThreadStarted()
}

func (p *Process) unregister(t *Thread) {
	p.mu.Lock()
	delete(p.threads, t)
	p.mu.Unlock()
	p.engine.metrics.ThreadFinished()
}

func (p *Process) aborted() bool {
	return p.abort.Load()
}

func (p *Process) setResult(v any) {
	p.mu.Lock()
	p.result = v
	p.mu.Unlock()
}

// setFatal records the terminal error and makes every other continuation
// drop its node. The first fatal error wins.
func (p *Process) setFatal(err error) {
	p.mu.Lock()
	if p.fatal == nil {
		p.fatal = err
	}
	p.mu.Unlock()
	p.abort.Store(true)
}

// invariant forces the process to complete with err without going through
// escalation.
func (p *Process) invariant(ctx context.Context, err *InvariantError) {
	p.logger.Error("💥 CRITICAL: scheduler invariant violated, forcing completion.", "error", err)
	p.setFatal(err)
	p.deliver()
}

func (p *Process) hold() {
	p.active.Add(1)
}

// contextDone releases one root context or hold. The last one completes
// the process.
func (p *Process) contextDone(ctx context.Context) {
	if p.active.Add(-1) != 0 {
		return
	}
	if err := p.resources.Recycle(ctx); err != nil {
		p.logger.Warn("Failed to recycle process resources.", "error", err)
	}
	p.deliver()
}

func (p *Process) deliver() {
	p.deliverOnce.Do(func() {
		p.mu.Lock()
		res := Result{Value: p.result, Err: p.fatal}
		p.mu.Unlock()
		p.final = res

		if res.Err != nil {
			p.logger.Error("🏁 Process finished with error.", "error", res.Err)
		} else {
			p.logger.Info("🏁 Process finished.")
		}
		if p.callback != nil {
			p.callback(res)
		}
		close(p.done)
	})
}
