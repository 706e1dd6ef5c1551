package workerpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
)

// DefaultTeam receives steps whose team is empty or unknown.
const DefaultTeam = "default"

// Step is one unit of work. Run returns the continuation, or nil when this
// chain of work is exhausted for now.
type Step interface {
	Team() string
	Run(ctx context.Context) Step
}

// Config sizes the pool. Teams maps a team name to its worker count; the
// default team is always created, with DefaultWorkers workers unless Teams
// names it explicitly.
type Config struct {
	DefaultWorkers int
	Teams          map[string]int
}

// Pool is a set of worker teams.
type Pool struct {
	ctx   context.Context
	teams map[string]*team
	wg    sync.WaitGroup
}

type team struct {
	name  string
	queue *queue
}

// New starts the workers. They run until Close is called.
func New(ctx context.Context, cfg Config) (*Pool, error) {
	sizes := make(map[string]int, len(cfg.Teams)+1)
	for name, n := range cfg.Teams {
		sizes[name] = n
	}
	if _, ok := sizes[DefaultTeam]; !ok {
		sizes[DefaultTeam] = cfg.DefaultWorkers
	}

	p := &Pool{ctx: ctx, teams: make(map[string]*team, len(sizes))}
	for name, n := range sizes {
		if n < 1 {
			return nil, fmt.Errorf("team '%s' needs at least one worker, got %d", name, n)
		}
		p.teams[name] = &team{name: name, queue: newQueue()}
	}

	logger := ctxlog.FromContext(ctx)
	for name, n := range sizes {
		t := p.teams[name]
		logger.Debug("Starting worker team.", "team", name, "workers", n)
		for i := 0; i < n; i++ {
			p.wg.Add(1)
			go p.worker(t, i)
		}
	}
	return p, nil
}

// Dispatch queues s on its team.
func (p *Pool) Dispatch(s Step) {
	if s == nil {
		return
	}
	t := p.teamFor(s)
	if !t.queue.push(s) {
		ctxlog.FromContext(p.ctx).Warn("Pool closed, dropping step.", "team", t.name)
	}
}

// Close stops accepting steps, lets the workers drain their queues, and
// waits for them to exit.
func (p *Pool) Close() {
	for _, t := range p.teams {
		t.queue.close()
	}
	p.wg.Wait()
}

func (p *Pool) teamFor(s Step) *team {
	if t, ok := p.teams[s.Team()]; ok {
		return t
	}
	return p.teams[DefaultTeam]
}

// worker is the core processing loop for a single worker.
func (p *Pool) worker(t *team, workerID int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(p.ctx).With("team", t.name, "workerID", workerID)
	logger.Debug("Worker started.")

	for {
		s, ok := t.queue.pop()
		if !ok {
			break
		}
		p.drive(t, s)
	}
	logger.Debug("Worker finished.")
}

// drive trampolines s inline until the chain ends or leaves the team.
func (p *Pool) drive(t *team, s Step) {
	for s != nil {
		if next := p.teamFor(s); next != t {
			p.Dispatch(s)
			return
		}
		s = p.run(s)
	}
}

func (p *Pool) run(s Step) (next Step) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(p.ctx).Error("Step panicked, dropping continuation.", "team", s.Team(), "panic", r)
			next = nil
		}
	}()
	return s.Run(p.ctx)
}
