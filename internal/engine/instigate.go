package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/task"
)

// addParallel links p as the newest parallel child of owner. An existing
// pending child becomes p's child, so the oldest child runs first.
func (e *Engine) addParallel(owner, p *Node) {
	if q := owner.parallelSibling; q != nil {
		q.parallelOwner = p
		p.parallelSibling = q
	}
	p.parallelOwner = owner
	owner.parallelSibling = p
}

func (e *Engine) lookupTask(name string) (*graph.Task, error) {
	tk, ok := e.graph.TaskByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown task '%s'", name)
	}
	return tk, nil
}

// instigateSequential makes task the successor of n in n's context. An
// existing successor is demoted to a parallel child of n so it still runs
// first.
func (e *Engine) instigateSequential(n *Node, name string, param any) error {
	tk, err := e.lookupTask(name)
	if err != nil {
		return err
	}
	s := e.newNode(n.thread, tk, param)
	if prev := n.nextSequential; prev != nil {
		e.addParallel(n, prev)
	}
	n.nextSequential = s
	n.nextLinked = true
	n.log.Debug("Instigated sequential task.", "next", name)
	return nil
}

// instigateParallel starts task in a new child context owned by n.
func (e *Engine) instigateParallel(n *Node, name string, param any) error {
	tk, err := e.lookupTask(name)
	if err != nil {
		return err
	}
	t := n.thread.process.newChildThread(n.thread)
	e.addParallel(n, e.newNode(t, tk, param))
	n.log.Debug("Instigated parallel task.", "task", name, "thread", t.id)
	return nil
}

// instigateAsync records a flow to be spawned once n finished EXECUTE.
func (e *Engine) instigateAsync(n *Node, name string, param any, callback task.FlowCallback) error {
	tk, err := e.lookupTask(name)
	if err != nil {
		return err
	}
	n.spawns = append(n.spawns, spawnRequest{task: tk, param: param, callback: callback})
	n.log.Debug("Instigated asynchronous task.", "task", name)
	return nil
}

// spawn starts every recorded asynchronous flow as a new root context and
// hands n back for completion.
func (e *Engine) spawn(ctx context.Context, n *Node) Step {
	p := n.thread.process
	spawns := n.spawns
	n.spawns = nil
	for _, req := range spawns {
		t := p.newRootThread(&flow{callback: req.callback}, escalation.LevelFlow, false)
		s := e.newNode(t, req.task, req.param)
		n.log.Info("🚀 Spawning asynchronous flow", "task", req.task.Name, "thread", t.id)
		e.dispatcher.Dispatch(s)
	}
	return n
}
