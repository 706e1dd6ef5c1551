package engine

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/task"
)

// nodeState is the position of a node in its state machine.
type nodeState int

const (
	stateLoadResources nodeState = iota
	stateExecute
	stateActivateNext
	stateCompleted
	stateFailed
)

func (s nodeState) String() string {
	switch s {
	case stateLoadResources:
		return "LOAD_RESOURCES"
	case stateExecute:
		return "EXECUTE"
	case stateActivateNext:
		return "ACTIVATE_NEXT"
	case stateCompleted:
		return "COMPLETED"
	case stateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// spawnRequest is an asynchronous flow instigated during EXECUTE.
type spawnRequest struct {
	task     *graph.Task
	param    any
	callback task.FlowCallback
}

// Node is one scheduled task. All fields are owned by the worker holding
// the node's continuation.
type Node struct {
	id     string
	engine *Engine
	task   *graph.Task
	thread *Thread
	param  any
	log    *slog.Logger

	state nodeState
	// started is set once the node left the pending state for the first
	// time; pending nodes can be unwound without side effects.
	started bool
	// supervisionCursor is the resumable reconcile index.
	supervisionCursor int
	containers        []*resource.Container
	taskResources     *resource.Pool

	result any
	// nextLinked is set once a sequential successor was instigated or the
	// static one linked.
	nextLinked bool
	spawns     []spawnRequest

	nextSequential  *Node
	parallelSibling *Node
	parallelOwner   *Node

	completed bool
	discarded bool
	released  bool
}

func (e *Engine) newNode(t *Thread, tk *graph.Task, param any) *Node {
	n := &Node{
		id:     ulid.Make().String(),
		engine: e,
		task:   tk,
		thread: t,
		param:  param,
	}
	n.log = t.process.logger.With("task", tk.Name, "node", n.id, "thread", t.id)
	t.retain()
	return n
}

// ID returns the node's unique id.
func (n *Node) ID() string { return n.id }

// Team returns the worker team of the node's task.
func (n *Node) Team() string { return n.task.Team }

// Run advances the node's state machine. It implements Step.
func (n *Node) Run(ctx context.Context) Step {
	return n.engine.run(ctx, n)
}

// deepestSibling follows the pending parallel chain to its oldest member,
// which runs first.
func (n *Node) deepestSibling() *Node {
	x := n.parallelSibling
	for x.parallelSibling != nil {
		x = x.parallelSibling
	}
	return x
}

// finished reports whether the node has passed EXECUTE one way or another.
func (n *Node) finished() bool {
	return n.state == stateCompleted || n.state == stateFailed
}
