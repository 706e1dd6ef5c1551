package engine

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/zclconf/go-cty/cty"
)

var errContextClosed = errors.New("task context used after the task returned")

// taskContext is the task.Context of one EXECUTE call.
type taskContext struct {
	node   *Node
	closed bool
}

var _ task.Context = (*taskContext)(nil)

func (tc *taskContext) Name() string         { return tc.node.task.Name }
func (tc *taskContext) ID() string           { return tc.node.id }
func (tc *taskContext) Parameter() any       { return tc.node.param }
func (tc *taskContext) Arguments() cty.Value { return tc.node.task.Arguments }

func (tc *taskContext) DecodeArguments(target any) error {
	if err := task.DecodeArguments(tc.node.task.Arguments, target); err != nil {
		return fmt.Errorf("task '%s': %w", tc.node.task.Name, err)
	}
	return nil
}

func (tc *taskContext) Resource(name string) (any, error) {
	if tc.closed {
		return nil, errContextClosed
	}
	for _, c := range tc.node.containers {
		if c.Name() != name {
			continue
		}
		obj, ok := c.Object()
		if !ok {
			return nil, fmt.Errorf("resource '%s' is not ready", name)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("task '%s' does not use resource '%s'", tc.node.task.Name, name)
}

func (tc *taskContext) Sequential(name string, param any) error {
	if tc.closed {
		return errContextClosed
	}
	return tc.node.engine.instigateSequential(tc.node, name, param)
}

func (tc *taskContext) Parallel(name string, param any) error {
	if tc.closed {
		return errContextClosed
	}
	return tc.node.engine.instigateParallel(tc.node, name, param)
}

func (tc *taskContext) Async(name string, param any, callback task.FlowCallback) error {
	if tc.closed {
		return errContextClosed
	}
	return tc.node.engine.instigateAsync(tc.node, name, param, callback)
}
