package testutil

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Instigation is one task a handler scheduled through a TaskContext.
type Instigation struct {
	Mode  string // "sequential", "parallel" or "async"
	Task  string
	Param any
}

// TaskContext is a task.Context for calling task handlers directly in
// module tests.
type TaskContext struct {
	TaskName  string
	Param     any
	Args      cty.Value
	Resources map[string]any

	mu         sync.Mutex
	instigated []Instigation
}

var _ task.Context = (*TaskContext)(nil)

func (tc *TaskContext) Name() string         { return tc.TaskName }
func (tc *TaskContext) ID() string           { return "test-" + tc.TaskName }
func (tc *TaskContext) Parameter() any       { return tc.Param }
func (tc *TaskContext) Arguments() cty.Value { return tc.Args }

func (tc *TaskContext) DecodeArguments(target any) error {
	return task.DecodeArguments(tc.Args, target)
}

func (tc *TaskContext) Resource(name string) (any, error) {
	obj, ok := tc.Resources[name]
	if !ok {
		return nil, fmt.Errorf("task '%s' does not use resource '%s'", tc.TaskName, name)
	}
	return obj, nil
}

func (tc *TaskContext) Sequential(name string, param any) error {
	tc.record("sequential", name, param)
	return nil
}

func (tc *TaskContext) Parallel(name string, param any) error {
	tc.record("parallel", name, param)
	return nil
}

func (tc *TaskContext) Async(name string, param any, _ task.FlowCallback) error {
	tc.record("async", name, param)
	return nil
}

// Instigated returns the tasks scheduled so far.
func (tc *TaskContext) Instigated() []Instigation {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return append([]Instigation(nil), tc.instigated...)
}

func (tc *TaskContext) record(mode, name string, param any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.instigated = append(tc.instigated, Instigation{Mode: mode, Task: name, Param: param})
}
