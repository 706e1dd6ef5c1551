// Package task defines the contract between the engine and task handlers.
package task

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Func is the application logic of a task. The returned value becomes the
// parameter of the next sequential task. A returned error, or a panic, is
// escalated.
type Func func(ctx context.Context, tc Context) (any, error)

// FlowCallback observes the end of an asynchronous flow. It receives nil
// when the flow completed cleanly, or the escalation nobody in the flow
// handled. Returning nil marks the escalation as handled; returning an error
// passes it on to the process-scope handlers.
type FlowCallback func(err error) error

// Context is the view of the running node given to a task handler. It is
// only valid during the handler call.
type Context interface {
	// Name is the task name in the graph.
	Name() string
	// ID is the unique id of this task node.
	ID() string
	// Parameter is the value handed over by the previous task, the
	// invocation, or the escalation being handled.
	Parameter() any
	// Arguments are the configured task arguments, or cty.NilVal.
	Arguments() cty.Value
	// DecodeArguments decodes the configured arguments into target.
	DecodeArguments(target any) error
	// Resource returns a loaded resource object. Only resources the task
	// declares are available.
	Resource(name string) (any, error)
	// Sequential schedules task to run after this one, in the same context.
	Sequential(task string, param any) error
	// Parallel schedules task in a new child context. This task's owner
	// waits for it to finish.
	Parallel(task string, param any) error
	// Async starts task as an independent flow. callback may be nil.
	Async(task string, param any, callback FlowCallback) error
}
