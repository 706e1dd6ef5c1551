package registry

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/specialistvlad/burstflow/internal/task"
)

// RegisterTask registers the Go function behind a task handler.
func (r *Registry) RegisterTask(name string, fn task.Func) {
	if _, exists := r.tasks[name]; exists {
		panic(fmt.Sprintf("task handler with name '%s' already registered", name))
	}
	slog.Debug("Registering task handler.", "name", name)
	r.tasks[name] = fn
}

// RegisterResource registers the factory behind a resource handler.
func (r *Registry) RegisterResource(name string, factory resource.Factory) {
	if _, exists := r.resources[name]; exists {
		panic(fmt.Sprintf("resource handler with name '%s' already registered", name))
	}
	slog.Debug("Registering resource handler.", "name", name)
	r.resources[name] = factory
}

// RegisterSupervision registers the factory behind a supervision handler.
func (r *Registry) RegisterSupervision(name string, factory supervision.Factory) {
	if _, exists := r.supervisions[name]; exists {
		panic(fmt.Sprintf("supervision handler with name '%s' already registered", name))
	}
	slog.Debug("Registering supervision handler.", "name", name)
	r.supervisions[name] = factory
}

// Task returns a registered task function.
func (r *Registry) Task(name string) (task.Func, bool) {
	fn, ok := r.tasks[name]
	return fn, ok
}

// Resource returns a registered resource factory.
func (r *Registry) Resource(name string) (resource.Factory, bool) {
	f, ok := r.resources[name]
	return f, ok
}

// Supervision returns a registered supervision factory.
func (r *Registry) Supervision(name string) (supervision.Factory, bool) {
	f, ok := r.supervisions[name]
	return f, ok
}
