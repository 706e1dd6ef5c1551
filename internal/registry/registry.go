package registry

import (
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/specialistvlad/burstflow/internal/task"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered handlers for a single application
// instance. It is written during startup and only read afterwards.
type Registry struct {
	tasks        map[string]task.Func
	resources    map[string]resource.Factory
	supervisions map[string]supervision.Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		tasks:        make(map[string]task.Func),
		resources:    make(map[string]resource.Factory),
		supervisions: make(map[string]supervision.Factory),
	}
}

// Load registers every module in order.
func (r *Registry) Load(modules ...Module) *Registry {
	for _, m := range modules {
		m.Register(r)
	}
	return r
}
