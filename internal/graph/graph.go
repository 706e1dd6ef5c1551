package graph

import (
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/zclconf/go-cty/cty"
)

// NoTask marks the absence of a task index, e.g. a task without a static
// successor.
const NoTask = -1

// DefaultTeam is the worker team used by tasks that do not name one.
const DefaultTeam = "default"

// Task is one compiled task.
type Task struct {
	Name    string
	Index   int
	Handler string
	Team    string
	// Next is the static sequential successor, or NoTask.
	Next      int
	Resources []int
	// Supervision has one entry per graph supervision; true means the
	// aspect must be active while the task executes.
	Supervision []bool
	Escalations escalation.Table
	Arguments   cty.Value
}

// Resource is one compiled resource declaration.
type Resource struct {
	Name      string
	Index     int
	Handler   string
	Scope     resource.Scope
	DependsOn []int
	// SupervisedBy lists the supervision indices that govern this resource
	// while they are active.
	SupervisedBy []int
	Arguments    cty.Value
}

// Supervision is one compiled supervision aspect.
type Supervision struct {
	Name      string
	Index     int
	Handler   string
	Strategy  supervision.Strategy
	Arguments cty.Value
}

// Graph is the compiled, immutable task graph.
type Graph struct {
	Tasks        []*Task
	Resources    []*Resource
	Supervisions []*Supervision
	// Escalations is the process-scope escalation table.
	Escalations escalation.Table

	tasks        map[string]int
	resources    map[string]int
	supervisions map[string]int
}

// TaskByName looks up a task.
func (g *Graph) TaskByName(name string) (*Task, bool) {
	idx, ok := g.tasks[name]
	if !ok {
		return nil, false
	}
	return g.Tasks[idx], true
}

// ResourceByName looks up a resource.
func (g *Graph) ResourceByName(name string) (*Resource, bool) {
	idx, ok := g.resources[name]
	if !ok {
		return nil, false
	}
	return g.Resources[idx], true
}

// SupervisionByName looks up a supervision aspect.
func (g *Graph) SupervisionByName(name string) (*Supervision, bool) {
	idx, ok := g.supervisions[name]
	if !ok {
		return nil, false
	}
	return g.Supervisions[idx], true
}

// SupervisionSpec converts a compiled aspect into the container spec used by
// supervision sets. factory may be nil.
func (s *Supervision) SupervisionSpec(factory supervision.Factory) supervision.Spec {
	return supervision.Spec{
		Name:      s.Name,
		Index:     s.Index,
		Strategy:  s.Strategy,
		Factory:   factory,
		Arguments: s.Arguments,
	}
}
