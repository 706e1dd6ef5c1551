package graph

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/zclconf/go-cty/cty"
)

// Builder collects declarations by name and compiles them into a Graph.
// Declaration order is preserved and becomes the index order.
type Builder struct {
	tasks        []*TaskBuilder
	resources    []*ResourceBuilder
	supervisions []*SupervisionBuilder
	escalations  []escalationDecl
}

type escalationDecl struct {
	kind escalation.Kind
	task string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// TaskBuilder declares one task.
type TaskBuilder struct {
	name        string
	handler     string
	team        string
	next        string
	uses        []string
	supervised  []string
	escalations []escalationDecl
	args        cty.Value
}

// Task declares a task run by the named task handler.
func (b *Builder) Task(name, handler string) *TaskBuilder {
	t := &TaskBuilder{name: name, handler: handler, args: cty.NilVal}
	b.tasks = append(b.tasks, t)
	return t
}

// Team sets the worker team the task runs on.
func (t *TaskBuilder) Team(team string) *TaskBuilder {
	t.team = team
	return t
}

// Next sets the static sequential successor.
func (t *TaskBuilder) Next(task string) *TaskBuilder {
	t.next = task
	return t
}

// Uses declares resources the task loads before executing.
func (t *TaskBuilder) Uses(resources ...string) *TaskBuilder {
	t.uses = append(t.uses, resources...)
	return t
}

// Supervised declares aspects that must be active while the task executes.
func (t *TaskBuilder) Supervised(aspects ...string) *TaskBuilder {
	t.supervised = append(t.supervised, aspects...)
	return t
}

// OnEscalation routes escalations of kind raised beneath this task to the
// handler task.
func (t *TaskBuilder) OnEscalation(kind escalation.Kind, task string) *TaskBuilder {
	t.escalations = append(t.escalations, escalationDecl{kind: kind, task: task})
	return t
}

// Arguments attaches configuration passed to the handler.
func (t *TaskBuilder) Arguments(v cty.Value) *TaskBuilder {
	t.args = v
	return t
}

// ResourceBuilder declares one resource.
type ResourceBuilder struct {
	name         string
	handler      string
	scope        resource.Scope
	dependsOn    []string
	supervisedBy []string
	args         cty.Value
}

// Resource declares a resource sourced by the named resource handler.
func (b *Builder) Resource(name, handler string, scope resource.Scope) *ResourceBuilder {
	r := &ResourceBuilder{name: name, handler: handler, scope: scope, args: cty.NilVal}
	b.resources = append(b.resources, r)
	return r
}

// DependsOn declares resources that must be ready before this one is sourced.
func (r *ResourceBuilder) DependsOn(resources ...string) *ResourceBuilder {
	r.dependsOn = append(r.dependsOn, resources...)
	return r
}

// SupervisedBy declares aspects that govern this resource while active.
func (r *ResourceBuilder) SupervisedBy(aspects ...string) *ResourceBuilder {
	r.supervisedBy = append(r.supervisedBy, aspects...)
	return r
}

// Arguments attaches configuration passed to the factory.
func (r *ResourceBuilder) Arguments(v cty.Value) *ResourceBuilder {
	r.args = v
	return r
}

// SupervisionBuilder declares one supervision aspect.
type SupervisionBuilder struct {
	name     string
	handler  string
	strategy supervision.Strategy
	args     cty.Value
}

// Supervision declares an aspect backed by the named supervision handler.
// The strategy is not validated here; an unknown strategy is reported when
// the aspect is deactivated.
func (b *Builder) Supervision(name, handler string, strategy supervision.Strategy) *SupervisionBuilder {
	s := &SupervisionBuilder{name: name, handler: handler, strategy: strategy, args: cty.NilVal}
	b.supervisions = append(b.supervisions, s)
	return s
}

// Arguments attaches configuration passed to the factory.
func (s *SupervisionBuilder) Arguments(v cty.Value) *SupervisionBuilder {
	s.args = v
	return s
}

// OnEscalation adds a process-scope escalation handler.
func (b *Builder) OnEscalation(kind escalation.Kind, task string) *Builder {
	b.escalations = append(b.escalations, escalationDecl{kind: kind, task: task})
	return b
}

// Build resolves every reference and validates the graph. All problems
// found are reported together.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		tasks:        make(map[string]int, len(b.tasks)),
		resources:    make(map[string]int, len(b.resources)),
		supervisions: make(map[string]int, len(b.supervisions)),
	}
	var errs []error
	addErr := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for _, s := range b.supervisions {
		if _, dup := g.supervisions[s.name]; dup {
			addErr("duplicate supervision '%s'", s.name)
			continue
		}
		if s.handler == "" {
			addErr("supervision '%s' has no handler", s.name)
		}
		idx := len(g.Supervisions)
		g.supervisions[s.name] = idx
		g.Supervisions = append(g.Supervisions, &Supervision{
			Name: s.name, Index: idx, Handler: s.handler, Strategy: s.strategy, Arguments: s.args,
		})
	}

	for _, r := range b.resources {
		if _, dup := g.resources[r.name]; dup {
			addErr("duplicate resource '%s'", r.name)
			continue
		}
		if r.handler == "" {
			addErr("resource '%s' has no handler", r.name)
		}
		idx := len(g.Resources)
		g.resources[r.name] = idx
		g.Resources = append(g.Resources, &Resource{
			Name: r.name, Index: idx, Handler: r.handler, Scope: r.scope, Arguments: r.args,
		})
	}

	for _, t := range b.tasks {
		if _, dup := g.tasks[t.name]; dup {
			addErr("duplicate task '%s'", t.name)
			continue
		}
		if t.handler == "" {
			addErr("task '%s' has no handler", t.name)
		}
		team := t.team
		if team == "" {
			team = DefaultTeam
		}
		idx := len(g.Tasks)
		g.tasks[t.name] = idx
		g.Tasks = append(g.Tasks, &Task{
			Name: t.name, Index: idx, Handler: t.handler, Team: team, Next: NoTask,
			Supervision: make([]bool, len(g.Supervisions)), Arguments: t.args,
		})
	}

	// References are resolved in a second pass so declaration order does
	// not matter.
	for i, r := range dedupResources(b.resources) {
		res := g.Resources[i]
		for _, dep := range r.dependsOn {
			di, ok := g.resources[dep]
			if !ok {
				addErr("resource '%s' depends on unknown resource '%s'", r.name, dep)
				continue
			}
			res.DependsOn = append(res.DependsOn, di)
		}
		for _, aspect := range r.supervisedBy {
			si, ok := g.supervisions[aspect]
			if !ok {
				addErr("resource '%s' supervised by unknown supervision '%s'", r.name, aspect)
				continue
			}
			res.SupervisedBy = append(res.SupervisedBy, si)
		}
	}

	for i, t := range dedupTasks(b.tasks) {
		task := g.Tasks[i]
		if t.next != "" {
			ni, ok := g.tasks[t.next]
			if !ok {
				addErr("task '%s' has unknown next task '%s'", t.name, t.next)
			} else {
				task.Next = ni
			}
		}
		for _, name := range t.uses {
			ri, ok := g.resources[name]
			if !ok {
				addErr("task '%s' uses unknown resource '%s'", t.name, name)
				continue
			}
			task.Resources = append(task.Resources, ri)
		}
		for _, aspect := range t.supervised {
			si, ok := g.supervisions[aspect]
			if !ok {
				addErr("task '%s' requires unknown supervision '%s'", t.name, aspect)
				continue
			}
			task.Supervision[si] = true
		}
		table, tableErrs := g.resolveTable(fmt.Sprintf("task '%s'", t.name), t.escalations)
		errs = append(errs, tableErrs...)
		task.Escalations = table
	}

	table, tableErrs := g.resolveTable("process", b.escalations)
	errs = append(errs, tableErrs...)
	g.Escalations = table

	errs = append(errs, g.validateResources()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid graph: %w", errors.Join(errs...))
	}
	return g, nil
}

func (g *Graph) resolveTable(owner string, decls []escalationDecl) (escalation.Table, []error) {
	if len(decls) == 0 {
		return nil, nil
	}
	var errs []error
	table := make(escalation.Table, len(decls))
	for _, d := range decls {
		if d.kind == "" {
			errs = append(errs, fmt.Errorf("%s: escalation handler '%s' has an empty kind", owner, d.task))
			continue
		}
		if _, dup := table[d.kind]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate escalation handler for kind '%s'", owner, d.kind))
			continue
		}
		idx, ok := g.tasks[d.task]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: escalation kind '%s' handled by unknown task '%s'", owner, d.kind, d.task))
			continue
		}
		table[d.kind] = idx
	}
	return table, errs
}

// dedupResources drops later duplicates so positions line up with the
// compiled slice.
func dedupResources(in []*ResourceBuilder) []*ResourceBuilder {
	seen := make(map[string]bool, len(in))
	out := make([]*ResourceBuilder, 0, len(in))
	for _, r := range in {
		if seen[r.name] {
			continue
		}
		seen[r.name] = true
		out = append(out, r)
	}
	return out
}

func dedupTasks(in []*TaskBuilder) []*TaskBuilder {
	seen := make(map[string]bool, len(in))
	out := make([]*TaskBuilder, 0, len(in))
	for _, t := range in {
		if seen[t.name] {
			continue
		}
		seen[t.name] = true
		out = append(out, t)
	}
	return out
}
