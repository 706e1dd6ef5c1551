package graph

import "fmt"

// validateResources checks resource dependencies for cycles and scope
// narrowing.
func (g *Graph) validateResources() []error {
	var errs []error
	for _, r := range g.Resources {
		for _, di := range r.DependsOn {
			dep := g.Resources[di]
			if !dep.Scope.Covers(r.Scope) {
				errs = append(errs, fmt.Errorf("resource '%s' (%s scope) cannot depend on narrower resource '%s' (%s scope)",
					r.Name, r.Scope, dep.Name, dep.Scope))
			}
		}
	}
	if err := g.detectResourceCycles(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// detectResourceCycles runs a depth-first search with temporary and
// permanent marks and reports the first resource found on a cycle.
func (g *Graph) detectResourceCycles() error {
	permanent := make([]bool, len(g.Resources))
	temporary := make([]bool, len(g.Resources))

	var visit func(idx int) error
	visit = func(idx int) error {
		if permanent[idx] {
			return nil
		}
		if temporary[idx] {
			return fmt.Errorf("dependency cycle detected involving resource '%s'", g.Resources[idx].Name)
		}
		temporary[idx] = true
		for _, dep := range g.Resources[idx].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		temporary[idx] = false
		permanent[idx] = true
		return nil
	}

	for idx := range g.Resources {
		if err := visit(idx); err != nil {
			return err
		}
	}
	return nil
}
