package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/graph"
)

// Validate checks that every handler the graph refers to is registered.
func (r *Registry) Validate(ctx context.Context, g *graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	for _, t := range g.Tasks {
		if _, ok := r.tasks[t.Handler]; !ok {
			errs = append(errs, fmt.Errorf("task '%s': task handler '%s' is not registered", t.Name, t.Handler))
		}
	}
	for _, res := range g.Resources {
		if _, ok := r.resources[res.Handler]; !ok {
			errs = append(errs, fmt.Errorf("resource '%s': resource handler '%s' is not registered", res.Name, res.Handler))
		}
	}
	for _, s := range g.Supervisions {
		if _, ok := r.supervisions[s.Handler]; !ok {
			errs = append(errs, fmt.Errorf("supervision '%s': supervision handler '%s' is not registered", s.Name, s.Handler))
		}
	}

	if len(errs) > 0 {
		logger.Error("Registry validation failed.", "problems", len(errs))
		return fmt.Errorf("registry validation failed: %w", errors.Join(errs...))
	}
	logger.Debug("Registry validation successful.")
	return nil
}
