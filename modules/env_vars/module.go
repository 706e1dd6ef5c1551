// Package env_vars provides the env_vars resource: a snapshot of the
// process environment taken when the resource is sourced.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the env_vars resource.
type Input struct {
	// Prefix keeps only variables starting with it. The prefix is kept in
	// the keys.
	Prefix string `cty:"prefix"`
}

// sourceEnvVars is the factory of the 'env_vars' resource.
func sourceEnvVars(ctx context.Context, sc *resource.SourceContext) (any, error) {
	var input Input
	if err := task.DecodeArguments(sc.Arguments(), &input); err != nil {
		return nil, err
	}

	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], input.Prefix) {
			continue
		}
		envMap[pair[0]] = pair[1]
	}
	ctxlog.FromContext(ctx).Debug("Environment captured.", "count", len(envMap), "prefix", input.Prefix)
	return envMap, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterResource("env_vars", resource.FactoryFunc(sourceEnvVars))
}
