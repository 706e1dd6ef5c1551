// Package print provides the print task, which writes its message and
// parameter to an output stream and passes the parameter on unchanged.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Defaults to os.Stdout.
	Out io.Writer
}

// Input defines the arguments for the print task.
type Input struct {
	Message string `cty:"message"`
	Prefix  string `cty:"prefix"`
}

func (m *Module) out() io.Writer {
	if m.Out == nil {
		return os.Stdout
	}
	return m.Out
}

// onRunPrint is the handler for the 'print' task.
func (m *Module) onRunPrint(ctx context.Context, tc task.Context) (any, error) {
	input := Input{Prefix: "      "}
	if err := tc.DecodeArguments(&input); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Printing input", "task", tc.Name())

	w := m.out()
	if input.Message != "" {
		fmt.Fprintf(w, "%s%s\n", input.Prefix, input.Message)
	}

	param := tc.Parameter()
	switch v := param.(type) {
	case nil:
		fmt.Fprintf(w, "%s(null)\n", input.Prefix)
	case map[string]string:
		// Sort keys for consistent output
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s%s = %q\n", input.Prefix, k, v[k])
		}
	default:
		fmt.Fprintf(w, "%s%v\n", input.Prefix, v)
	}
	return param, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("print", m.onRunPrint)
}
