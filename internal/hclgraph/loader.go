package hclgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/fsutil"
	"github.com/specialistvlad/burstflow/internal/graph"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
)

// ErrNoFiles is returned when none of the given paths holds a grid file.
var ErrNoFiles = errors.New("no .hcl grid files found")

// Load parses every .hcl file under paths and compiles them into one graph.
// Blocks may be spread over files in any order.
func Load(ctx context.Context, paths ...string) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL grid loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoFiles, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	b := graph.NewBuilder()
	ectx := evalContext()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := decodeFile(ctx, b, hclFile.Body, ectx); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL grid loaded.", "tasks", len(g.Tasks), "resources", len(g.Resources), "supervisions", len(g.Supervisions))
	return g, nil
}

// decodeFile feeds the blocks of one file into the builder.
func decodeFile(ctx context.Context, b *graph.Builder, body hcl.Body, ectx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx)

	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return diags
	}

	var diags hcl.Diagnostics
	for _, tb := range root.Tasks {
		t := b.Task(tb.Name, tb.Handler).Uses(tb.Uses...).Supervised(tb.Supervised...)
		if tb.Team != "" {
			t.Team(tb.Team)
		}
		if tb.Next != "" {
			t.Next(tb.Next)
		}
		for _, eb := range tb.OnEscalation {
			t.OnEscalation(escalation.Kind(eb.Kind), eb.Task)
		}
		args, d := evalArguments(tb.Arguments, ectx)
		diags = append(diags, d...)
		t.Arguments(args)
	}

	for _, rb := range root.Resources {
		scope, err := resource.ParseScope(rb.Scope)
		if err != nil {
			return fmt.Errorf("resource '%s': %w", rb.Name, err)
		}
		args, d := evalArguments(rb.Arguments, ectx)
		diags = append(diags, d...)
		b.Resource(rb.Name, rb.Handler, scope).
			DependsOn(rb.DependsOn...).
			SupervisedBy(rb.SupervisedBy...).
			Arguments(args)
	}

	for _, sb := range root.Supervisions {
		strategy := supervision.Strategy(sb.Strategy)
		if sb.Strategy == "" {
			strategy = supervision.Enforce
		}
		// Unknown strategies load; leaving the aspect reports them.
		if _, err := supervision.ParseStrategy(sb.Strategy); err != nil {
			logger.Warn("Supervision declares an unknown strategy.", "supervision", sb.Name, "strategy", sb.Strategy)
		}
		args, d := evalArguments(sb.Arguments, ectx)
		diags = append(diags, d...)
		b.Supervision(sb.Name, sb.Handler, strategy).Arguments(args)
	}

	for _, eb := range root.Escalations {
		b.OnEscalation(escalation.Kind(eb.Kind), eb.Task)
	}

	if diags.HasErrors() {
		return diags
	}
	return nil
}
