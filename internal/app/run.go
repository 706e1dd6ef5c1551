package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/engine"
	"github.com/specialistvlad/burstflow/internal/hclgraph"
	"github.com/specialistvlad/burstflow/internal/workerpool"
)

// Run loads the grid, starts the worker pool and runs one invocation of the
// start task. The result is printed to the output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	} else {
		a.logger.Debug("Health check server not started: disabled")
	}

	g, err := hclgraph.Load(ctx, a.config.GridPath)
	if err != nil {
		return fmt.Errorf("failed to load grid: %w", err)
	}
	a.logger.Info("Grid loaded.", "tasks", len(g.Tasks), "resources", len(g.Resources), "supervisions", len(g.Supervisions))

	// Tasks see the pool context; cancelling it lets them give up once the
	// invocation is abandoned.
	poolCtx, cancelPool := context.WithCancel(ctx)
	pool, err := workerpool.New(poolCtx, workerpool.Config{
		DefaultWorkers: a.config.WorkerCount,
		Teams:          a.config.Teams,
	})
	if err != nil {
		cancelPool()
		return err
	}
	defer func() {
		cancelPool()
		pool.Close()
	}()

	opts := []engine.Option{engine.WithMetrics(a.metrics)}
	if a.config.SystemHandler != "" {
		opts = append(opts, engine.WithSystemHandler(a.config.SystemHandler))
	}
	eng, err := engine.New(ctx, g, a.registry, pool, opts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	var invokeOpts []engine.InvokeOption
	if a.config.InvocationHandler != "" {
		invokeOpts = append(invokeOpts, engine.WithInvocationHandler(a.config.InvocationHandler))
	}
	var param any
	if a.config.Parameter != "" {
		param = a.config.Parameter
	}

	runCtx := ctx
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	a.logger.Info("🚀 Starting execution...", "start", a.config.StartTask)
	value, err := eng.Run(runCtx, a.config.StartTask, param, invokeOpts...)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if value != nil {
		fmt.Fprintf(a.outW, "%v\n", value)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}
