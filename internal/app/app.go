package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/burstflow/internal/metrics"
	"github.com/specialistvlad/burstflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry

	promRegistry *prometheus.Registry
	metrics      *metrics.Collector
	httpServer   *http.Server
}

// NewApp is the constructor for the main application. Results are written
// to outW and logs to logW. Without modules the core modules are loaded.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = CoreModules(outW)
	}
	reg := registry.New().Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(promRegistry)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:         outW,
		logger:       logger,
		config:       cfg,
		registry:     reg,
		promRegistry: promRegistry,
		metrics:      collector,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
