package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/specialistvlad/burstflow/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the CLI reads, for example
// BURSTFLOW_LOG_LEVEL.
const EnvPrefix = "BURSTFLOW"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Message: err.Error()}
}

const longHelp = `burstflow - A cooperative trampoline task runner for HCL grids.

A grid declares tasks, resources, supervision aspects and escalation
handlers. burstflow loads the grid, starts the worker pool and runs one
invocation of the start task.

Arguments:
  GRID_PATH   Path to a single .hcl file or a directory containing .hcl files.

Every flag can also be set through the environment, e.g. BURSTFLOW_WORKERS=4.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var (
		config *app.Config
		exit   bool
	)
	cmd := &cobra.Command{
		Use:           "burstflow [flags] [GRID_PATH]",
		Short:         "Run a task grid",
		Long:          longHelp,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			path := v.GetString("grid")
			if path == "" && len(positional) > 0 {
				path = positional[0]
			}
			if path == "" {
				slog.Debug("No grid path provided, printing usage and exiting.")
				exit = true
				return cmd.Usage()
			}

			teams, err := parseTeams(v.GetStringSlice("team"))
			if err != nil {
				return usageError(err)
			}

			cfg, err := app.NewConfig(app.Config{
				GridPath:          path,
				StartTask:         v.GetString("start"),
				Parameter:         v.GetString("param"),
				InvocationHandler: v.GetString("invocation-handler"),
				SystemHandler:     v.GetString("system-handler"),
				LogFormat:         strings.ToLower(v.GetString("log-format")),
				LogLevel:          strings.ToLower(v.GetString("log-level")),
				HealthcheckPort:   v.GetInt("healthcheck-port"),
				WorkerCount:       v.GetInt("workers"),
				Teams:             teams,
				Timeout:           v.GetDuration("timeout"),
			})
			if err != nil {
				return usageError(err)
			}
			config = cfg
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("grid", "g", "", "Path to the grid file or directory.")
	flags.StringP("start", "s", "", "Name of the task the invocation starts with.")
	flags.StringP("param", "p", "", "Parameter handed to the start task.")
	flags.String("invocation-handler", "", "Task that handles escalations nothing else handled for this invocation.")
	flags.String("system-handler", "", "Task that handles escalations for every invocation.")
	flags.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.IntP("workers", "w", 10, "Number of workers in the default team.")
	flags.StringSlice("team", nil, "Extra worker team as name=workers. Repeatable.")
	flags.Duration("timeout", 0, "Abandon the invocation after this long. 0 waits forever.")
	if err := v.BindPFlags(flags); err != nil {
		return nil, false, err
	}

	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, usageError(err)
	}
	if config == nil {
		// --help or no grid path.
		return nil, true, nil
	}
	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, exit, nil
}

// parseTeams reads name=workers pairs. Entries may also be comma separated,
// which is how they arrive from a single environment variable.
func parseTeams(entries []string) (map[string]int, error) {
	teams := make(map[string]int)
	for _, entry := range entries {
		for _, pair := range strings.Split(entry, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			name, count, ok := strings.Cut(pair, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid team '%s': expected name=workers", pair)
			}
			n, err := strconv.Atoi(count)
			if err != nil {
				return nil, fmt.Errorf("invalid team '%s': %w", pair, err)
			}
			teams[name] = n
		}
	}
	if len(teams) == 0 {
		return nil, nil
	}
	return teams, nil
}
