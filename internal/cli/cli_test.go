package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"grid/", "--start", "main"}, out)

	require.NoError(t, err)
	assert.False(t, exit)
	require.NotNil(t, cfg)
	assert.Equal(t, "grid/", cfg.GridPath)
	assert.Equal(t, "main", cfg.StartTask)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.WorkerCount)
	assert.Zero(t, cfg.HealthcheckPort)
	assert.Nil(t, cfg.Teams)
	assert.Zero(t, cfg.Timeout)
}

func TestParse_AllFlags(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{
		"-g", "grids/load.hcl",
		"-s", "fetch",
		"-p", "hello",
		"--invocation-handler", "rescue",
		"--system-handler", "last_resort",
		"--healthcheck-port", "8080",
		"--log-format", "JSON",
		"--log-level", "debug",
		"-w", "3",
		"--team", "io=2",
		"--team", "db=1",
		"--timeout", "90s",
	}, out)

	require.NoError(t, err)
	assert.False(t, exit)
	require.NotNil(t, cfg)
	assert.Equal(t, "grids/load.hcl", cfg.GridPath)
	assert.Equal(t, "fetch", cfg.StartTask)
	assert.Equal(t, "hello", cfg.Parameter)
	assert.Equal(t, "rescue", cfg.InvocationHandler)
	assert.Equal(t, "last_resort", cfg.SystemHandler)
	assert.Equal(t, 8080, cfg.HealthcheckPort)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, map[string]int{"io": 2, "db": 1}, cfg.Teams)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("BURSTFLOW_START", "from_env")
	t.Setenv("BURSTFLOW_WORKERS", "4")
	t.Setenv("BURSTFLOW_LOG_LEVEL", "warn")
	t.Setenv("BURSTFLOW_TEAM", "io=2,db=3")

	cfg, _, err := Parse([]string{"grid.hcl", "--workers", "6"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "from_env", cfg.StartTask)
	assert.Equal(t, 6, cfg.WorkerCount, "flags win over the environment")
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, map[string]int{"io": 2, "db": 3}, cfg.Teams)
}

func TestParse_ShouldExit(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "help", args: []string{"-h"}},
		{name: "no grid path", args: []string{"--start", "main"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)

			require.NoError(t, err)
			assert.True(t, exit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func TestParse_UsageErrors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--nope"}, wantMsg: "unknown flag: --nope"},
		{name: "missing start", args: []string{"grid.hcl"}, wantMsg: "StartTask is a required"},
		{name: "bad log format", args: []string{"grid.hcl", "-s", "a", "--log-format", "xml"}, wantMsg: "invalid log format"},
		{name: "bad log level", args: []string{"grid.hcl", "-s", "a", "--log-level", "loud"}, wantMsg: "invalid log level"},
		{name: "bad team", args: []string{"grid.hcl", "-s", "a", "--team", "io"}, wantMsg: "expected name=workers"},
		{name: "empty team", args: []string{"grid.hcl", "-s", "a", "--team", "io=0"}, wantMsg: "must have at least one worker"},
		{name: "too many args", args: []string{"a.hcl", "b.hcl"}, wantMsg: "accepts at most 1 arg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, exit, err := Parse(tc.args, &bytes.Buffer{})

			require.Error(t, err)
			assert.False(t, exit)
			assert.Nil(t, cfg)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestParseTeams(t *testing.T) {
	teams, err := parseTeams([]string{"io=2, db=1", "cpu=8"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"io": 2, "db": 1, "cpu": 8}, teams)

	teams, err = parseTeams(nil)
	require.NoError(t, err)
	assert.Nil(t, teams)

	_, err = parseTeams([]string{"io=many"})
	assert.ErrorContains(t, err, "invalid team 'io=many'")
}
