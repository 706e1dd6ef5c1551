package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/burstflow/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	path := writeGrid(t, `
task "greet" {
  handler = "print"
  next    = "done"

  arguments {
    message = "hello"
    prefix  = ""
  }
}

task "done" {
  handler = "print"

  arguments {
    prefix = "> "
  }
}
`)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, logs, []string{path, "--start", "greet", "--param", "world"})

	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n> world\nworld\n", out.String())
	assert.Contains(t, logs.String(), "Execution finished")
}

func TestRun_ParseError(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_ShouldExit(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_InvalidGrid(t *testing.T) {
	path := writeGrid(t, `
task "broken" {
  handler = "print"
`)

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{path, "-s", "broken"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
	var exitErr *cli.ExitError
	assert.NotErrorAs(t, err, &exitErr)
}
