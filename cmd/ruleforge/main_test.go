package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ruleforge/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, out, []string{"--help"})

	require.NoError(t, err, "run() should return a nil error for --help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
	require.Contains(t, out.String(), "resolve")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, out, []string{"--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_InvalidManifest(t *testing.T) {
	t.Parallel()

	// A target block missing its closing brace.
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "BUILD.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte("target \"a\" {\n  rule = \"cxx_toolchain\"\n"), 0o600))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, out, []string{"--targets", filePath, "resolve", "a"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load configuration")
	require.Contains(t, err.Error(), "failed to parse HCL file")
}

func TestRun_Resolve(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "BUILD.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(`
target "py" {
  rule        = "python_toolchain"
  interpreter = "/usr/bin/python3.12"
  version     = "3.12"
}
`), 0o600))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--targets", filePath, "providers", "py"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "interpreter: /usr/bin/python3.12")
	require.Contains(t, out.String(), `version: "3.12"`)
}
