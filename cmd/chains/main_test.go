package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("CHAINS_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "intro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chains:\n  - id: intro\n    steps:\n      - log: hi\n      - wait: 1ms\n"), 0o644))

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chains version ")

	out, err = execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario is valid: 1 chains")

	out, err = execute(t, "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "intro_0 --> intro_1")

	out, err = execute(t, "run", "--quiet", "--log-level", "error", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[intro] hi")

	_, err = execute(t, "validate")
	assert.Error(t, err, "validate needs a file")
}
