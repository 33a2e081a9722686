package cli_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/chains/internal/cli"
	"github.com/aretw0/chains/internal/config"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Log:     config.LogConfig{Level: "error", Format: "text"},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const introScenario = `
group: sequential
chains:
  - id: intro
    steps:
      - nowait: fade in
      - wait: 10ms
      - log: title
  - id: credits
    mode: parallel
    steps:
      - log: thanks
      - wait: 5ms
`

func TestRunScenario(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := cli.RunScenario(ctx, cli.RunOptions{
		Config: testConfig(),
		Path:   writeFile(t, "intro.yaml", introScenario),
		Out:    &out,
		Quiet:  true,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[intro] fade in")
	assert.Contains(t, text, "[intro] title")
	assert.Contains(t, text, "[credits] thanks")
	assert.Contains(t, text, "done    credits")
	assert.Contains(t, text, "Scenario complete")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("[intro] title")), bytes.Index(out.Bytes(), []byte("[credits] thanks")),
		"a sequential group starts credits after intro")
}

func TestRunScenario_CallStopsChain(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := cli.RunScenario(ctx, cli.RunOptions{
		Config: testConfig(),
		Path: writeFile(t, "cut.yaml", `
group: none
chains:
  - id: ambience
    steps:
      - wait: 1m
      - log: never
  - id: cut
    steps:
      - wait: 5ms
      - call: stop
        args: {id: ambience}
`),
		Out:   &out,
		Quiet: true,
	})
	require.NoError(t, err)

	text := out.String()
	assert.NotContains(t, text, "never")
	assert.Contains(t, text, "stop    ambience")
	assert.Contains(t, text, "Scenario complete")
}

func TestRunScenario_ProcessActions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	out := filepath.Join(t.TempDir(), "out.txt")
	cfg := testConfig()
	cfg.Actions.File = writeFile(t, "actions.yaml", `
actions:
  - name: note
    command: sh
    args: ["-c", "echo $CHAINS_ARG_MSG > $CHAINS_ARG_OUT"]
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cli.RunScenario(ctx, cli.RunOptions{
		Config: cfg,
		Path: writeFile(t, "notes.yaml", `
chains:
  - id: notes
    steps:
      - call: note
        args: {msg: written, out: "`+out+`"}
`),
		Out:   io.Discard,
		Quiet: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "written\n", string(data))
}

func TestRunScenario_WithAudioCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Audio.Catalog = writeFile(t, "audio.yaml", `
prefix: ui
clips:
  - name: click
    file: click.wav
    long: true
    duration: 10ms
`)
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := cli.RunScenario(ctx, cli.RunOptions{
		Config: cfg,
		Path:   writeFile(t, "play.yaml", "chains:\n  - id: sfx\n    steps:\n      - play: ui click\n      - log: after\n"),
		Out:    &out,
		Quiet:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[sfx] after")
}

func TestRunScenario_Interrupted(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := cli.RunScenario(ctx, cli.RunOptions{
		Config: testConfig(),
		Path:   writeFile(t, "long.yaml", "chains:\n  - id: long\n    steps:\n      - wait: 1h\n"),
		Out:    &out,
		Quiet:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "stop    long")
	assert.NotContains(t, out.String(), "Scenario complete")
}

func TestRunScenario_MissingFile(t *testing.T) {
	err := cli.RunScenario(context.Background(), cli.RunOptions{
		Config: testConfig(),
		Path:   filepath.Join(t.TempDir(), "missing.yaml"),
		Out:    &bytes.Buffer{},
	})
	assert.Error(t, err)
}

func TestValidateScenario(t *testing.T) {
	doc, err := cli.ValidateScenario(testConfig(), writeFile(t, "ok.yaml", introScenario))
	require.NoError(t, err)
	assert.Len(t, doc.Chains, 2)

	_, err = cli.ValidateScenario(testConfig(), writeFile(t, "bad.yaml", "chains:\n  - id: x\n    steps: []\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidScenario)

	_, err = cli.ValidateScenario(testConfig(), writeFile(t, "play.yaml", "chains:\n  - id: x\n    steps:\n      - play: ui click\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidScenario, "play steps need an audio catalog")
}

func TestNewLogger_RejectsBadLevel(t *testing.T) {
	_, err := cli.NewLogger(config.LogConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
}
