package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/registry"
)

// ArgPrefix prefixes the environment variables carrying call arguments.
const ArgPrefix = "CHAINS_ARG_"

// Exit reports how a launched process ended.
type Exit struct {
	Action   string
	ChainID  string
	Output   string
	Err      error
	Duration time.Duration
}

// Runner launches allow-listed local processes for call steps.
// A call only starts the process; the step completes right away and the exit is
// reported asynchronously.
type Runner struct {
	baseDir string
	logger  *slog.Logger
	onExit  func(Exit)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithExitHandler receives every exit, from the goroutine that waited on the process.
func WithExitHandler(fn func(Exit)) RunnerOption {
	return func(r *Runner) {
		r.onExit = fn
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: logging.NewNop(),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs one action per config in reg.
func (r *Runner) Register(reg *registry.Registry, actions ...ActionConfig) {
	for _, a := range actions {
		reg.Register(a.Name, func(_ context.Context, call registry.Call) error {
			return r.Start(a, call)
		})
	}
}

// Start launches the process of a without waiting for it.
// Call arguments are passed as environment variables, never as command flags.
func (r *Runner) Start(a ActionConfig, call registry.Call) error {
	if r.ctx.Err() != nil {
		return fmt.Errorf("runner closed, not starting %s", a.Name)
	}

	cmd := exec.CommandContext(r.ctx, a.Command, a.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), Environ(a.Environment, call)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", a.Command, err)
	}
	r.logger.Debug("process started", "action", a.Name, domain.KeyChainID, call.ChainID, "pid", cmd.Process.Pid)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := cmd.Wait()
		exit := Exit{
			Action:   a.Name,
			ChainID:  call.ChainID,
			Output:   strings.TrimSpace(stdout.String()),
			Duration: time.Since(started),
		}
		if err != nil {
			exit.Err = fmt.Errorf("execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
			r.logger.Warn("process failed", "action", a.Name, domain.KeyChainID, call.ChainID, "error", exit.Err)
		} else {
			r.logger.Info("process finished", "action", a.Name, domain.KeyChainID, call.ChainID,
				"duration", exit.Duration, "output", exit.Output)
		}
		if r.onExit != nil {
			r.onExit(exit)
		}
	}()
	return nil
}

// Wait blocks until every launched process exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close kills the processes still running and waits for them.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

// Environ renders the static environment of an action and the call arguments as
// KEY=value pairs. Complex argument values are JSON encoded.
func Environ(static map[string]string, call registry.Call) []string {
	env := make([]string, 0, len(static)+len(call.Args)+1)
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	env = append(env, ArgPrefix+"CHAIN_ID="+call.ChainID)
	for k, v := range call.Args {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
		default:
			if data, err := json.Marshal(v); err == nil {
				val = string(data)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, ArgPrefix+strings.ToUpper(k)+"="+val)
	}
	sort.Strings(env)
	return env
}
