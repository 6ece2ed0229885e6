package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/m-mizutani/octoexec/pkg/domain/model"
	"github.com/m-mizutani/octoexec/pkg/utils/logging"
)

const (
	DefaultTimeout     = 5 * time.Minute
	DefaultGracePeriod = 5 * time.Second
	MaxTimeout         = 30 * time.Minute
)

// Runner spawns commands on the local host. It is the sandbox side of the execution worker.
type Runner struct {
	grace          time.Duration
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	baseEnv        func() []string
}

type Option func(*Runner)

func WithGracePeriod(d time.Duration) Option {
	return func(x *Runner) {
		x.grace = d
	}
}

func WithDefaultTimeout(d time.Duration) Option {
	return func(x *Runner) {
		x.defaultTimeout = d
	}
}

func WithMaxTimeout(d time.Duration) Option {
	return func(x *Runner) {
		x.maxTimeout = d
	}
}

// WithBaseEnv replaces the ambient environment that request variables are merged into.
func WithBaseEnv(env func() []string) Option {
	return func(x *Runner) {
		x.baseEnv = env
	}
}

func New(options ...Option) *Runner {
	runner := &Runner{
		grace:          DefaultGracePeriod,
		defaultTimeout: DefaultTimeout,
		maxTimeout:     MaxTimeout,
		baseEnv:        os.Environ,
	}
	for _, opt := range options {
		opt(runner)
	}
	return runner
}

// Timeout resolves the effective timeout of a request.
func (x *Runner) Timeout(timeoutMs int64) time.Duration {
	if timeoutMs <= 0 {
		return x.defaultTimeout
	}
	d := time.Duration(timeoutMs) * time.Millisecond
	if d > x.maxTimeout {
		return x.maxTimeout
	}
	return d
}

// Run executes the command and always returns a result. On timeout the process gets SIGTERM,
// then SIGKILL after the grace period, and the result carries exit code 124. Cancellation of ctx
// terminates the process the same way.
func (x *Runner) Run(ctx context.Context, req *model.ExecRequest) *model.ExecResult {
	startedAt := time.Now()
	timeout := x.Timeout(req.TimeoutMs)

	if len(req.Command) == 0 {
		return &model.ExecResult{ExitCode: -1, Error: "command is empty"}
	}

	if req.WorkingDir != "" {
		if err := os.MkdirAll(req.WorkingDir, 0o755); err != nil {
			return &model.ExecResult{
				ExitCode:   -1,
				Error:      fmt.Sprintf("failed to prepare working directory: %v", err),
				DurationMs: time.Since(startedAt).Milliseconds(),
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, req.Command[0], req.Command[1:]...)
	cmd.Dir = req.WorkingDir
	cmd.Env = mergeEnv(x.baseEnv(), req.Env)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return terminateProcessGroup(cmd)
	}
	cmd.WaitDelay = x.grace

	err := cmd.Run()
	duration := time.Since(startedAt)

	canceled := err != nil && ctx.Err() != nil
	timedOut := err != nil && !canceled && errors.Is(runCtx.Err(), context.DeadlineExceeded)
	if canceled || timedOut {
		killProcessGroup(cmd)
	}

	result := &model.ExecResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: duration.Milliseconds(),
	}

	logger := logging.From(ctx).With(slog.String("command", req.Command[0]), slog.Duration("duration", duration))

	switch {
	case canceled:
		result.ExitCode = -1
		result.Error = "process canceled"
		logger.Warn("process canceled")

	case timedOut:
		result.ExitCode = model.TimeoutExitCode
		result.Timeout = true
		result.Stderr += fmt.Sprintf("\nprocess timed out after %s", timeout)
		logger.Warn("process timed out", slog.Duration("timeout", timeout))

	case err == nil:
		result.ExitCode = 0

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// the process never started
			result.ExitCode = -1
			result.Error = err.Error()
		}
	}

	logger.Debug("process finished", slog.Int("exit_code", result.ExitCode))
	return result
}

// mergeEnv overlays extra onto base; variables in extra win.
func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key := kv
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				key = kv[:i]
				break
			}
		}
		if _, ok := extra[key]; ok {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
