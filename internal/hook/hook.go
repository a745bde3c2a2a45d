// Package hook runs the user's add-phrase script after a phrase is written
// to the user dictionary.
package hook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// DefaultTimeout bounds a single run of the script.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNoScript is returned when no script path is configured.
	ErrNoScript = errors.New("hook: no script configured")

	// ErrNotFound is returned when the script does not exist.
	ErrNotFound = errors.New("hook: script not found")
)

// Runner runs add-phrase scripts. It implements session.Hook.
type Runner struct {
	log     *logging.Logger
	crash   *logging.CrashHandler
	shell   string
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell sets the shell non-executable scripts are run with.
func WithShell(path string) Option {
	return func(r *Runner) { r.shell = path }
}

// WithTimeout sets the time a script may run before it is killed.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithCrashHandler recovers panics in background runs with h.
func WithCrashHandler(h *logging.CrashHandler) Option {
	return func(r *Runner) { r.crash = h }
}

// New returns a Runner.
func New(logger *logging.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Runner{
		log:     logger.WithComponent("hook"),
		shell:   "/bin/sh",
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.crash == nil {
		r.crash = logging.NewCrashHandler(logging.CrashHandlerConfig{
			Component: "hook",
			Logger:    r.log,
		})
	}
	return r
}

// Start runs script with text in the background.
func (r *Runner) Start(script, text string) {
	r.crash.Go(map[string]any{"script": script}, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if _, err := r.Run(ctx, script, text); err != nil {
			r.log.Warn("add phrase hook failed", "script", script, "error", err)
		}
	})
}

// Run runs script with text as its only argument and waits for it to
// finish. An executable script is run directly; any other file is passed to
// the shell. It returns the combined output.
func (r *Runner) Run(ctx context.Context, script, text string) (string, error) {
	command, err := r.command(script)
	if err != nil {
		return "", err
	}
	args := append(command[1:], text)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Env = append(os.Environ(), "BOPOMOFO_PHRASE="+text)
	cmd.WaitDelay = time.Second

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctx.Err() != nil {
			return output, fmt.Errorf("hook: %s: %w", script, ctx.Err())
		}
		return output, fmt.Errorf("hook: %s: %w", script, err)
	}
	r.log.Debug("add phrase hook finished", "script", script, "output", output)
	return output, nil
}

func (r *Runner) command(script string) ([]string, error) {
	if script == "" {
		return nil, ErrNoScript
	}
	info, err := os.Stat(script)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, script)
		}
		return nil, fmt.Errorf("hook: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, script)
	}
	if unix.Access(script, unix.X_OK) == nil {
		return []string{script}, nil
	}
	return []string{r.shell, script}, nil
}
