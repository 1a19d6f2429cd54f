// Package remove uninstalls packages through the interpreter's pip.
package remove

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/hannajonsd/pip-remove/metadata"
)

// ErrNothingToRemove is returned when Uninstall receives no usable names.
var ErrNothingToRemove = errors.New("no packages to uninstall")

// ErrUninstallFailed wraps a non-zero exit of pip.
var ErrUninstallFailed = errors.New("pip uninstall failed")

// Executor runs pip uninstall for one interpreter
type Executor struct {
	python string
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithOutput redirects pip's stdout and stderr
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor for python
func NewExecutor(python string, opts ...Option) *Executor {
	e := &Executor{
		python: python,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Args returns the interpreter arguments that uninstall names
func Args(names []string) []string {
	args := []string{"-m", "pip", "uninstall", "-y"}
	return append(args, metadata.NormalizeAll(names)...)
}

// Uninstall removes names in a single pip invocation
func (e *Executor) Uninstall(ctx context.Context, names []string) error {
	args := Args(names)
	if len(args) == 4 {
		return ErrNothingToRemove
	}

	e.logger.Debug("running pip uninstall", "python", e.python, "packages", args[4:])

	cmd := exec.CommandContext(ctx, e.python, args...)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUninstallFailed, err)
	}

	return nil
}
