package remove_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/pip-remove/remove"
)

// fakeInterpreter writes an executable shell script standing in for python
func fakeInterpreter(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script interpreters are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestArgs(t *testing.T) {
	t.Parallel()

	args := remove.Args([]string{"flask", "Jinja2>=3.1", " ", "click; python_version>'3'"})
	assert.Equal(t, []string{"-m", "pip", "uninstall", "-y", "flask", "Jinja2", "click"}, args)
}

func TestUninstall(t *testing.T) {
	python := fakeInterpreter(t, `echo "$@"`)

	var stdout, stderr bytes.Buffer
	e := remove.NewExecutor(python, remove.WithOutput(&stdout, &stderr))

	require.NoError(t, e.Uninstall(context.Background(), []string{"flask", "blinker"}))
	assert.Equal(t, "-m pip uninstall -y flask blinker", strings.TrimSpace(stdout.String()))
}

func TestUninstallFailure(t *testing.T) {
	python := fakeInterpreter(t, `echo "ERROR: cannot uninstall" >&2; exit 1`)

	var stdout, stderr bytes.Buffer
	e := remove.NewExecutor(python, remove.WithOutput(&stdout, &stderr))

	err := e.Uninstall(context.Background(), []string{"flask"})
	assert.ErrorIs(t, err, remove.ErrUninstallFailed)
	assert.Contains(t, stderr.String(), "cannot uninstall")
}

func TestUninstallNothing(t *testing.T) {
	t.Parallel()

	e := remove.NewExecutor("python")
	err := e.Uninstall(context.Background(), []string{"", ">=1"})
	assert.ErrorIs(t, err, remove.ErrNothingToRemove)
}
