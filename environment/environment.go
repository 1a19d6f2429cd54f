// Package environment locates the Python interpreter whose packages are analyzed.
package environment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ErrEnvironmentNotFound is returned when no usable interpreter exists.
var ErrEnvironmentNotFound = errors.New("no Python found in the environment")

// interpreterNames are tried on PATH in order.
var interpreterNames = []string{"python", "python3", "py"}

const inspectTimeout = 15 * time.Second

const inspectScript = `
import json, site, sys
try:
    dirs = site.getsitepackages()
except AttributeError:
    dirs = []
print(json.dumps({
    "executable": sys.executable,
    "prefix": sys.prefix,
    "base_prefix": getattr(sys, "base_prefix", sys.prefix),
    "site_packages": dirs,
}))
`

// Info describes an inspected interpreter
type Info struct {
	Python       string   `json:"executable"`
	Prefix       string   `json:"prefix"`
	BasePrefix   string   `json:"base_prefix"`
	SitePackages []string `json:"site_packages"`
}

// IsolatedEnvironment reports whether the interpreter runs inside a virtual
// environment rather than a global installation.
func (i Info) IsolatedEnvironment() bool {
	return i.Prefix != "" && filepath.Clean(i.Prefix) != filepath.Clean(i.BasePrefix)
}

// LibraryDirs returns the directories holding installed packages. Source
// files below them belong to the environment, not the project.
func (i Info) LibraryDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, dir := range append([]string{i.Prefix}, i.SitePackages...) {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Find returns the interpreter to analyze. An explicit override wins, then
// the active virtual environment, then the first interpreter on PATH.
func Find(override string) (string, error) {
	if override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrEnvironmentNotFound, override, err)
		}
		return filepath.Abs(path)
	}

	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		candidate := venvPython(venv)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Abs(candidate)
		}
	}

	for _, name := range interpreterNames {
		if path, err := exec.LookPath(name); err == nil {
			return filepath.Abs(path)
		}
	}

	return "", ErrEnvironmentNotFound
}

func venvPython(venv string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venv, "Scripts", "python.exe")
	}
	return filepath.Join(venv, "bin", "python")
}

// Inspect asks the interpreter for its prefixes and site directories
func Inspect(ctx context.Context, python string) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, python, "-c", inspectScript)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("%w: probing %s: %v: %s", ErrEnvironmentNotFound, python, err, strings.TrimSpace(stderr.String()))
	}

	return decodeInfo(python, out)
}

func decodeInfo(python string, out []byte) (Info, error) {
	var info Info
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return Info{}, fmt.Errorf("%w: probing %s: error decoding JSON: %v", ErrEnvironmentNotFound, python, err)
	}
	if info.Python == "" {
		info.Python = python
	}
	if info.BasePrefix == "" {
		info.BasePrefix = info.Prefix
	}
	return info, nil
}
