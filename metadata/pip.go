package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultQueryTimeout bounds a single interpreter call.
const DefaultQueryTimeout = 10 * time.Second

// showScript prints the installed metadata of argv[1] as JSON. Requirements
// gated on an extra are dropped since installing the base package never
// pulls them in.
const showScript = `
import json, re, sys
from importlib import metadata

def canon(name):
    return re.sub(r"[-_.]+", "-", name).lower()

def bare(req):
    for i, c in enumerate(req):
        if c in "<>;=[( ~!@":
            return req[:i].strip()
    return req.strip()

def core(reqs):
    return [r for r in (reqs or []) if "extra" not in r.partition(";")[2]]

target = canon(sys.argv[1])
dists = {}
for dist in metadata.distributions():
    name = dist.metadata["Name"]
    if name and canon(name) not in dists:
        dists[canon(name)] = dist

dist = dists.get(target)
if dist is None:
    print(json.dumps({"found": False}))
    sys.exit(0)

required_by = []
for key, other in sorted(dists.items()):
    if key != target and any(canon(bare(r)) == target for r in core(other.requires)):
        required_by.append(other.metadata["Name"])

print(json.dumps({
    "found": True,
    "name": dist.metadata["Name"],
    "requires": core(dist.requires),
    "required_by": required_by,
}))
`

// PipProvider queries an interpreter's installed distributions, one
// subprocess per lookup.
type PipProvider struct {
	python  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPipProvider creates a provider backed by the given interpreter
func NewPipProvider(python string, timeout time.Duration, logger *slog.Logger) *PipProvider {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PipProvider{python: python, timeout: timeout, logger: logger}
}

// Lookup runs the metadata query for name
func (p *PipProvider) Lookup(ctx context.Context, name string) (Package, error) {
	start := time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(queryCtx, p.python, "-c", showScript, NormalizeName(name))
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			return Package{}, fmt.Errorf("%w: %s after %s", ErrQueryTimeout, name, p.timeout)
		}
		return Package{}, fmt.Errorf("%w: %s: %v: %s", ErrQueryFailed, name, err, strings.TrimSpace(stderr.String()))
	}

	pkg, err := decodeShow(name, out)
	if err != nil {
		return Package{}, err
	}

	p.logger.Debug("metadata query",
		"package", name,
		"found", pkg.Found,
		"requires", len(pkg.Requires),
		"required_by", len(pkg.RequiredBy),
		"elapsed", time.Since(start))

	return pkg, nil
}

// decodeShow turns the script output into a normalized Package
func decodeShow(name string, out []byte) (Package, error) {
	var raw Package
	if err := json.Unmarshal(bytes.TrimSpace(out), &raw); err != nil {
		return Package{}, fmt.Errorf("%w: %s: error decoding JSON: %v", ErrQueryFailed, name, err)
	}

	if !raw.Found {
		return missing(name), nil
	}

	pkg := Package{
		Name:       NormalizeName(raw.Name),
		Requires:   NormalizeAll(raw.Requires),
		RequiredBy: NormalizeAll(raw.RequiredBy),
		Found:      true,
	}
	if pkg.Name == "" {
		pkg.Name = NormalizeName(name)
	}
	return pkg, nil
}
