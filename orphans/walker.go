// Package orphans computes the packages left without a parent when a target
// package is uninstalled.
package orphans

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hannajonsd/pip-remove/metadata"
)

// DefaultConcurrency is the number of metadata lookups in flight per level.
const DefaultConcurrency = 8

// ErrEmptyTarget is returned when the target normalizes to an empty name.
var ErrEmptyTarget = errors.New("package name cannot be empty")

// Walker resolves orphan sets against a metadata provider
type Walker struct {
	provider    metadata.Provider
	concurrency int
	logger      *slog.Logger
	onLookup    func(name string)
}

// Option configures a Walker
type Option func(*Walker)

// WithConcurrency bounds the number of parallel lookups
func WithConcurrency(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithLogger sets the logger used for exclusion decisions
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithProgress registers a callback invoked before every lookup. It may be
// called from several goroutines at once.
func WithProgress(fn func(name string)) Option {
	return func(w *Walker) {
		w.onLookup = fn
	}
}

// NewWalker creates a walker over provider
func NewWalker(provider metadata.Provider, opts ...Option) *Walker {
	w := &Walker{
		provider:    provider,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type lookupResult struct {
	pkg metadata.Package
	err error
}

// Resolve returns every package that would be left without a parent if
// target were removed. A requirement qualifies when it has at most one
// required-by entry; qualifying packages contribute their own requirements
// to the next frontier. The target itself is never a member.
func (w *Walker) Resolve(ctx context.Context, target string) (*Set, error) {
	target = metadata.NormalizeName(target)
	if target == "" {
		return nil, ErrEmptyTarget
	}

	visited := newVisitedSet()
	visited.markVisited(target)

	orphans := NewSet()

	root, err := w.lookup(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		w.logger.Warn("no metadata for target, nothing will be treated as orphaned", "package", target, "error", err)
		return orphans, nil
	}

	frontier := unvisited(visited, root.Requires)

	for depth := 1; len(frontier) > 0; depth++ {
		results := w.lookupAll(ctx, frontier)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []string
		for i, name := range frontier {
			res := results[i]

			if res.err != nil {
				w.logger.Debug("excluding package, metadata query failed", "package", name, "depth", depth, "error", res.err)
				continue
			}

			if len(res.pkg.RequiredBy) > 1 {
				w.logger.Debug("excluding shared package", "package", name, "depth", depth, "required_by", res.pkg.RequiredBy)
				continue
			}

			orphans.Add(name)
			next = append(next, unvisited(visited, res.pkg.Requires)...)
		}

		frontier = next
	}

	w.logger.Debug("resolved orphans", "package", target, "count", orphans.Len())

	return orphans, nil
}

// lookupAll queries every name in parallel, bounded by the walker's concurrency
func (w *Walker) lookupAll(ctx context.Context, names []string) []lookupResult {
	results := make([]lookupResult, len(names))

	var g errgroup.Group
	g.SetLimit(w.concurrency)

	for i, name := range names {
		g.Go(func() error {
			pkg, err := w.lookup(ctx, name)
			results[i] = lookupResult{pkg: pkg, err: err}
			return nil
		})
	}

	_ = g.Wait()

	return results
}

func (w *Walker) lookup(ctx context.Context, name string) (metadata.Package, error) {
	if w.onLookup != nil {
		w.onLookup(name)
	}
	return w.provider.Lookup(ctx, name)
}

// unvisited returns the normalized names not seen before, marking them visited
func unvisited(visited *visitedSet, names []string) []string {
	var fresh []string
	for _, name := range metadata.NormalizeAll(names) {
		if visited.markVisited(name) {
			fresh = append(fresh, name)
		}
	}
	return fresh
}
