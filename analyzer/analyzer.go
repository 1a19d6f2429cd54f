// Package analyzer composes the orphan walk, the project import scan and
// the usage partition into one removal report.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hannajonsd/pip-remove/environment"
	"github.com/hannajonsd/pip-remove/manifest"
	"github.com/hannajonsd/pip-remove/metadata"
	"github.com/hannajonsd/pip-remove/orphans"
	"github.com/hannajonsd/pip-remove/reachability"
)

// OrphanAnalyzer answers which packages go away with a target and whether the
// project still needs them
type OrphanAnalyzer struct {
	provider    metadata.Provider
	env         environment.Info
	concurrency int
	cacheSize   int
	logger      *slog.Logger
	onLookup    func(name string)
}

// Option configures an OrphanAnalyzer
type Option func(*OrphanAnalyzer)

// WithConcurrency bounds parallel metadata lookups and file parses
func WithConcurrency(n int) Option {
	return func(a *OrphanAnalyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithCacheSize sets the number of metadata records kept per run
func WithCacheSize(n int) Option {
	return func(a *OrphanAnalyzer) {
		if n > 0 {
			a.cacheSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *OrphanAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithProgress registers a callback invoked with each package name just before
// its metadata is looked up by the orphan walk
func WithProgress(fn func(name string)) Option {
	return func(a *OrphanAnalyzer) {
		a.onLookup = fn
	}
}

// New creates an analyzer for the packages installed in env
func New(provider metadata.Provider, env environment.Info, opts ...Option) *OrphanAnalyzer {
	a := &OrphanAnalyzer{
		provider:    provider,
		env:         env,
		concurrency: orphans.DefaultConcurrency,
		cacheSize:   metadata.DefaultCacheSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze resolves the orphans of target and, when scan is set, partitions
// them by whether the project under rootDir imports them.
func (a *OrphanAnalyzer) Analyze(ctx context.Context, target, rootDir string, scan bool) (*Report, error) {
	name := metadata.NormalizeName(target)
	if name == "" {
		return nil, orphans.ErrEmptyTarget
	}

	provider, err := metadata.NewCachedProvider(a.provider, a.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	report := &Report{
		Target:      name,
		Environment: a.env,
	}

	pkg, err := provider.Lookup(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	if !pkg.Found {
		report.notice(NoticeTargetNotInstalled, fmt.Sprintf("package %s is not installed", name))
		return report, nil
	}
	report.TargetFound = true
	report.Target = pkg.Name

	walker := orphans.NewWalker(provider,
		orphans.WithConcurrency(a.concurrency),
		orphans.WithLogger(a.logger),
		orphans.WithProgress(a.onLookup),
	)

	set, err := walker.Resolve(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve orphans of %s: %w", name, err)
	}
	report.Orphans = set.Names()

	a.logger.Debug("orphan walk finished", "target", name, "orphans", len(report.Orphans), "lookups", provider.Len())

	if len(report.Orphans) == 0 {
		return report, nil
	}

	switch {
	case !scan:
		report.Usage = &reachability.Usage{
			Used:   map[string][]string{},
			Unused: append([]string(nil), report.Orphans...),
		}
		report.notice(NoticeScanDisabled, "import scan disabled; every orphan is reported as unused")

	case !a.env.IsolatedEnvironment():
		report.Unresolved = append([]string(nil), report.Orphans...)
		report.notice(NoticeNotIsolatedEnvironment,
			"interpreter is not running in a virtual environment; cannot tell which orphans the project uses")

	default:
		scanner := NewScanner(
			WithExcludeDirs(a.env.LibraryDirs()...),
			WithScanConcurrency(a.concurrency),
			WithScanLogger(a.logger),
		)

		index, notices, err := scanner.Scan(ctx, rootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", rootDir, err)
		}
		report.Notices = append(report.Notices, notices...)

		usage := reachability.Partition(report.Orphans, index)
		report.Usage = &usage
	}

	a.checkManifests(report, rootDir)

	return report, nil
}

// checkManifests records removable orphans the project still declares
func (a *OrphanAnalyzer) checkManifests(report *Report, rootDir string) {
	if rootDir == "" {
		return
	}

	declared, err := manifest.Declared(rootDir)
	if err != nil {
		a.logger.Debug("manifest lookup failed", "root", rootDir, "error", err)
		report.notice(NoticeManifestUnavailable, fmt.Sprintf("could not read project manifests: %v", err))
		return
	}

	candidates := append(append([]string(nil), report.Unused()...), report.Unresolved...)
	report.Declared = manifest.Filter(candidates, declared)
}
