package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hannajonsd/pip-remove/parser"
	"github.com/hannajonsd/pip-remove/reachability"
)

// DefaultScanConcurrency bounds the number of files parsed at once.
const DefaultScanConcurrency = 8

// Scanner builds an import index for a project tree
type Scanner struct {
	excludeDirs []string
	concurrency int
	logger      *slog.Logger
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithExcludeDirs drops every source file below one of dirs
func WithExcludeDirs(dirs ...string) ScannerOption {
	return func(s *Scanner) {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			if abs, err := filepath.Abs(dir); err == nil {
				s.excludeDirs = append(s.excludeDirs, abs)
			}
		}
	}
}

// WithScanConcurrency bounds the number of files parsed in parallel
func WithScanConcurrency(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithScanLogger sets the logger used for per-file diagnostics
func WithScanLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a scanner with the given options
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		concurrency: DefaultScanConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fileImports is the parse outcome for one file
type fileImports struct {
	path    string
	imports reachability.ImportIndex
	err     error
	skipped bool
}

// Scan lists the project's source files and records the top-level modules
// each one imports. Files that fail to parse are reported in a notice and
// left out of the index.
func (s *Scanner) Scan(ctx context.Context, rootDir string) (reachability.ImportIndex, []Notice, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}

	var notices []Notice

	files, err := listTrackedFiles(root)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}

		message := "project is not under version control; scanning every source file, which may include irrelevant files"
		if !errors.Is(err, ErrUntracked) {
			s.logger.Warn("could not list tracked files, walking the directory instead", "root", root, "error", err)
			message = fmt.Sprintf("could not list tracked files (%v); scanning every source file, which may include irrelevant files", err)
		}
		notices = append(notices, Notice{Kind: NoticeUntrackedProject, Message: message})

		files, err = findSourceFiles(root)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find source files: %w", err)
		}
	}

	files = s.filter(root, files)
	s.logger.Debug("scanning source files", "root", root, "files", len(files))

	results := make([]fileImports, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.scanFile(gctx, root, file)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	index := make(reachability.ImportIndex)
	var failed []string

	for _, res := range results {
		switch {
		case res.skipped:
			continue
		case res.err != nil:
			s.logger.Debug("skipping unparsable file", "file", res.path, "error", res.err)
			failed = append(failed, res.path)
			continue
		}

		index.Merge(res.imports)
	}

	if len(failed) > 0 {
		notices = append(notices, Notice{
			Kind:    NoticeParseFailure,
			Message: fmt.Sprintf("%d source file(s) could not be parsed and were skipped", len(failed)),
			Files:   failed,
		})
	}

	return index, notices, nil
}

// filter keeps source files outside the excluded directories
func (s *Scanner) filter(root string, files []string) []string {
	var excluded []string
	for _, dir := range s.excludeDirs {
		// An environment that contains the whole project cannot be told apart
		// from it by path.
		if isWithin(root, dir) {
			s.logger.Debug("ignoring exclusion that contains the project root", "dir", dir)
			continue
		}
		excluded = append(excluded, dir)
	}

	var kept []string
	for _, file := range files {
		if !parser.IsSourceFile(file) {
			continue
		}

		abs := filepath.Join(root, file)
		skip := false
		for _, dir := range excluded {
			if isWithin(abs, dir) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, file)
		}
	}

	return kept
}

// scanFile parses one file. Files listed in the index but missing on disk
// are skipped without a notice.
func (s *Scanner) scanFile(ctx context.Context, root, file string) fileImports {
	result := fileImports{path: filepath.ToSlash(file)}

	source, err := os.ReadFile(filepath.Join(root, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.skipped = true
			return result
		}
		result.err = err
		return result
	}

	fileParser, err := parser.CreateParser(file)
	if err != nil {
		result.err = err
		return result
	}
	defer fileParser.Close()

	parseResult, err := fileParser.ParseSource(ctx, file, source)
	if err != nil {
		result.err = err
		return result
	}
	defer parseResult.Tree.Close()

	imports, err := fileParser.ExtractImports(parseResult.Tree.RootNode(), parseResult.Source)
	if err != nil {
		result.err = err
		return result
	}

	result.imports = reachability.ImportIndex{}
	result.imports.Add(result.path, "")
	for _, module := range topLevelModules(imports) {
		result.imports.Add(result.path, module)
	}
	return result
}

// isWithin reports whether path equals dir or lies below it
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
