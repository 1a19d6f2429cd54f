package analyzer

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/hannajonsd/pip-remove/parser"
)

// loadGitignore reads the root .gitignore, if any, into a matcher
func loadGitignore(rootDir string) gitignore.Matcher {
	var patterns []gitignore.Pattern

	file, err := os.Open(filepath.Join(rootDir, ".gitignore"))
	if err == nil {
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), " \t")
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
	}

	return gitignore.NewMatcher(patterns)
}

// findSourceFiles walks rootDir for Python sources, honoring .gitignore and
// skipping environment and build directories. Paths are relative to rootDir.
func findSourceFiles(rootDir string) ([]string, error) {
	var sourceFiles []string

	matcher := loadGitignore(rootDir)

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDir {
				return err
			}
			// Unreadable subtrees are not worth failing the scan for.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == rootDir {
			return nil
		}

		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() && parser.SkipDir(d.Name()) {
			return filepath.SkipDir
		}

		if matcher.Match(strings.Split(filepath.ToSlash(relPath), "/"), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() && parser.IsSourceFile(path) {
			sourceFiles = append(sourceFiles, relPath)
		}

		return nil
	})

	return sourceFiles, err
}
