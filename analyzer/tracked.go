package analyzer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrUntracked is returned when the scanned root is not inside a git work tree.
var ErrUntracked = errors.New("directory is not under version control")

// listTrackedFiles returns the files in the git index below rootDir, relative
// to rootDir. rootDir must be absolute.
func listTrackedFiles(rootDir string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrUntracked
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUntracked, err)
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read git index: %w", err)
	}

	top := worktree.Filesystem.Root()

	var files []string
	for _, entry := range idx.Entries {
		absPath := filepath.Join(top, filepath.FromSlash(entry.Name))
		relPath, relErr := filepath.Rel(rootDir, absPath)
		if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			continue
		}
		files = append(files, relPath)
	}

	return files, nil
}
