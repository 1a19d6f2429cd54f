// Package manifest reads the requirements a Python project declares in its
// own manifest files.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/hannajonsd/pip-remove/metadata"
	"github.com/hannajonsd/pip-remove/parser"
)

// Requirement is one declared dependency and the manifest it came from
type Requirement struct {
	Name   string
	Spec   string
	Source string // manifest path relative to the project root
}

var requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

// Declared collects every requirement named by requirements*.txt and
// pyproject.toml files below rootDir, keyed by metadata.Key. The first
// declaration of a name wins.
func Declared(rootDir string) (map[string]Requirement, error) {
	files, err := findManifests(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to find manifests: %w", err)
	}

	declared := make(map[string]Requirement)
	for _, path := range files {
		reqs, err := readManifest(path)
		if err != nil {
			return nil, err
		}

		source, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			source = path
		}

		for _, req := range reqs {
			key := metadata.Key(req.Name)
			if _, ok := declared[key]; ok {
				continue
			}
			req.Source = source
			declared[key] = req
		}
	}

	return declared, nil
}

// Filter returns the names that appear in declared, in input order
func Filter(names []string, declared map[string]Requirement) []Requirement {
	var hits []Requirement
	for _, name := range names {
		if req, ok := declared[metadata.Key(name)]; ok {
			hits = append(hits, req)
		}
	}
	return hits
}

// readManifest dispatches on the manifest file name
func readManifest(path string) ([]Requirement, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if filepath.Base(path) == "pyproject.toml" {
		reqs, err := parsePyproject(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return reqs, nil
	}

	return parseRequirements(string(content)), nil
}

// parseRequirements extracts names from a pip requirements file. Option lines
// (-r, -e, --index-url) and URL requirements are ignored.
func parseRequirements(content string) []Requirement {
	var reqs []Requirement

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		if req, ok := parseRequirement(line); ok {
			reqs = append(reqs, req)
		}
	}

	return reqs
}

func parsePyproject(content []byte) ([]Requirement, error) {
	var doc pyproject
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	var reqs []Requirement
	for _, line := range doc.Project.Dependencies {
		if req, ok := parseRequirement(line); ok {
			reqs = append(reqs, req)
		}
	}

	groups := make([]string, 0, len(doc.Project.OptionalDependencies))
	for group := range doc.Project.OptionalDependencies {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		for _, line := range doc.Project.OptionalDependencies[group] {
			if req, ok := parseRequirement(line); ok {
				reqs = append(reqs, req)
			}
		}
	}

	return reqs, nil
}

func parseRequirement(line string) (Requirement, bool) {
	line = strings.TrimSpace(line)
	matches := requirementName.FindStringSubmatch(line)
	if len(matches) < 2 {
		return Requirement{}, false
	}

	return Requirement{
		Name: matches[1],
		Spec: line,
	}, true
}

// isManifest reports whether a file name is a supported manifest
func isManifest(name string) bool {
	if name == "pyproject.toml" {
		return true
	}
	return strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt")
}

// findManifests locates manifest files in the project tree, in walk order
func findManifests(rootDir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != rootDir && parser.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if isManifest(d.Name()) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
