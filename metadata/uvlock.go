package metadata

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// uvLock mirrors the parts of the uv.lock schema the provider reads
type uvLock struct {
	Packages []struct {
		Name         string `toml:"name"`
		Dependencies []struct {
			Name string `toml:"name"`
		} `toml:"dependencies"`
	} `toml:"package"`
}

// UvLockProvider answers lookups from a resolved uv.lock file instead of a
// live interpreter. Required-by edges are derived by reversing the lock's
// dependency lists.
type UvLockProvider struct {
	packages map[string]Package
}

// ParseUvLock reads a uv.lock file from disk
func ParseUvLock(path string) (*UvLockProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read uv.lock: %w", err)
	}
	return DecodeUvLock(data)
}

// DecodeUvLock builds a provider from uv.lock contents
func DecodeUvLock(data []byte) (*UvLockProvider, error) {
	var lock uvLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse uv.lock: %w", err)
	}

	packages := make(map[string]Package, len(lock.Packages))
	parents := make(map[string][]string)

	for _, entry := range lock.Packages {
		name := NormalizeName(entry.Name)
		if name == "" {
			continue
		}
		key := Key(name)

		pkg, ok := packages[key]
		if !ok {
			pkg = Package{Name: name, Requires: []string{}, Found: true}
		}

		for _, dep := range entry.Dependencies {
			depName := NormalizeName(dep.Name)
			if depName == "" || containsKey(pkg.Requires, depName) {
				continue
			}
			pkg.Requires = append(pkg.Requires, depName)
			parents[Key(depName)] = append(parents[Key(depName)], name)
		}
		packages[key] = pkg
	}

	for key, pkg := range packages {
		requiredBy := dedupeNames(parents[key])
		sort.Strings(requiredBy)
		pkg.RequiredBy = requiredBy
		packages[key] = pkg
	}

	return &UvLockProvider{packages: packages}, nil
}

// Lookup returns the locked edges of name
func (u *UvLockProvider) Lookup(_ context.Context, name string) (Package, error) {
	pkg, ok := u.packages[Key(name)]
	if !ok {
		return missing(name), nil
	}
	return pkg, nil
}

// Len reports how many packages the lock describes
func (u *UvLockProvider) Len() int {
	return len(u.packages)
}

func containsKey(names []string, name string) bool {
	key := Key(name)
	for _, n := range names {
		if Key(n) == key {
			return true
		}
	}
	return false
}

func dedupeNames(names []string) []string {
	result := make([]string, 0, len(names))
	for _, n := range names {
		if !containsKey(result, n) {
			result = append(result, n)
		}
	}
	return result
}
