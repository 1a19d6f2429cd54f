package orphans

import (
	"sync"

	"github.com/hannajonsd/pip-remove/metadata"
)

// visitedSet is a thread-safe set of package keys
type visitedSet struct {
	mu sync.Mutex
	m  map[string]bool
}

func newVisitedSet() *visitedSet {
	return &visitedSet{
		m: make(map[string]bool),
	}
}

// markVisited records name and reports whether it was newly added
func (vs *visitedSet) markVisited(name string) bool {
	key := metadata.Key(name)

	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.m[key] {
		return false
	}
	vs.m[key] = true
	return true
}
