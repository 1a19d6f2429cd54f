package orphans

import (
	"sort"

	"github.com/hannajonsd/pip-remove/metadata"
)

// Set is an insertion-ordered set of package names deduplicated by
// metadata.Key.
type Set struct {
	names []string
	index map[string]int
}

// NewSet creates a set holding names
func NewSet(names ...string) *Set {
	s := &Set{index: make(map[string]int)}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was not already present
func (s *Set) Add(name string) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	key := metadata.Key(name)
	if key == "" {
		return false
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.names)
	s.names = append(s.names, metadata.NormalizeName(name))
	return true
}

// Len returns the number of members
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the members in insertion order
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Sorted returns the members in case-insensitive alphabetical order
func (s *Set) Sorted() []string {
	out := s.Names()
	sort.Slice(out, func(i, j int) bool {
		return metadata.Key(out[i]) < metadata.Key(out[j])
	})
	return out
}
