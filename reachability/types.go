package reachability

import "sort"

// ImportIndex maps a source file path, relative to the scanned root, to the
// set of top-level module names it imports.
type ImportIndex map[string]map[string]struct{}

// Add records that file imports module. An empty module only registers the file.
func (idx ImportIndex) Add(file, module string) {
	modules, ok := idx[file]
	if !ok {
		modules = make(map[string]struct{})
		idx[file] = modules
	}
	if module != "" {
		modules[module] = struct{}{}
	}
}

// Merge copies every entry of other into idx
func (idx ImportIndex) Merge(other ImportIndex) {
	for file, modules := range other {
		idx.Add(file, "")
		for module := range modules {
			idx.Add(file, module)
		}
	}
}

// Files returns the indexed file paths in sorted order
func (idx ImportIndex) Files() []string {
	return sortedKeys(idx)
}

// Modules returns the modules file imports in sorted order
func (idx ImportIndex) Modules(file string) []string {
	return sortedKeys(idx[file])
}

// Usage is the split of an orphan set into names the project imports and
// names nothing references.
type Usage struct {
	Used   map[string][]string // file -> orphans imported there
	Unused []string
}

// UsedNames returns every orphan imported by at least one file
func (u Usage) UsedNames() []string {
	var names []string
	for _, file := range sortedKeys(u.Used) {
		names = append(names, u.Used[file]...)
	}
	names = DeduplicateSlice(names)
	sort.Strings(names)
	return names
}
