// Package reachability cross-references orphaned packages with the modules
// a project's source imports.
package reachability

import "github.com/hannajonsd/pip-remove/metadata"

// Partition splits orphans into the ones some file imports and the ones no
// file imports. Matching is an exact, case-sensitive comparison between the
// imported top-level module and the normalized orphan name. Every orphan ends
// up in exactly one of Used (flattened) or Unused.
func Partition(orphans []string, imports ImportIndex) Usage {
	candidates := make(map[string]bool, len(orphans))
	var ordered []string
	for _, orphan := range orphans {
		name := metadata.NormalizeName(orphan)
		if name == "" || candidates[name] {
			continue
		}
		candidates[name] = true
		ordered = append(ordered, name)
	}

	used := make(map[string][]string)
	referenced := make(map[string]bool)

	for _, file := range imports.Files() {
		for _, module := range imports.Modules(file) {
			if !candidates[module] {
				continue
			}
			used[file] = append(used[file], module)
			referenced[module] = true
		}
	}

	unused := make([]string, 0, len(ordered))
	for _, name := range ordered {
		if !referenced[name] {
			unused = append(unused, name)
		}
	}

	return Usage{Used: used, Unused: unused}
}
