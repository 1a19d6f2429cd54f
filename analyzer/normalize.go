package analyzer

import (
	"sort"
	"strings"

	"github.com/hannajonsd/pip-remove/parser"
)

// topLevelModule returns the first segment of a dotted import path. Relative
// imports have no top-level module and yield "".
func topLevelModule(importPath string) string {
	importPath = strings.TrimSpace(importPath)
	if importPath == "" || strings.HasPrefix(importPath, ".") {
		return ""
	}

	parts := strings.Split(importPath, ".")
	return strings.TrimSpace(parts[0])
}

// topLevelModules reduces parsed imports to their distinct top-level modules
func topLevelModules(imports []parser.PackageImport) []string {
	seen := make(map[string]bool)
	var modules []string

	for _, imp := range imports {
		if imp.ImportType == "relative_import" {
			continue
		}
		module := topLevelModule(imp.ModuleName)
		if module != "" && !seen[module] {
			seen[module] = true
			modules = append(modules, module)
		}
	}

	return modules
}

// sortedFiles returns the keys of a file map in sorted order
func sortedFiles(files map[string][]string) []string {
	keys := make([]string, 0, len(files))
	for file := range files {
		keys = append(keys, file)
	}
	sort.Strings(keys)
	return keys
}
