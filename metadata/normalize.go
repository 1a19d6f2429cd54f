package metadata

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var separatorRun = regexp.MustCompile(`[-_.]+`)

// NormalizeName strips version specifiers and environment markers from a
// requirement string, returning the bare distribution name.
func NormalizeName(requirement string) string {
	name := requirement
	if idx := strings.IndexAny(name, "<>;="); idx != -1 {
		name = name[:idx]
	}
	if idx := strings.IndexAny(name, "[(~!@ "); idx != -1 && strings.TrimSpace(name[:idx]) != "" {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// NormalizeAll normalizes every entry and drops the ones that end up empty.
func NormalizeAll(requirements []string) []string {
	names := make([]string, 0, len(requirements))
	for _, req := range requirements {
		if name := NormalizeName(req); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Key returns the case-insensitive identity of a package name. Two names with
// the same key refer to the same installed distribution.
func Key(name string) string {
	// A Caser carries state, so each call gets its own.
	folded := cases.Fold().String(NormalizeName(name))
	return separatorRun.ReplaceAllString(folded, "-")
}
