package analyzer

import (
	"github.com/hannajonsd/pip-remove/environment"
	"github.com/hannajonsd/pip-remove/manifest"
	"github.com/hannajonsd/pip-remove/orphans"
	"github.com/hannajonsd/pip-remove/reachability"
)

// NoticeKind classifies a warning attached to a Report
type NoticeKind string

const (
	NoticeUntrackedProject       NoticeKind = "untracked_project"
	NoticeParseFailure           NoticeKind = "parse_failure"
	NoticeNotIsolatedEnvironment NoticeKind = "not_isolated_environment"
	NoticeScanDisabled           NoticeKind = "scan_disabled"
	NoticeTargetNotInstalled     NoticeKind = "target_not_installed"
	NoticeManifestUnavailable    NoticeKind = "manifest_unavailable"
)

// Notice is a non-fatal condition the caller should surface to the user
type Notice struct {
	Kind    NoticeKind
	Message string
	Files   []string
}

// Report is the outcome of analyzing one removal target
type Report struct {
	Target      string
	TargetFound bool
	Environment environment.Info

	// Orphans is every package left without a parent, in discovery order.
	Orphans []string

	// Usage is nil when partitioning was skipped.
	Usage *reachability.Usage

	// Unresolved holds the orphans whose usage could not be determined.
	Unresolved []string

	// Declared lists unused orphans the project's manifests still name.
	Declared []manifest.Requirement

	Notices []Notice
}

// HasNotice reports whether a notice of the given kind was recorded
func (r *Report) HasNotice(kind NoticeKind) bool {
	for _, n := range r.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// Unused returns the orphans nothing in the project imports
func (r *Report) Unused() []string {
	if r.Usage == nil {
		return nil
	}
	return r.Usage.Unused
}

// Removable returns the target followed by every orphan that is not known to
// be imported by the project.
func (r *Report) Removable() []string {
	names := orphans.NewSet(r.Target)
	for _, name := range r.Unused() {
		names.Add(name)
	}
	for _, name := range r.Unresolved {
		names.Add(name)
	}
	return names.Names()
}

func (r *Report) notice(kind NoticeKind, message string, files ...string) {
	r.Notices = append(r.Notices, Notice{Kind: kind, Message: message, Files: files})
}
