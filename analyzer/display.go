package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hannajonsd/pip-remove/orphans"
)

// PrintReport writes a human readable summary of report to w
func PrintReport(w io.Writer, report *Report) {
	warn := color.New(color.FgYellow)
	bold := color.New(color.Bold)

	for _, n := range report.Notices {
		warn.Fprintf(w, "warning: %s\n", n.Message)
		for _, file := range n.Files {
			fmt.Fprintf(w, "  - %s\n", file)
		}
	}

	if !report.TargetFound {
		return
	}

	if len(report.Orphans) == 0 {
		fmt.Fprintf(w, "No orphaned dependencies for %s\n", report.Target)
		return
	}

	bold.Fprintf(w, "Orphaned dependencies of %s (%d):\n", report.Target, len(report.Orphans))
	fmt.Fprintf(w, "  %s\n", strings.Join(orphans.NewSet(report.Orphans...).Sorted(), ", "))

	if report.Usage != nil && len(report.Usage.Used) > 0 {
		fmt.Fprintln(w)
		color.New(color.FgRed).Fprintln(w, "Still imported by the project (kept):")
		fmt.Fprintln(w, usageTable(report))
	}

	if len(report.Unresolved) > 0 {
		fmt.Fprintln(w)
		warn.Fprintf(w, "Usage unknown (%d): %s\n", len(report.Unresolved), strings.Join(report.Unresolved, ", "))
	}

	if len(report.Declared) > 0 {
		fmt.Fprintln(w)
		warn.Fprintln(w, "Declared in project manifests:")
		for _, req := range report.Declared {
			fmt.Fprintf(w, "  - %s (%s)\n", req.Spec, req.Source)
		}
	}

	fmt.Fprintln(w)
	color.New(color.FgGreen).Fprintf(w, "Will remove: %s\n", strings.Join(report.Removable(), ", "))
}

// usageTable renders the used orphans grouped by importing file
func usageTable(report *Report) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Imports"})

	for _, file := range sortedFiles(report.Usage.Used) {
		tbl.AppendRow(table.Row{file, strings.Join(report.Usage.Used[file], ", ")})
	}

	tbl.AppendFooter(table.Row{"Total", fmt.Sprintf("%d packages", len(report.Usage.UsedNames()))})

	return tbl.Render()
}
