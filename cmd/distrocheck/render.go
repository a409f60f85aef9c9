// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"distrocheck-cli/internal/findings"
)

// renderFindings writes every recorded finding in insertion order, followed
// by a one-line summary.
func renderFindings(w io.Writer, report *findings.Collector) {
	errs, warns := 0, 0
	for _, f := range report.All() {
		distro := f.Distro
		if distro == "" {
			distro = "<none>"
		}
		line := fmt.Sprintf("in: %s, distribution: %s: %s", f.Flavor, distro, f.Message)
		switch f.Severity {
		case findings.SeverityError:
			errs++
			fmt.Fprintln(w, ErrorStyle.Render("Error ")+line)
		case findings.SeverityWarning:
			warns++
			fmt.Fprintln(w, WarningStyle.Render("Warning ")+line)
		}
	}

	switch {
	case errs > 0:
		fmt.Fprintln(w, ErrorStyle.Render(fmt.Sprintf("Validation failed: %d error(s), %d warning(s)", errs, warns)))
	case warns > 0:
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("Validation passed with %d warning(s)", warns)))
	default:
		fmt.Fprintln(w, SuccessStyle.Render("Validation passed"))
	}
}
