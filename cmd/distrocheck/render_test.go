// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"distrocheck-cli/internal/findings"
)

func TestRenderFindings(t *testing.T) {
	report := findings.NewCollector()
	report.Warnf("Test", "Test-1", "file %q has unexpected mode", "/etc/shadow")
	report.Errorf("Test", "", "found no default distribution")

	var buf bytes.Buffer
	renderFindings(&buf, report)
	out := buf.String()

	if !strings.Contains(out, "in: Test, distribution: Test-1: file \"/etc/shadow\" has unexpected mode") {
		t.Errorf("missing warning line in output:\n%s", out)
	}
	if !strings.Contains(out, "in: Test, distribution: <none>: found no default distribution") {
		t.Errorf("missing flavor-level error line in output:\n%s", out)
	}
	if !strings.Contains(out, "Validation failed: 1 error(s), 1 warning(s)") {
		t.Errorf("missing summary line in output:\n%s", out)
	}
}

func TestRenderFindingsSummaryOnly(t *testing.T) {
	var buf bytes.Buffer
	renderFindings(&buf, findings.NewCollector())
	if !strings.Contains(buf.String(), "Validation passed") {
		t.Errorf("expected a pass summary, got:\n%s", buf.String())
	}

	report := findings.NewCollector()
	report.Warnf("Test", "Test-1", "drift")
	buf.Reset()
	renderFindings(&buf, report)
	if !strings.Contains(buf.String(), "Validation passed with 1 warning(s)") {
		t.Errorf("expected a pass-with-warnings summary, got:\n%s", buf.String())
	}
}
