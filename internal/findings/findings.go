// SPDX-License-Identifier: MPL-2.0

// Package findings accumulates validation findings for a manifest run.
//
// A Finding is an immutable record of one problem detected while validating
// a distribution entry. Findings come in two severities: errors mean the
// manifest or image must be rejected, warnings are advisory drift that does
// not affect the run's exit status. Validators append findings through a
// Collector instead of printing, so callers (and tests) can inspect the
// complete result of a run.
package findings

import (
	"fmt"
	"slices"
)

const (
	// SeverityError marks a finding that rejects the manifest or image.
	SeverityError Severity = "error"
	// SeverityWarning marks advisory drift that never affects exit status.
	SeverityWarning Severity = "warning"
)

type (
	// Severity classifies a finding as rejecting or advisory.
	Severity string

	// Finding is one immutable validation result.
	Finding struct {
		// Severity is SeverityError or SeverityWarning.
		Severity Severity
		// Flavor is the distribution family the finding belongs to.
		Flavor string
		// Distro is the distribution name within the flavor.
		// Empty when the finding applies to the whole flavor.
		Distro string
		// Message is the human-readable description.
		Message string
	}

	// Collector is an append-only sink of findings. The zero value is not
	// usable; construct with NewCollector. Collector is not safe for
	// concurrent use: the run validates entries strictly sequentially.
	Collector struct {
		findings []Finding
	}
)

// NewCollector returns an empty findings collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Errorf records an error-severity finding for the given flavor/distro.
func (c *Collector) Errorf(flavor, distro, format string, args ...any) {
	c.findings = append(c.findings, Finding{
		Severity: SeverityError,
		Flavor:   flavor,
		Distro:   distro,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf records a warning-severity finding for the given flavor/distro.
func (c *Collector) Warnf(flavor, distro, format string, args ...any) {
	c.findings = append(c.findings, Finding{
		Severity: SeverityWarning,
		Flavor:   flavor,
		Distro:   distro,
		Message:  fmt.Sprintf(format, args...),
	})
}

// All returns the recorded findings in insertion order.
func (c *Collector) All() []Finding {
	return slices.Clone(c.findings)
}

// Errors returns only the error-severity findings, in insertion order.
func (c *Collector) Errors() []Finding {
	var errs []Finding
	for _, f := range c.findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errs
}

// HasErrors reports whether at least one error-severity finding was recorded.
// This is the run's overall pass/fail condition.
func (c *Collector) HasErrors() bool {
	return len(c.Errors()) > 0
}

// Len returns the total number of recorded findings.
func (c *Collector) Len() int {
	return len(c.findings)
}
