// SPDX-License-Identifier: MPL-2.0

// Package manifest reads and validates the distribution catalog manifest.
//
// The manifest maps distribution flavors (families) to lists of installable
// entries, each with a name, a default flag, and per-architecture download
// URLs carrying expected SHA-256 digests. The schema is closed: fields are
// enumerated here and unknown keys are rejected at the boundary through a
// JSON Schema rather than probed at runtime. A baseline revision of the
// manifest can be loaded from version control to skip entries that did not
// change.
package manifest

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"distrocheck-cli/internal/findings"
)

const (
	// ChangeNew marks an entry absent from the baseline.
	ChangeNew Change = iota
	// ChangeModified marks an entry that differs from its baseline version.
	ChangeModified
	// ChangeUnchanged marks an entry identical to its baseline version.
	ChangeUnchanged
)

type (
	// Change classifies an entry against a baseline manifest revision.
	Change int

	// URLRef is one architecture's download location and expected digest.
	URLRef struct {
		// Url is the artifact location: http(s), file:// or a bare path.
		Url string `json:"Url"`
		// Sha256 is the expected content digest as hex, optionally
		// "0x"-prefixed. Empty means undeclared, which is an error finding.
		Sha256 string `json:"Sha256,omitempty"`
	}

	// Entry is one installable distribution variant within a flavor.
	Entry struct {
		Name         string  `json:"Name,omitempty"`
		FriendlyName string  `json:"FriendlyName,omitempty"`
		Default      bool    `json:"Default,omitempty"`
		Amd64Url     *URLRef `json:"Amd64Url,omitempty"`
		Arm64Url     *URLRef `json:"Arm64Url,omitempty"`
	}

	// Manifest is the distribution catalog. Top-level keys other than
	// ModernDistributions belong to the legacy catalog and are ignored.
	Manifest struct {
		ModernDistributions map[string][]Entry `json:"ModernDistributions"`
	}
)

// Parse decodes manifest JSON. Structural schema violations are reported
// separately by ValidateSchema; Parse only fails on malformed JSON.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Classify compares an entry against the baseline entries of its flavor.
func Classify(baseline []Entry, e Entry) Change {
	for _, b := range baseline {
		if b.Name != e.Name {
			continue
		}
		if reflect.DeepEqual(b, e) {
			return ChangeUnchanged
		}
		return ChangeModified
	}
	return ChangeNew
}

// CheckEntry reports the static per-entry manifest findings: a missing
// friendly name and a name lacking the flavor prefix. The caller is expected
// to have rejected nameless entries already.
func CheckEntry(flavor string, e Entry, report *findings.Collector) {
	if e.FriendlyName == "" {
		report.Errorf(flavor, e.Name, "manifest entry is missing a \"FriendlyName\" entry")
	}
	if !strings.HasPrefix(e.Name, flavor) {
		report.Errorf(flavor, e.Name, "name should start with %q", flavor)
	}
}

// CheckDefaults enforces that exactly one entry per flavor carries the
// default flag.
func CheckDefaults(flavor string, entries []Entry, report *findings.Collector) {
	defaults := 0
	for _, e := range entries {
		if e.Default {
			defaults++
		}
	}
	switch {
	case defaults == 0:
		report.Errorf(flavor, "", "found no default distribution")
	case defaults > 1:
		report.Errorf(flavor, "", "found multiple default distributions")
	}
}
