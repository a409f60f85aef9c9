// SPDX-License-Identifier: MPL-2.0

package findings

import "testing"

func TestCollectorOrdering(t *testing.T) {
	c := NewCollector()
	c.Warnf("Ubuntu", "Ubuntu-24.04", "mode drift on %s", "/etc/passwd")
	c.Errorf("Ubuntu", "Ubuntu-24.04", "digest mismatch")
	c.Errorf("Debian", "", "no default distribution")

	all := c.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(all))
	}
	if all[0].Severity != SeverityWarning || all[0].Message != "mode drift on /etc/passwd" {
		t.Errorf("unexpected first finding: %+v", all[0])
	}
	if all[1].Severity != SeverityError {
		t.Errorf("expected second finding to be an error, got %+v", all[1])
	}
	if all[2].Flavor != "Debian" || all[2].Distro != "" {
		t.Errorf("unexpected third finding: %+v", all[2])
	}
}

func TestCollectorHasErrors(t *testing.T) {
	c := NewCollector()
	if c.HasErrors() {
		t.Error("empty collector should not report errors")
	}

	c.Warnf("Ubuntu", "", "advisory only")
	if c.HasErrors() {
		t.Error("warnings must not count as errors")
	}

	c.Errorf("Ubuntu", "", "rejected")
	if !c.HasErrors() {
		t.Error("expected HasErrors after an error finding")
	}
	if len(c.Errors()) != 1 {
		t.Errorf("expected 1 error finding, got %d", len(c.Errors()))
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 findings total, got %d", c.Len())
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := NewCollector()
	c.Errorf("Ubuntu", "", "original")

	all := c.All()
	all[0].Message = "mutated"

	if c.All()[0].Message != "original" {
		t.Error("All must return a copy, not the backing slice")
	}
}
