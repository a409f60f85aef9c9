// SPDX-License-Identifier: MPL-2.0

package imagecheck

import (
	"testing"

	"distrocheck-cli/internal/findings"
	"distrocheck-cli/internal/testutil"
)

func TestRunCleanImage(t *testing.T) {
	members := testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64))
	c, report := newChecker(t, members)

	c.Run()
	if report.Len() != 0 {
		t.Errorf("expected a clean image to produce no findings, got %v", messages(report))
	}
}

func TestRunMissingDistributionConf(t *testing.T) {
	c, report := newChecker(t, nil)

	c.Run()
	requireFinding(t, report, findings.SeverityError, `file "/etc/wsl-distribution.conf" not found in tar`)
	// The optional /etc/wsl.conf must not be reported.
	for _, f := range report.All() {
		if f.Message == `file "/etc/wsl.conf" not found in tar` {
			t.Error("missing optional /etc/wsl.conf must be silent")
		}
	}
}

func TestRunBootSystemdGatesInitCheck(t *testing.T) {
	members := append(testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64)),
		testutil.TarMember{Name: "./etc/wsl.conf", Mode: 0o644, Content: []byte("[boot]\nsystemd = true\n")})
	c, report := newChecker(t, members)

	c.Run()
	requireFinding(t, report, findings.SeverityError, `file "/sbin/init" not found in tar`)
}

func TestRunBootSystemdDisabledSkipsInitCheck(t *testing.T) {
	members := append(testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64)),
		testutil.TarMember{Name: "./etc/wsl.conf", Mode: 0o644, Content: []byte("[boot]\nsystemd = false\n")})
	c, report := newChecker(t, members)

	c.Run()
	if report.Len() != 0 {
		t.Errorf("expected no findings when systemd boot is disabled, got %v", messages(report))
	}
}

func TestRunAssetPathOutsideSystemDir(t *testing.T) {
	conf := "[oobe]\ncommand = /opt/oobe.sh\ndefaultuid = 1000\n"
	members := testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64))
	members[1].Content = []byte(conf)
	members = append(members, testutil.TarMember{Name: "./opt/oobe.sh", Mode: 0o755, Content: []byte("#!/bin/sh\n")})
	c, report := newChecker(t, members)

	c.Run()
	requireFinding(t, report, findings.SeverityWarning, "value for oobe.command is not under /usr/lib/wsl")
	if report.HasErrors() {
		t.Errorf("path drift is advisory, got %v", messages(report))
	}
}

func TestRunNonStandardDefaultUID(t *testing.T) {
	conf := "[oobe]\ndefaultuid = 1001\n"
	members := testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64))
	members[1].Content = []byte(conf)
	c, report := newChecker(t, members)

	c.Run()
	requireFinding(t, report, findings.SeverityWarning, "default UID is not 1000: 1001")
}

func TestRunDefaultUIDCollision(t *testing.T) {
	members := testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64))
	// The passwd database already contains the declared first-run uid.
	members[2].Content = []byte("root:x:0:0:root:/root:/bin/bash\nuser:x:1000:1000::/home/user:/bin/bash\n")
	c, report := newChecker(t, members)

	c.Run()
	requireFinding(t, report, findings.SeverityWarning, "already has an entry for the default uid")
}

func TestRunUnexpectedConfigKey(t *testing.T) {
	conf := "[oobe]\ndefaultuid = 1000\n[boot]\ncommand = /evil\n"
	members := testutil.ImageMembers(testutil.ELFBinary(testutil.MachineAmd64))
	members[1].Content = []byte(conf)
	c, report := newChecker(t, members)

	c.Run()
	requireFinding(t, report, findings.SeverityError, `found unexpected keys in "/etc/wsl-distribution.conf"`)
}
