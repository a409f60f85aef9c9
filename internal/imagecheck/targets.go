// SPDX-License-Identifier: MPL-2.0

package imagecheck

import (
	"io/fs"
	"strconv"
	"strings"
)

const (
	// systemDir is where distribution-provided assets (OOBE command, icons,
	// terminal profiles) are expected to live.
	systemDir = "/usr/lib/wsl"

	// maxAssetSize caps icons and terminal profile templates at 1 MiB.
	maxAssetSize = 1 << 20

	// expectedDefaultUID is the conventional first-run user id.
	expectedDefaultUID = "1000"
)

var (
	// distributionConfKeys is the allow-list for /etc/wsl-distribution.conf.
	distributionConfKeys = []string{
		"oobe.command",
		"oobe.defaultuid",
		"shortcut.icon",
		"oobe.defaultname",
		"windowsterminal.profileTemplate",
	}

	// wslConfKeys is the allow-list for /etc/wsl.conf.
	wslConfKeys = []string{"boot.systemd"}
)

// Run executes the full packaging contract against the archive: the
// distribution and WSL configuration files, the account databases, the
// shells, and the boot-time enabled systemd units.
func (c *Checker) Run() {
	defaultUID := -1

	if c.CheckRule(Rule{Path: "/etc/wsl-distribution.conf", Modes: []fs.FileMode{0o664, 0o644}, UID: 0, GID: 0}) {
		if cfg, ok := c.CheckConfig("/etc/wsl-distribution.conf", distributionConfKeys); ok {
			if command := cfg["oobe.command"]; command != "" {
				c.CheckRule(Rule{Path: command, Modes: []fs.FileMode{0o775, 0o755}, UID: 0, GID: 0})
				c.checkUnderSystemDir("oobe.command", command)
			}

			if raw := cfg["oobe.defaultuid"]; raw != "" {
				if raw != expectedDefaultUID {
					c.report.Warnf(c.flavor, c.distro, "default UID is not %s: %s", expectedDefaultUID, raw)
				}
				uid, err := strconv.Atoi(raw)
				if err != nil {
					c.report.Errorf(c.flavor, c.distro, "invalid oobe.defaultuid value: %q", raw)
				} else {
					defaultUID = uid
				}
			}

			if icon := cfg["shortcut.icon"]; icon != "" {
				c.CheckRule(Rule{Path: icon, Modes: []fs.FileMode{0o660, 0o640}, UID: 0, GID: 0, MaxSize: maxAssetSize})
				c.checkUnderSystemDir("shortcut.icon", icon)
			}

			if profile := cfg["windowsterminal.profileTemplate"]; profile != "" {
				c.CheckRule(Rule{Path: profile, Modes: []fs.FileMode{0o660, 0o640}, UID: 0, GID: 0, MaxSize: maxAssetSize})
				c.checkUnderSystemDir("windowsterminal.profileTemplate", profile)
			}
		}
	}

	if c.CheckRule(Rule{Path: "/etc/wsl.conf", Modes: []fs.FileMode{0o664, 0o644}, UID: 0, GID: 0, Optional: true}) {
		if cfg, ok := c.CheckConfig("/etc/wsl.conf", wslConfKeys); ok && isTruthy(cfg["boot.systemd"]) {
			c.CheckRule(Rule{Path: "/sbin/init", Modes: []fs.FileMode{0o775, 0o755}, UID: 0, GID: 0, Signature: c.elfSignature})
		}
	}

	c.CheckRule(Rule{
		Path:  "/etc/passwd",
		Modes: []fs.FileMode{0o664, 0o644},
		UID:   0,
		GID:   0,
		Parse: func(content []byte) { c.CheckPasswd(content, defaultUID) },
	})
	c.CheckRule(Rule{Path: "/etc/shadow", Modes: []fs.FileMode{0o640, 0o600}, UID: 0, GID: -1})
	c.CheckRule(Rule{Path: "/bin/bash", Modes: []fs.FileMode{0o755, 0o775}, UID: 0, GID: 0, Signature: c.elfSignature, FollowSymlink: true})
	c.CheckRule(Rule{Path: "/bin/sh", Modes: []fs.FileMode{0o755, 0o775}, UID: 0, GID: 0, Signature: c.elfSignature, FollowSymlink: true})

	c.checkEnabledUnits()
}

// checkUnderSystemDir warns when a configured asset path escapes the fixed
// system directory.
func (c *Checker) checkUnderSystemDir(key, value string) {
	if !strings.HasPrefix(value, systemDir) {
		c.report.Warnf(c.flavor, c.distro, "value for %s is not under %s: %q", key, systemDir, value)
	}
}

// isTruthy interprets an INI boolean the way systemd-style configs do.
func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true
	default:
		return false
	}
}
