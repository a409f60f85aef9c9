// SPDX-License-Identifier: MPL-2.0

package imagecheck

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"distrocheck-cli/internal/tarindex"
)

// unitSearchPaths are the canonical systemd unit search roots scanned for
// ".target.wants" directories.
var unitSearchPaths = []string{
	"/usr/local/lib/systemd/system",
	"/usr/lib/systemd/system",
	"/etc/systemd/system",
}

// defaultDiscouragedUnits are units that conflict with the platform's own
// network and tmpfiles management when enabled inside an image.
var defaultDiscouragedUnits = []string{
	"systemd-resolved.service",
	"systemd-networkd.service",
	"systemd-tmpfiles-setup.service",
	"systemd-tmpfiles-clean.service",
	"systemd-tmpfiles-setup-dev-early.service",
	"systemd-tmpfiles-setup-dev.service",
	"tmp.mount",
	"NetworkManager.service",
	"networking.service",
}

// ScanEnabledUnits approximates the set of units that will run at boot by
// listing "*.target.wants" directories under the systemd search roots and
// resolving each member one symlink hop. A member linking to /dev/null is
// masked and excluded. The result maps unit filename to the path it was
// enabled from; the last listing for a given name wins. This is a deliberate
// approximation, not a full systemd unit-override resolution.
func (c *Checker) ScanEnabledUnits() map[string]string {
	units := make(map[string]string)
	for _, dir := range unitSearchPaths {
		for _, name := range c.idx.List(dir) {
			if !strings.HasSuffix(name, ".target.wants") {
				continue
			}
			wantsDir := dir + "/" + name
			for _, member := range c.idx.List(wantsDir) {
				full := wantsDir + "/" + member
				e, ok := c.idx.Resolve(full)
				if !ok {
					continue
				}
				target := full
				if e.IsSymlink {
					target = tarindex.LinkPath(e)
				}
				if target == "/dev/null" {
					continue
				}
				units[member] = full
			}
		}
	}
	return units
}

// checkEnabledUnits warns about every enabled unit on the discouraged list.
func (c *Checker) checkEnabledUnits() {
	units := c.ScanEnabledUnits()

	names := maps.Keys(units)
	slices.Sort(names)
	for _, unit := range names {
		if slices.Contains(c.discouraged, unit) {
			c.report.Warnf(c.flavor, c.distro, "found discouraged system unit: %s", units[unit])
		}
	}
}
