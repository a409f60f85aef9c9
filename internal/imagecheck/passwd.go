// SPDX-License-Identifier: MPL-2.0

package imagecheck

import (
	"strconv"
	"strings"
)

// passwdFieldCount is the number of colon-delimited fields in a well-formed
// passwd(5) line.
const passwdFieldCount = 7

// CheckPasswd validates a colon-delimited account database. Malformed lines
// and duplicate UIDs are errors and are skipped; a missing or misnamed
// uid 0 account is an error. When defaultUID is non-negative (the image's
// declared first-run user), an existing entry for it is a warning because
// the first-run user creation would collide.
func (c *Checker) CheckPasswd(content []byte, defaultUID int) {
	entries := make(map[int][]string)

	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != passwdFieldCount {
			c.report.Errorf(c.flavor, c.distro, "invalid passwd entry: %s", line)
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			c.report.Errorf(c.flavor, c.distro, "invalid passwd entry: %s", line)
			continue
		}
		if _, dup := entries[uid]; dup {
			c.report.Errorf(c.flavor, c.distro, "found duplicated uid in /etc/passwd: %d", uid)
			continue
		}
		entries[uid] = fields
	}

	root, ok := entries[0]
	switch {
	case !ok:
		c.report.Errorf(c.flavor, c.distro, "no root (uid=0) found in /etc/passwd")
	case root[0] != "root":
		c.report.Errorf(c.flavor, c.distro, "/etc/passwd has a uid=0 entry, but it is not root: %s", root[0])
	}

	if defaultUID >= 0 {
		if e, ok := entries[defaultUID]; ok {
			c.report.Warnf(c.flavor, c.distro, "/etc/passwd already has an entry for the default uid: %s", strings.Join(e, ":"))
		}
	}
}
