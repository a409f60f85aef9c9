// SPDX-License-Identifier: MPL-2.0

package imagecheck

import (
	"github.com/charmbracelet/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/ini.v1"
)

// CheckConfig extracts an INI-style configuration file from the archive,
// flattens it into "section.key" pairs, and reports every key outside the
// allow-list as a single error finding. The flattened mapping is returned so
// callers can act on individual values; the second return is false when the
// file is missing or unparseable.
func (c *Checker) CheckConfig(p string, allowedKeys []string) (map[string]string, bool) {
	e, ok := c.idx.Resolve(p)
	if !ok {
		c.report.Errorf(c.flavor, c.distro, "file %q not found in tar", p)
		return nil, false
	}
	content, err := c.idx.Extract(e)
	if err != nil {
		c.report.Errorf(c.flavor, c.distro, "file %q could not be extracted: %v", p, err)
		return nil, false
	}

	keys, err := flattenINI(content)
	if err != nil {
		c.report.Errorf(c.flavor, c.distro, "file %q is not a valid configuration file: %v", p, err)
		return nil, false
	}

	names := maps.Keys(keys)
	slices.Sort(names)

	var unexpected []string
	for _, key := range names {
		if !slices.Contains(allowedKeys, key) {
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		c.report.Errorf(c.flavor, c.distro, "found unexpected keys in %q: %v", p, unexpected)
	} else {
		log.Debug("found valid configuration keys", "path", p, "keys", names)
	}
	return keys, true
}

// flattenINI parses INI content and flattens every section into
// "section.key" pairs. Keys outside any section keep their bare name.
func flattenINI(content []byte) (map[string]string, error) {
	f, err := ini.Load(content)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]string)
	for _, sec := range f.Sections() {
		for _, k := range sec.Keys() {
			name := sec.Name() + "." + k.Name()
			if sec.Name() == ini.DefaultSection {
				name = k.Name()
			}
			keys[name] = k.Value()
		}
	}
	return keys, nil
}
