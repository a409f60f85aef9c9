// SPDX-License-Identifier: MPL-2.0

// Package imagecheck inspects a root-filesystem archive against the
// distribution packaging contract: filesystem layout, ownership, permission
// bits, binary signatures, embedded configuration files, the account
// database, and boot-time enabled systemd units.
//
// All checks report through a findings collector and never abort the run:
// mode and owner drift are warnings, while missing required files, size
// overruns, signature mismatches and malformed content are errors.
package imagecheck

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"distrocheck-cli/internal/findings"
	"distrocheck-cli/internal/tarindex"
)

// maxRuleHops bounds symlink redirections while validating a single path.
// Mirrors the archive index hop limit so a link cycle inside the image
// cannot recurse forever.
const maxRuleHops = 8

type (
	// Rule is a declarative expectation for one logical path inside the
	// archive. Rules are stateless values constructed per check.
	Rule struct {
		// Path is the logical rooted path to validate.
		Path string
		// Modes is the set of accepted permission bit patterns.
		Modes []fs.FileMode
		// UID is the expected owning user id.
		UID int
		// GID is the expected owning group id. A negative value disables
		// the group check.
		GID int
		// MaxSize is the size ceiling in bytes; zero means unlimited.
		MaxSize int64
		// Optional suppresses the missing-file error.
		Optional bool
		// FollowSymlink validates the link target's attributes instead of
		// the link's own.
		FollowSymlink bool
		// Signature, when non-empty, is the expected binary descriptor for
		// the entry's content (see Descriptor).
		Signature string
		// Parse, when non-nil, receives the extracted content for
		// structural validation. It may emit findings of its own.
		Parse func(content []byte)
	}

	// Option configures a Checker.
	Option func(*Checker)

	// Checker runs the packaging contract against one archive on behalf of
	// one (flavor, distribution) pair.
	Checker struct {
		idx          *tarindex.Index
		report       *findings.Collector
		flavor       string
		distro       string
		elfSignature string
		discouraged  []string
	}
)

// WithDiscouragedUnits adds extra unit names to the discouraged-unit list.
func WithDiscouragedUnits(units []string) Option {
	return func(c *Checker) {
		c.discouraged = append(c.discouraged, units...)
	}
}

// New returns a Checker reporting findings for the given flavor and
// distribution name. elfSignature selects the binary descriptor expected of
// the image's executables (SignatureELFAmd64 or SignatureELFArm64).
func New(idx *tarindex.Index, report *findings.Collector, flavor, distro, elfSignature string, opts ...Option) *Checker {
	c := &Checker{
		idx:          idx,
		report:       report,
		flavor:       flavor,
		distro:       distro,
		elfSignature: elfSignature,
		discouraged:  defaultDiscouragedUnits,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckRule validates one path against its rule, emitting findings as a side
// effect. It returns whether the path was found at all, so callers can gate
// follow-up checks on the file's presence.
func (c *Checker) CheckRule(r Rule) bool {
	return c.checkRule(r, 0)
}

func (c *Checker) checkRule(r Rule, hops int) bool {
	if hops >= maxRuleHops {
		c.report.Errorf(c.flavor, c.distro, "too many levels of symbolic links while resolving %q", r.Path)
		return false
	}

	e, ok := c.idx.Resolve(r.Path)
	if !ok {
		// The path may be covered by a symlinked parent directory, e.g.
		// /bin -> usr/bin with only ./usr/bin/bash in the archive.
		if parent := path.Dir(r.Path); parent != r.Path {
			if pe, found := c.idx.Resolve(parent); found && pe.IsSymlink {
				redirected := r
				redirected.Path = path.Join(tarindex.LinkPath(pe), path.Base(r.Path))
				redirected.FollowSymlink = true
				return c.checkRule(redirected, hops+1)
			}
		}
		if !r.Optional {
			c.report.Errorf(c.flavor, c.distro, "file %q not found in tar", r.Path)
		}
		return false
	}

	if r.FollowSymlink && e.IsSymlink {
		redirected := r
		redirected.Path = tarindex.LinkPath(e)
		return c.checkRule(redirected, hops+1)
	}

	if !containsMode(r.Modes, e.Mode) {
		c.report.Warnf(c.flavor, c.distro, "file %q has unexpected mode: %04o (expected one of: %s)",
			r.Path, e.Mode, formatModes(r.Modes))
	}
	if e.UID != r.UID {
		c.report.Warnf(c.flavor, c.distro, "file %q has unexpected uid: %d (expected: %d)", r.Path, e.UID, r.UID)
	}
	if r.GID >= 0 && e.GID != r.GID {
		c.report.Warnf(c.flavor, c.distro, "file %q has unexpected gid: %d (expected: %d)", r.Path, e.GID, r.GID)
	}
	if r.MaxSize > 0 && e.Size > r.MaxSize {
		c.report.Errorf(c.flavor, c.distro, "file %q is too big: %d bytes (max: %d)", r.Path, e.Size, r.MaxSize)
	}

	if r.Signature != "" || r.Parse != nil {
		content, err := c.idx.Extract(e)
		if err != nil {
			c.report.Errorf(c.flavor, c.distro, "file %q could not be extracted: %v", r.Path, err)
			return true
		}
		if r.Parse != nil {
			r.Parse(content)
		}
		if r.Signature != "" {
			if actual := Descriptor(content); actual != r.Signature {
				c.report.Errorf(c.flavor, c.distro, "file %q has unexpected binary signature: %s (expected: %s)",
					r.Path, actual, r.Signature)
			}
		}
	}
	return true
}

func containsMode(modes []fs.FileMode, m fs.FileMode) bool {
	for _, accepted := range modes {
		if accepted == m {
			return true
		}
	}
	return false
}

func formatModes(modes []fs.FileMode) string {
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = fmt.Sprintf("%04o", m)
	}
	return strings.Join(parts, ", ")
}
