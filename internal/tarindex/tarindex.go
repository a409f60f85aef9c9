// SPDX-License-Identifier: MPL-2.0

// Package tarindex resolves logical paths inside a root-filesystem tar
// archive.
//
// Distribution images store the same tree under several equivalent path
// encodings: "/etc/passwd", "./etc/passwd" and "etc/passwd" all name the same
// file. Every lookup therefore tries the literal path first and then the
// rooted-prefix variants before reporting absence. Symlink members are
// resolved one hop at a time with a bounded hop count so that cyclic links
// inside a hostile archive can never recurse forever.
package tarindex

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	// ResolutionFound means the link chain ended on a real entry.
	ResolutionFound ResolutionState = iota
	// ResolutionNotFound means a link target does not exist in the archive.
	ResolutionNotFound
	// ResolutionCycle means the hop limit was exhausted before reaching a
	// non-symlink entry.
	ResolutionCycle
)

// maxLinkHops bounds symlink chains during resolution. Eight hops is far
// beyond anything a well-formed image needs.
const maxLinkHops = 8

// maxExtractSize caps how much of a single member Extract will read.
// The validated files (configs, passwd, shell binaries) are all well below
// this; anything larger is not something we want in memory.
const maxExtractSize = 64 << 20

// ErrNotFound is returned when a path cannot be resolved under any of the
// supported root-prefix encodings.
var ErrNotFound = errors.New("path not found in archive")

type (
	// Entry is an immutable view of one archive member. Entries are owned by
	// the Index they came from and stay valid for its lifetime.
	Entry struct {
		// Name is the member name exactly as stored in the archive.
		Name string
		// Mode holds the permission bits (no type bits).
		Mode fs.FileMode
		// UID and GID identify the owning user and group.
		UID int
		GID int
		// Size is the member's byte size.
		Size int64
		// IsSymlink reports whether the member is a symbolic link.
		IsSymlink bool
		// IsDir reports whether the member is a directory.
		IsDir bool
		// LinkTarget is the raw symlink target, empty for non-links.
		LinkTarget string
	}

	// ResolutionState tags the outcome of a symlink resolution.
	ResolutionState int

	// Resolution is the tagged result of resolving a symlink chain.
	Resolution struct {
		State ResolutionState
		// Entry is the final entry when State is ResolutionFound.
		Entry *Entry
		// Target is the last logical path the resolution attempted,
		// useful for reporting when State is not ResolutionFound.
		Target string
	}

	// Index provides path lookups over a tar byte stream. The stream must be
	// seekable: member content is extracted lazily by re-scanning, so large
	// images never need to be held in memory.
	Index struct {
		src     io.ReadSeeker
		entries map[string]*Entry
		names   []string
	}
)

// New scans the archive at src and builds a path index. The stream may be a
// raw tar or a gzip/zstd compressed one; compression is sniffed from the
// leading magic bytes. src is left positioned at an unspecified offset.
func New(src io.ReadSeeker) (*Index, error) {
	idx := &Index{src: src, entries: make(map[string]*Entry)}

	tr, err := idx.rewind()
	if err != nil {
		return nil, err
	}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		name := strings.TrimSuffix(hdr.Name, "/")
		if name == "" {
			continue
		}
		e := &Entry{
			Name:       name,
			Mode:       fs.FileMode(hdr.Mode).Perm(),
			UID:        hdr.Uid,
			GID:        hdr.Gid,
			Size:       hdr.Size,
			IsSymlink:  hdr.Typeflag == tar.TypeSymlink,
			IsDir:      hdr.Typeflag == tar.TypeDir,
			LinkTarget: hdr.Linkname,
		}
		if _, seen := idx.entries[name]; !seen {
			idx.names = append(idx.names, name)
		}
		// Later members override earlier ones, matching tar extraction.
		idx.entries[name] = e
	}
	return idx, nil
}

// rewind seeks the source back to the start and returns a fresh tar reader,
// re-sniffing compression each time.
func (idx *Index) rewind() (*tar.Reader, error) {
	if _, err := idx.src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}
	var magic [4]byte
	n, err := io.ReadFull(idx.src, magic[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("sniff archive: %w", err)
	}
	if _, err := idx.src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	var r io.Reader = idx.src
	switch {
	case n >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gz, err := gzip.NewReader(idx.src)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		r = gz
	case n >= 4 && bytes.Equal(magic[:], []byte{0x28, 0xb5, 0x2f, 0xfd}):
		zr, err := zstd.NewReader(idx.src)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		r = zr.IOReadCloser()
	}
	return tar.NewReader(r), nil
}

// variants lists the equivalent archive encodings of a logical path, literal
// form first.
func variants(p string) []string {
	v := []string{p, "." + p}
	if trimmed := strings.TrimPrefix(p, "/"); trimmed != p {
		v = append(v, trimmed)
	}
	return v
}

// Resolve looks up the entry for a logical path, trying the literal path and
// the rooted-prefix variants before reporting absence.
func (idx *Index) Resolve(p string) (*Entry, bool) {
	for _, cand := range variants(p) {
		if e, ok := idx.entries[cand]; ok {
			return e, true
		}
	}
	return nil, false
}

// List returns the names of all members below dir, relative to dir, merging
// the root-prefix encodings. Nested members are included with their relative
// path ("sub/unit.service").
func (idx *Index) List(dir string) []string {
	var out []string
	for _, name := range idx.names {
		for _, prefix := range variants(dir) {
			if rel, ok := strings.CutPrefix(name, prefix+"/"); ok && rel != "" {
				out = append(out, rel)
				break
			}
		}
	}
	return out
}

// LinkPath computes the logical path a symlink entry points at: absolute
// targets resolve from the archive root, relative targets from the link's
// containing directory.
func LinkPath(e *Entry) string {
	if strings.HasPrefix(e.LinkTarget, "/") {
		return path.Clean(e.LinkTarget)
	}
	return path.Join(path.Dir(logical(e.Name)), e.LinkTarget)
}

// logical maps an archive member name to its canonical rooted form.
func logical(name string) string {
	return "/" + strings.TrimPrefix(strings.TrimPrefix(name, "./"), "/")
}

// FollowLink resolves a symlink chain starting at e, one hop at a time, up
// to the hop limit. Non-symlink entries resolve to themselves.
func (idx *Index) FollowLink(e *Entry) Resolution {
	cur := e
	target := logical(e.Name)
	for hop := 0; hop < maxLinkHops; hop++ {
		if !cur.IsSymlink {
			return Resolution{State: ResolutionFound, Entry: cur, Target: target}
		}
		target = LinkPath(cur)
		next, ok := idx.Resolve(target)
		if !ok {
			return Resolution{State: ResolutionNotFound, Target: target}
		}
		cur = next
	}
	return Resolution{State: ResolutionCycle, Target: target}
}

// Extract reads the full content of a member previously returned by Resolve.
// The archive is re-scanned from the start, so extraction works regardless of
// how many members were read since.
func (idx *Index) Extract(e *Entry) ([]byte, error) {
	tr, err := idx.rewind()
	if err != nil {
		return nil, err
	}
	var content []byte
	found := false
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		if strings.TrimSuffix(hdr.Name, "/") != e.Name {
			continue
		}
		content, err = io.ReadAll(io.LimitReader(tr, maxExtractSize))
		if err != nil {
			return nil, fmt.Errorf("extract %q: %w", e.Name, err)
		}
		found = true
		// Keep scanning: a later duplicate member wins.
	}
	if !found {
		return nil, fmt.Errorf("extract %q: %w", e.Name, ErrNotFound)
	}
	return content, nil
}
