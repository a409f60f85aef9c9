// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixture helpers shared by tests: in-memory tar
// archives shaped like distribution images, and minimal ELF binaries that
// parse cleanly through debug/elf.
package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"testing"
)

// ELF machine values used by fixtures, matching debug/elf constants.
const (
	MachineAmd64 uint16 = 0x3e
	MachineArm64 uint16 = 0xb7
)

// TarMember describes one member of a fixture archive.
type TarMember struct {
	// Name is the member name exactly as stored ("./etc/passwd", "/bin/sh").
	Name string
	// Mode holds the permission bits.
	Mode int64
	// UID and GID are the owning ids.
	UID int
	GID int
	// Content is the file body; ignored for symlinks and directories.
	Content []byte
	// Link makes the member a symlink with this target.
	Link string
	// Dir makes the member a directory.
	Dir bool
}

// BuildTar serializes members into an uncompressed tar archive.
func BuildTar(t testing.TB, members []TarMember) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{
			Name: m.Name,
			Mode: m.Mode,
			Uid:  m.UID,
			Gid:  m.GID,
		}
		switch {
		case m.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = m.Link
		case m.Dir:
			hdr.Typeflag = tar.TypeDir
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(m.Content))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header for %s: %v", m.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write(m.Content); err != nil {
				t.Fatalf("write tar content for %s: %v", m.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	return buf.Bytes()
}

// ELFBinary returns a minimal 64-bit little-endian ET_DYN ELF image for the
// given machine: just the 64-byte header, no sections or program headers.
func ELFBinary(machine uint16) []byte {
	buf := make([]byte, 64)
	copy(buf, []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT
	buf[7] = 0 // ELFOSABI_NONE

	le := binary.LittleEndian
	le.PutUint16(buf[16:], 3) // ET_DYN
	le.PutUint16(buf[18:], machine)
	le.PutUint32(buf[20:], 1)  // e_version
	le.PutUint16(buf[52:], 64) // e_ehsize
	le.PutUint16(buf[54:], 56) // e_phentsize
	le.PutUint16(buf[58:], 64) // e_shentsize
	return buf
}

// ImageMembers returns a fully-valid distribution image layout: expected
// modes and owners, a root account, and a symlinked /bin/sh. Tests mutate
// the returned slice to introduce the defect under test.
func ImageMembers(elfBinary []byte) []TarMember {
	return []TarMember{
		{Name: "./etc", Mode: 0o755, Dir: true},
		{Name: "./etc/wsl-distribution.conf", Mode: 0o644, Content: []byte("[oobe]\ndefaultuid = 1000\n")},
		{Name: "./etc/passwd", Mode: 0o644, Content: []byte("root:x:0:0:root:/root:/bin/bash\n")},
		{Name: "./etc/shadow", Mode: 0o640, Content: []byte("root:*:19000:0:99999:7:::\n")},
		{Name: "./bin", Mode: 0o755, Dir: true},
		{Name: "./bin/bash", Mode: 0o755, Content: elfBinary},
		{Name: "./bin/sh", Mode: 0o777, Link: "bash"},
	}
}
