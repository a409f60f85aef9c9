// SPDX-License-Identifier: MPL-2.0

package imagecheck

import (
	"bytes"
	"debug/elf"
	"fmt"
)

const (
	// SignatureELFAmd64 is the descriptor expected of x86-64 image binaries.
	SignatureELFAmd64 = "ELF 64-bit LSB pie executable, x86-64, version 1 (SYSV)"
	// SignatureELFArm64 is the descriptor expected of aarch64 image binaries.
	SignatureELFArm64 = "ELF 64-bit LSB pie executable, ARM aarch64, version 1 (SYSV)"

	// descriptorUnknown is reported for content that is not a readable ELF
	// binary, e.g. a script or a truncated file.
	descriptorUnknown = "unrecognized binary format"
)

// Descriptor derives a human-readable signature from an ELF binary's header,
// in the shape of the Signature* constants. Non-ELF content yields
// descriptorUnknown, which never matches an expected signature.
func Descriptor(content []byte) string {
	f, err := elf.NewFile(bytes.NewReader(content))
	if err != nil {
		return descriptorUnknown
	}
	defer f.Close()

	class := "32-bit"
	if f.Class == elf.ELFCLASS64 {
		class = "64-bit"
	}
	order := "LSB"
	if f.Data == elf.ELFDATA2MSB {
		order = "MSB"
	}

	var kind string
	switch f.Type {
	case elf.ET_EXEC:
		kind = "executable"
	case elf.ET_DYN:
		kind = "pie executable"
	case elf.ET_REL:
		kind = "relocatable"
	default:
		kind = f.Type.String()
	}

	var machine string
	switch f.Machine {
	case elf.EM_X86_64:
		machine = "x86-64"
	case elf.EM_AARCH64:
		machine = "ARM aarch64"
	case elf.EM_386:
		machine = "Intel 80386"
	default:
		machine = f.Machine.String()
	}

	abi := "SYSV"
	if f.OSABI == elf.ELFOSABI_LINUX {
		abi = "GNU/Linux"
	}

	return fmt.Sprintf("ELF %s %s %s, %s, version %d (%s)", class, order, kind, machine, int(f.Version), abi)
}
