// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"runtime"
	"slices"
	"strings"
)

// Arch is a QEMU system emulation target as used in the "qemu-system-<arch>"
// executable names.
type Arch string

// Supported guest architectures.
const (
	X86_64      Arch = "x86_64"
	I386        Arch = "i386"
	AArch64     Arch = "aarch64"
	ARM         Arch = "arm"
	RISCV64     Arch = "riscv64"
	RISCV32     Arch = "riscv32"
	PPC         Arch = "ppc"
	PPC64       Arch = "ppc64"
	MIPS        Arch = "mips"
	MIPS64      Arch = "mips64"
	LoongArch64 Arch = "loongarch64"
	SPARC       Arch = "sparc"
	SPARC64     Arch = "sparc64"
	Alpha       Arch = "alpha"
	AVR         Arch = "avr"
	M68K        Arch = "m68k"
	HPPA        Arch = "hppa"
	S390X       Arch = "s390x"
	SH4         Arch = "sh4"
	OR1K        Arch = "or1k"
	Xtensa      Arch = "xtensa"
)

var knownArchs = []Arch{
	X86_64, I386, AArch64, ARM, RISCV64, RISCV32,
	PPC, PPC64, MIPS, MIPS64, LoongArch64, SPARC, SPARC64,
	Alpha, AVR, M68K, HPPA, S390X, SH4, OR1K, Xtensa,
}

// goarchMap maps Go architecture names to QEMU targets.
var goarchMap = map[string]Arch{
	"amd64":   X86_64,
	"386":     I386,
	"arm64":   AArch64,
	"arm":     ARM,
	"riscv64": RISCV64,
	"ppc64":   PPC64,
	"ppc64le": PPC64,
	"mips":    MIPS,
	"mipsle":  MIPS,
	"mips64":  MIPS64,
	"loong64": LoongArch64,
	"s390x":   S390X,
}

// archLabels maps descriptive architecture labels, as written by older
// configuration files, to QEMU targets.
var archLabels = map[string]Arch{
	"arm (64-bit)":    AArch64,
	"arm (32-bit)":    ARM,
	"risc-v (64-bit)": RISCV64,
	"risc-v (32-bit)": RISCV32,
}

// Native is the QEMU target matching the host. It is empty if the host
// architecture has no QEMU system target. Using the same architecture for the
// guest allows hardware acceleration, if available.
var Native = goarchMap[runtime.GOARCH]

// Archs returns all known architectures.
func Archs() []Arch {
	return slices.Clone(knownArchs)
}

// ParseArch parses a QEMU target name. Besides the plain names, it accepts
// descriptive labels like "Arm (64-bit)".
func ParseArch(s string) (Arch, bool) {
	s = strings.TrimSpace(s)

	if arch, exists := archLabels[strings.ToLower(s)]; exists {
		return arch, true
	}

	arch := Arch(s)
	if !arch.IsKnown() {
		return "", false
	}

	return arch, true
}

// String implements [fmt.Stringer].
func (a Arch) String() string {
	return string(a)
}

// IsKnown returns true if the architecture is a known QEMU target.
func (a Arch) IsKnown() bool {
	return slices.Contains(knownArchs, a)
}

// IsNative returns true if guests of this architecture can run on the host
// CPU without emulation. 32 bit x86 guests run natively on x86_64 hosts.
func (a Arch) IsNative() bool {
	if Native == "" {
		return false
	}

	if a == Native {
		return true
	}

	return Native == X86_64 && a == I386
}

// Executable returns the name of the QEMU system emulator binary for the
// architecture.
func (a Arch) Executable() string {
	return "qemu-system-" + string(a)
}

// DefaultMachine returns the usual machine type for the architecture.
func (a Arch) DefaultMachine() string {
	switch a {
	case X86_64, I386:
		return "q35"
	case AArch64, ARM, RISCV64, RISCV32, LoongArch64:
		return "virt"
	case PPC64:
		return "pseries"
	case S390X:
		return "s390-ccw-virtio"
	default:
		return ""
	}
}

// Set implements [flag.Value].
func (a *Arch) Set(s string) error {
	arch := Arch(s)
	if !arch.IsKnown() {
		return ErrArchNotSupported
	}

	*a = arch

	return nil
}

// Type implements the pflag.Value interface.
func (*Arch) Type() string {
	return "arch"
}
