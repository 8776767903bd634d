// Package engine holds the Arch/Platform vocabulary carried over from the
// host compiler's target abstraction, trimmed to the surface vecloop's
// analysis-only platform plumbing actually needs: picking the SIMD vector
// width, object alignment, and misaligned-access support that seed an
// ir.Graph's limits (platform.go). It is never a real target matcher —
// there is no OS axis, no codegen, no object-file emission here (spec.md
// §14 Non-goals).
package engine

import (
	"fmt"
	"strings"
)

// Architecture type
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
	ArchARM64
	ArchRiscv64
)

func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchARM64:
		return "aarch64"
	case ArchRiscv64:
		return "riscv64"
	case ArchUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ParseArch parses an architecture string (like GOARCH values)
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "x86_64", "amd64", "x86-64":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	case "riscv64", "riscv", "rv64":
		return ArchRiscv64, nil
	default:
		return 0, fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64, riscv64)", s)
	}
}

// Platform represents the target architecture vecloop's illustrative
// default platform limits are seeded from.
type Platform struct {
	Arch Arch
}

// String returns a human-readable platform string
func (p Platform) String() string {
	return p.Arch.String()
}
