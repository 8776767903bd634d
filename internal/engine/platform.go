package engine

import "github.com/xyproto/vecloop/ir"

// DefaultVectorWidthBytes returns the SIMD vector width in bytes c67's own
// target.go (GetVectorWidth) assigns the architecture: AVX2 on x86-64,
// NEON on ARM64, a conservative 128-bit width on RISC-V's variable-width
// vector extension. vecloop only consumes this as illustrative default
// platform data for ir.Graph; it never drives an actual code generator
// (spec.md §14 Non-goals: "the platform matcher's own internals...are out
// of scope").
func DefaultVectorWidthBytes(p Platform) int {
	switch p.Arch {
	case ArchX86_64:
		return 32 // AVX/AVX2 ymm registers
	case ArchARM64:
		return 16 // NEON
	case ArchRiscv64:
		return 16 // conservative default for the V extension
	default:
		return 16
	}
}

// DefaultObjectAlignmentBytes is the object base-address alignment a host
// allocator on this platform guarantees; 16 bytes covers every target
// arch.go enumerates.
func DefaultObjectAlignmentBytes(p Platform) int {
	return 16
}

// SupportsMisalignedVectors reports whether p's architecture can issue
// unaligned vector loads/stores without a fault, mirroring the
// SupportsAVX/SupportsNEON capability split of c67's target.go: x86-64
// tolerates misaligned vector access, ARM64 NEON and the RISC-V vector
// extension are assumed not to (conservative default).
func SupportsMisalignedVectors(p Platform) bool {
	return p.Arch == ArchX86_64
}

// NewDefaultGraph builds an ir.Graph preconfigured with p's illustrative
// platform limits, the same role c67's GetDefaultTarget/PlatformToTarget
// play for its code generator, here repurposed to seed an analysis-only
// Host instead of a target for instruction selection.
func NewDefaultGraph(p Platform) *ir.Graph {
	g := ir.NewGraph()
	g.SetObjectAlignment(DefaultObjectAlignmentBytes(p))
	g.SetMisalignedVectorsOK(SupportsMisalignedVectors(p))
	width := DefaultVectorWidthBytes(p)
	for _, k := range []ir.Kind{
		ir.KindBool, ir.KindByte, ir.KindUByte, ir.KindShort,
		ir.KindChar, ir.KindInt, ir.KindLong,
	} {
		g.SetVectorWidth(k, width)
	}
	return g
}
