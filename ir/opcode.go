// Package ir models the slice of a host compiler's intermediate
// representation that the vectorization analyzer needs: opcode-tagged
// nodes with typed operands, a control/loop owner, and the handful of
// capability hooks spec.md §6 calls out (membership, dominance, alias
// classification, value numbering, node creation).
//
// Real construction and ownership of the IR lives in the host compiler;
// this package only describes the shape the analyzer pattern-matches
// against, plus one concrete, in-memory Host (Graph) for tests and for
// embedders that have nothing fancier yet.
package ir

// Op tags the operation a Node performs.
type Op int

const (
	OpUnknown Op = iota

	// Values
	OpConst   // integer/long constant
	OpParam   // function parameter / opaque external value
	OpPhi     // data phi at a loop or region head
	OpMemPhi  // memory phi at a loop header
	OpTop     // IR's "unsafe reference" marker (spec.md §4.1)
	OpOpaqueLoopLimit

	// Address computation
	OpAddP // base + address + offset

	// Integer/long arithmetic
	OpAddI
	OpSubI
	OpMulI
	OpAddL
	OpSubL
	OpMulL
	OpLShiftI
	OpLShiftL
	OpRShiftI
	OpRShiftL
	OpURShiftI
	OpAbsI
	OpReverseBytes
	OpConvI2L
	OpCastII

	// Memory
	OpLoad
	OpStore
	OpLoadStore // atomic read-modify-write; always disallowed in a vector body
	OpMergeMem
	OpProj // projection out of a multi-value node (memory or data)

	// Comparison/boolean
	OpBool
	OpCmp

	// Control
	OpCountedLoop
	OpRegion
	OpIf
	OpIfTrue
	OpIfFalse
)

func (o Op) String() string {
	switch o {
	case OpConst:
		return "Const"
	case OpParam:
		return "Param"
	case OpPhi:
		return "Phi"
	case OpMemPhi:
		return "MemPhi"
	case OpTop:
		return "Top"
	case OpOpaqueLoopLimit:
		return "OpaqueLoopLimit"
	case OpAddP:
		return "AddP"
	case OpAddI:
		return "AddI"
	case OpSubI:
		return "SubI"
	case OpMulI:
		return "MulI"
	case OpAddL:
		return "AddL"
	case OpSubL:
		return "SubL"
	case OpMulL:
		return "MulL"
	case OpLShiftI:
		return "LShiftI"
	case OpLShiftL:
		return "LShiftL"
	case OpRShiftI:
		return "RShiftI"
	case OpRShiftL:
		return "RShiftL"
	case OpURShiftI:
		return "URShiftI"
	case OpAbsI:
		return "AbsI"
	case OpReverseBytes:
		return "ReverseBytes"
	case OpConvI2L:
		return "ConvI2L"
	case OpCastII:
		return "CastII"
	case OpLoad:
		return "Load"
	case OpStore:
		return "Store"
	case OpLoadStore:
		return "LoadStore"
	case OpMergeMem:
		return "MergeMem"
	case OpProj:
		return "Proj"
	case OpBool:
		return "Bool"
	case OpCmp:
		return "Cmp"
	case OpCountedLoop:
		return "CountedLoop"
	case OpRegion:
		return "Region"
	case OpIf:
		return "If"
	case OpIfTrue:
		return "IfTrue"
	case OpIfFalse:
		return "IfFalse"
	default:
		return "Unknown"
	}
}

// IsMemory reports whether op produces or consumes a memory-chain value.
func (o Op) IsMemory() bool {
	switch o {
	case OpLoad, OpStore, OpLoadStore, OpMemPhi, OpMergeMem:
		return true
	default:
		return false
	}
}

// IsIntArith reports whether op is an integer/long arithmetic or shift op
// eligible for narrow-type propagation (spec.md §4.7).
func (o Op) IsIntArith() bool {
	switch o {
	case OpAddI, OpSubI, OpMulI, OpAddL, OpSubL, OpMulL,
		OpLShiftI, OpLShiftL, OpRShiftI, OpRShiftL, OpURShiftI,
		OpAbsI, OpReverseBytes, OpConvI2L, OpCastII:
		return true
	default:
		return false
	}
}
